package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride/internal/domain"
	"ride/internal/repository"
)

// SystemConfigRepository is a PostgreSQL implementation of repository.SystemConfigRepository.
// The config lives in a single row keyed by a fixed id so Get/Upsert never
// need to discover a primary key.
type SystemConfigRepository struct {
	q Querier
}

func NewSystemConfigRepository(db *sql.DB) *SystemConfigRepository {
	return &SystemConfigRepository{q: db}
}

func NewSystemConfigRepositoryWithTx(tx *sql.Tx) *SystemConfigRepository {
	return &SystemConfigRepository{q: tx}
}

const systemConfigRowID = "singleton"

func (r *SystemConfigRepository) Get(ctx context.Context) (*domain.SystemConfig, error) {
	query := `SELECT trips_enabled, roadblocks_enabled, payments_enabled,
		driver_response_timeout_sec, search_timeout_sec, driver_arrival_timeout_sec,
		max_active_trips_per_driver, max_active_trips_per_passenger, max_search_radius_km,
		min_fare_ils, rate_per_km, updated_at, updated_by
		FROM system_config WHERE id = $1`

	var cfg domain.SystemConfig
	var driverResponseSec, searchSec, arrivalSec int64
	err := r.q.QueryRowContext(ctx, query, systemConfigRowID).Scan(
		&cfg.TripsEnabled, &cfg.RoadblocksEnabled, &cfg.PaymentsEnabled,
		&driverResponseSec, &searchSec, &arrivalSec,
		&cfg.MaxActiveTripsPerDriver, &cfg.MaxActiveTripsPerPassenger, &cfg.MaxSearchRadiusKm,
		&cfg.MinFareIls, &cfg.RatePerKm, &cfg.UpdatedAt, &cfg.UpdatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := domain.DefaultSystemConfig()
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.DriverResponseTimeout = secondsToDuration(driverResponseSec)
	cfg.SearchTimeout = secondsToDuration(searchSec)
	cfg.DriverArrivalTimeout = secondsToDuration(arrivalSec)
	return &cfg, nil
}

func (r *SystemConfigRepository) Upsert(ctx context.Context, cfg *domain.SystemConfig) error {
	query := `INSERT INTO system_config (
		id, trips_enabled, roadblocks_enabled, payments_enabled,
		driver_response_timeout_sec, search_timeout_sec, driver_arrival_timeout_sec,
		max_active_trips_per_driver, max_active_trips_per_passenger, max_search_radius_km,
		min_fare_ils, rate_per_km, updated_at, updated_by
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	ON CONFLICT (id) DO UPDATE SET
		trips_enabled = $2, roadblocks_enabled = $3, payments_enabled = $4,
		driver_response_timeout_sec = $5, search_timeout_sec = $6, driver_arrival_timeout_sec = $7,
		max_active_trips_per_driver = $8, max_active_trips_per_passenger = $9, max_search_radius_km = $10,
		min_fare_ils = $11, rate_per_km = $12, updated_at = $13, updated_by = $14`

	_, err := r.q.ExecContext(ctx, query,
		systemConfigRowID, cfg.TripsEnabled, cfg.RoadblocksEnabled, cfg.PaymentsEnabled,
		int64(cfg.DriverResponseTimeout.Seconds()), int64(cfg.SearchTimeout.Seconds()), int64(cfg.DriverArrivalTimeout.Seconds()),
		cfg.MaxActiveTripsPerDriver, cfg.MaxActiveTripsPerPassenger, cfg.MaxSearchRadiusKm,
		cfg.MinFareIls, cfg.RatePerKm, cfg.UpdatedAt, cfg.UpdatedBy,
	)
	return err
}

var _ repository.SystemConfigRepository = (*SystemConfigRepository)(nil)
