package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride/internal/domain"
	"ride/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository scoped to a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `INSERT INTO drivers (id, name, phone, is_online, is_available, updated_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.ExecContext(ctx, query, driver.ID, driver.Name, driver.Phone,
		driver.IsOnline, driver.IsAvailable, driver.UpdatedAt, driver.CreatedAt)
	return err
}

func scanDriver(row *sql.Row) (*domain.Driver, error) {
	var d domain.Driver
	var lastLat, lastLng sql.NullFloat64
	var currentTripID sql.NullString

	err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.IsOnline, &d.IsAvailable,
		&lastLat, &lastLng, &currentTripID, &d.UpdatedAt, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if lastLat.Valid && lastLng.Valid {
		lat, lng := lastLat.Float64, lastLng.Float64
		d.LastLat, d.LastLng = &lat, &lng
	}
	if currentTripID.Valid {
		id := currentTripID.String
		d.CurrentTripID = &id
	}
	return &d, nil
}

const driverColumns = `id, name, phone, is_online, is_available, last_lat, last_lng, current_trip_id, updated_at, created_at`

func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, id))
}

func (r *DriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE phone = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, phone))
}

func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var d domain.Driver
		var lastLat, lastLng sql.NullFloat64
		var currentTripID sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.IsOnline, &d.IsAvailable,
			&lastLat, &lastLng, &currentTripID, &d.UpdatedAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		if lastLat.Valid && lastLng.Valid {
			lat, lng := lastLat.Float64, lastLng.Float64
			d.LastLat, d.LastLng = &lat, &lng
		}
		if currentTripID.Valid {
			tid := currentTripID.String
			d.CurrentTripID = &tid
		}
		drivers = append(drivers, &d)
	}
	return drivers, rows.Err()
}

func (r *DriverRepository) SetOnline(ctx context.Context, id string, online bool) error {
	query := `UPDATE drivers SET is_online = $1, updated_at = now() WHERE id = $2`
	result, err := r.q.ExecContext(ctx, query, online, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

func (r *DriverRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64) error {
	query := `UPDATE drivers SET last_lat = $1, last_lng = $2, updated_at = now() WHERE id = $3`
	result, err := r.q.ExecContext(ctx, query, lat, lng, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// Claim is only ever called from inside the matching engine's claim
// transaction; the WHERE clause re-verifies availability atomically with the
// update, which is what makes the claim race-safe.
func (r *DriverRepository) Claim(ctx context.Context, id, tripID string) error {
	query := `UPDATE drivers SET is_available = false, current_trip_id = $1, updated_at = now()
	          WHERE id = $2 AND is_online = true AND is_available = true`
	result, err := r.q.ExecContext(ctx, query, tripID, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

func (r *DriverRepository) Release(ctx context.Context, id string) error {
	query := `UPDATE drivers SET is_available = true, current_trip_id = NULL, updated_at = now() WHERE id = $1`
	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
