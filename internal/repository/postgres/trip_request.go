package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ride/internal/domain"
	"ride/internal/repository"
)

// TripRequestRepository is a PostgreSQL implementation of repository.TripRequestRepository.
type TripRequestRepository struct {
	q Querier
}

func NewTripRequestRepository(db *sql.DB) *TripRequestRepository {
	return &TripRequestRepository{q: db}
}

func NewTripRequestRepositoryWithTx(tx *sql.Tx) *TripRequestRepository {
	return &TripRequestRepository{q: tx}
}

const tripRequestColumns = `id, passenger_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	estimated_distance_km, estimated_duration_min, estimated_price_ils, status,
	matched_driver_id, matched_trip_id, matched_at, created_at`

func (r *TripRequestRepository) Create(ctx context.Context, req *domain.TripRequest) error {
	query := `INSERT INTO trip_requests (` + tripRequestColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := r.q.ExecContext(ctx, query,
		req.ID, req.PassengerID, req.PickupLat, req.PickupLng, req.DropoffLat, req.DropoffLng,
		req.EstimatedDistanceKm, req.EstimatedDurationMin, req.EstimatedPriceIls, req.Status,
		nullString(derefString(req.MatchedDriverID)), nullString(derefString(req.MatchedTripID)),
		nullTime(req.MatchedAt), req.CreatedAt,
	)
	return err
}

func scanTripRequest(row *sql.Row) (*domain.TripRequest, error) {
	var tr domain.TripRequest
	var matchedDriverID, matchedTripID sql.NullString
	var matchedAt sql.NullTime

	err := row.Scan(&tr.ID, &tr.PassengerID, &tr.PickupLat, &tr.PickupLng, &tr.DropoffLat, &tr.DropoffLng,
		&tr.EstimatedDistanceKm, &tr.EstimatedDurationMin, &tr.EstimatedPriceIls, &tr.Status,
		&matchedDriverID, &matchedTripID, &matchedAt, &tr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if matchedDriverID.Valid {
		v := matchedDriverID.String
		tr.MatchedDriverID = &v
	}
	if matchedTripID.Valid {
		v := matchedTripID.String
		tr.MatchedTripID = &v
	}
	tr.MatchedAt = timeOrNil(matchedAt)
	return &tr, nil
}

func (r *TripRequestRepository) GetByID(ctx context.Context, id string) (*domain.TripRequest, error) {
	query := `SELECT ` + tripRequestColumns + ` FROM trip_requests WHERE id = $1`
	return scanTripRequest(r.q.QueryRowContext(ctx, query, id))
}

func (r *TripRequestRepository) Update(ctx context.Context, req *domain.TripRequest) error {
	query := `UPDATE trip_requests SET status=$1, matched_driver_id=$2, matched_trip_id=$3, matched_at=$4 WHERE id=$5`
	result, err := r.q.ExecContext(ctx, query, req.Status,
		nullString(derefString(req.MatchedDriverID)), nullString(derefString(req.MatchedTripID)),
		nullTime(req.MatchedAt), req.ID)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

func (r *TripRequestRepository) ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.TripRequest, error) {
	query := `SELECT ` + tripRequestColumns + ` FROM trip_requests WHERE status = $1 AND created_at < $2`
	rows, err := r.q.QueryContext(ctx, query, domain.TripRequestStatusOpen, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*domain.TripRequest
	for rows.Next() {
		var tr domain.TripRequest
		var matchedDriverID, matchedTripID sql.NullString
		var matchedAt sql.NullTime
		if err := rows.Scan(&tr.ID, &tr.PassengerID, &tr.PickupLat, &tr.PickupLng, &tr.DropoffLat, &tr.DropoffLng,
			&tr.EstimatedDistanceKm, &tr.EstimatedDurationMin, &tr.EstimatedPriceIls, &tr.Status,
			&matchedDriverID, &matchedTripID, &matchedAt, &tr.CreatedAt); err != nil {
			return nil, err
		}
		if matchedDriverID.Valid {
			v := matchedDriverID.String
			tr.MatchedDriverID = &v
		}
		if matchedTripID.Valid {
			v := matchedTripID.String
			tr.MatchedTripID = &v
		}
		tr.MatchedAt = timeOrNil(matchedAt)
		reqs = append(reqs, &tr)
	}
	return reqs, rows.Err()
}

var _ repository.TripRequestRepository = (*TripRequestRepository)(nil)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
