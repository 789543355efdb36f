package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ride/internal/domain"
	"ride/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository scoped to a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, request_id, passenger_id, driver_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	estimated_distance_km, estimated_duration_min, estimated_price_ils, status, payment_method, fare_amount,
	payment_status, cancellation_reason, cancelled_by, created_at, accepted_at, arrived_at, started_at,
	completed_at, cancelled_at, paid_at`

func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `INSERT INTO trips (` + tripColumns + `) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)`
	_, err := r.q.ExecContext(ctx, query,
		trip.ID, trip.RequestID, trip.PassengerID, trip.DriverID,
		trip.PickupLat, trip.PickupLng, trip.DropoffLat, trip.DropoffLng,
		trip.EstimatedDistanceKm, trip.EstimatedDurationMin, trip.EstimatedPriceIls,
		trip.Status, trip.PaymentMethod, trip.FareAmount, trip.PaymentStatus,
		nullString(trip.CancellationReason), nullString(trip.CancelledBy), trip.CreatedAt,
		nullTime(trip.AcceptedAt), nullTime(trip.ArrivedAt), nullTime(trip.StartedAt),
		nullTime(trip.CompletedAt), nullTime(trip.CancelledAt), nullTime(trip.PaidAt),
	)
	return err
}

func scanTrip(row *sql.Row) (*domain.Trip, error) {
	var t domain.Trip
	var cancellationReason, cancelledBy sql.NullString
	var acceptedAt, arrivedAt, startedAt, completedAt, cancelledAt, paidAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.RequestID, &t.PassengerID, &t.DriverID,
		&t.PickupLat, &t.PickupLng, &t.DropoffLat, &t.DropoffLng,
		&t.EstimatedDistanceKm, &t.EstimatedDurationMin, &t.EstimatedPriceIls,
		&t.Status, &t.PaymentMethod, &t.FareAmount, &t.PaymentStatus,
		&cancellationReason, &cancelledBy, &t.CreatedAt,
		&acceptedAt, &arrivedAt, &startedAt, &completedAt, &cancelledAt, &paidAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	t.CancellationReason = cancellationReason.String
	t.CancelledBy = cancelledBy.String
	t.AcceptedAt = timeOrNil(acceptedAt)
	t.ArrivedAt = timeOrNil(arrivedAt)
	t.StartedAt = timeOrNil(startedAt)
	t.CompletedAt = timeOrNil(completedAt)
	t.CancelledAt = timeOrNil(cancelledAt)
	t.PaidAt = timeOrNil(paidAt)
	return &t, nil
}

func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

func (r *TripRepository) GetForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`
	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY created_at DESC LIMIT 100`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		var t domain.Trip
		var cancellationReason, cancelledBy sql.NullString
		var acceptedAt, arrivedAt, startedAt, completedAt, cancelledAt, paidAt sql.NullTime
		if err := rows.Scan(
			&t.ID, &t.RequestID, &t.PassengerID, &t.DriverID,
			&t.PickupLat, &t.PickupLng, &t.DropoffLat, &t.DropoffLng,
			&t.EstimatedDistanceKm, &t.EstimatedDurationMin, &t.EstimatedPriceIls,
			&t.Status, &t.PaymentMethod, &t.FareAmount, &t.PaymentStatus,
			&cancellationReason, &cancelledBy, &t.CreatedAt,
			&acceptedAt, &arrivedAt, &startedAt, &completedAt, &cancelledAt, &paidAt,
		); err != nil {
			return nil, err
		}
		t.CancellationReason = cancellationReason.String
		t.CancelledBy = cancelledBy.String
		t.AcceptedAt = timeOrNil(acceptedAt)
		t.ArrivedAt = timeOrNil(arrivedAt)
		t.StartedAt = timeOrNil(startedAt)
		t.CompletedAt = timeOrNil(completedAt)
		t.CancelledAt = timeOrNil(cancelledAt)
		t.PaidAt = timeOrNil(paidAt)
		trips = append(trips, &t)
	}
	return trips, rows.Err()
}

func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `UPDATE trips SET status=$1, fare_amount=$2, payment_status=$3, cancellation_reason=$4,
		cancelled_by=$5, accepted_at=$6, arrived_at=$7, started_at=$8, completed_at=$9, cancelled_at=$10, paid_at=$11
		WHERE id=$12`
	result, err := r.q.ExecContext(ctx, query,
		trip.Status, trip.FareAmount, trip.PaymentStatus,
		nullString(trip.CancellationReason), nullString(trip.CancelledBy),
		nullTime(trip.AcceptedAt), nullTime(trip.ArrivedAt), nullTime(trip.StartedAt),
		nullTime(trip.CompletedAt), nullTime(trip.CancelledAt), nullTime(trip.PaidAt),
		trip.ID,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

func (r *TripRepository) HasActiveForPassenger(ctx context.Context, passengerID string) (bool, error) {
	return r.hasActive(ctx, "passenger_id", passengerID)
}

func (r *TripRepository) HasActiveForDriver(ctx context.Context, driverID string) (bool, error) {
	return r.hasActive(ctx, "driver_id", driverID)
}

func (r *TripRepository) hasActive(ctx context.Context, column, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM trips WHERE ` + column + ` = $1 AND status IN ($2,$3,$4,$5))`
	var exists bool
	err := r.q.QueryRowContext(ctx, query, id,
		domain.TripStatusPending, domain.TripStatusAccepted,
		domain.TripStatusDriverArrived, domain.TripStatusInProgress,
	).Scan(&exists)
	return exists, err
}

func (r *TripRepository) ListAcceptedOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE status = $1 AND accepted_at < $2`
	rows, err := r.q.QueryContext(ctx, query, domain.TripStatusAccepted, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		var t domain.Trip
		var cancellationReason, cancelledBy sql.NullString
		var acceptedAt, arrivedAt, startedAt, completedAt, cancelledAt, paidAt sql.NullTime
		if err := rows.Scan(
			&t.ID, &t.RequestID, &t.PassengerID, &t.DriverID,
			&t.PickupLat, &t.PickupLng, &t.DropoffLat, &t.DropoffLng,
			&t.EstimatedDistanceKm, &t.EstimatedDurationMin, &t.EstimatedPriceIls,
			&t.Status, &t.PaymentMethod, &t.FareAmount, &t.PaymentStatus,
			&cancellationReason, &cancelledBy, &t.CreatedAt,
			&acceptedAt, &arrivedAt, &startedAt, &completedAt, &cancelledAt, &paidAt,
		); err != nil {
			return nil, err
		}
		t.CancellationReason = cancellationReason.String
		t.CancelledBy = cancelledBy.String
		t.AcceptedAt = timeOrNil(acceptedAt)
		t.ArrivedAt = timeOrNil(arrivedAt)
		t.StartedAt = timeOrNil(startedAt)
		t.CompletedAt = timeOrNil(completedAt)
		t.CancelledAt = timeOrNil(cancelledAt)
		t.PaidAt = timeOrNil(paidAt)
		trips = append(trips, &t)
	}
	return trips, rows.Err()
}

var _ repository.TripRepository = (*TripRepository)(nil)

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timeOrNil(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	tt := t.Time
	return &tt
}
