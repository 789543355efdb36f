package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride/internal/domain"
	"ride/internal/repository"
)

// DriverOfferRepository is a PostgreSQL implementation of repository.DriverOfferRepository.
type DriverOfferRepository struct {
	q Querier
}

func NewDriverOfferRepository(db *sql.DB) *DriverOfferRepository {
	return &DriverOfferRepository{q: db}
}

func NewDriverOfferRepositoryWithTx(tx *sql.Tx) *DriverOfferRepository {
	return &DriverOfferRepository{q: tx}
}

func (r *DriverOfferRepository) Create(ctx context.Context, offer *domain.DriverOffer) error {
	query := `INSERT INTO driver_offers (id, trip_id, driver_id, status, created_at, expires_at)
	          VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.q.ExecContext(ctx, query, offer.ID, offer.TripID, offer.DriverID, offer.Status, offer.CreatedAt, offer.ExpiresAt)
	return err
}

func (r *DriverOfferRepository) GetByTripID(ctx context.Context, tripID string) (*domain.DriverOffer, error) {
	query := `SELECT id, trip_id, driver_id, status, created_at, expires_at FROM driver_offers WHERE trip_id = $1`
	var o domain.DriverOffer
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(&o.ID, &o.TripID, &o.DriverID, &o.Status, &o.CreatedAt, &o.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *DriverOfferRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverOfferStatus) error {
	query := `UPDATE driver_offers SET status = $1 WHERE id = $2`
	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

var _ repository.DriverOfferRepository = (*DriverOfferRepository)(nil)
