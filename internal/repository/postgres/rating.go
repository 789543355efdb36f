package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride/internal/domain"
	"ride/internal/repository"
)

// RatingRepository is a PostgreSQL implementation of repository.RatingRepository.
type RatingRepository struct {
	q Querier
}

func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{q: db}
}

func NewRatingRepositoryWithTx(tx *sql.Tx) *RatingRepository {
	return &RatingRepository{q: tx}
}

func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `INSERT INTO ratings (id, trip_id, passenger_id, driver_id, score, comment, created_at)
	          VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.q.ExecContext(ctx, query, rating.ID, rating.TripID, rating.PassengerID,
		rating.DriverID, rating.Score, rating.Comment, rating.CreatedAt)
	return err
}

func (r *RatingRepository) GetByTripID(ctx context.Context, tripID string) (*domain.Rating, error) {
	query := `SELECT id, trip_id, passenger_id, driver_id, score, comment, created_at FROM ratings WHERE trip_id = $1`
	var rt domain.Rating
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(&rt.ID, &rt.TripID, &rt.PassengerID, &rt.DriverID, &rt.Score, &rt.Comment, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rt, nil
}

var _ repository.RatingRepository = (*RatingRepository)(nil)
