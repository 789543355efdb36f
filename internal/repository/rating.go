package repository

import (
	"context"

	"ride/internal/domain"
)

// RatingRepository defines the persistence operations for post-trip ratings.
type RatingRepository interface {
	// Create persists a new rating.
	Create(ctx context.Context, rating *domain.Rating) error

	// GetByTripID retrieves the rating left for a trip, if any.
	GetByTripID(ctx context.Context, tripID string) (*domain.Rating, error)
}
