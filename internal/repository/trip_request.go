package repository

import (
	"context"
	"time"

	"ride/internal/domain"
)

// TripRequestRepository defines the persistence operations for passenger
// admission records.
type TripRequestRepository interface {
	// Create persists a new trip request.
	Create(ctx context.Context, req *domain.TripRequest) error

	// GetByID retrieves a trip request by ID.
	GetByID(ctx context.Context, id string) (*domain.TripRequest, error)

	// Update persists a status/match change.
	Update(ctx context.Context, req *domain.TripRequest) error

	// ListOpenOlderThan returns trip requests still open and created before
	// the given cutoff, for the sweeper's unmatched-request expiry pass.
	ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.TripRequest, error)
}
