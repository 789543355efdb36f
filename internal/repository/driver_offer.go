package repository

import (
	"context"

	"ride/internal/domain"
)

// DriverOfferRepository defines the persistence operations for the
// per-driver invitation associated with a trip.
type DriverOfferRepository interface {
	// Create persists a new offer.
	Create(ctx context.Context, offer *domain.DriverOffer) error

	// GetByTripID retrieves the offer for a trip.
	GetByTripID(ctx context.Context, tripID string) (*domain.DriverOffer, error)

	// UpdateStatus transitions an offer's status.
	UpdateStatus(ctx context.Context, id string, status domain.DriverOfferStatus) error
}
