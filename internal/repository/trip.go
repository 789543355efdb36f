package repository

import (
	"context"
	"time"

	"ride/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetForUpdate retrieves a trip by ID with a row lock, for use inside a
	// transaction that is about to apply a state transition. It serializes
	// concurrent transitions on the same trip: a second caller blocks here
	// until the first transaction commits, then reads the post-commit row.
	GetForUpdate(ctx context.Context, id string) (*domain.Trip, error)

	// GetAll retrieves trips; the Postgres implementation returns the 100
	// most recently created, newest first.
	GetAll(ctx context.Context) ([]*domain.Trip, error)

	// Update persists the full trip row after a state transition.
	Update(ctx context.Context, trip *domain.Trip) error

	// HasActiveForPassenger reports whether the passenger already has a
	// trip in one of the active statuses (pilot cap enforcement).
	HasActiveForPassenger(ctx context.Context, passengerID string) (bool, error)

	// HasActiveForDriver reports whether the driver already has a trip in
	// one of the active statuses.
	HasActiveForDriver(ctx context.Context, driverID string) (bool, error)

	// ListAcceptedOlderThan returns trips in the accepted status whose
	// AcceptedAt predates the cutoff, for the sweeper's no-show pass.
	ListAcceptedOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Trip, error)
}
