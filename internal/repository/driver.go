package repository

import (
	"context"

	"ride/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver with the IsOnline/IsAvailable flags the caller
	// set; DriverService registers drivers offline and available.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByPhone retrieves a driver by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.Driver, error)

	// GetAll retrieves all drivers.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// SetOnline flips IsOnline. Going offline never touches IsAvailable or
	// CurrentTripID; those are owned exclusively by the matching engine and
	// the trip state machine.
	SetOnline(ctx context.Context, id string, online bool) error

	// UpdateLocation records the driver's last reported position.
	UpdateLocation(ctx context.Context, id string, lat, lng float64) error

	// Claim marks the driver unavailable and assigns the current trip. It
	// fails with ErrNotFound if the driver is no longer online+available,
	// which the matching engine treats as a lost claim race.
	Claim(ctx context.Context, id, tripID string) error

	// Release marks the driver available again and clears the current
	// trip. Called by the trip state machine whenever a trip reaches a
	// terminal status.
	Release(ctx context.Context, id string) error
}
