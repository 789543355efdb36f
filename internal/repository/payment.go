package repository

import (
	"context"

	"ride/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment. The caller is responsible for using
	// domain.PaymentID(tripID) as Payment.ID so completion is idempotent.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByTripID retrieves the payment for a trip, if any.
	GetByTripID(ctx context.Context, tripID string) (*domain.Payment, error)

	// UpdateStatus transitions a payment's status.
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error
}
