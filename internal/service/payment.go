package service

import (
	"context"
	"database/sql"

	"ride/internal/clock"
	"ride/internal/domain"
	"ride/internal/repository"
	"ride/internal/repository/postgres"
)

// PaymentFinalizer implements confirmCashPayment (C11). The Payment record
// itself is created idempotently by the trip state machine's completeTrip
// transition; this service only advances it to paid.
type PaymentFinalizer struct {
	db                  *sql.DB
	tripRepo            repository.TripRepository
	paymentRepo         repository.PaymentRepository
	notificationService *NotificationService
	clock               clock.Clock
}

func NewPaymentFinalizer(db *sql.DB, tripRepo repository.TripRepository, paymentRepo repository.PaymentRepository, notificationService *NotificationService, clk clock.Clock) *PaymentFinalizer {
	return &PaymentFinalizer{db: db, tripRepo: tripRepo, paymentRepo: paymentRepo, notificationService: notificationService, clock: clk}
}

// ConfirmCashPayment implements confirmCashPayment: caller must be the
// trip's driver; trip must be completed; paymentStatus must still be pending.
func (s *PaymentFinalizer) ConfirmCashPayment(ctx context.Context, tripID, driverID string) (*domain.Payment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	txTripRepo := postgres.NewTripRepositoryWithTx(tx)
	txPaymentRepo := postgres.NewPaymentRepositoryWithTx(tx)

	trip, err := txTripRepo.GetForUpdate(ctx, tripID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, NewError(KindNotFound, "trip not found")
		}
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, Forbidden("only the assigned driver may confirm payment for this trip", string(trip.Status))
	}
	if trip.Status != domain.TripStatusCompleted {
		return nil, ErrTripNotCompleted
	}
	if trip.PaymentStatus != domain.TripPaymentStatusPending {
		return nil, ErrAlreadyPaid
	}

	now := s.clock.Now()
	trip.PaymentStatus = domain.TripPaymentStatusPaid
	trip.PaidAt = &now
	if err := txTripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	payment, err := txPaymentRepo.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, NewError(KindInternal, "payment record missing for completed trip")
	}
	if err := txPaymentRepo.UpdateStatus(ctx, payment.ID, domain.PaymentStatusPaid); err != nil {
		return nil, err
	}
	payment.Status = domain.PaymentStatusPaid
	payment.UpdatedAt = now

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if s.notificationService != nil {
		_ = s.notificationService.NotifyPaymentPaid(ctx, payment)
	}

	return payment, nil
}

// GetPayment retrieves a payment by trip ID.
func (s *PaymentFinalizer) GetPayment(ctx context.Context, tripID string) (*domain.Payment, error) {
	if tripID == "" {
		return nil, NewError(KindInvalidArgument, "tripId is required")
	}
	return s.paymentRepo.GetByTripID(ctx, tripID)
}
