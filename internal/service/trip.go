package service

import (
	"context"
	"database/sql"

	"ride/internal/clock"
	"ride/internal/domain"
	"ride/internal/repository"
	"ride/internal/repository/postgres"
)

// TripService implements the trip state machine (C8): every exported method
// runs its pre-state and actor checks, applies the transition, and releases
// the driver on any terminal outcome, all inside one transaction per call.
type TripService struct {
	db                  *sql.DB
	tripRepo            repository.TripRepository
	driverRepo          repository.DriverRepository
	offerRepo           repository.DriverOfferRepository
	paymentRepo         repository.PaymentRepository
	notificationService *NotificationService
	clock               clock.Clock
}

func NewTripService(
	db *sql.DB,
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	offerRepo repository.DriverOfferRepository,
	paymentRepo repository.PaymentRepository,
	notificationService *NotificationService,
	clk clock.Clock,
) *TripService {
	return &TripService{
		db:                  db,
		tripRepo:            tripRepo,
		driverRepo:          driverRepo,
		offerRepo:           offerRepo,
		paymentRepo:         paymentRepo,
		notificationService: notificationService,
		clock:               clk,
	}
}

// txRepos bundles the transaction-scoped repositories every transition needs.
type txRepos struct {
	trip    *postgres.TripRepository
	driver  *postgres.DriverRepository
	offer   *postgres.DriverOfferRepository
	payment *postgres.PaymentRepository
}

func (s *TripService) begin(ctx context.Context) (*sql.Tx, txRepos, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, txRepos{}, err
	}
	return tx, txRepos{
		trip:    postgres.NewTripRepositoryWithTx(tx),
		driver:  postgres.NewDriverRepositoryWithTx(tx),
		offer:   postgres.NewDriverOfferRepositoryWithTx(tx),
		payment: postgres.NewPaymentRepositoryWithTx(tx),
	}, nil
}

// releaseDriver marks the driver available again. Called in every transition
// that lands on a terminal trip status.
func (s *TripService) releaseDriver(ctx context.Context, repos txRepos, driverID string) error {
	if err := repos.driver.Release(ctx, driverID); err != nil && err != repository.ErrNotFound {
		return err
	}
	return nil
}

// cancelPendingOffer sets a still-pending offer to the given terminal status,
// tolerating an offer that no longer exists or already left pending.
func (s *TripService) cancelPendingOffer(ctx context.Context, repos txRepos, tripID string, status domain.DriverOfferStatus) error {
	offer, err := repos.offer.GetByTripID(ctx, tripID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil
		}
		return err
	}
	if offer.Status.IsTerminal() {
		return nil
	}
	return repos.offer.UpdateStatus(ctx, offer.ID, status)
}

// AcceptOffer implements acceptOffer(driver): pending -> accepted.
func (s *TripService) AcceptOffer(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	var result *domain.Trip
	err := s.inTx(ctx, func(repos txRepos) error {
		trip, err := repos.trip.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.DriverID != driverID {
			return Forbidden("only the assigned driver may accept this trip", string(trip.Status))
		}
		if trip.Status != domain.TripStatusPending {
			return Forbidden("trip is not awaiting acceptance", string(trip.Status))
		}

		offer, err := repos.offer.GetByTripID(ctx, tripID)
		if err != nil {
			return err
		}
		if offer.Status != domain.DriverOfferStatusPending {
			return Forbidden("offer is no longer pending", string(trip.Status))
		}
		if err := repos.offer.UpdateStatus(ctx, offer.ID, domain.DriverOfferStatusAccepted); err != nil {
			return err
		}

		now := s.clock.Now()
		trip.Status = domain.TripStatusAccepted
		trip.AcceptedAt = &now
		if err := repos.trip.Update(ctx, trip); err != nil {
			return err
		}
		result = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyTripAccepted(ctx, result)
	}
	return result, nil
}

// RejectOffer implements rejectOffer(driver): pending -> no_driver_available.
// Rejecting an already-terminal offer is idempotent and returns success with
// no further state change; the core never auto-redispatches.
func (s *TripService) RejectOffer(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	var result *domain.Trip
	err := s.inTx(ctx, func(repos txRepos) error {
		trip, err := repos.trip.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.DriverID != driverID {
			return Forbidden("only the assigned driver may reject this trip", string(trip.Status))
		}

		offer, err := repos.offer.GetByTripID(ctx, tripID)
		if err != nil && err != repository.ErrNotFound {
			return err
		}
		if offer != nil && offer.Status.IsTerminal() {
			result = trip
			return nil
		}
		if offer != nil {
			if err := repos.offer.UpdateStatus(ctx, offer.ID, domain.DriverOfferStatusRejected); err != nil {
				return err
			}
		}

		if trip.Status != domain.TripStatusPending {
			return Forbidden("trip is not awaiting a driver response", string(trip.Status))
		}

		trip.Status = domain.TripStatusNoDriverAvailable
		if err := repos.trip.Update(ctx, trip); err != nil {
			return err
		}
		if err := s.releaseDriver(ctx, repos, driverID); err != nil {
			return err
		}
		result = trip
		return nil
	})
	return result, err
}

// DriverArrived implements driverArrived(driver): accepted -> driver_arrived.
func (s *TripService) DriverArrived(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	trip, err := s.simpleTransition(ctx, tripID, driverID, domain.TripStatusAccepted, domain.TripStatusDriverArrived,
		"only the assigned driver may report arrival")
	if err != nil {
		return nil, err
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyDriverArrived(ctx, trip)
	}
	return trip, nil
}

// StartTrip implements startTrip(driver): driver_arrived -> in_progress.
func (s *TripService) StartTrip(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	trip, err := s.simpleTransition(ctx, tripID, driverID, domain.TripStatusDriverArrived, domain.TripStatusInProgress,
		"only the assigned driver may start this trip")
	if err != nil {
		return nil, err
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyTripStarted(ctx, trip)
	}
	return trip, nil
}

// simpleTransition covers the two driver-only transitions that carry no side
// effects beyond the status/timestamp update: driverArrived, startTrip.
func (s *TripService) simpleTransition(
	ctx context.Context, tripID, driverID string,
	fromStatus, toStatus domain.TripStatus,
	forbiddenMsg string,
) (*domain.Trip, error) {
	var result *domain.Trip
	err := s.inTx(ctx, func(repos txRepos) error {
		trip, err := repos.trip.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.DriverID != driverID {
			return Forbidden(forbiddenMsg, string(trip.Status))
		}
		if trip.Status != fromStatus {
			return Forbidden("trip is not in the expected state", string(trip.Status))
		}

		now := s.clock.Now()
		trip.Status = toStatus
		switch toStatus {
		case domain.TripStatusDriverArrived:
			trip.ArrivedAt = &now
		case domain.TripStatusInProgress:
			trip.StartedAt = &now
		}
		if err := repos.trip.Update(ctx, trip); err != nil {
			return err
		}
		result = trip
		return nil
	})
	return result, err
}

// CompleteTripResult is the response to completeTrip: the trip plus the
// fare-breakdown read-model derived from it.
type CompleteTripResult struct {
	Trip    *domain.Trip
	Receipt *domain.Receipt
}

// CompleteTrip implements completeTrip(driver): in_progress -> completed,
// idempotently creating the Payment finalizer record in the same transaction.
func (s *TripService) CompleteTrip(ctx context.Context, tripID, driverID string) (*CompleteTripResult, error) {
	var result *CompleteTripResult
	err := s.inTx(ctx, func(repos txRepos) error {
		trip, err := repos.trip.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.DriverID != driverID {
			return Forbidden("only the assigned driver may complete this trip", string(trip.Status))
		}
		if trip.Status != domain.TripStatusInProgress {
			return Forbidden("trip is not in progress", string(trip.Status))
		}

		now := s.clock.Now()
		trip.Status = domain.TripStatusCompleted
		trip.CompletedAt = &now
		if err := repos.trip.Update(ctx, trip); err != nil {
			return err
		}
		if err := s.releaseDriver(ctx, repos, driverID); err != nil {
			return err
		}

		existing, err := repos.payment.GetByTripID(ctx, tripID)
		if err != nil {
			return err
		}
		if existing == nil {
			payment := &domain.Payment{
				ID:          domain.PaymentID(tripID),
				TripID:      tripID,
				PassengerID: trip.PassengerID,
				DriverID:    trip.DriverID,
				Amount:      trip.FareAmount,
				Currency:    "ILS",
				Method:      string(domain.PaymentMethodCash),
				Status:      domain.PaymentStatusPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := repos.payment.Create(ctx, payment); err != nil {
				return err
			}
		}

		result = &CompleteTripResult{
			Trip: trip,
			Receipt: &domain.Receipt{
				TripID:      trip.ID,
				DistanceKm:  trip.EstimatedDistanceKm,
				DurationMin: trip.EstimatedDurationMin,
				FareAmount:  trip.FareAmount,
				CreatedAt:   now,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyTripCompleted(ctx, result.Trip)
	}
	return result, nil
}

// CancelByPassenger implements cancelByPassenger: legal from pending or
// accepted only; the rider cannot cancel once the driver has arrived.
func (s *TripService) CancelByPassenger(ctx context.Context, tripID, passengerID, reason string) (*domain.Trip, error) {
	if reason == "" {
		reason = "passenger_cancelled"
	}
	var result *domain.Trip
	err := s.inTx(ctx, func(repos txRepos) error {
		trip, err := repos.trip.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.PassengerID != passengerID {
			return Forbidden("only the requesting passenger may cancel this trip", string(trip.Status))
		}
		if trip.Status != domain.TripStatusPending && trip.Status != domain.TripStatusAccepted {
			return Forbidden("trip can no longer be cancelled by the passenger", string(trip.Status))
		}
		if err := s.applyCancellation(ctx, repos, trip, domain.TripStatusCancelledByPassenger, passengerID, reason); err != nil {
			return err
		}
		result = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyTripCancelled(ctx, result, passengerID, reason)
	}
	return result, nil
}

// CancelByDriver implements cancelByDriver: legal from pending or accepted.
func (s *TripService) CancelByDriver(ctx context.Context, tripID, driverID, reason string) (*domain.Trip, error) {
	if reason == "" {
		reason = "driver_cancelled"
	}
	var result *domain.Trip
	err := s.inTx(ctx, func(repos txRepos) error {
		trip, err := repos.trip.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.DriverID != driverID {
			return Forbidden("only the assigned driver may cancel this trip", string(trip.Status))
		}
		if trip.Status != domain.TripStatusPending && trip.Status != domain.TripStatusAccepted {
			return Forbidden("trip can no longer be cancelled by the driver", string(trip.Status))
		}
		if err := s.applyCancellation(ctx, repos, trip, domain.TripStatusCancelledByDriver, driverID, reason); err != nil {
			return err
		}
		result = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyTripCancelled(ctx, result, driverID, reason)
	}
	return result, nil
}

// ManagerForceCancel implements managerForceCancel: legal from any active
// state. The caller is responsible for having already verified the requester
// holds the manager or admin role.
func (s *TripService) ManagerForceCancel(ctx context.Context, tripID, managerID, reason string) (*domain.Trip, error) {
	if reason == "" {
		reason = "manager_override"
	}
	var result *domain.Trip
	err := s.inTx(ctx, func(repos txRepos) error {
		trip, err := repos.trip.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if !trip.Status.IsActive() {
			return Forbidden("trip is not active", string(trip.Status))
		}
		if err := s.applyCancellation(ctx, repos, trip, domain.TripStatusCancelledBySystem, managerID, reason); err != nil {
			return err
		}
		result = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyTripCancelled(ctx, result, managerID, reason)
	}
	return result, nil
}

// applyCancellation is the shared terminal-cancellation path: set status and
// timestamp, release the driver, and cancel any still-pending offer.
func (s *TripService) applyCancellation(ctx context.Context, repos txRepos, trip *domain.Trip, status domain.TripStatus, cancelledBy, reason string) error {
	now := s.clock.Now()
	trip.Status = status
	trip.CancelledAt = &now
	trip.CancelledBy = cancelledBy
	trip.CancellationReason = reason
	if err := repos.trip.Update(ctx, trip); err != nil {
		return err
	}
	if err := s.releaseDriver(ctx, repos, trip.DriverID); err != nil {
		return err
	}
	return s.cancelPendingOffer(ctx, repos, trip.ID, domain.DriverOfferStatusCancelled)
}

// inTx runs fn inside a transaction, committing on success and rolling back
// on any error.
func (s *TripService) inTx(ctx context.Context, fn func(txRepos) error) error {
	tx, repos, err := s.begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, NewError(KindInvalidArgument, "tripId is required")
	}
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err == repository.ErrNotFound {
		return nil, NewError(KindNotFound, "trip not found")
	}
	return trip, err
}

// GetAllTrips retrieves trips as TripRepository.GetAll returns them (the
// Postgres implementation caps the list at the 100 most recent).
func (s *TripService) GetAllTrips(ctx context.Context) ([]*domain.Trip, error) {
	return s.tripRepo.GetAll(ctx)
}
