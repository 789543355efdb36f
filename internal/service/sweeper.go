package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"ride/internal/clock"
	"ride/internal/domain"
	"ride/internal/repository"
	"ride/internal/repository/postgres"
)

// SweeperInterval is the scheduler cadence named in the component design.
const SweeperInterval = time.Minute

// Sweeper implements the two timeout sweeps (C9): unmatched-request expiry
// and driver no-show. Each document is re-read inside its own transaction so
// a sweep tick is idempotent and a failure on one document never aborts the
// batch.
type Sweeper struct {
	db              *sql.DB
	tripRequestRepo repository.TripRequestRepository
	tripRepo        repository.TripRepository
	offerRepo       repository.DriverOfferRepository
	config          *ConfigReader
	clock           clock.Clock
	log             *zap.Logger
}

func NewSweeper(
	db *sql.DB,
	tripRequestRepo repository.TripRequestRepository,
	tripRepo repository.TripRepository,
	offerRepo repository.DriverOfferRepository,
	config *ConfigReader,
	clk clock.Clock,
	log *zap.Logger,
) *Sweeper {
	return &Sweeper{
		db:              db,
		tripRequestRepo: tripRequestRepo,
		tripRepo:        tripRepo,
		offerRepo:       offerRepo,
		config:          config,
		clock:           clk,
		log:             log,
	}
}

// Run blocks, ticking every SweeperInterval until ctx is cancelled; each tick
// runs under a 60 s deadline. Intended to be launched as a goroutine at
// process start.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(SweeperInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
			s.Tick(tickCtx)
			cancel()
		}
	}
}

// Tick runs one pass of both sweeps. Exported so tests can drive it on a
// synchronous schedule instead of a real ticker.
func (s *Sweeper) Tick(ctx context.Context) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		s.log.Error("sweeper: failed to read config", zap.Error(err))
		return
	}

	s.sweepUnmatchedRequests(ctx, cfg.SearchTimeout)
	s.sweepNoShows(ctx, cfg.DriverArrivalTimeout)
}

func (s *Sweeper) sweepUnmatchedRequests(ctx context.Context, searchTimeout time.Duration) {
	cutoff := s.clock.Now().Add(-searchTimeout)
	requests, err := s.tripRequestRepo.ListOpenOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("sweeper: failed to list open trip requests", zap.Error(err))
		return
	}

	for _, req := range requests {
		if err := s.expireRequest(ctx, req.ID); err != nil {
			s.log.Error("sweeper: failed to expire trip request", zap.String("request_id", req.ID), zap.Error(err))
		}
	}
}

func (s *Sweeper) expireRequest(ctx context.Context, requestID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	txRequestRepo := postgres.NewTripRequestRepositoryWithTx(tx)
	req, err := txRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil
		}
		return err
	}
	if req.Status != domain.TripRequestStatusOpen {
		return nil // already matched or expired by a concurrent tick
	}

	req.Status = domain.TripRequestStatusExpired
	if err := txRequestRepo.Update(ctx, req); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Sweeper) sweepNoShows(ctx context.Context, arrivalTimeout time.Duration) {
	cutoff := s.clock.Now().Add(-arrivalTimeout)
	trips, err := s.tripRepo.ListAcceptedOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("sweeper: failed to list accepted trips", zap.Error(err))
		return
	}

	for _, trip := range trips {
		if err := s.cancelNoShow(ctx, trip.ID); err != nil {
			s.log.Error("sweeper: failed to cancel no-show trip", zap.String("trip_id", trip.ID), zap.Error(err))
		}
	}
}

func (s *Sweeper) cancelNoShow(ctx context.Context, tripID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	txTripRepo := postgres.NewTripRepositoryWithTx(tx)
	txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)
	txOfferRepo := postgres.NewDriverOfferRepositoryWithTx(tx)

	trip, err := txTripRepo.GetForUpdate(ctx, tripID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil
		}
		return err
	}
	if trip.Status != domain.TripStatusAccepted {
		return nil // driver arrived, trip progressed, or already cancelled
	}

	now := s.clock.Now()
	trip.Status = domain.TripStatusCancelledBySystem
	trip.CancelledAt = &now
	trip.CancelledBy = "sweeper"
	trip.CancellationReason = "driver_no_show"
	if err := txTripRepo.Update(ctx, trip); err != nil {
		return err
	}
	if err := txDriverRepo.Release(ctx, trip.DriverID); err != nil && err != repository.ErrNotFound {
		return err
	}

	offer, err := txOfferRepo.GetByTripID(ctx, tripID)
	if err == nil && !offer.Status.IsTerminal() {
		if err := txOfferRepo.UpdateStatus(ctx, offer.ID, domain.DriverOfferStatusExpired); err != nil {
			return err
		}
	} else if err != nil && err != repository.ErrNotFound {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
