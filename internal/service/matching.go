package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ride/internal/clock"
	"ride/internal/domain"
	"ride/internal/geo"
	"ride/internal/pricing"
	"ride/internal/redis"
	"ride/internal/repository"
	"ride/internal/repository/postgres"
)

const (
	driverLockTTL       = 10 * time.Second
	tripRequestLockTTL  = 30 * time.Second
	geoPrefilterSlackKm = 0.0 // the Redis GEORADIUS prefilter already uses the exact cap radius
)

// MatchingService implements the matching engine (C7): it selects the
// nearest eligible driver for a trip request and binds it in one
// transaction, retrying once against the next candidate if the first loses
// the claim race.
type MatchingService struct {
	db                  *sql.DB
	locationStore       redis.LocationStoreInterface
	lockStore           redis.LockStoreInterface
	cacheStore          redis.CacheStoreInterface
	driverRepo          repository.DriverRepository
	tripRepo            repository.TripRepository
	tripRequestRepo     repository.TripRequestRepository
	offerRepo           repository.DriverOfferRepository
	notificationService *NotificationService
	config              *ConfigReader
	clock               clock.Clock
	log                 *zap.Logger
}

func NewMatchingService(
	db *sql.DB,
	locationStore redis.LocationStoreInterface,
	lockStore redis.LockStoreInterface,
	cacheStore redis.CacheStoreInterface,
	driverRepo repository.DriverRepository,
	tripRepo repository.TripRepository,
	tripRequestRepo repository.TripRequestRepository,
	offerRepo repository.DriverOfferRepository,
	notificationService *NotificationService,
	config *ConfigReader,
	clk clock.Clock,
	log *zap.Logger,
) *MatchingService {
	return &MatchingService{
		db:                  db,
		locationStore:       locationStore,
		lockStore:           lockStore,
		cacheStore:          cacheStore,
		driverRepo:          driverRepo,
		tripRepo:            tripRepo,
		tripRequestRepo:     tripRequestRepo,
		offerRepo:           offerRepo,
		notificationService: notificationService,
		config:              config,
		clock:               clk,
		log:                 log,
	}
}

// RequestTripParams are the passenger-supplied inputs to requestTrip.
type RequestTripParams struct {
	PassengerID          string
	PickupLat, PickupLng float64
	DropoffLat, DropoffLng float64
	EstimatedDistanceKm    float64
	EstimatedDurationMin   float64
	// ClientPriceIls is advisory only; the server always recomputes price
	// from EstimatedDistanceKm, logs any mismatch, and overrides it — never
	// rejects the request over it.
	ClientPriceIls float64
}

// RequestTripResult is the response to requestTrip.
type RequestTripResult struct {
	RequestID string
	TripID    string
	DriverID  string
	Status    string // "matched" or "searching"
}

const (
	statusMatched   = "matched"
	statusSearching = "searching"
)

// RequestTrip implements the full admission + search + claim contract of §4.2.
func (s *MatchingService) RequestTrip(ctx context.Context, p RequestTripParams) (*RequestTripResult, error) {
	if p.PassengerID == "" {
		return nil, NewError(KindInvalidArgument, "passengerId is required")
	}
	if !geo.IsValidCoordinate(p.PickupLat, p.PickupLng) {
		return nil, NewError(KindInvalidArgument, "invalid pickup location")
	}
	if !geo.IsValidCoordinate(p.DropoffLat, p.DropoffLng) {
		return nil, NewError(KindInvalidArgument, "invalid dropoff location")
	}
	if p.EstimatedDistanceKm < 0 {
		return nil, NewError(KindInvalidArgument, "estimatedDistanceKm must be non-negative")
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.TripsEnabled {
		return nil, ErrServiceDisabled
	}

	hasActive, err := s.tripRepo.HasActiveForPassenger(ctx, p.PassengerID)
	if err != nil {
		return nil, err
	}
	if hasActive {
		return nil, ErrPassengerAlreadyActive
	}

	price := pricing.Price(p.EstimatedDistanceKm, pricing.Params{MinFareIls: cfg.MinFareIls, RatePerKm: cfg.RatePerKm})
	if p.ClientPriceIls != 0 && p.ClientPriceIls != price {
		if s.log != nil {
			s.log.Info("client price estimate overridden by server-computed fare",
				zap.Float64("client_price_ils", p.ClientPriceIls),
				zap.Float64("server_price_ils", price),
				zap.String("passenger_id", p.PassengerID),
			)
		}
	}

	req := &domain.TripRequest{
		ID:                   uuid.NewString(),
		PassengerID:          p.PassengerID,
		PickupLat:            p.PickupLat,
		PickupLng:            p.PickupLng,
		DropoffLat:           p.DropoffLat,
		DropoffLng:           p.DropoffLng,
		EstimatedDistanceKm:  p.EstimatedDistanceKm,
		EstimatedDurationMin: p.EstimatedDurationMin,
		EstimatedPriceIls:    price,
		Status:               domain.TripRequestStatusOpen,
		CreatedAt:            s.clock.Now(),
	}
	if err := s.tripRequestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	candidates, err := s.rankedCandidates(ctx, p.PickupLat, p.PickupLng, cfg.MaxSearchRadiusKm)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &RequestTripResult{RequestID: req.ID, Status: statusSearching}, nil
	}

	// Retry once against the next candidate if the first loses the claim race.
	attempts := candidates
	if len(attempts) > 2 {
		attempts = attempts[:2]
	}

	for _, candidateID := range attempts {
		locked := true
		if s.lockStore != nil {
			ok, lockErr := s.lockStore.AcquireDriverLock(ctx, candidateID, driverLockTTL)
			if lockErr != nil {
				return nil, lockErr
			}
			locked = ok
		}
		if !locked {
			continue
		}

		trip, offer, claimErr := s.claim(ctx, req, candidateID, price, cfg.DriverResponseTimeout)
		if s.lockStore != nil {
			_ = s.lockStore.ReleaseDriverLock(ctx, candidateID)
		}
		if claimErr != nil {
			if claimErr == repository.ErrNotFound {
				continue // lost the race or driver went offline; try next candidate
			}
			return nil, claimErr
		}

		if s.cacheStore != nil {
			_ = s.cacheStore.InvalidateDriver(ctx, candidateID)
		}
		_ = offer
		if s.notificationService != nil {
			_ = s.notificationService.NotifyOfferCreated(ctx, trip)
		}
		return &RequestTripResult{RequestID: req.ID, TripID: trip.ID, DriverID: candidateID, Status: statusMatched}, nil
	}

	return &RequestTripResult{RequestID: req.ID, Status: statusSearching}, nil
}

// GetTripRequest retrieves a trip request by ID so a passenger who got back
// status=searching can poll whether it later matched, expired, or is still
// open.
func (s *MatchingService) GetTripRequest(ctx context.Context, requestID string) (*domain.TripRequest, error) {
	if requestID == "" {
		return nil, NewError(KindInvalidArgument, "requestId is required")
	}
	req, err := s.tripRequestRepo.GetByID(ctx, requestID)
	if err == repository.ErrNotFound {
		return nil, NewError(KindNotFound, "trip request not found")
	}
	return req, err
}

// rankedCandidates prefilters via the Redis geo index at the exact cap
// radius, then authoritatively recomputes Haversine distance and excludes
// anything beyond the cap before sorting nearest-first. The geo index is a
// shortlist only; it is never the source of truth for the boundary.
func (s *MatchingService) rankedCandidates(ctx context.Context, lat, lng, radiusKm float64) ([]string, error) {
	nearby, err := s.locationStore.FindNearbyDrivers(ctx, lat, lng, radiusKm+geoPrefilterSlackKm)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return nil, nil
	}

	pickup := geo.Point{Lat: lat, Lng: lng}
	type ranked struct {
		id   string
		dist float64
	}
	candidates := make([]ranked, 0, len(nearby))
	for _, loc := range nearby {
		d := geo.HaversineKm(pickup, geo.Point{Lat: loc.Lat, Lng: loc.Lng})
		if d > radiusKm {
			continue
		}
		candidates = append(candidates, ranked{id: loc.DriverID, dist: d})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	return ids, nil
}

// claim performs the step-6 claim transaction: re-verify the driver, create
// the trip, claim the driver, create the offer, and mark the request matched
// — all atomically. Returns repository.ErrNotFound if the driver is no
// longer eligible, which the caller treats as a lost race.
func (s *MatchingService) claim(ctx context.Context, req *domain.TripRequest, driverID string, priceIls float64, offerTimeout time.Duration) (*domain.Trip, *domain.DriverOffer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)
	txTripRepo := postgres.NewTripRepositoryWithTx(tx)
	txOfferRepo := postgres.NewDriverOfferRepositoryWithTx(tx)
	txRequestRepo := postgres.NewTripRequestRepositoryWithTx(tx)

	now := s.clock.Now()
	tripID := uuid.NewString()

	if err := txDriverRepo.Claim(ctx, driverID, tripID); err != nil {
		return nil, nil, err
	}

	trip := &domain.Trip{
		ID:                   tripID,
		RequestID:            req.ID,
		PassengerID:          req.PassengerID,
		DriverID:             driverID,
		PickupLat:            req.PickupLat,
		PickupLng:            req.PickupLng,
		DropoffLat:           req.DropoffLat,
		DropoffLng:           req.DropoffLng,
		EstimatedDistanceKm:  req.EstimatedDistanceKm,
		EstimatedDurationMin: req.EstimatedDurationMin,
		EstimatedPriceIls:    priceIls,
		Status:               domain.TripStatusPending,
		PaymentMethod:        domain.PaymentMethodCash,
		FareAmount:           priceIls,
		PaymentStatus:        domain.TripPaymentStatusPending,
		CreatedAt:            now,
	}
	if err := txTripRepo.Create(ctx, trip); err != nil {
		return nil, nil, err
	}

	offer := &domain.DriverOffer{
		ID:        uuid.NewString(),
		TripID:    tripID,
		DriverID:  driverID,
		Status:    domain.DriverOfferStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(offerTimeout),
	}
	if err := txOfferRepo.Create(ctx, offer); err != nil {
		return nil, nil, err
	}

	driverID2 := driverID
	tripID2 := tripID
	req.Status = domain.TripRequestStatusMatched
	req.MatchedDriverID = &driverID2
	req.MatchedTripID = &tripID2
	matchedAt := now
	req.MatchedAt = &matchedAt
	if err := txRequestRepo.Update(ctx, req); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true

	return trip, offer, nil
}
