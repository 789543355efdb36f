package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ride/internal/clock"
	"ride/internal/domain"
	"ride/internal/pricing"
	"ride/internal/service"
)

// ──────────────────────────────────────────────
// TRIP STATUS INVARIANTS
//
// TripService's state-transition methods all open a *sql.DB transaction and
// so cannot run against these mocks; no test in this package exercises them.
// The status classification they rely on is covered here directly on
// domain.TripStatus.
// ──────────────────────────────────────────────

func TestTripStatus_ActiveStatusesHoldDriverUnavailable(t *testing.T) {
	t.Parallel()

	active := []domain.TripStatus{
		domain.TripStatusPending,
		domain.TripStatusAccepted,
		domain.TripStatusDriverArrived,
		domain.TripStatusInProgress,
	}
	for _, s := range active {
		assert.True(t, s.IsActive(), "expected %s to be active", s)
		assert.False(t, s.IsTerminal(), "expected %s to not be terminal", s)
	}
}

func TestTripStatus_TerminalStatusesAreNotActive(t *testing.T) {
	t.Parallel()

	terminal := []domain.TripStatus{
		domain.TripStatusCompleted,
		domain.TripStatusCancelledByPassenger,
		domain.TripStatusCancelledByDriver,
		domain.TripStatusCancelledBySystem,
		domain.TripStatusNoDriverAvailable,
	}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "expected %s to be terminal", s)
		assert.False(t, s.IsActive(), "expected %s to not be active", s)
	}
}

func TestTripRepository_OneActivePerDriver(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	ctx := context.Background()

	tripRepo.Create(ctx, &domain.Trip{ID: "trip-1", DriverID: "driver-1", Status: domain.TripStatusInProgress})

	hasActive, err := tripRepo.HasActiveForDriver(ctx, "driver-1")
	require.NoError(t, err)
	assert.True(t, hasActive, "expected driver-1 to have an active trip")

	hasActive, err = tripRepo.HasActiveForDriver(ctx, "driver-2")
	require.NoError(t, err)
	assert.False(t, hasActive, "expected driver-2 to have no active trip")
}

func TestTripRepository_ListAcceptedOlderThan_ExcludesRecent(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	ctx := context.Background()

	old := time.Now().Add(-10 * time.Minute)
	recent := time.Now()
	tripRepo.Create(ctx, &domain.Trip{ID: "trip-old", Status: domain.TripStatusAccepted, AcceptedAt: &old})
	tripRepo.Create(ctx, &domain.Trip{ID: "trip-recent", Status: domain.TripStatusAccepted, AcceptedAt: &recent})

	cutoff := time.Now().Add(-5 * time.Minute)
	overdue, err := tripRepo.ListAcceptedOlderThan(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "trip-old", overdue[0].ID)
}

// ──────────────────────────────────────────────
// FARE PRICING
// ──────────────────────────────────────────────

func TestPricing_RoundsUpToWholeShekel(t *testing.T) {
	t.Parallel()

	params := pricing.Params{MinFareIls: 5.0, RatePerKm: 2.0}
	// 3.01km rounds up to 3.1km, times 2.0 = 6.2, ceil'd to 7.
	fare := pricing.Price(3.01, params)
	assert.Equal(t, 7.0, fare)
}

func TestPricing_FloorsAtMinimumFare(t *testing.T) {
	t.Parallel()

	params := pricing.Params{MinFareIls: 10.0, RatePerKm: 0.5}
	fare := pricing.Price(1.0, params)
	assert.Equal(t, 10.0, fare, "expected the configured minimum fare of 10")
}

// ──────────────────────────────────────────────
// RATING
// ──────────────────────────────────────────────

func TestRating_OnlyPassengerMayRate(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	ratingRepo := NewMockRatingRepository()
	ctx := context.Background()

	tripRepo.Create(ctx, &domain.Trip{ID: "trip-1", PassengerID: "pax-1", DriverID: "driver-1", Status: domain.TripStatusCompleted})

	ratingService := service.NewRatingService(tripRepo, ratingRepo, clock.NewFake(time.Now()))

	_, err := ratingService.Submit(ctx, "trip-1", "pax-2", 5, "")
	assert.Error(t, err, "expected an error when a non-passenger submits a rating")
}

func TestRating_RequiresCompletedTrip(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	ratingRepo := NewMockRatingRepository()
	ctx := context.Background()

	tripRepo.Create(ctx, &domain.Trip{ID: "trip-1", PassengerID: "pax-1", DriverID: "driver-1", Status: domain.TripStatusInProgress})

	ratingService := service.NewRatingService(tripRepo, ratingRepo, clock.NewFake(time.Now()))

	_, err := ratingService.Submit(ctx, "trip-1", "pax-1", 5, "")
	assert.Error(t, err, "expected an error when rating a trip that hasn't completed")
}

func TestRating_ScoreOutOfRange_Rejected(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	ratingRepo := NewMockRatingRepository()
	ratingService := service.NewRatingService(tripRepo, ratingRepo, clock.NewFake(time.Now()))
	ctx := context.Background()

	for _, score := range []int{0, 6, -1} {
		_, err := ratingService.Submit(ctx, "trip-1", "pax-1", score, "")
		assert.Error(t, err, "expected score %d to be rejected", score)
	}
}

func TestRating_CannotRateTwice(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	ratingRepo := NewMockRatingRepository()
	ctx := context.Background()

	tripRepo.Create(ctx, &domain.Trip{ID: "trip-1", PassengerID: "pax-1", DriverID: "driver-1", Status: domain.TripStatusCompleted})

	ratingService := service.NewRatingService(tripRepo, ratingRepo, clock.NewFake(time.Now()))

	_, err := ratingService.Submit(ctx, "trip-1", "pax-1", 5, "great ride")
	require.NoError(t, err)

	_, err = ratingService.Submit(ctx, "trip-1", "pax-1", 4, "again")
	assert.Error(t, err, "expected the second rating for the same trip to be rejected")
}

// ──────────────────────────────────────────────
// ACCOUNT REGISTRATION
// ──────────────────────────────────────────────

func TestUserService_RegisterUser_DefaultsToPassenger(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	userService := service.NewUserService(userRepo, clock.NewFake(time.Now()))

	user, err := userService.RegisterUser(context.Background(), service.RegisterUserRequest{Name: "Ada", Phone: "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, domain.RolePassenger, user.Role)
}

func TestUserService_RegisterUser_DuplicatePhone_Rejected(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	userService := service.NewUserService(userRepo, clock.NewFake(time.Now()))
	ctx := context.Background()

	_, err := userService.RegisterUser(ctx, service.RegisterUserRequest{Name: "Ada", Phone: "555-0100"})
	require.NoError(t, err)

	_, err = userService.RegisterUser(ctx, service.RegisterUserRequest{Name: "Bea", Phone: "555-0100"})
	assert.Error(t, err, "expected a duplicate phone number to be rejected")
}

func TestUserService_RegisterUser_UnknownRole_Rejected(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	userService := service.NewUserService(userRepo, clock.NewFake(time.Now()))

	_, err := userService.RegisterUser(context.Background(), service.RegisterUserRequest{Name: "Ada", Phone: "555-0100", Role: domain.Role("superuser")})
	assert.Error(t, err, "expected an unknown role to be rejected")
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	userService := service.NewUserService(userRepo, clock.NewFake(time.Now()))

	_, err := userService.GetUser(context.Background(), "nonexistent")
	assert.Error(t, err, "expected an error for a nonexistent user")
}
