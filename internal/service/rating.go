package service

import (
	"context"

	"github.com/google/uuid"

	"ride/internal/clock"
	"ride/internal/domain"
	"ride/internal/repository"
)

// RatingService implements submitRating: the passenger's post-trip score for
// the driver. Modeled on PaymentFinalizer's create-keyed-by-id shape since no
// ratings precedent exists in the teacher.
type RatingService struct {
	tripRepo   repository.TripRepository
	ratingRepo repository.RatingRepository
	clock      clock.Clock
}

func NewRatingService(tripRepo repository.TripRepository, ratingRepo repository.RatingRepository, clk clock.Clock) *RatingService {
	return &RatingService{tripRepo: tripRepo, ratingRepo: ratingRepo, clock: clk}
}

// Submit records a passenger's rating for a completed trip. Legal only once,
// from the trip's passenger, after the trip has reached completed.
func (s *RatingService) Submit(ctx context.Context, tripID, passengerID string, score int, comment string) (*domain.Rating, error) {
	if score < 1 || score > 5 {
		return nil, NewError(KindInvalidArgument, "score must be between 1 and 5")
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, NewError(KindNotFound, "trip not found")
		}
		return nil, err
	}
	if trip.PassengerID != passengerID {
		return nil, NewError(KindForbidden, "only the trip's passenger may rate it")
	}
	if trip.Status != domain.TripStatusCompleted {
		return nil, ErrTripNotCompleted
	}

	if existing, err := s.ratingRepo.GetByTripID(ctx, tripID); err != nil && err != repository.ErrNotFound {
		return nil, err
	} else if existing != nil {
		return nil, NewError(KindForbidden, "trip already rated")
	}

	rating := &domain.Rating{
		ID:          uuid.NewString(),
		TripID:      trip.ID,
		PassengerID: passengerID,
		DriverID:    trip.DriverID,
		Score:       score,
		Comment:     comment,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

// GetRating retrieves the rating left for a trip, if any.
func (s *RatingService) GetRating(ctx context.Context, tripID string) (*domain.Rating, error) {
	rating, err := s.ratingRepo.GetByTripID(ctx, tripID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	return rating, err
}
