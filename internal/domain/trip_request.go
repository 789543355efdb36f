package domain

import "time"

// TripRequestStatus represents the lifecycle of a passenger's admission record.
type TripRequestStatus string

const (
	TripRequestStatusOpen      TripRequestStatus = "open"
	TripRequestStatusMatched   TripRequestStatus = "matched"
	TripRequestStatusExpired   TripRequestStatus = "expired"
	TripRequestStatusCancelled TripRequestStatus = "cancelled"
)

// TripRequest is the passenger-facing admission record created by requestTrip.
// It exists only until it is matched, expires, or is cancelled.
type TripRequest struct {
	ID                   string
	PassengerID          string
	PickupLat            float64
	PickupLng            float64
	DropoffLat           float64
	DropoffLng           float64
	EstimatedDistanceKm  float64
	EstimatedDurationMin float64
	EstimatedPriceIls    float64
	Status               TripRequestStatus
	MatchedDriverID      *string
	MatchedTripID        *string
	MatchedAt            *time.Time
	CreatedAt            time.Time
}
