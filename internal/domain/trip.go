package domain

import "time"

// TripStatus represents the current state of a trip in its lifecycle.
type TripStatus string

const (
	TripStatusPending              TripStatus = "pending"
	TripStatusAccepted             TripStatus = "accepted"
	TripStatusDriverArrived        TripStatus = "driver_arrived"
	TripStatusInProgress           TripStatus = "in_progress"
	TripStatusCompleted            TripStatus = "completed"
	TripStatusCancelledByPassenger TripStatus = "cancelled_by_passenger"
	TripStatusCancelledByDriver    TripStatus = "cancelled_by_driver"
	TripStatusCancelledBySystem    TripStatus = "cancelled_by_system"
	TripStatusNoDriverAvailable    TripStatus = "no_driver_available"
)

// ActiveTripStatuses are the statuses that count against the per-actor cap
// and that require the driver to be held unavailable.
var ActiveTripStatuses = []TripStatus{
	TripStatusPending,
	TripStatusAccepted,
	TripStatusDriverArrived,
	TripStatusInProgress,
}

// IsActive reports whether s is one of the active statuses.
func (s TripStatus) IsActive() bool {
	for _, a := range ActiveTripStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no further legal transitions.
func (s TripStatus) IsTerminal() bool {
	switch s {
	case TripStatusCompleted, TripStatusCancelledByPassenger, TripStatusCancelledByDriver,
		TripStatusCancelledBySystem, TripStatusNoDriverAvailable:
		return true
	}
	return false
}

// PaymentMethod identifies how a trip is settled. Cash is the only method in the pilot.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
)

// TripPaymentStatus tracks settlement of the trip's fare.
type TripPaymentStatus string

const (
	TripPaymentStatusPending TripPaymentStatus = "pending"
	TripPaymentStatusPaid    TripPaymentStatus = "paid"
)

// Trip is the authoritative record of a single ride attempt, from match to
// terminal state. Its DriverID is assigned at creation and never reassigned.
type Trip struct {
	ID                   string
	RequestID            string
	PassengerID          string
	DriverID             string
	PickupLat            float64
	PickupLng            float64
	DropoffLat           float64
	DropoffLng           float64
	EstimatedDistanceKm  float64
	EstimatedDurationMin float64
	EstimatedPriceIls    float64
	Status               TripStatus
	PaymentMethod        PaymentMethod
	FareAmount           float64
	PaymentStatus        TripPaymentStatus
	CancellationReason   string
	CancelledBy          string

	CreatedAt   time.Time
	AcceptedAt  *time.Time
	ArrivedAt   *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	PaidAt      *time.Time
}

// DriverOfferStatus tracks the per-driver invitation to a trip.
type DriverOfferStatus string

const (
	DriverOfferStatusPending   DriverOfferStatus = "pending"
	DriverOfferStatusAccepted  DriverOfferStatus = "accepted"
	DriverOfferStatusRejected  DriverOfferStatus = "rejected"
	DriverOfferStatusCancelled DriverOfferStatus = "cancelled"
	DriverOfferStatusExpired   DriverOfferStatus = "expired"
)

// IsTerminal reports whether the offer can no longer change state.
func (s DriverOfferStatus) IsTerminal() bool {
	return s != DriverOfferStatusPending
}

// DriverOffer is the single invitation presented to the driver selected for a trip.
type DriverOffer struct {
	ID        string
	TripID    string
	DriverID  string
	Status    DriverOfferStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Receipt is a read-model fare breakdown returned alongside completeTrip.
// It is derived from Trip.FareAmount, never a second source of price.
type Receipt struct {
	TripID      string
	DistanceKm  float64
	DurationMin float64
	FareAmount  float64
	CreatedAt   time.Time
}
