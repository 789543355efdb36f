package domain

import "time"

// PaymentStatus represents the current status of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment is keyed deterministically as payment_<tripId> so completeTrip can
// create it idempotently inside the trip's own transaction.
type Payment struct {
	ID          string
	TripID      string
	PassengerID string
	DriverID    string
	Amount      float64
	Currency    string
	Method      string
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentID returns the deterministic payment document id for a trip.
func PaymentID(tripID string) string {
	return "payment_" + tripID
}
