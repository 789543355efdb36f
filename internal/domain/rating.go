package domain

import "time"

// Rating is a passenger's post-trip score for the assigned driver.
type Rating struct {
	ID          string
	TripID      string
	PassengerID string
	DriverID    string
	Score       int
	Comment     string
	CreatedAt   time.Time
}
