package domain

import "time"

// Driver represents a driver account and its live dispatch state.
type Driver struct {
	ID            string
	Name          string
	Phone         string
	IsOnline      bool
	IsAvailable   bool
	LastLat       *float64
	LastLng       *float64
	CurrentTripID *string
	UpdatedAt     time.Time
	CreatedAt     time.Time
}

// HasLocation reports whether the driver has ever reported a position.
func (d *Driver) HasLocation() bool {
	return d.LastLat != nil && d.LastLng != nil
}
