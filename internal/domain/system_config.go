package domain

import "time"

// SystemConfig is the singleton runtime-tunable configuration row. It backs
// both the kill switch and the pilot-phase timeout/pricing knobs, all behind
// one TTL-cached read path.
type SystemConfig struct {
	TripsEnabled      bool
	RoadblocksEnabled bool
	PaymentsEnabled   bool

	DriverResponseTimeout time.Duration
	SearchTimeout         time.Duration
	DriverArrivalTimeout  time.Duration

	MaxActiveTripsPerDriver    int
	MaxActiveTripsPerPassenger int
	MaxSearchRadiusKm          float64

	MinFareIls float64
	RatePerKm  float64

	UpdatedAt time.Time
	UpdatedBy string
}

// DefaultSystemConfig is returned when the config document has never been
// written, per the kill-switch defaults in the component design.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		TripsEnabled:               true,
		RoadblocksEnabled:          true,
		PaymentsEnabled:            false,
		DriverResponseTimeout:      20 * time.Second,
		SearchTimeout:              120 * time.Second,
		DriverArrivalTimeout:       300 * time.Second,
		MaxActiveTripsPerDriver:    1,
		MaxActiveTripsPerPassenger: 1,
		MaxSearchRadiusKm:          15.0,
		MinFareIls:                 5.0,
		RatePerKm:                  0.5,
	}
}
