package service

import (
	"context"

	"github.com/google/uuid"

	"ride/internal/clock"
	"ride/internal/domain"
	"ride/internal/geo"
	"ride/internal/redis"
	"ride/internal/repository"
)

// DriverService implements driver registration and the online/offline and
// location-update half of the Driver Availability Manager. It never
// touches isAvailable or currentTripId: those are owned exclusively by the
// matching engine's claim and the trip state machine's release.
type DriverService struct {
	locationStore redis.LocationStoreInterface
	cacheStore    redis.CacheStoreInterface
	driverRepo    repository.DriverRepository
	clock         clock.Clock
}

func NewDriverService(
	locationStore redis.LocationStoreInterface,
	cacheStore redis.CacheStoreInterface,
	driverRepo repository.DriverRepository,
	clk clock.Clock,
) *DriverService {
	return &DriverService{
		locationStore: locationStore,
		cacheStore:    cacheStore,
		driverRepo:    driverRepo,
		clock:         clk,
	}
}

// RegisterDriverRequest contains the parameters for driver registration.
type RegisterDriverRequest struct {
	Name  string
	Phone string
}

// RegisterDriver creates a new driver account, offline and available by
// default. A driver only enters the matching pool once it both goes online
// and reports a location.
func (s *DriverService) RegisterDriver(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	if req.Name == "" {
		return nil, NewError(KindInvalidArgument, "name is required")
	}
	if req.Phone == "" {
		return nil, NewError(KindInvalidArgument, "phone is required")
	}

	now := s.clock.Now()
	driver := &domain.Driver{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Phone:       req.Phone,
		IsOnline:    false,
		IsAvailable: true,
		UpdatedAt:   now,
		CreatedAt:   now,
	}
	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// GoOnline flips isOnline to true. If the driver has already reported a
// location, it is published to the geo index immediately.
func (s *DriverService) GoOnline(ctx context.Context, driverID string) error {
	return s.setOnline(ctx, driverID, true)
}

// GoOffline flips isOnline to false and removes the driver from the geo
// index so it stops surfacing as a match candidate. isAvailable and
// currentTripId are left untouched.
func (s *DriverService) GoOffline(ctx context.Context, driverID string) error {
	return s.setOnline(ctx, driverID, false)
}

func (s *DriverService) setOnline(ctx context.Context, driverID string, online bool) error {
	if driverID == "" {
		return NewError(KindInvalidArgument, "driverId is required")
	}

	if err := s.driverRepo.SetOnline(ctx, driverID, online); err != nil {
		if err == repository.ErrNotFound {
			return NewError(KindNotFound, "driver not found")
		}
		return err
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return err
	}

	if online && driver.HasLocation() {
		if err := s.locationStore.UpdateLocation(ctx, driverID, *driver.LastLat, *driver.LastLng); err != nil {
			return err
		}
	}
	if !online {
		if err := s.locationStore.RemoveLocation(ctx, driverID); err != nil {
			return err
		}
	}

	s.refreshCache(ctx, driver)
	return nil
}

// UpdateLocationRequest contains the parameters for a driver location ping.
type UpdateLocationRequest struct {
	DriverID string
	Lat      float64
	Lng      float64
}

// UpdateLocation records the driver's position and, if the driver is online,
// republishes it to the geo index the matching engine queries.
func (s *DriverService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.DriverID == "" {
		return NewError(KindInvalidArgument, "driverId is required")
	}
	if !geo.IsValidCoordinate(req.Lat, req.Lng) {
		return NewError(KindInvalidArgument, "invalid location")
	}

	if err := s.driverRepo.UpdateLocation(ctx, req.DriverID, req.Lat, req.Lng); err != nil {
		if err == repository.ErrNotFound {
			return NewError(KindNotFound, "driver not found")
		}
		return err
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return err
	}

	if driver.IsOnline {
		if err := s.locationStore.UpdateLocation(ctx, req.DriverID, req.Lat, req.Lng); err != nil {
			return err
		}
	}

	s.refreshCache(ctx, driver)
	return nil
}

// refreshCache republishes the driver's cache entry. Cache population is
// best-effort: errors are ignored, and the matching engine does not read
// this cache.
func (s *DriverService) refreshCache(ctx context.Context, driver *domain.Driver) {
	if s.cacheStore == nil {
		return
	}
	cached := &redis.CachedDriver{
		ID:          driver.ID,
		IsOnline:    driver.IsOnline,
		IsAvailable: driver.IsAvailable,
		LastLat:     driver.LastLat,
		LastLng:     driver.LastLng,
	}
	_ = s.cacheStore.SetDriver(ctx, cached)
	if driver.IsOnline && driver.IsAvailable {
		_ = s.cacheStore.AddAvailableDriver(ctx, driver.ID)
	} else {
		_ = s.cacheStore.RemoveAvailableDriver(ctx, driver.ID)
	}
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, NewError(KindInvalidArgument, "driverId is required")
	}
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err == repository.ErrNotFound {
		return nil, NewError(KindNotFound, "driver not found")
	}
	return driver, err
}

// GetAllDrivers retrieves all drivers.
func (s *DriverService) GetAllDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetAll(ctx)
}
