package tests

import (
	"context"
	"testing"
	"time"

	"ride/internal/clock"
	"ride/internal/domain"
	"ride/internal/redis"
	"ride/internal/service"
)

// ──────────────────────────────────────────────
// DRIVER LOCATION UPDATE EDGE CASES
// ──────────────────────────────────────────────

func TestDriverLocationUpdate_OnlineDriver_WritesToGeoIndex(t *testing.T) {
	t.Parallel()

	locationStore := NewMockLocationStore()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Name: "Test Driver", Phone: "1234567890", IsOnline: true})

	driverService := service.NewDriverService(locationStore, NewMockCacheStore(), driverRepo, clock.NewFake(time.Now()))

	req := service.UpdateLocationRequest{DriverID: "driver-1", Lat: 12.9716, Lng: 77.5946}

	if err := driverService.UpdateLocation(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if locationStore.UpdateLocationCallCount != 1 {
		t.Errorf("expected UpdateLocation to be called once, called %d times", locationStore.UpdateLocationCallCount)
	}
	if !locationStore.HasLocation("driver-1") {
		t.Error("expected driver location to be stored in Redis")
	}
}

func TestDriverLocationUpdate_InvalidCoordinates_Rejected(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"latitude too high", 91.0, 77.5946, true},
		{"latitude too low", -91.0, 77.5946, true},
		{"longitude too high", 12.9716, 181.0, true},
		{"longitude too low", 12.9716, -181.0, true},
		{"valid coordinates", 12.9716, 77.5946, false},
		{"edge case: max latitude", 90.0, 77.5946, false},
		{"edge case: min latitude", -90.0, 77.5946, false},
		{"edge case: max longitude", 12.9716, 180.0, false},
		{"edge case: min longitude", 12.9716, -180.0, false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			driverRepo := NewMockDriverRepository()
			driverRepo.AddDriver(&domain.Driver{ID: "driver-1"})
			driverService := service.NewDriverService(NewMockLocationStore(), NewMockCacheStore(), driverRepo, clock.NewFake(time.Now()))

			req := service.UpdateLocationRequest{DriverID: "driver-1", Lat: tc.lat, Lng: tc.lng}
			err := driverService.UpdateLocation(context.Background(), req)
			if tc.wantErr && err == nil {
				t.Error("expected error for invalid coordinates, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

func TestDriverLocationUpdate_MissingDriverID_Rejected(t *testing.T) {
	t.Parallel()

	driverService := service.NewDriverService(NewMockLocationStore(), NewMockCacheStore(), NewMockDriverRepository(), clock.NewFake(time.Now()))

	req := service.UpdateLocationRequest{DriverID: "", Lat: 12.9716, Lng: 77.5946}
	if err := driverService.UpdateLocation(context.Background(), req); err == nil {
		t.Error("expected error for missing driver ID, got nil")
	}
}

func TestDriverLocationUpdate_UnknownDriver_NotFound(t *testing.T) {
	t.Parallel()

	locationStore := NewMockLocationStore()
	driverService := service.NewDriverService(locationStore, NewMockCacheStore(), NewMockDriverRepository(), clock.NewFake(time.Now()))

	req := service.UpdateLocationRequest{DriverID: "unknown-driver", Lat: 12.9716, Lng: 77.5946}
	if err := driverService.UpdateLocation(context.Background(), req); err == nil {
		t.Error("expected not-found error for an unregistered driver")
	}
}

func TestDriverLocationUpdate_HighFrequencyUpdates_NoError(t *testing.T) {
	t.Parallel()

	locationStore := NewMockLocationStore()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", IsOnline: true})

	driverService := service.NewDriverService(locationStore, NewMockCacheStore(), driverRepo, clock.NewFake(time.Now()))

	for i := 0; i < 100; i++ {
		req := service.UpdateLocationRequest{
			DriverID: "driver-1",
			Lat:      12.9716 + float64(i)*0.0001,
			Lng:      77.5946 + float64(i)*0.0001,
		}
		if err := driverService.UpdateLocation(context.Background(), req); err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
	}

	if locationStore.UpdateLocationCallCount != 100 {
		t.Errorf("expected 100 updates, got %d", locationStore.UpdateLocationCallCount)
	}
}

func TestDriverLocationUpdate_OfflineDriver_SkipsGeoIndex(t *testing.T) {
	t.Parallel()

	locationStore := NewMockLocationStore()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", IsOnline: false})

	driverService := service.NewDriverService(locationStore, NewMockCacheStore(), driverRepo, clock.NewFake(time.Now()))

	req := service.UpdateLocationRequest{DriverID: "driver-1", Lat: 12.9716, Lng: 77.5946}
	if err := driverService.UpdateLocation(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The driver's last position is still persisted, but an offline driver
	// never republishes to the geo index the matching engine queries.
	if locationStore.HasLocation("driver-1") {
		t.Error("expected offline driver to be skipped in the geo index")
	}
	driver := driverRepo.GetDriver("driver-1")
	if driver.LastLat == nil || *driver.LastLat != 12.9716 {
		t.Error("expected the driver's last reported position to be persisted regardless")
	}
}

func TestDriverLocationUpdate_RedisError_PropagatesError(t *testing.T) {
	t.Parallel()

	locationStore := NewMockLocationStore()
	locationStore.UpdateLocationError = ErrMockTimeout

	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", IsOnline: true})

	driverService := service.NewDriverService(locationStore, NewMockCacheStore(), driverRepo, clock.NewFake(time.Now()))

	req := service.UpdateLocationRequest{DriverID: "driver-1", Lat: 12.9716, Lng: 77.5946}
	if err := driverService.UpdateLocation(context.Background(), req); err == nil {
		t.Error("expected error when Redis fails, got nil")
	}
}

func TestDriverGoOnline_PublishesExistingLocation(t *testing.T) {
	t.Parallel()

	lat, lng := 12.9716, 77.5946
	locationStore := NewMockLocationStore()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", IsOnline: false, LastLat: &lat, LastLng: &lng})

	driverService := service.NewDriverService(locationStore, NewMockCacheStore(), driverRepo, clock.NewFake(time.Now()))

	if err := driverService.GoOnline(context.Background(), "driver-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !locationStore.HasLocation("driver-1") {
		t.Error("expected the driver's existing location to be republished on going online")
	}
}

func TestDriverGoOffline_RemovesFromGeoIndex(t *testing.T) {
	t.Parallel()

	lat, lng := 12.9716, 77.5946
	locationStore := NewMockLocationStore()
	locationStore.SetLocations([]redis.DriverLocation{{DriverID: "driver-1", Lat: lat, Lng: lng}})
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", IsOnline: true, LastLat: &lat, LastLng: &lng})

	driverService := service.NewDriverService(locationStore, NewMockCacheStore(), driverRepo, clock.NewFake(time.Now()))

	if err := driverService.GoOffline(context.Background(), "driver-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if locationStore.HasLocation("driver-1") {
		t.Error("expected the driver to be removed from the geo index on going offline")
	}
}
