package tests

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"ride/internal/domain"
	"ride/internal/geo"
	"ride/internal/redis"
)

func TestMatchingLogic_FiltersOfflineDrivers(t *testing.T) {
	ctx := context.Background()

	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()

	offlineDriver := &domain.Driver{ID: "driver-offline", IsOnline: false, IsAvailable: true}
	onlineDriver := &domain.Driver{ID: "driver-online", IsOnline: true, IsAvailable: true}
	driverRepo.AddDriver(offlineDriver)
	driverRepo.AddDriver(onlineDriver)

	// The geo index only ever holds drivers who are online; an offline
	// driver is removed from it (see DriverService.GoOffline), so it never
	// surfaces here even though a row still exists in the repository.
	locationStore.SetLocations([]redis.DriverLocation{
		{DriverID: "driver-online", Lat: 12.1, Lng: 77.1},
	})

	nearbyDrivers, err := locationStore.FindNearbyDrivers(ctx, 12.0, 77.0, 5.0)
	if err != nil {
		t.Fatalf("failed to find nearby drivers: %v", err)
	}

	var matchedDriver *domain.Driver
	for _, loc := range nearbyDrivers {
		driver, err := driverRepo.GetByID(ctx, loc.DriverID)
		if err != nil {
			continue
		}
		if driver.IsOnline && driver.IsAvailable {
			matchedDriver = driver
			break
		}
	}

	if matchedDriver == nil {
		t.Fatal("expected to match a driver")
	}
	if matchedDriver.ID != "driver-online" {
		t.Errorf("expected driver-online, got %s", matchedDriver.ID)
	}
}

func TestMatchingLogic_FiltersUnavailableDrivers(t *testing.T) {
	ctx := context.Background()

	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()

	busyDriver := &domain.Driver{ID: "driver-busy", IsOnline: true, IsAvailable: false}
	freeDriver := &domain.Driver{ID: "driver-free", IsOnline: true, IsAvailable: true}
	driverRepo.AddDriver(busyDriver)
	driverRepo.AddDriver(freeDriver)

	locationStore.SetLocations([]redis.DriverLocation{
		{DriverID: "driver-busy", Lat: 12.0, Lng: 77.0},
		{DriverID: "driver-free", Lat: 12.1, Lng: 77.1},
	})

	nearbyDrivers, _ := locationStore.FindNearbyDrivers(ctx, 12.0, 77.0, 5.0)

	var matchedDriver *domain.Driver
	for _, loc := range nearbyDrivers {
		driver, err := driverRepo.GetByID(ctx, loc.DriverID)
		if err != nil || !driver.IsAvailable {
			continue
		}
		matchedDriver = driver
		break
	}

	if matchedDriver == nil {
		t.Fatal("expected to match the available driver")
	}
	if matchedDriver.ID != "driver-free" {
		t.Errorf("expected driver-free (other is already on a trip), got %s", matchedDriver.ID)
	}
}

func TestMatchingLogic_NoDriversAvailable(t *testing.T) {
	ctx := context.Background()

	locationStore := NewMockLocationStore()

	nearbyDrivers, err := locationStore.FindNearbyDrivers(ctx, 12.0, 77.0, 5.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nearbyDrivers) != 0 {
		t.Errorf("expected no drivers, got %d", len(nearbyDrivers))
	}
}

// TestRankedCandidates_SortsByHaversineDistance mirrors rankedCandidates'
// authoritative re-ranking: the geo prefilter only shortlists, the actual
// nearest-first order always comes from a Haversine recompute.
func TestRankedCandidates_SortsByHaversineDistance(t *testing.T) {
	pickup := geo.Point{Lat: 12.0, Lng: 77.0}
	nearby := []redis.DriverLocation{
		{DriverID: "driver-far", Lat: 12.5, Lng: 77.5},
		{DriverID: "driver-close", Lat: 12.01, Lng: 77.01},
		{DriverID: "driver-mid", Lat: 12.2, Lng: 77.2},
	}

	type ranked struct {
		id   string
		dist float64
	}
	candidates := make([]ranked, 0, len(nearby))
	for _, loc := range nearby {
		d := geo.HaversineKm(pickup, geo.Point{Lat: loc.Lat, Lng: loc.Lng})
		candidates = append(candidates, ranked{id: loc.DriverID, dist: d})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	if candidates[0].id != "driver-close" {
		t.Errorf("expected driver-close to rank first, got %s", candidates[0].id)
	}
	if candidates[len(candidates)-1].id != "driver-far" {
		t.Errorf("expected driver-far to rank last, got %s", candidates[len(candidates)-1].id)
	}
}

// TestRankedCandidates_ExcludesBeyondRadius mirrors rankedCandidates'
// authoritative cap: anything the Redis prefilter shortlists but whose
// recomputed distance exceeds the search radius is dropped, never just
// deprioritized.
func TestRankedCandidates_ExcludesBeyondRadius(t *testing.T) {
	pickup := geo.Point{Lat: 12.0, Lng: 77.0}
	farPoint := geo.Point{Lat: 13.5, Lng: 78.5} // well beyond any pilot radius
	if d := geo.HaversineKm(pickup, farPoint); d <= 15.0 {
		t.Fatalf("test fixture invalid: expected > 15km, got %.2fkm", d)
	}

	nearby := []redis.DriverLocation{
		{DriverID: "driver-far", Lat: farPoint.Lat, Lng: farPoint.Lng},
		{DriverID: "driver-close", Lat: 12.01, Lng: 77.01},
	}
	var kept []string
	for _, loc := range nearby {
		if geo.HaversineKm(pickup, geo.Point{Lat: loc.Lat, Lng: loc.Lng}) > 15.0 {
			continue
		}
		kept = append(kept, loc.DriverID)
	}
	if len(kept) != 1 || kept[0] != "driver-close" {
		t.Errorf("expected only driver-close within 15km, got %v", kept)
	}
}

func TestDriverLocking_AcquireLock(t *testing.T) {
	ctx := context.Background()
	lockStore := NewMockLockStore()
	driverID := "driver-1"

	acquired, err := lockStore.AcquireDriverLock(ctx, driverID, 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Error("expected to acquire lock")
	}
	if !lockStore.IsLocked(driverID) {
		t.Error("expected driver to be locked")
	}
}

func TestDriverLocking_CannotAcquireLockedDriver(t *testing.T) {
	ctx := context.Background()
	lockStore := NewMockLockStore()
	driverID := "driver-1"

	acquired1, _ := lockStore.AcquireDriverLock(ctx, driverID, 10*time.Second)
	if !acquired1 {
		t.Fatal("expected first lock to succeed")
	}

	acquired2, err := lockStore.AcquireDriverLock(ctx, driverID, 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired2 {
		t.Error("expected second lock to fail")
	}
}

func TestDriverLocking_ReleaseLock(t *testing.T) {
	ctx := context.Background()
	lockStore := NewMockLockStore()
	driverID := "driver-1"

	lockStore.AcquireDriverLock(ctx, driverID, 10*time.Second)
	if err := lockStore.ReleaseDriverLock(ctx, driverID); err != nil {
		t.Fatalf("unexpected error releasing lock: %v", err)
	}

	acquired, _ := lockStore.AcquireDriverLock(ctx, driverID, 10*time.Second)
	if !acquired {
		t.Error("expected to acquire lock after release")
	}
}

func TestDriverLocking_ConcurrentLockAttempts(t *testing.T) {
	ctx := context.Background()
	lockStore := NewMockLockStore()
	driverID := "driver-1"
	numGoroutines := 10
	successCount := 0
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			acquired, err := lockStore.AcquireDriverLock(ctx, driverID, 10*time.Second)
			if err != nil {
				return
			}
			if acquired {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successCount != 1 {
		t.Errorf("expected exactly 1 successful lock, got %d", successCount)
	}
}

func TestMatchingLogic_SkipsLockedDrivers(t *testing.T) {
	ctx := context.Background()

	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()
	lockStore := NewMockLockStore()

	driver1 := &domain.Driver{ID: "driver-1", IsOnline: true, IsAvailable: true}
	driver2 := &domain.Driver{ID: "driver-2", IsOnline: true, IsAvailable: true}
	driverRepo.AddDriver(driver1)
	driverRepo.AddDriver(driver2)

	locationStore.SetLocations([]redis.DriverLocation{
		{DriverID: "driver-1", Lat: 12.0, Lng: 77.0},
		{DriverID: "driver-2", Lat: 12.1, Lng: 77.1},
	})

	lockStore.AcquireDriverLock(ctx, "driver-1", 10*time.Second)

	nearbyDrivers, _ := locationStore.FindNearbyDrivers(ctx, 12.0, 77.0, 5.0)

	var matchedDriver *domain.Driver
	for _, loc := range nearbyDrivers {
		driver, err := driverRepo.GetByID(ctx, loc.DriverID)
		if err != nil || !driver.IsOnline || !driver.IsAvailable {
			continue
		}
		acquired, _ := lockStore.AcquireDriverLock(ctx, driver.ID, 10*time.Second)
		if !acquired {
			continue
		}
		matchedDriver = driver
		break
	}

	if matchedDriver == nil {
		t.Fatal("expected to match a driver")
	}
	if matchedDriver.ID != "driver-2" {
		t.Errorf("expected driver-2 (first was locked), got %s", matchedDriver.ID)
	}
}
