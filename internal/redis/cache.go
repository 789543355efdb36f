package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	DriverCacheTTL      = 30 * time.Second // Driver availability changes frequently
	TripRequestCacheTTL = 10 * time.Second // Trip requests change during matching
	TripCacheTTL        = 60 * time.Second // Trips change less frequently
	ConfigCacheTTL      = 10 * time.Second // system config TTL, per the kill-switch contract
)

// Key prefixes
const (
	driverCachePrefix      = "cache:driver:"
	tripRequestCachePrefix = "cache:triprequest:"
	tripCachePrefix        = "cache:trip:"
)

// CachedDriver represents a cached driver snapshot, written by DriverService
// and invalidated after a matching claim.
type CachedDriver struct {
	ID          string   `json:"id"`
	IsOnline    bool     `json:"is_online"`
	IsAvailable bool     `json:"is_available"`
	LastLat     *float64 `json:"last_lat,omitempty"`
	LastLng     *float64 `json:"last_lng,omitempty"`
}

// CachedTripRequest represents a cached trip request entity.
type CachedTripRequest struct {
	ID              string `json:"id"`
	PassengerID     string `json:"passenger_id"`
	Status          string `json:"status"`
	MatchedDriverID string `json:"matched_driver_id,omitempty"`
}

// GetDriver retrieves a driver from cache.
func (s *CacheStore) GetDriver(ctx context.Context, driverID string) (*CachedDriver, error) {
	key := driverCachePrefix + driverID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var driver CachedDriver
	if err := json.Unmarshal(data, &driver); err != nil {
		return nil, err
	}
	return &driver, nil
}

// SetDriver stores a driver in cache.
func (s *CacheStore) SetDriver(ctx context.Context, driver *CachedDriver) error {
	key := driverCachePrefix + driver.ID
	data, err := json.Marshal(driver)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, DriverCacheTTL).Err()
}

// InvalidateDriver removes a driver from cache.
func (s *CacheStore) InvalidateDriver(ctx context.Context, driverID string) error {
	key := driverCachePrefix + driverID
	return s.client.Del(ctx, key).Err()
}

// GetTripRequest retrieves a trip request from cache.
func (s *CacheStore) GetTripRequest(ctx context.Context, requestID string) (*CachedTripRequest, error) {
	key := tripRequestCachePrefix + requestID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var req CachedTripRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// SetTripRequest stores a trip request in cache.
func (s *CacheStore) SetTripRequest(ctx context.Context, req *CachedTripRequest) error {
	key := tripRequestCachePrefix + req.ID
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, TripRequestCacheTTL).Err()
}

// InvalidateTripRequest removes a trip request from cache.
func (s *CacheStore) InvalidateTripRequest(ctx context.Context, requestID string) error {
	key := tripRequestCachePrefix + requestID
	return s.client.Del(ctx, key).Err()
}

// GetDriversBatch retrieves multiple drivers from cache using pipeline.
// Returns a map of driverID -> CachedDriver, and a slice of missing IDs.
func (s *CacheStore) GetDriversBatch(ctx context.Context, driverIDs []string) (map[string]*CachedDriver, []string, error) {
	if len(driverIDs) == 0 {
		return make(map[string]*CachedDriver), nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(driverIDs))

	for _, id := range driverIDs {
		key := driverCachePrefix + id
		cmds[id] = pipe.Get(ctx, key)
	}

	_, _ = pipe.Exec(ctx) // Exec reports redis.Nil for a missing key; errors are handled per-cmd below

	result := make(map[string]*CachedDriver)
	var missing []string

	for id, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}

		var driver CachedDriver
		if err := json.Unmarshal(data, &driver); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = &driver
	}

	return result, missing, nil
}

// SetDriversBatch stores multiple drivers in cache using pipeline.
func (s *CacheStore) SetDriversBatch(ctx context.Context, drivers []*CachedDriver) error {
	if len(drivers) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()

	for _, driver := range drivers {
		key := driverCachePrefix + driver.ID
		data, err := json.Marshal(driver)
		if err != nil {
			continue // Skip invalid entries
		}
		pipe.Set(ctx, key, data, DriverCacheTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// AcquireTripRequestLock attempts to acquire a lock for a trip request's
// matching attempt. This serializes concurrent matching passes against the
// same request.
func (s *CacheStore) AcquireTripRequestLock(ctx context.Context, requestID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:triprequest:%s", requestID)
	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ReleaseTripRequestLock releases the lock for a trip request.
func (s *CacheStore) ReleaseTripRequestLock(ctx context.Context, requestID string) error {
	key := fmt.Sprintf("lock:triprequest:%s", requestID)
	return s.client.Del(ctx, key).Err()
}

// AddAvailableDriver tracks a driver in the fast-lookup available set.
func (s *CacheStore) AddAvailableDriver(ctx context.Context, driverID string) error {
	return s.client.SAdd(ctx, "available_drivers", driverID).Err()
}

// RemoveAvailableDriver removes a driver from the available set.
func (s *CacheStore) RemoveAvailableDriver(ctx context.Context, driverID string) error {
	return s.client.SRem(ctx, "available_drivers", driverID).Err()
}

// IsDriverAvailable checks if a driver is in the available set.
func (s *CacheStore) IsDriverAvailable(ctx context.Context, driverID string) (bool, error) {
	return s.client.SIsMember(ctx, "available_drivers", driverID).Result()
}

// GetAvailableDrivers returns all available driver IDs.
func (s *CacheStore) GetAvailableDrivers(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, "available_drivers").Result()
}
