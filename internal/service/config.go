package service

import (
	"context"
	"sync"
	"time"

	"ride/internal/clock"
	"ride/internal/domain"
	"ride/internal/repository"
)

// ConfigCacheTTL bounds how stale a process's view of SystemConfig can be
// after another process writes it.
const ConfigCacheTTL = 10 * time.Second

// ConfigReader is the single read path for runtime-tunable configuration,
// including the tripsEnabled kill switch. It is a plain value cache with an
// explicit TTL and invalidate(), never an implicit package-level singleton,
// so tests can construct their own instance against a fake clock.
type ConfigReader struct {
	repo  repository.SystemConfigRepository
	clock clock.Clock

	mu       sync.Mutex
	cached   *domain.SystemConfig
	cachedAt time.Time
}

// NewConfigReader creates a ConfigReader backed by repo.
func NewConfigReader(repo repository.SystemConfigRepository, clk clock.Clock) *ConfigReader {
	return &ConfigReader{repo: repo, clock: clk}
}

// Get returns the current SystemConfig, serving from cache when the TTL has
// not elapsed and re-reading the store otherwise.
func (c *ConfigReader) Get(ctx context.Context) (*domain.SystemConfig, error) {
	c.mu.Lock()
	if c.cached != nil && c.clock.Now().Sub(c.cachedAt) < ConfigCacheTTL {
		cfg := *c.cached
		c.mu.Unlock()
		return &cfg, nil
	}
	c.mu.Unlock()

	cfg, err := c.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = cfg
	c.cachedAt = c.clock.Now()
	c.mu.Unlock()

	result := *cfg
	return &result, nil
}

// Invalidate drops the cached value so the next Get re-reads the store. Call
// this in the same process that just wrote a config change so that process's
// own next read is never stale; other processes still observe the change at
// TTL expiry.
func (c *ConfigReader) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
