package service

import (
	"context"

	"ride/internal/clock"
	"ride/internal/domain"
	"ride/internal/repository"
)

// ManagerService implements the manager controls (C12): toggling the trips
// kill switch and other feature flags, and reading back the live config.
type ManagerService struct {
	configRepo repository.SystemConfigRepository
	config     *ConfigReader
	clock      clock.Clock
}

func NewManagerService(configRepo repository.SystemConfigRepository, config *ConfigReader, clk clock.Clock) *ManagerService {
	return &ManagerService{configRepo: configRepo, config: config, clock: clk}
}

// GetSystemConfig returns the live SystemConfig.
func (s *ManagerService) GetSystemConfig(ctx context.Context) (*domain.SystemConfig, error) {
	return s.config.Get(ctx)
}

// ToggleTrips implements managerToggleTrips(enabled): writes the kill switch
// and invalidates this process's cache so its own next read is never stale.
func (s *ManagerService) ToggleTrips(ctx context.Context, enabled bool, updatedBy string) (*domain.SystemConfig, error) {
	return s.toggle(ctx, updatedBy, func(cfg *domain.SystemConfig) {
		cfg.TripsEnabled = enabled
	})
}

// ToggleFeatureFlag implements managerToggleFeatureFlag(flag, enabled) for
// the two pilot flags beyond the trips kill switch: roadblocks and payments.
func (s *ManagerService) ToggleFeatureFlag(ctx context.Context, flag string, enabled bool, updatedBy string) (*domain.SystemConfig, error) {
	switch flag {
	case "roadblocks":
		return s.toggle(ctx, updatedBy, func(cfg *domain.SystemConfig) { cfg.RoadblocksEnabled = enabled })
	case "payments":
		return s.toggle(ctx, updatedBy, func(cfg *domain.SystemConfig) { cfg.PaymentsEnabled = enabled })
	default:
		return nil, NewError(KindInvalidArgument, "unknown feature flag: "+flag)
	}
}

func (s *ManagerService) toggle(ctx context.Context, updatedBy string, mutate func(*domain.SystemConfig)) (*domain.SystemConfig, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	mutate(cfg)
	cfg.UpdatedAt = s.clock.Now()
	cfg.UpdatedBy = updatedBy
	if err := s.configRepo.Upsert(ctx, cfg); err != nil {
		return nil, err
	}
	s.config.Invalidate()
	return cfg, nil
}
