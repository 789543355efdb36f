package repository

import (
	"context"

	"ride/internal/domain"
)

// SystemConfigRepository persists the singleton runtime configuration row.
// Get returns domain.DefaultSystemConfig() when no row has ever been written.
type SystemConfigRepository interface {
	Get(ctx context.Context) (*domain.SystemConfig, error)
	Upsert(ctx context.Context, cfg *domain.SystemConfig) error
}
