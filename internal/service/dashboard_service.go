package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/studyhub-dev/study-portal-api/internal/models"
)

type statsSource interface {
	Stats() models.Stats
	RecentMaterials(limit int) []models.Material
	PendingMaterials() []models.Material
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const statsCacheKey = "portal:stats"

// DashboardOverview is the admin landing payload.
type DashboardOverview struct {
	Stats           models.Stats      `json:"stats"`
	RecentMaterials []models.Material `json:"recent_materials"`
	PendingQueue    int               `json:"pending_queue"`
}

// DashboardService assembles admin dashboard aggregates. Stats are derived
// from the in-memory mirrors and additionally cached in Redis so other
// consumers (and a cold instance during startup) can read them cheaply.
type DashboardService struct {
	source statsSource
	cache  statsCache
	logger *zap.Logger
	ttl    time.Duration
	recent int
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(source statsSource, cache statsCache, ttl time.Duration, recent int, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if recent <= 0 {
		recent = 5
	}
	return &DashboardService{source: source, cache: cache, logger: logger, ttl: ttl, recent: recent}
}

// Stats returns the derived aggregates and refreshes the cached copy.
func (s *DashboardService) Stats(ctx context.Context) models.Stats {
	stats := s.source.Stats()
	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.ttl); err != nil {
			s.logger.Warn("failed to cache stats", zap.Error(err))
		}
	}
	return stats
}

// Overview returns the dashboard aggregates plus the freshest approvals.
func (s *DashboardService) Overview(ctx context.Context) DashboardOverview {
	stats := s.Stats(ctx)
	return DashboardOverview{
		Stats:           stats,
		RecentMaterials: s.source.RecentMaterials(s.recent),
		PendingQueue:    len(s.source.PendingMaterials()),
	}
}
