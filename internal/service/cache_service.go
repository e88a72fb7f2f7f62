package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
)

const (
	assignmentCachePrefix        = "assignments:"
	assignmentGenerationKey      = "assignments:generation"
	assignmentSupervisorCacheKey = "supervisor:"
	assignmentTraineeCacheKey    = "trainee:"
)

// CacheRepository abstracts persistence for cached id lists.
type CacheRepository interface {
	GetIDs(ctx context.Context, key string) ([]string, error)
	SetIDs(ctx context.Context, key string, ids []string, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Counter(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// CacheService wraps the assignment cache with metrics. A disabled service always misses.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// GetIDs returns the cached ids and whether the lookup was a hit. Backend errors count as misses.
func (s *CacheService) GetIDs(ctx context.Context, key string) ([]string, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	ids, err := s.repo.GetIDs(ctx, key)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	s.metrics.RecordCacheOperation(true, duration)
	return ids, true
}

// SetIDs stores ids under key; failures are logged only.
func (s *CacheService) SetIDs(ctx context.Context, key string, ids []string) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	err := s.repo.SetIDs(ctx, key, ids, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Generation reads the counter under key. ok is false when the cache cannot be trusted for this call.
func (s *CacheService) Generation(ctx context.Context, key string) (int64, bool) {
	if !s.Enabled() {
		return 0, false
	}
	gen, err := s.repo.Counter(ctx, key)
	if err != nil {
		s.logger.Warn("cache generation read failed", zap.String("key", key), zap.Error(err))
		return 0, false
	}
	return gen, true
}

// Advance bumps the counter under key. Entries written under an older generation are never read again.
func (s *CacheService) Advance(ctx context.Context, key string) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	gen, err := s.repo.Incr(ctx, key)
	if err != nil {
		s.logger.Error("cache generation bump failed", zap.String("key", key), zap.Error(err))
		return 0, err
	}
	return gen, nil
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}
