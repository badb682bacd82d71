package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campuskit/college-admin-api/internal/models"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
)

type dashboardRepo interface {
	EnrollmentStatusCounts(ctx context.Context, termID string) ([]models.EnrollmentStatusCount, error)
	ProgramEnrollmentCounts(ctx context.Context, termID string) ([]models.ProgramEnrollmentCount, error)
	CollectionsBetween(ctx context.Context, from, to time.Time) (*models.CollectionsSummary, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type dashboardMetrics interface {
	RecordDashboardCache(hit bool)
}

// DashboardService aggregates reporting figures, caching each term's summary
// in Redis for the configured TTL. The cache may be nil; reads then always
// hit the database.
type DashboardService struct {
	reports  dashboardRepo
	cache    dashboardCache
	metrics  dashboardMetrics
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewDashboardService constructs a DashboardService. Cache and metrics may
// be nil.
func NewDashboardService(reports dashboardRepo, cache dashboardCache, metrics dashboardMetrics, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{reports: reports, cache: cache, metrics: metrics, logger: logger, cacheTTL: cacheTTL}
}

// Summary returns the enrollment and collections overview for a term. The
// collections window defaults to the last 30 days when unset.
func (s *DashboardService) Summary(ctx context.Context, termID string, from, to time.Time) (*models.DashboardSummary, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term_id is required")
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if !from.Before(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}

	key := s.cacheKey(termID, from, to)
	if cached := s.fromCache(ctx, key); cached != nil {
		if s.metrics != nil {
			s.metrics.RecordDashboardCache(true)
		}
		return cached, nil
	}
	if s.metrics != nil {
		s.metrics.RecordDashboardCache(false)
	}

	statusCounts, err := s.reports.EnrollmentStatusCounts(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status counts")
	}
	programCounts, err := s.reports.ProgramEnrollmentCounts(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program counts")
	}
	collections, err := s.reports.CollectionsBetween(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collections")
	}

	summary := &models.DashboardSummary{
		TermID:        termID,
		StatusCounts:  statusCounts,
		ProgramCounts: programCounts,
		Collections:   *collections,
		GeneratedAt:   time.Now().UTC(),
	}
	s.toCache(ctx, key, summary)
	return summary, nil
}

func (s *DashboardService) cacheKey(termID string, from, to time.Time) string {
	return fmt.Sprintf("dashboard:%s:%s:%s", termID, from.UTC().Format("20060102"), to.UTC().Format("20060102"))
}

func (s *DashboardService) fromCache(ctx context.Context, key string) *models.DashboardSummary {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	var summary models.DashboardSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		s.logger.Warn("dashboard cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &summary
}

func (s *DashboardService) toCache(ctx context.Context, key string, summary *models.DashboardSummary) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("dashboard cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
