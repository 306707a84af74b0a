package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opsline/training-assign-api/internal/models"
	appErrors "github.com/opsline/training-assign-api/pkg/errors"
)

type traineeLister interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Trainee, error)
}

type catalogLister interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.CatalogRow, error)
}

type requirementDirectory interface {
	MapAll(ctx context.Context) (map[string][]string, error)
}

type assignmentLister interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Assignment, error)
}

type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CategoryService serves categorization snapshots, cached per schedule and
// invalidated on every assignment mutation.
type CategoryService struct {
	trainees        traineeLister
	catalog         catalogLister
	requirements    requirementDirectory
	assignments     assignmentLister
	cache           snapshotCache
	cacheTTL        time.Duration
	defaultCapacity int
	logger          *zap.Logger
}

// NewCategoryService wires the categorizer dependencies.
func NewCategoryService(
	trainees traineeLister,
	catalog catalogLister,
	requirements requirementDirectory,
	assignments assignmentLister,
	cache snapshotCache,
	cacheTTL time.Duration,
	defaultCapacity int,
	logger *zap.Logger,
) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CategoryService{
		trainees:        trainees,
		catalog:         catalog,
		requirements:    requirements,
		assignments:     assignments,
		cache:           cache,
		cacheTTL:        cacheTTL,
		defaultCapacity: defaultCapacity,
		logger:          logger,
	}
}

func categoryCacheKey(scheduleID string) string {
	return fmt.Sprintf("categories:%s", scheduleID)
}

// Snapshot returns the schedule's categorization, from cache when fresh.
func (s *CategoryService) Snapshot(ctx context.Context, scheduleID string) (*models.CategorySet, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}

	if s.cache != nil {
		var cached models.CategorySet
		err := s.cache.Get(ctx, categoryCacheKey(scheduleID), &cached)
		if err == nil {
			return &cached, nil
		}
		if !appErrors.HasCode(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("category cache read failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		}
	}

	set, err := s.Compute(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, categoryCacheKey(scheduleID), set, s.cacheTTL); err != nil {
			s.logger.Warn("category cache write failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		}
	}
	return set, nil
}

// Compute rebuilds the categorization from storage, bypassing the cache.
func (s *CategoryService) Compute(ctx context.Context, scheduleID string) (*models.CategorySet, error) {
	trainees, err := s.trainees.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainees")
	}
	rows, err := s.catalog.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session catalog")
	}
	requirements, err := s.requirements.MapAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement directory")
	}
	assignments, err := s.assignments.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}

	index := BuildSessionIndex(rows, s.defaultCapacity, s.logger)
	return Categorize(trainees, requirements, index.Courses(), assignments), nil
}

// Invalidate drops the cached snapshot after a mutation.
func (s *CategoryService) Invalidate(ctx context.Context, scheduleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, categoryCacheKey(scheduleID)); err != nil {
		s.logger.Warn("category cache invalidation failed", zap.String("schedule_id", scheduleID), zap.Error(err))
	}
}
