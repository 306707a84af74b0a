package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsline/training-assign-api/internal/models"
	appErrors "github.com/opsline/training-assign-api/pkg/errors"
)

type stubSnapshotCache struct {
	store   map[string][]byte
	deletes []string
}

func (s *stubSnapshotCache) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubSnapshotCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubSnapshotCache) DeleteByPattern(_ context.Context, pattern string) error {
	s.deletes = append(s.deletes, pattern)
	s.store = nil
	return nil
}

type countingCatalog struct {
	rows  []models.CatalogRow
	calls int
}

func (c *countingCatalog) ListBySchedule(_ context.Context, _ string) ([]models.CatalogRow, error) {
	c.calls++
	return c.rows, nil
}

func TestSnapshotCachesPerSchedule(t *testing.T) {
	catalog := &countingCatalog{rows: twoCourseCatalog()}
	cache := &stubSnapshotCache{}
	traineeReader := &stubTraineeReader{trainees: map[string]models.Trainee{
		"t1": {ID: "t1", Location: "berlin", Role: "all"},
	}}
	svc := NewCategoryService(
		traineeReader, catalog, &stubRequirements{byRole: map[string][]string{"all": {"course-a", "course-b"}}},
		&stubAssignmentStore{}, cache, time.Minute, 25, zap.NewNop())

	ctx := context.Background()
	first, err := svc.Snapshot(ctx, "sched-1")
	require.NoError(t, err)
	require.Len(t, first.NeedsAll, 1)
	assert.Equal(t, 1, catalog.calls)

	second, err := svc.Snapshot(ctx, "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.calls)
	assert.Equal(t, first.ByTrainee, second.ByTrainee)

	svc.Invalidate(ctx, "sched-1")
	require.NotEmpty(t, cache.deletes)

	_, err = svc.Snapshot(ctx, "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.calls)
}

func TestSnapshotRequiresScheduleID(t *testing.T) {
	svc := NewCategoryService(
		&stubTraineeReader{}, &stubCatalog{}, &stubRequirements{}, &stubAssignmentStore{},
		&stubSnapshotCache{}, time.Minute, 25, zap.NewNop())

	_, err := svc.Snapshot(context.Background(), "")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
