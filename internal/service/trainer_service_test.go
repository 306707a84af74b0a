package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsline/training-assign-api/internal/dto"
	"github.com/opsline/training-assign-api/internal/models"
	appErrors "github.com/opsline/training-assign-api/pkg/errors"
)

type stubTrainerStore struct {
	trainers map[string]models.Trainer
	created  []models.TrainerSessionAssignment
}

func (s *stubTrainerStore) FindByID(_ context.Context, id string) (*models.Trainer, error) {
	trainer, ok := s.trainers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &trainer, nil
}

func (s *stubTrainerStore) BulkCreateSessionAssignments(_ context.Context, assignments []models.TrainerSessionAssignment) ([]models.TrainerSessionAssignment, error) {
	s.created = append(s.created, assignments...)
	return assignments, nil
}

func (s *stubTrainerStore) ListSessionAssignments(_ context.Context, trainerID string) ([]models.TrainerSessionAssignment, error) {
	var result []models.TrainerSessionAssignment
	for _, a := range s.created {
		if a.TrainerID == trainerID {
			result = append(result, a)
		}
	}
	return result, nil
}

func timedRow(id string, start, end time.Time) models.CatalogRow {
	row := catalogRow(id, "course-a", "berlin", "ops", "Group 1", 25)
	row.StartsAt = start
	row.EndsAt = end
	return row
}

func newTrainerFixture(rows []models.CatalogRow) (*TrainerService, *stubTrainerStore) {
	store := &stubTrainerStore{trainers: map[string]models.Trainer{
		"trainer-1": {ID: "trainer-1", FullName: "Trainer One", Location: "berlin"},
	}}
	svc := NewTrainerService(store, &stubCatalog{rows: rows}, nil, zap.NewNop(), 25)
	return svc, store
}

func TestAssignSessionsCommitsSelection(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rows := []models.CatalogRow{
		timedRow("row-1", base, base.Add(time.Hour)),
		timedRow("row-2", base.Add(2*time.Hour), base.Add(3*time.Hour)),
	}
	svc, store := newTrainerFixture(rows)

	result, err := svc.AssignSessions(context.Background(), "trainer-1", dto.TrainerAssignRequest{
		ScheduleID: "sched-1",
		SessionIDs: []string{"row-2", "row-1"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)
	require.Len(t, result.Applied, 2)
	// Commits are ordered by session start regardless of request order.
	assert.Equal(t, "row-1", result.Applied[0].SessionID)
	assert.Equal(t, "row-2", result.Applied[1].SessionID)
	assert.Len(t, store.created, 2)
}

func TestAssignSessionsReportsOverlapsButCommits(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rows := []models.CatalogRow{
		timedRow("row-1", base, base.Add(2*time.Hour)),
		timedRow("row-2", base.Add(time.Hour), base.Add(3*time.Hour)),
	}
	svc, store := newTrainerFixture(rows)

	result, err := svc.AssignSessions(context.Background(), "trainer-1", dto.TrainerAssignRequest{
		ScheduleID: "sched-1",
		SessionIDs: []string{"row-1", "row-2"},
	})
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	overlap := result.Conflicts[0]
	assert.Equal(t, "row-1", overlap.FirstSessionID)
	assert.Equal(t, "row-2", overlap.SecondSessionID)
	assert.Equal(t, base.Add(time.Hour), overlap.OverlapStart)
	assert.Equal(t, base.Add(2*time.Hour), overlap.OverlapEnd)

	// Overlaps warn, they never block the commit.
	assert.Len(t, result.Applied, 2)
	assert.Len(t, store.created, 2)
}

func TestAssignSessionsDisjointSessionStaysOutOfConflicts(t *testing.T) {
	// Two overlapping morning sessions plus a disjoint afternoon one: exactly
	// one conflict pair, and the afternoon session is in neither side of it.
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rows := []models.CatalogRow{
		timedRow("row-1", base, base.Add(2*time.Hour)),
		timedRow("row-2", base.Add(time.Hour), base.Add(3*time.Hour)),
		timedRow("row-3", base.Add(5*time.Hour), base.Add(6*time.Hour)),
	}
	svc, store := newTrainerFixture(rows)

	result, err := svc.AssignSessions(context.Background(), "trainer-1", dto.TrainerAssignRequest{
		ScheduleID: "sched-1",
		SessionIDs: []string{"row-3", "row-1", "row-2"},
	})
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	overlap := result.Conflicts[0]
	assert.Equal(t, "row-1", overlap.FirstSessionID)
	assert.Equal(t, "row-2", overlap.SecondSessionID)
	assert.NotEqual(t, "row-3", overlap.FirstSessionID)
	assert.NotEqual(t, "row-3", overlap.SecondSessionID)

	assert.Len(t, result.Applied, 3)
	assert.Len(t, store.created, 3)
}

func TestAssignSessionsUnknownSessionAborts(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, store := newTrainerFixture([]models.CatalogRow{timedRow("row-1", base, base.Add(time.Hour))})

	_, err := svc.AssignSessions(context.Background(), "trainer-1", dto.TrainerAssignRequest{
		ScheduleID: "sched-1",
		SessionIDs: []string{"row-1", "row-ghost"},
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
	assert.Empty(t, store.created)
}

func TestAssignSessionsUnknownTrainer(t *testing.T) {
	svc, _ := newTrainerFixture(nil)
	_, err := svc.AssignSessions(context.Background(), "ghost", dto.TrainerAssignRequest{
		ScheduleID: "sched-1",
		SessionIDs: []string{"row-1"},
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestDetectOverlapsBackToBackIsClean(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		{ID: "s1", StartsAt: base, EndsAt: base.Add(time.Hour)},
		{ID: "s2", StartsAt: base.Add(time.Hour), EndsAt: base.Add(2 * time.Hour)},
	}
	assert.Empty(t, detectOverlaps(sessions))
}
