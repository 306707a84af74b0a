package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsline/training-assign-api/internal/dto"
	"github.com/opsline/training-assign-api/internal/models"
	appErrors "github.com/opsline/training-assign-api/pkg/errors"
)

type stubAssignmentStore struct {
	assignments []models.Assignment
	createErr   error
	createCalls int
}

func (s *stubAssignmentStore) ListBySchedule(_ context.Context, scheduleID string) ([]models.Assignment, error) {
	var result []models.Assignment
	for _, a := range s.assignments {
		if a.ScheduleID == scheduleID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *stubAssignmentStore) ListByTrainee(_ context.Context, scheduleID, traineeID string) ([]models.Assignment, error) {
	var result []models.Assignment
	for _, a := range s.assignments {
		if a.ScheduleID == scheduleID && a.TraineeID == traineeID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *stubAssignmentStore) Create(_ context.Context, assignment *models.Assignment) error {
	s.createCalls++
	if s.createErr != nil {
		return s.createErr
	}
	if assignment.ID == "" {
		assignment.ID = fmt.Sprintf("assignment-%d", s.createCalls)
	}
	s.assignments = append(s.assignments, *assignment)
	return nil
}

func (s *stubAssignmentStore) DeleteForTraineeCourseGroup(_ context.Context, scheduleID, traineeID, courseID, groupID string) (int, error) {
	return s.deleteWhere(func(a models.Assignment) bool {
		return a.ScheduleID == scheduleID && a.TraineeID == traineeID && a.CourseID == courseID && a.GroupID == groupID
	}), nil
}

func (s *stubAssignmentStore) DeleteForTraineeGroup(_ context.Context, scheduleID, traineeID, groupID string) (int, error) {
	return s.deleteWhere(func(a models.Assignment) bool {
		return a.ScheduleID == scheduleID && a.TraineeID == traineeID && a.GroupID == groupID
	}), nil
}

func (s *stubAssignmentStore) DeleteBySchedule(_ context.Context, scheduleID string) (int, error) {
	return s.deleteWhere(func(a models.Assignment) bool { return a.ScheduleID == scheduleID }), nil
}

func (s *stubAssignmentStore) CountBySchedule(_ context.Context, scheduleID string) (int, error) {
	count := 0
	for _, a := range s.assignments {
		if a.ScheduleID == scheduleID {
			count++
		}
	}
	return count, nil
}

func (s *stubAssignmentStore) deleteWhere(match func(models.Assignment) bool) int {
	var kept []models.Assignment
	removed := 0
	for _, a := range s.assignments {
		if match(a) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.assignments = kept
	return removed
}

type stubTraineeReader struct {
	trainees map[string]models.Trainee
}

func (s *stubTraineeReader) FindByID(_ context.Context, id string) (*models.Trainee, error) {
	trainee, ok := s.trainees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &trainee, nil
}

func (s *stubTraineeReader) ListBySchedule(_ context.Context, _ string) ([]models.Trainee, error) {
	var result []models.Trainee
	for _, trainee := range s.trainees {
		result = append(result, trainee)
	}
	return result, nil
}

type stubCatalog struct {
	rows []models.CatalogRow
}

func (s *stubCatalog) ListBySchedule(_ context.Context, _ string) ([]models.CatalogRow, error) {
	return s.rows, nil
}

type stubRequirements struct {
	byRole map[string][]string
}

func (s *stubRequirements) MapAll(_ context.Context) (map[string][]string, error) {
	return s.byRole, nil
}

type stubInvalidator struct {
	calls int
}

func (s *stubInvalidator) Invalidate(_ context.Context, _ string) {
	s.calls++
}

type assignmentFixture struct {
	store        *stubAssignmentStore
	trainees     *stubTraineeReader
	invalidation *stubInvalidator
	svc          *AssignmentService
}

func newAssignmentFixture(rows []models.CatalogRow, trainees []models.Trainee, requirements map[string][]string, existing []models.Assignment) *assignmentFixture {
	store := &stubAssignmentStore{assignments: existing}
	traineeReader := &stubTraineeReader{trainees: make(map[string]models.Trainee)}
	for _, trainee := range trainees {
		traineeReader.trainees[trainee.ID] = trainee
	}
	invalidation := &stubInvalidator{}
	svc := NewAssignmentService(
		store, traineeReader, &stubCatalog{rows: rows}, &stubRequirements{byRole: requirements},
		invalidation, nil, nil, zap.NewNop(), 25)
	return &assignmentFixture{store: store, trainees: traineeReader, invalidation: invalidation, svc: svc}
}

func twoCourseCatalog() []models.CatalogRow {
	return []models.CatalogRow{
		catalogRow("row-a1", "course-a", "berlin", "ops", "Course A Group 1", 25),
		catalogRow("row-b1", "course-b", "berlin", "ops", "Course B Group 1", 25),
		catalogRow("row-a2", "course-a", "berlin", "ops", "Course A Group 2", 25),
		catalogRow("row-b2", "course-b", "berlin", "ops", "Course B Group 2", 25),
	}
}

func TestAssignOneMultiCourseForNeedsAll(t *testing.T) {
	fixture := newAssignmentFixture(
		twoCourseCatalog(),
		[]models.Trainee{{ID: "t1", Location: "berlin", Role: "all"}},
		map[string][]string{"all": {"course-a", "course-b"}},
		nil)

	result, err := fixture.svc.AssignOne(context.Background(), "sched-1", dto.AssignRequest{
		TraineeID: "t1",
		TargetID:  "course-a|p0|g1|ops",
	})
	require.NoError(t, err)
	assert.Equal(t, dto.StrategyMultiCourse, result.Strategy)
	require.Len(t, result.Created, 2)
	for _, created := range result.Created {
		assert.Equal(t, models.LevelGroup, created.Level)
		assert.Equal(t, models.AssignmentTypeManual, created.Type)
		assert.Equal(t, "berlin#1", created.GroupID)
	}
	assert.Equal(t, 1, fixture.invalidation.calls)
}

func TestAssignOneFullyAssignedIsNoOp(t *testing.T) {
	existing := []models.Assignment{
		{ID: "e1", ScheduleID: "sched-1", TraineeID: "t1", CourseID: "course-a", GroupID: "berlin#1", Location: "berlin"},
		{ID: "e2", ScheduleID: "sched-1", TraineeID: "t1", CourseID: "course-b", GroupID: "berlin#1", Location: "berlin"},
	}
	fixture := newAssignmentFixture(
		twoCourseCatalog(),
		[]models.Trainee{{ID: "t1", Location: "berlin", Role: "all"}},
		map[string][]string{"all": {"course-a", "course-b"}},
		existing)

	result, err := fixture.svc.AssignOne(context.Background(), "sched-1", dto.AssignRequest{
		TraineeID: "t1",
		TargetID:  "course-a|p0|g2|ops",
	})
	require.NoError(t, err)
	assert.Equal(t, dto.StrategyNone, result.Strategy)
	assert.Empty(t, result.Created)
	assert.Zero(t, fixture.store.createCalls)
	assert.Zero(t, fixture.invalidation.calls)
}

func TestAssignOneRejectsLocationMismatch(t *testing.T) {
	fixture := newAssignmentFixture(
		twoCourseCatalog(),
		[]models.Trainee{{ID: "t1", Location: "munich", Role: "all"}},
		map[string][]string{"all": {"course-a", "course-b"}},
		nil)

	_, err := fixture.svc.AssignOne(context.Background(), "sched-1", dto.AssignRequest{
		TraineeID: "t1",
		TargetID:  "course-a|p0|g1|ops",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrLocationMismatch))
	assert.Zero(t, fixture.store.createCalls)
}

func TestAssignOneUnknownTrainee(t *testing.T) {
	fixture := newAssignmentFixture(twoCourseCatalog(), nil, nil, nil)

	_, err := fixture.svc.AssignOne(context.Background(), "sched-1", dto.AssignRequest{
		TraineeID: "ghost",
		TargetID:  "course-a|p0|g1|ops",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestAssignOneCapacityExceeded(t *testing.T) {
	rows := []models.CatalogRow{
		catalogRow("row-a1", "course-a", "berlin", "ops", "Course A Group 1", 1),
		catalogRow("row-b1", "course-b", "berlin", "ops", "Course B Group 1", 1),
	}
	existing := []models.Assignment{
		{ID: "e1", ScheduleID: "sched-1", TraineeID: "other", CourseID: "course-a", GroupID: "berlin#1", Location: "berlin"},
	}
	fixture := newAssignmentFixture(
		rows,
		[]models.Trainee{{ID: "t1", Location: "berlin", Role: "all"}},
		map[string][]string{"all": {"course-a", "course-b"}},
		existing)

	_, err := fixture.svc.AssignOne(context.Background(), "sched-1", dto.AssignRequest{
		TraineeID: "t1",
		TargetID:  "course-a|p0|g1|ops",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrCapacityExceeded))
	assert.Zero(t, fixture.store.createCalls)
}

func TestAssignOneHonorsSessionSeatCounts(t *testing.T) {
	// Two trainees already hold every seat of the course-a session. The group
	// gate cannot reject t3 (their course-b record counts them as a group
	// member), so only the session-level count keyed by the stable session id
	// stands between t3 and an overbooked session.
	rows := []models.CatalogRow{
		catalogRow("row-a1", "course-a", "berlin", "ops", "Course A Group 1", 2),
		catalogRow("row-b1", "course-b", "berlin", "ops", "Course B Group 1", 25),
	}
	existing := []models.Assignment{
		{ID: "e1", ScheduleID: "sched-1", TraineeID: "held-1", CourseID: "course-a", SessionID: "course-a|p0|g1|ops", GroupID: "berlin#1", Location: "berlin"},
		{ID: "e2", ScheduleID: "sched-1", TraineeID: "held-2", CourseID: "course-a", SessionID: "course-a|p0|g1|ops", GroupID: "berlin#1", Location: "berlin"},
		{ID: "e3", ScheduleID: "sched-1", TraineeID: "t3", CourseID: "course-b", SessionID: "course-b|p0|g1|ops", GroupID: "berlin#1", Location: "berlin"},
	}
	fixture := newAssignmentFixture(
		rows,
		[]models.Trainee{{ID: "t3", Location: "berlin", Role: "all"}},
		map[string][]string{"all": {"course-a", "course-b"}},
		existing)

	_, err := fixture.svc.AssignOne(context.Background(), "sched-1", dto.AssignRequest{
		TraineeID: "t3",
		TargetID:  "course-a|p0|g1|ops",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrCapacityExceeded))
	assert.Zero(t, fixture.store.createCalls)
}

func TestAssignOneResolvesSameCourseConflict(t *testing.T) {
	// Partially assigned trainee holds course-a in group 2; dropping them
	// onto course-a group 1 clears the old record and, since nothing is
	// left, places the full group.
	existing := []models.Assignment{
		{ID: "e1", ScheduleID: "sched-1", TraineeID: "t1", CourseID: "course-a", GroupID: "berlin#2", Location: "berlin"},
	}
	fixture := newAssignmentFixture(
		twoCourseCatalog(),
		[]models.Trainee{{ID: "t1", Location: "berlin", Role: "all"}},
		map[string][]string{"all": {"course-a", "course-b"}},
		existing)

	result, err := fixture.svc.AssignOne(context.Background(), "sched-1", dto.AssignRequest{
		TraineeID: "t1",
		TargetID:  "course-a|p0|g1|ops",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, dto.StrategyMultiCourse, result.Strategy)
	require.Len(t, result.Created, 2)

	for _, a := range fixture.store.assignments {
		assert.NotEqual(t, "berlin#2", a.GroupID)
	}
}

func TestAssignOneConflictLeavesOtherCoursesAlone(t *testing.T) {
	// Trainee holds course-b in group 2 and is dropped onto course-a in
	// group 1: the course-b record is a different course and survives.
	existing := []models.Assignment{
		{ID: "e1", ScheduleID: "sched-1", TraineeID: "t1", CourseID: "course-b", GroupID: "berlin#2", Location: "berlin"},
	}
	fixture := newAssignmentFixture(
		twoCourseCatalog(),
		[]models.Trainee{{ID: "t1", Location: "berlin", Role: "all"}},
		map[string][]string{"all": {"course-a", "course-b"}},
		existing)

	result, err := fixture.svc.AssignOne(context.Background(), "sched-1", dto.AssignRequest{
		TraineeID: "t1",
		TargetID:  "course-a|p0|g1|ops",
	})
	require.NoError(t, err)
	assert.Zero(t, result.Removed)
	assert.Equal(t, dto.StrategySingleCourse, result.Strategy)

	survived := false
	for _, a := range fixture.store.assignments {
		if a.ID == "e1" {
			survived = true
		}
	}
	assert.True(t, survived)
}

func TestAssignManyPartialFailure(t *testing.T) {
	fixture := newAssignmentFixture(
		twoCourseCatalog(),
		[]models.Trainee{{ID: "t1", Location: "berlin", Role: "all"}},
		map[string][]string{"all": {"course-a", "course-b"}},
		nil)

	result, err := fixture.svc.AssignMany(context.Background(), "sched-1", dto.BulkAssignRequest{
		TraineeIDs: []string{"t1", "ghost"},
		TargetID:   "course-a|p0|g1|ops",
	})
	require.NoError(t, err)
	require.Len(t, result.Successful, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "ghost", result.Failed[0].TraineeID)
	assert.Equal(t, appErrors.ErrNotFound.Code, result.Failed[0].Code)
}

func TestAssignManySharesCapacityAcrossBatch(t *testing.T) {
	rows := []models.CatalogRow{
		catalogRow("row-a1", "course-a", "berlin", "ops", "Course A Group 1", 1),
		catalogRow("row-b1", "course-b", "berlin", "ops", "Course B Group 1", 1),
	}
	fixture := newAssignmentFixture(
		rows,
		[]models.Trainee{
			{ID: "t1", Location: "berlin", Role: "all"},
			{ID: "t2", Location: "berlin", Role: "all"},
		},
		map[string][]string{"all": {"course-a", "course-b"}},
		nil)

	result, err := fixture.svc.AssignMany(context.Background(), "sched-1", dto.BulkAssignRequest{
		TraineeIDs: []string{"t1", "t2"},
		TargetID:   "course-a|p0|g1|ops",
	})
	require.NoError(t, err)
	require.Len(t, result.Successful, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, result.Failed[0].Code)
}

func TestRemoveFromCourseKeepsOtherCourses(t *testing.T) {
	existing := []models.Assignment{
		{ID: "e1", ScheduleID: "sched-1", TraineeID: "t1", CourseID: "course-a", GroupID: "berlin#1", Location: "berlin"},
		{ID: "e2", ScheduleID: "sched-1", TraineeID: "t1", CourseID: "course-b", GroupID: "berlin#1", Location: "berlin"},
	}
	fixture := newAssignmentFixture(
		twoCourseCatalog(),
		[]models.Trainee{{ID: "t1", Location: "berlin", Role: "all"}},
		map[string][]string{"all": {"course-a", "course-b"}},
		existing)

	result, err := fixture.svc.RemoveFromCourse(context.Background(), "sched-1", dto.RemoveRequest{
		TraineeID: "t1",
		TargetID:  "course-a|p0|g1|ops",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
	require.Len(t, fixture.store.assignments, 1)
	assert.Equal(t, "course-b", fixture.store.assignments[0].CourseID)
}

func TestRemoveFromGroupClearsAllCourses(t *testing.T) {
	existing := []models.Assignment{
		{ID: "e1", ScheduleID: "sched-1", TraineeID: "t1", CourseID: "course-a", GroupID: "berlin#1", Location: "berlin"},
		{ID: "e2", ScheduleID: "sched-1", TraineeID: "t1", CourseID: "course-b", GroupID: "berlin#1", Location: "berlin"},
		{ID: "e3", ScheduleID: "sched-1", TraineeID: "other", CourseID: "course-a", GroupID: "berlin#1", Location: "berlin"},
	}
	fixture := newAssignmentFixture(
		twoCourseCatalog(),
		[]models.Trainee{{ID: "t1", Location: "berlin", Role: "all"}},
		map[string][]string{"all": {"course-a", "course-b"}},
		existing)

	result, err := fixture.svc.RemoveFromGroup(context.Background(), "sched-1", dto.RemoveRequest{
		TraineeID: "t1",
		TargetID:  "course-a|p0|g1|ops",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Removed)
	require.Len(t, fixture.store.assignments, 1)
	assert.Equal(t, "other", fixture.store.assignments[0].TraineeID)
}

func TestListForTraineeReturnsOnlyOwnRecords(t *testing.T) {
	existing := []models.Assignment{
		{ID: "e1", ScheduleID: "sched-1", TraineeID: "t1", CourseID: "course-a", GroupID: "berlin#1", Location: "berlin"},
		{ID: "e2", ScheduleID: "sched-1", TraineeID: "other", CourseID: "course-a", GroupID: "berlin#1", Location: "berlin"},
	}
	fixture := newAssignmentFixture(
		twoCourseCatalog(),
		[]models.Trainee{{ID: "t1", Location: "berlin", Role: "all"}},
		map[string][]string{"all": {"course-a", "course-b"}},
		existing)

	assignments, err := fixture.svc.ListForTrainee(context.Background(), "sched-1", "t1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "e1", assignments[0].ID)

	_, err = fixture.svc.ListForTrainee(context.Background(), "sched-1", "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestResetRequiresConfirmLiteral(t *testing.T) {
	existing := []models.Assignment{
		{ID: "e1", ScheduleID: "sched-1", TraineeID: "t1", CourseID: "course-a", GroupID: "berlin#1"},
	}
	fixture := newAssignmentFixture(twoCourseCatalog(), nil, nil, existing)

	_, err := fixture.svc.RemoveAllForSchedule(context.Background(), "sched-1", dto.ResetScheduleRequest{Confirm: "delete"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrPreconditionFailed))
	assert.Len(t, fixture.store.assignments, 1)

	result, err := fixture.svc.RemoveAllForSchedule(context.Background(), "sched-1", dto.ResetScheduleRequest{Confirm: ConfirmResetLiteral})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
	assert.Empty(t, fixture.store.assignments)
}
