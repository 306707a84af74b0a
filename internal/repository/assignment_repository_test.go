package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsline/training-assign-api/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryListBySchedule(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "schedule_id", "trainee_id", "level", "course_id", "session_id", "group_id", "location", "functional_area", "type", "note", "created_at"}).
		AddRow("a1", "sched-1", "t1", "GROUP", "course-a", "course-a|p0|g1|ops", "berlin#1", "berlin", "ops", "MANUAL", "", time.Now()).
		AddRow("a2", "sched-1", "t1", "GROUP", "course-b", "course-b|p0|g1|ops", "berlin#1", "berlin", "ops", "MANUAL", "", time.Now())
	mock.ExpectQuery("SELECT id, schedule_id, trainee_id, level, course_id, session_id, group_id, location, functional_area, type, note, created_at").
		WithArgs("sched-1").
		WillReturnRows(rows)

	assignments, err := repo.ListBySchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, models.LevelGroup, assignments[0].Level)
	assert.Equal(t, "berlin#1", assignments[0].GroupID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO assignments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.Assignment{
		ScheduleID: "sched-1",
		TraineeID:  "t1",
		Level:      models.LevelSession,
		CourseID:   "course-a",
		SessionID:  "course-a|p1|g2|ops",
		GroupID:    "berlin#2",
		Location:   "berlin",
		Type:       models.AssignmentTypeManual,
	}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.False(t, assignment.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteForTraineeCourseGroup(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE schedule_id = $1 AND trainee_id = $2 AND course_id = $3 AND group_id = $4")).
		WithArgs("sched-1", "t1", "course-a", "berlin#2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	removed, err := repo.DeleteForTraineeCourseGroup(context.Background(), "sched-1", "t1", "course-a", "berlin#2")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteForTraineeGroup(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE schedule_id = $1 AND trainee_id = $2 AND group_id = $3")).
		WithArgs("sched-1", "t1", "berlin#1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteForTraineeGroup(context.Background(), "sched-1", "t1", "berlin#1")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteBySchedule(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE schedule_id = $1")).
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 42))

	removed, err := repo.DeleteBySchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 42, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCountBySchedule(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE schedule_id = $1")).
		WithArgs("sched-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountBySchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListByTrainee(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "schedule_id", "trainee_id", "level", "course_id", "session_id", "group_id", "location", "functional_area", "type", "note", "created_at"}).
		AddRow("a3", "sched-1", "t2", "COURSE", "course-a", "course-a|p0|g2|ops", "berlin#2", "berlin", "ops", "AUTO", "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE schedule_id = $1 AND trainee_id = $2")).
		WithArgs("sched-1", "t2").
		WillReturnRows(rows)

	assignments, err := repo.ListByTrainee(context.Background(), "sched-1", "t2")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "t2", assignments[0].TraineeID)
	assert.Equal(t, models.AssignmentTypeAuto, assignments[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
