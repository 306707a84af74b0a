package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opsline/training-assign-api/internal/models"
)

// AssignmentRepository persists trainee session assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListBySchedule returns every assignment of a schedule in one fetch. The
// capacity tracker and categorizer both reduce over this result instead of
// issuing per-trainee queries.
func (r *AssignmentRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.Assignment, error) {
	const query = `
SELECT id, schedule_id, trainee_id, level, course_id, session_id, group_id, location, functional_area, type, note, created_at
FROM assignments
WHERE schedule_id = $1
ORDER BY created_at ASC, id ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule assignments: %w", err)
	}
	return assignments, nil
}

// ListByTrainee returns a trainee's assignments within a schedule.
func (r *AssignmentRepository) ListByTrainee(ctx context.Context, scheduleID, traineeID string) ([]models.Assignment, error) {
	const query = `
SELECT id, schedule_id, trainee_id, level, course_id, session_id, group_id, location, functional_area, type, note, created_at
FROM assignments
WHERE schedule_id = $1 AND trainee_id = $2
ORDER BY created_at ASC, id ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, scheduleID, traineeID); err != nil {
		return nil, fmt.Errorf("list trainee assignments: %w", err)
	}
	return assignments, nil
}

// Create inserts a new assignment record.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignments (id, schedule_id, trainee_id, level, course_id, session_id, group_id, location, functional_area, type, note, created_at)
		VALUES (:id, :schedule_id, :trainee_id, :level, :course_id, :session_id, :group_id, :location, :functional_area, :type, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// DeleteForTraineeCourseGroup removes only the trainee's assignments for one
// course at one group. Assignments for other courses in the same group are
// untouched.
func (r *AssignmentRepository) DeleteForTraineeCourseGroup(ctx context.Context, scheduleID, traineeID, courseID, groupID string) (int, error) {
	const query = `DELETE FROM assignments WHERE schedule_id = $1 AND trainee_id = $2 AND course_id = $3 AND group_id = $4`
	result, err := r.db.ExecContext(ctx, query, scheduleID, traineeID, courseID, groupID)
	if err != nil {
		return 0, fmt.Errorf("delete course group assignments: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted assignment rows: %w", err)
	}
	return int(affected), nil
}

// DeleteForTraineeGroup removes the trainee from a whole group across all
// courses sharing it.
func (r *AssignmentRepository) DeleteForTraineeGroup(ctx context.Context, scheduleID, traineeID, groupID string) (int, error) {
	const query = `DELETE FROM assignments WHERE schedule_id = $1 AND trainee_id = $2 AND group_id = $3`
	result, err := r.db.ExecContext(ctx, query, scheduleID, traineeID, groupID)
	if err != nil {
		return 0, fmt.Errorf("delete group assignments: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted assignment rows: %w", err)
	}
	return int(affected), nil
}

// DeleteBySchedule clears every assignment of a schedule.
func (r *AssignmentRepository) DeleteBySchedule(ctx context.Context, scheduleID string) (int, error) {
	const query = `DELETE FROM assignments WHERE schedule_id = $1`
	result, err := r.db.ExecContext(ctx, query, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("delete schedule assignments: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted assignment rows: %w", err)
	}
	return int(affected), nil
}

// CountBySchedule returns the number of assignment rows in a schedule.
func (r *AssignmentRepository) CountBySchedule(ctx context.Context, scheduleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE schedule_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, scheduleID); err != nil {
		return 0, fmt.Errorf("count schedule assignments: %w", err)
	}
	return count, nil
}
