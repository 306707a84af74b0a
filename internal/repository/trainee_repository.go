package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opsline/training-assign-api/internal/models"
)

// TraineeRepository reads the trainee roster.
type TraineeRepository struct {
	db *sqlx.DB
}

// NewTraineeRepository constructs the repository.
func NewTraineeRepository(db *sqlx.DB) *TraineeRepository {
	return &TraineeRepository{db: db}
}

// FindByID returns a single trainee.
func (r *TraineeRepository) FindByID(ctx context.Context, id string) (*models.Trainee, error) {
	const query = `SELECT id, full_name, location, role FROM trainees WHERE id = $1`
	var trainee models.Trainee
	if err := r.db.GetContext(ctx, &trainee, query, id); err != nil {
		return nil, err
	}
	return &trainee, nil
}

// ListBySchedule returns the trainees rostered onto a schedule in stable
// order.
func (r *TraineeRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.Trainee, error) {
	const query = `
SELECT t.id, t.full_name, t.location, t.role
FROM trainees t
JOIN schedule_trainees st ON st.trainee_id = t.id
WHERE st.schedule_id = $1
ORDER BY t.full_name ASC, t.id ASC`
	var trainees []models.Trainee
	if err := r.db.SelectContext(ctx, &trainees, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule trainees: %w", err)
	}
	return trainees, nil
}
