package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opsline/training-assign-api/internal/models"
)

// TrainerRepository reads trainers and persists their session assignments.
type TrainerRepository struct {
	db *sqlx.DB
}

// NewTrainerRepository constructs the repository.
func NewTrainerRepository(db *sqlx.DB) *TrainerRepository {
	return &TrainerRepository{db: db}
}

// FindByID returns a single trainer.
func (r *TrainerRepository) FindByID(ctx context.Context, id string) (*models.Trainer, error) {
	const query = `SELECT id, full_name, location FROM trainers WHERE id = $1`
	var trainer models.Trainer
	if err := r.db.GetContext(ctx, &trainer, query, id); err != nil {
		return nil, err
	}
	return &trainer, nil
}

// BulkCreateSessionAssignments inserts trainer-session commitments one by
// one; a failed insert fails the call but leaves earlier inserts in place.
func (r *TrainerRepository) BulkCreateSessionAssignments(ctx context.Context, assignments []models.TrainerSessionAssignment) ([]models.TrainerSessionAssignment, error) {
	const query = `INSERT INTO trainer_session_assignments (id, trainer_id, schedule_id, session_id, starts_at, ends_at, created_at)
		VALUES (:id, :trainer_id, :schedule_id, :session_id, :starts_at, :ends_at, :created_at)`
	now := time.Now().UTC()
	applied := make([]models.TrainerSessionAssignment, 0, len(assignments))
	for _, assignment := range assignments {
		if assignment.ID == "" {
			assignment.ID = uuid.NewString()
		}
		if assignment.CreatedAt.IsZero() {
			assignment.CreatedAt = now
		}
		if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
			return applied, fmt.Errorf("create trainer session assignment: %w", err)
		}
		applied = append(applied, assignment)
	}
	return applied, nil
}

// ListSessionAssignments returns a trainer's committed sessions.
func (r *TrainerRepository) ListSessionAssignments(ctx context.Context, trainerID string) ([]models.TrainerSessionAssignment, error) {
	const query = `
SELECT id, trainer_id, schedule_id, session_id, starts_at, ends_at, created_at
FROM trainer_session_assignments
WHERE trainer_id = $1
ORDER BY starts_at ASC`
	var assignments []models.TrainerSessionAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, trainerID); err != nil {
		return nil, fmt.Errorf("list trainer session assignments: %w", err)
	}
	return assignments, nil
}
