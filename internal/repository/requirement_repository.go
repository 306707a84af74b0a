package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RequirementRepository reads the requirement directory mapping roles to the
// course ids they require.
type RequirementRepository struct {
	db *sqlx.DB
}

// NewRequirementRepository constructs the repository.
func NewRequirementRepository(db *sqlx.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

type requirementRow struct {
	Role     string `db:"role"`
	CourseID string `db:"course_id"`
}

// MapAll returns the full role -> required course ids directory in one fetch.
// Course order within a role is the directory's declared order.
func (r *RequirementRepository) MapAll(ctx context.Context) (map[string][]string, error) {
	const query = `SELECT role, course_id FROM role_requirements ORDER BY role ASC, position ASC`
	var rows []requirementRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list role requirements: %w", err)
	}
	directory := make(map[string][]string, len(rows))
	for _, row := range rows {
		directory[row.Role] = append(directory[row.Role], row.CourseID)
	}
	return directory, nil
}
