package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opsline/training-assign-api/internal/models"
)

// CatalogRepository reads raw session records from the session catalog.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListBySchedule returns every catalog row of a schedule, grouped the way the
// catalog hands them out: functional area, then location, then title.
func (r *CatalogRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.CatalogRow, error) {
	const query = `
SELECT id, schedule_id, course_id, course_name, location, functional_area, title, starts_at, ends_at, capacity
FROM catalog_sessions
WHERE schedule_id = $1
ORDER BY functional_area ASC, location ASC, title ASC, starts_at ASC`
	var rows []models.CatalogRow
	if err := r.db.SelectContext(ctx, &rows, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list catalog sessions: %w", err)
	}
	return rows, nil
}
