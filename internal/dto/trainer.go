package dto

import "github.com/opsline/training-assign-api/internal/models"

// TrainerAssignRequest commits one trainer to a set of selected sessions.
type TrainerAssignRequest struct {
	ScheduleID string   `json:"schedule_id" validate:"required"`
	SessionIDs []string `json:"session_ids" validate:"required,min=1,dive,required"`
}

// TrainerAssignResult reports overlap conflicts alongside the applied
// assignments. Conflicts are a warning; the commit happens regardless.
type TrainerAssignResult struct {
	Conflicts []models.SessionOverlap           `json:"conflicts"`
	Applied   []models.TrainerSessionAssignment `json:"applied"`
}
