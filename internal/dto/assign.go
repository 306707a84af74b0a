package dto

import "github.com/opsline/training-assign-api/internal/models"

// AssignRequest places one trainee onto a session reference. TargetID is the
// stable session identifier, optionally carrying a rendering location suffix.
type AssignRequest struct {
	TraineeID string `json:"trainee_id" validate:"required"`
	TargetID  string `json:"target_id" validate:"required"`
	Note      string `json:"note"`
}

// BulkAssignRequest places a set of trainees onto the same session reference.
type BulkAssignRequest struct {
	TraineeIDs []string `json:"trainee_ids" validate:"required,min=1,dive,required"`
	TargetID   string   `json:"target_id" validate:"required"`
	Note       string   `json:"note"`
}

// Assignment strategies chosen by the resolver.
const (
	StrategyMultiCourse   = "MULTI_COURSE"
	StrategySingleCourse  = "SINGLE_COURSE"
	StrategySingleSession = "SINGLE_SESSION"
	StrategyNone          = "NONE"
)

// AssignResult reports one trainee's placement.
type AssignResult struct {
	TraineeID string              `json:"trainee_id"`
	Strategy  string              `json:"strategy"`
	Removed   int                 `json:"removed"`
	Created   []models.Assignment `json:"created"`
}

// AssignmentFailure identifies a trainee that could not be placed and why.
type AssignmentFailure struct {
	TraineeID string `json:"trainee_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// BulkAssignResult accumulates per-trainee outcomes. A failed trainee never
// blocks the rest of the batch.
type BulkAssignResult struct {
	Successful []AssignResult      `json:"successful"`
	Failed     []AssignmentFailure `json:"failed"`
}

// RemoveRequest detaches a trainee from the group or course a session
// reference resolves to.
type RemoveRequest struct {
	TraineeID string `json:"trainee_id" validate:"required"`
	TargetID  string `json:"target_id" validate:"required"`
}

// RemoveResult reports how many records were deleted.
type RemoveResult struct {
	TraineeID string `json:"trainee_id"`
	Removed   int    `json:"removed"`
}

// ResetScheduleRequest clears every assignment of a schedule. Confirm must
// equal the fixed literal before the delete executes.
type ResetScheduleRequest struct {
	Confirm string `json:"confirm" validate:"required"`
}

// ResetScheduleResult reports the destructive removal outcome.
type ResetScheduleResult struct {
	ScheduleID string `json:"schedule_id"`
	Removed    int    `json:"removed"`
}
