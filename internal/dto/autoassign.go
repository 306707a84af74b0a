package dto

import "time"

// Auto-assign run lifecycle.
const (
	RunStatusPending   = "PENDING"
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// PlacementFailure records one trainee the planner could not place.
type PlacementFailure struct {
	TraineeID string `json:"trainee_id"`
	CourseID  string `json:"course_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// AutoAssignSummary aggregates a completed run.
type AutoAssignSummary struct {
	Placed      int            `json:"placed"`
	Failed      int            `json:"failed"`
	Assignments int            `json:"assignments"`
	Tiers       map[string]int `json:"tiers"`
}

// AutoAssignResult is the outcome of one planner pass. A run always proceeds
// to completion and reports per-item failures rather than aborting.
type AutoAssignResult struct {
	RunID      string             `json:"run_id"`
	ScheduleID string             `json:"schedule_id"`
	Status     string             `json:"status"`
	Successful []string           `json:"successful"`
	Failed     []PlacementFailure `json:"failed"`
	Summary    AutoAssignSummary  `json:"summary"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	Error      string             `json:"error,omitempty"`
}
