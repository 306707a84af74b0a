package models

import "time"

// AssignmentLevel is the granularity at which an assignment record applies.
type AssignmentLevel string

// Recognised assignment levels.
const (
	LevelSession  AssignmentLevel = "SESSION"
	LevelCourse   AssignmentLevel = "COURSE"
	LevelGroup    AssignmentLevel = "GROUP"
	LevelLocation AssignmentLevel = "LOCATION"
)

// AssignmentType distinguishes how an assignment was created.
type AssignmentType string

// Recognised assignment types.
const (
	AssignmentTypeManual AssignmentType = "MANUAL"
	AssignmentTypeAuto   AssignmentType = "AUTO"
)

// Assignment commits a trainee to a session within a schedule. One row per
// (trainee, course, session) triple at the finest grain. Records are deleted
// and re-inserted on reassignment, never mutated in place.
type Assignment struct {
	ID             string          `db:"id" json:"id"`
	ScheduleID     string          `db:"schedule_id" json:"schedule_id"`
	TraineeID      string          `db:"trainee_id" json:"trainee_id"`
	Level          AssignmentLevel `db:"level" json:"level"`
	CourseID       string          `db:"course_id" json:"course_id"`
	SessionID      string          `db:"session_id" json:"session_id"`
	GroupID        string          `db:"group_id" json:"group_id"`
	Location       string          `db:"location" json:"location"`
	FunctionalArea string          `db:"functional_area" json:"functional_area"`
	Type           AssignmentType  `db:"type" json:"type"`
	Note           string          `db:"note" json:"note,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
