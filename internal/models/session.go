package models

import (
	"fmt"
	"time"
)

// CatalogRow is a raw session record as supplied by the session catalog,
// before normalization. Title encodes the group number ("Group N") and
// optionally a part number ("Part M").
type CatalogRow struct {
	ID             string    `db:"id" json:"id"`
	ScheduleID     string    `db:"schedule_id" json:"schedule_id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	CourseName     string    `db:"course_name" json:"course_name"`
	Location       string    `db:"location" json:"location"`
	FunctionalArea string    `db:"functional_area" json:"functional_area"`
	Title          string    `db:"title" json:"title"`
	StartsAt       time.Time `db:"starts_at" json:"starts_at"`
	EndsAt         time.Time `db:"ends_at" json:"ends_at"`
	Capacity       int       `db:"capacity" json:"capacity"`
}

// Session is a normalized catalog record. Every field is explicit and typed;
// downstream components never parse titles or compound keys again.
type Session struct {
	ID             string    `json:"id"`
	ScheduleID     string    `json:"schedule_id"`
	CourseID       string    `json:"course_id"`
	CourseName     string    `json:"course_name"`
	Location       string    `json:"location"`
	FunctionalArea string    `json:"functional_area"`
	Title          string    `json:"title"`
	GroupNumber    int       `json:"group_number"`
	PartNumber     int       `json:"part_number,omitempty"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Capacity       int       `json:"capacity"`
}

// GroupID renders the canonical identifier of the capacity-bearing group a
// session belongs to. Groups span courses: every session sharing
// (location, group number) counts against the same ceiling.
func GroupID(location string, groupNumber int) string {
	return fmt.Sprintf("%s#%d", location, groupNumber)
}

// GroupID returns the session's group identifier.
func (s Session) GroupID() string {
	return GroupID(s.Location, s.GroupNumber)
}
