package models

import "time"

// Trainer is a shared resource assigned to sessions in bulk.
type Trainer struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Location string `db:"location" json:"location"`
}

// TrainerSessionAssignment commits a trainer to one session.
type TrainerSessionAssignment struct {
	ID         string    `db:"id" json:"id"`
	TrainerID  string    `db:"trainer_id" json:"trainer_id"`
	ScheduleID string    `db:"schedule_id" json:"schedule_id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	StartsAt   time.Time `db:"starts_at" json:"starts_at"`
	EndsAt     time.Time `db:"ends_at" json:"ends_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SessionOverlap flags two selected sessions whose time windows intersect.
// Overlaps are reported, not blocked; the caller may commit regardless.
type SessionOverlap struct {
	FirstSessionID  string    `json:"first_session_id"`
	SecondSessionID string    `json:"second_session_id"`
	OverlapStart    time.Time `json:"overlap_start"`
	OverlapEnd      time.Time `json:"overlap_end"`
}
