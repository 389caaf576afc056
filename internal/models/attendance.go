package models

import "time"

// AttendanceRecord stores presence for one learner at one class session.
// Unique per (learner, session); writes are upserts, never duplicates.
// ArrivedAt is nil for absences and for legacy rows recorded before arrival
// tracking existed.
type AttendanceRecord struct {
	ID        string     `db:"id" json:"id"`
	LearnerID string     `db:"learner_id" json:"learner_id"`
	SessionID string     `db:"session_id" json:"session_id"`
	Present   bool       `db:"present" json:"present"`
	ArrivedAt *time.Time `db:"arrived_at" json:"arrived_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// AttendanceWindow is the institution-wide daily interval punctuality is
// scored against.
type AttendanceWindow struct {
	Start time.Time
	End   time.Time
}

// AttendanceDetail joins a record with its session for reporting.
type AttendanceDetail struct {
	AttendanceRecord
	GroupID     string    `db:"group_id" json:"group_id"`
	SessionDate time.Time `db:"session_date" json:"session_date"`
}
