package models

import "time"

// ClassSession is one planned occurrence of a group on a calendar date.
// A group may schedule several sessions (time slots) on the same date.
// Attendance can only be recorded against an existing session.
type ClassSession struct {
	ID        string     `db:"id" json:"id"`
	GroupID   string     `db:"group_id" json:"group_id"`
	Date      time.Time  `db:"date" json:"date"`
	StartsAt  *time.Time `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt    *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// ClassSessionDetail enriches a session with group metadata.
type ClassSessionDetail struct {
	ClassSession
	GroupName string `db:"group_name" json:"group_name"`
}

// ClassSessionFilter scopes session listing queries.
type ClassSessionFilter struct {
	GroupID  string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
