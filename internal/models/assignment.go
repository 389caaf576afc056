package models

import "time"

// Assignment is take-home work given to a learner. Completion is set by an
// external actor; Score/MaxScore only contribute to aggregation when both
// are present. The date fields double as the fallback correlation key for
// report joins: SubmittedAt, else DueAt, else CreatedAt.
type Assignment struct {
	ID          string     `db:"id" json:"id"`
	GroupID     string     `db:"group_id" json:"group_id"`
	LearnerID   string     `db:"learner_id" json:"learner_id"`
	Title       string     `db:"title" json:"title"`
	Completed   bool       `db:"completed" json:"completed"`
	Score       *float64   `db:"score" json:"score,omitempty"`
	MaxScore    *float64   `db:"max_score" json:"max_score,omitempty"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	DueAt       *time.Time `db:"due_at" json:"due_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// ReportDate resolves the calendar-correlation instant for an assignment.
func (a Assignment) ReportDate() time.Time {
	if a.SubmittedAt != nil {
		return *a.SubmittedAt
	}
	if a.DueAt != nil {
		return *a.DueAt
	}
	return a.CreatedAt
}
