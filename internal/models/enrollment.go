package models

import "time"

// Enrollment links a learner to a group. Rows are never deleted; membership
// changes only toggle the active flag so historical attendance and assessment
// records stay attributable. At most one active enrollment may exist per
// learner at any instant, across all groups.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	LearnerID string    `db:"learner_id" json:"learner_id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with learner and group info.
type EnrollmentDetail struct {
	Enrollment
	LearnerName string `db:"learner_name" json:"learner_name"`
	GroupName   string `db:"group_name" json:"group_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	LearnerID string
	GroupID   string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
