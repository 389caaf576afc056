package dto

// MatrixCell holds the four report values for one learner on one date.
// Attendance is "present", "absent" or blank; DailyTest is "correct/total";
// Homework carries a take-home test result, falling back to an assignment
// score; Written is "correct/total (percentage%)".
type MatrixCell struct {
	Attendance string `json:"attendance"`
	DailyTest  string `json:"daily_test"`
	Homework   string `json:"homework"`
	Written    string `json:"written"`
}

// MatrixRow is one learner's row across all report dates.
type MatrixRow struct {
	LearnerID   string                `json:"learner_id"`
	LearnerName string                `json:"learner_name"`
	Cells       map[string]MatrixCell `json:"cells"`
}

// MatrixReport is the per-date, per-learner matrix for one group.
// Dates are ascending calendar-date keys; rows are ordered by learner
// display name in locale-aware order.
type MatrixReport struct {
	GroupID   string      `json:"group_id"`
	GroupName string      `json:"group_name"`
	Dates     []string    `json:"dates"`
	Rows      []MatrixRow `json:"rows"`
}

// RosterEntry is one learner's presence within a session roster.
type RosterEntry struct {
	LearnerID   string `json:"learner_id"`
	LearnerName string `json:"learner_name"`
	Present     bool   `json:"present"`
}

// SessionRoster lists every enrolled learner for one scheduled session.
type SessionRoster struct {
	SessionID    string        `json:"session_id"`
	GroupID      string        `json:"group_id"`
	GroupName    string        `json:"group_name"`
	PresentCount int           `json:"present_count"`
	AbsentCount  int           `json:"absent_count"`
	Learners     []RosterEntry `json:"learners"`
}

// LearnerDay flattens a learner's day to a single attended flag: present at
// any of their group's sessions that date counts as attended.
type LearnerDay struct {
	LearnerID   string `json:"learner_id"`
	LearnerName string `json:"learner_name"`
	GroupID     string `json:"group_id"`
	Attended    bool   `json:"attended"`
}

// RosterReport is the organisation-wide daily roster for one date.
type RosterReport struct {
	Date     string          `json:"date"`
	Sessions []SessionRoster `json:"sessions"`
	Learners []LearnerDay    `json:"learners"`
}
