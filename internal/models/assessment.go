package models

import "time"

// TestCategory distinguishes in-class daily tests from take-home tests.
type TestCategory string

const (
	TestCategoryDaily    TestCategory = "DAILY"
	TestCategoryTakeHome TestCategory = "TAKE_HOME"
)

// Valid returns true when the category is a supported value.
func (c TestCategory) Valid() bool {
	return c == TestCategoryDaily || c == TestCategoryTakeHome
}

// TestDefinition describes a test given to a group.
type TestDefinition struct {
	ID             string       `db:"id" json:"id"`
	GroupID        string       `db:"group_id" json:"group_id"`
	Title          string       `db:"title" json:"title"`
	TotalQuestions int          `db:"total_questions" json:"total_questions"`
	Category       TestCategory `db:"category" json:"category"`
	HeldAt         time.Time    `db:"held_at" json:"held_at"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

// TestResult stores one learner's answers for a test. Unique per
// (test, learner); re-submission updates the row in place.
type TestResult struct {
	ID        string    `db:"id" json:"id"`
	TestID    string    `db:"test_id" json:"test_id"`
	LearnerID string    `db:"learner_id" json:"learner_id"`
	Correct   int       `db:"correct" json:"correct"`
	Score     float64   `db:"score" json:"score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TestResultDetail joins a result with its definition for reporting.
type TestResultDetail struct {
	TestResult
	GroupID        string       `db:"group_id" json:"group_id"`
	TotalQuestions int          `db:"total_questions" json:"total_questions"`
	Category       TestCategory `db:"category" json:"category"`
	HeldAt         time.Time    `db:"held_at" json:"held_at"`
}

// WrittenAssessmentDefinition describes a timed written assessment.
// TimeGiven is the allotted duration in minutes.
type WrittenAssessmentDefinition struct {
	ID             string    `db:"id" json:"id"`
	GroupID        string    `db:"group_id" json:"group_id"`
	Title          string    `db:"title" json:"title"`
	TotalQuestions int       `db:"total_questions" json:"total_questions"`
	TimeGiven      int       `db:"time_given" json:"time_given"`
	HeldAt         time.Time `db:"held_at" json:"held_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// WrittenAssessmentResult stores a learner's timed submission. Remaining is
// the unused minutes at submission. Score is in [0,1]; Mastery is the
// percentage-scale derived value. Unique per (assessment, learner).
type WrittenAssessmentResult struct {
	ID           string    `db:"id" json:"id"`
	AssessmentID string    `db:"assessment_id" json:"assessment_id"`
	LearnerID    string    `db:"learner_id" json:"learner_id"`
	Correct      int       `db:"correct" json:"correct"`
	Remaining    int       `db:"remaining" json:"remaining"`
	Score        float64   `db:"score" json:"score"`
	Mastery      float64   `db:"mastery" json:"mastery"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// WrittenAssessmentResultDetail joins a result with its definition.
type WrittenAssessmentResultDetail struct {
	WrittenAssessmentResult
	GroupID        string    `db:"group_id" json:"group_id"`
	TotalQuestions int       `db:"total_questions" json:"total_questions"`
	TimeGiven      int       `db:"time_given" json:"time_given"`
	HeldAt         time.Time `db:"held_at" json:"held_at"`
}
