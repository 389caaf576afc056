package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/pkg/clock"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
)

type testRepository interface {
	CreateDefinition(ctx context.Context, def *models.TestDefinition) error
	FindDefinitionByID(ctx context.Context, id string) (*models.TestDefinition, error)
	UpsertResult(ctx context.Context, result *models.TestResult) (*models.TestResult, error)
}

type writtenRepository interface {
	CreateDefinition(ctx context.Context, def *models.WrittenAssessmentDefinition) error
	FindDefinitionByID(ctx context.Context, id string) (*models.WrittenAssessmentDefinition, error)
	UpsertResult(ctx context.Context, result *models.WrittenAssessmentResult) (*models.WrittenAssessmentResult, error)
}

type assignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
}

// CreateTestRequest registers a test given to a group.
type CreateTestRequest struct {
	GroupID        string              `json:"group_id" validate:"required"`
	Title          string              `json:"title" validate:"required"`
	TotalQuestions int                 `json:"total_questions" validate:"required,gt=0"`
	Category       models.TestCategory `json:"category" validate:"required"`
	HeldAt         string              `json:"held_at" validate:"required,datetime=2006-01-02"`
}

// SubmitTestResultRequest records a learner's answers for a test.
type SubmitTestResultRequest struct {
	TestID    string `json:"test_id" validate:"required"`
	LearnerID string `json:"learner_id" validate:"required"`
	Correct   int    `json:"correct" validate:"gte=0"`
}

// CreateWrittenAssessmentRequest registers a timed written assessment.
// TimeGiven is the allotted duration in minutes.
type CreateWrittenAssessmentRequest struct {
	GroupID        string `json:"group_id" validate:"required"`
	Title          string `json:"title" validate:"required"`
	TotalQuestions int    `json:"total_questions" validate:"required,gt=0"`
	TimeGiven      int    `json:"time_given" validate:"required,gt=0"`
	HeldAt         string `json:"held_at" validate:"required,datetime=2006-01-02"`
}

// SubmitWrittenResultRequest records a timed submission. Remaining is the
// unused minutes left when the learner handed the work in.
type SubmitWrittenResultRequest struct {
	AssessmentID string `json:"assessment_id" validate:"required"`
	LearnerID    string `json:"learner_id" validate:"required"`
	Correct      int    `json:"correct" validate:"gte=0"`
	Remaining    int    `json:"remaining" validate:"gte=0"`
}

// CreateAssignmentRequest registers take-home work for a learner.
type CreateAssignmentRequest struct {
	GroupID   string     `json:"group_id" validate:"required"`
	LearnerID string     `json:"learner_id" validate:"required"`
	Title     string     `json:"title" validate:"required"`
	DueAt     *time.Time `json:"due_at,omitempty"`
}

// GradeAssignmentRequest marks an assignment completed and optionally scored.
type GradeAssignmentRequest struct {
	AssignmentID string     `json:"assignment_id" validate:"required"`
	Completed    bool       `json:"completed"`
	Score        *float64   `json:"score,omitempty"`
	MaxScore     *float64   `json:"max_score,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}

// AssessmentService owns scoring for tests, timed written assessments and
// assignments.
type AssessmentService struct {
	tests       testRepository
	written     writtenRepository
	assignments assignmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssessmentService constructs AssessmentService.
func NewAssessmentService(tests testRepository, written writtenRepository, assignments assignmentRepository, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{tests: tests, written: written, assignments: assignments, validator: validate, logger: logger}
}

// TestScore is the plain accuracy ratio for an untimed test.
func TestScore(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// WrittenScore scores a timed written assessment. Let ratio = correct/total.
// With remaining time the raw score is ratio * (1 + remaining/timeGiven) *
// ratio: accuracy enters squared so it outweighs speed, and zero correct
// answers score zero no matter how fast. The result is clamped to [0, 1];
// mastery is the same value on a percentage scale.
func WrittenScore(correct, total, remaining, timeGiven int) (score, mastery float64) {
	if total <= 0 {
		return 0, 0
	}
	ratio := float64(correct) / float64(total)
	raw := ratio
	if remaining > 0 && timeGiven > 0 {
		raw = ratio * (1 + float64(remaining)/float64(timeGiven)) * ratio
	}
	if raw < 0 {
		raw = 0
	}
	if raw > 1 {
		raw = 1
	}
	return raw, raw * 100
}

// CreateTest registers a test definition.
func (s *AssessmentService) CreateTest(ctx context.Context, req CreateTestRequest) (*models.TestDefinition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test payload")
	}
	if !req.Category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown test category")
	}
	heldAt, err := time.Parse(clock.DateLayout, req.HeldAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid held_at date")
	}
	def := &models.TestDefinition{
		ID:             uuid.NewString(),
		GroupID:        req.GroupID,
		Title:          req.Title,
		TotalQuestions: req.TotalQuestions,
		Category:       req.Category,
		HeldAt:         heldAt,
	}
	if err := s.tests.CreateDefinition(ctx, def); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create test")
	}
	return def, nil
}

// SubmitTestResult scores and upserts one learner's test result.
// Re-submission overwrites the stored row for the same (test, learner) key.
func (s *AssessmentService) SubmitTestResult(ctx context.Context, req SubmitTestResultRequest) (*models.TestResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test result payload")
	}
	def, err := s.tests.FindDefinitionByID(ctx, req.TestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test")
	}
	if req.Correct > def.TotalQuestions {
		return nil, appErrors.Clone(appErrors.ErrValidation, "correct answers exceed question count")
	}

	result := &models.TestResult{
		TestID:    req.TestID,
		LearnerID: req.LearnerID,
		Correct:   req.Correct,
		Score:     TestScore(req.Correct, def.TotalQuestions),
	}
	saved, err := s.tests.UpsertResult(ctx, result)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save test result")
	}
	return saved, nil
}

// CreateWrittenAssessment registers a timed written assessment definition.
func (s *AssessmentService) CreateWrittenAssessment(ctx context.Context, req CreateWrittenAssessmentRequest) (*models.WrittenAssessmentDefinition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	heldAt, err := time.Parse(clock.DateLayout, req.HeldAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid held_at date")
	}
	def := &models.WrittenAssessmentDefinition{
		ID:             uuid.NewString(),
		GroupID:        req.GroupID,
		Title:          req.Title,
		TotalQuestions: req.TotalQuestions,
		TimeGiven:      req.TimeGiven,
		HeldAt:         heldAt,
	}
	if err := s.written.CreateDefinition(ctx, def); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}
	return def, nil
}

// SubmitWrittenResult validates, scores and upserts a timed submission.
func (s *AssessmentService) SubmitWrittenResult(ctx context.Context, req SubmitWrittenResultRequest) (*models.WrittenAssessmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid written result payload")
	}
	def, err := s.written.FindDefinitionByID(ctx, req.AssessmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "written assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	if req.Correct > def.TotalQuestions {
		return nil, appErrors.Clone(appErrors.ErrValidation, "correct answers exceed question count")
	}
	if req.Remaining > def.TimeGiven {
		return nil, appErrors.Clone(appErrors.ErrValidation, "remaining time exceeds allotted time")
	}

	score, mastery := WrittenScore(req.Correct, def.TotalQuestions, req.Remaining, def.TimeGiven)
	result := &models.WrittenAssessmentResult{
		AssessmentID: req.AssessmentID,
		LearnerID:    req.LearnerID,
		Correct:      req.Correct,
		Remaining:    req.Remaining,
		Score:        score,
		Mastery:      mastery,
	}
	saved, err := s.written.UpsertResult(ctx, result)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save written result")
	}
	return saved, nil
}

// CreateAssignment registers take-home work for a learner.
func (s *AssessmentService) CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment := &models.Assignment{
		ID:        uuid.NewString(),
		GroupID:   req.GroupID,
		LearnerID: req.LearnerID,
		Title:     req.Title,
		DueAt:     req.DueAt,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// GradeAssignment sets completion and optional scores on an assignment.
// Score and max score only influence reports when both are present.
func (s *AssessmentService) GradeAssignment(ctx context.Context, req GradeAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading payload")
	}
	if req.Score != nil && req.MaxScore != nil && *req.MaxScore > 0 && *req.Score > *req.MaxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score exceeds max score")
	}
	assignment, err := s.assignments.FindByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	assignment.Completed = req.Completed
	assignment.Score = req.Score
	assignment.MaxScore = req.MaxScore
	if req.SubmittedAt != nil {
		assignment.SubmittedAt = req.SubmittedAt
	} else if req.Completed && assignment.SubmittedAt == nil {
		now := time.Now().UTC()
		assignment.SubmittedAt = &now
	}
	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}
