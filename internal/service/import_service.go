package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/pkg/config"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
)

type learnerWriter interface {
	Create(ctx context.Context, learner *models.Learner) error
}

type enroller interface {
	Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error)
}

type resultScorer interface {
	SubmitTestResult(ctx context.Context, req SubmitTestResultRequest) (*models.TestResult, error)
	SubmitWrittenResult(ctx context.Context, req SubmitWrittenResultRequest) (*models.WrittenAssessmentResult, error)
}

// ImportService loads bulk rows from spreadsheet-style sources. Columns are
// positional per row kind; learner rows are full name, phone (optional),
// group id (optional, enrolls the learner when given). Rows run strictly
// sequentially and in isolation; a failed row is recorded and never aborts
// or rolls back the rows before it.
type ImportService struct {
	learners    learnerWriter
	enrollments enroller
	assessments resultScorer
	metrics     *MetricsService
	cfg         config.ImportsConfig
	logger      *zap.Logger
}

// NewImportService constructs ImportService.
func NewImportService(learners learnerWriter, enrollments enroller, assessments resultScorer, metrics *MetricsService, cfg config.ImportsConfig, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{learners: learners, enrollments: enrollments, assessments: assessments, metrics: metrics, cfg: cfg, logger: logger}
}

// ImportLearners processes learner rows and returns a partial-success summary.
func (s *ImportService) ImportLearners(ctx context.Context, rows []models.ImportRow) (*models.ImportSummary, error) {
	return s.run(ctx, "learners", rows, s.importLearnerRow)
}

// ImportTestResults scores test-result rows (test id, learner id, correct).
func (s *ImportService) ImportTestResults(ctx context.Context, rows []models.ImportRow) (*models.ImportSummary, error) {
	return s.run(ctx, "test_results", rows, s.importTestResultRow)
}

// ImportWrittenResults scores written-result rows
// (assessment id, learner id, correct, remaining minutes).
func (s *ImportService) ImportWrittenResults(ctx context.Context, rows []models.ImportRow) (*models.ImportSummary, error) {
	return s.run(ctx, "written_results", rows, s.importWrittenResultRow)
}

func (s *ImportService) run(ctx context.Context, kind string, rows []models.ImportRow, importRow func(context.Context, models.ImportRow) error) (*models.ImportSummary, error) {
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "import contains no rows")
	}
	if s.cfg.MaxRows > 0 && len(rows) > s.cfg.MaxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("import exceeds %d row limit", s.cfg.MaxRows))
	}

	summary := &models.ImportSummary{}
	for i, row := range rows {
		if err := importRow(ctx, row); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, models.ImportRowError{Row: i + 1, Message: err.Error()})
			continue
		}
		summary.Succeeded++
	}
	s.metrics.CountImportRows("succeeded", summary.Succeeded)
	s.metrics.CountImportRows("failed", summary.Failed)
	s.logger.Info("import finished",
		zap.String("kind", kind),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s *ImportService) importLearnerRow(ctx context.Context, row models.ImportRow) error {
	if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
		return fmt.Errorf("full name is required")
	}
	learner := &models.Learner{
		ID:       uuid.NewString(),
		FullName: strings.TrimSpace(row[0]),
		Active:   true,
	}
	if len(row) > 1 && strings.TrimSpace(row[1]) != "" {
		phone := strings.TrimSpace(row[1])
		learner.Phone = &phone
	}
	if err := s.learners.Create(ctx, learner); err != nil {
		return fmt.Errorf("create learner: %v", appErrors.FromError(err).Message)
	}
	if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
		groupID := strings.TrimSpace(row[2])
		if _, err := s.enrollments.Enroll(ctx, EnrollRequest{LearnerID: learner.ID, GroupID: groupID}); err != nil {
			return fmt.Errorf("enroll into %s: %v", groupID, appErrors.FromError(err).Message)
		}
	}
	return nil
}

func (s *ImportService) importTestResultRow(ctx context.Context, row models.ImportRow) error {
	if len(row) < 3 {
		return fmt.Errorf("expected columns: test id, learner id, correct")
	}
	correct, err := parseRowInt(row[2], "correct")
	if err != nil {
		return err
	}
	req := SubmitTestResultRequest{
		TestID:    strings.TrimSpace(row[0]),
		LearnerID: strings.TrimSpace(row[1]),
		Correct:   correct,
	}
	if _, err := s.assessments.SubmitTestResult(ctx, req); err != nil {
		return fmt.Errorf("submit result: %v", appErrors.FromError(err).Message)
	}
	return nil
}

func (s *ImportService) importWrittenResultRow(ctx context.Context, row models.ImportRow) error {
	if len(row) < 4 {
		return fmt.Errorf("expected columns: assessment id, learner id, correct, remaining")
	}
	correct, err := parseRowInt(row[2], "correct")
	if err != nil {
		return err
	}
	remaining, err := parseRowInt(row[3], "remaining")
	if err != nil {
		return err
	}
	req := SubmitWrittenResultRequest{
		AssessmentID: strings.TrimSpace(row[0]),
		LearnerID:    strings.TrimSpace(row[1]),
		Correct:      correct,
		Remaining:    remaining,
	}
	if _, err := s.assessments.SubmitWrittenResult(ctx, req); err != nil {
		return fmt.Errorf("submit result: %v", appErrors.FromError(err).Message)
	}
	return nil
}

func parseRowInt(raw, column string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number, got %q", column, strings.TrimSpace(raw))
	}
	if n < 0 {
		return 0, fmt.Errorf("%s cannot be negative", column)
	}
	return n, nil
}
