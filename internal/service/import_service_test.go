package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/pkg/config"
)

type mockLearnerWriter struct {
	created []*models.Learner
	byPhone map[string]bool
}

func newMockLearnerWriter() *mockLearnerWriter {
	return &mockLearnerWriter{byPhone: make(map[string]bool)}
}

func (m *mockLearnerWriter) Create(_ context.Context, learner *models.Learner) error {
	if learner.Phone != nil {
		if m.byPhone[*learner.Phone] {
			return fmt.Errorf("duplicate phone %s", *learner.Phone)
		}
		m.byPhone[*learner.Phone] = true
	}
	m.created = append(m.created, learner)
	return nil
}

type mockEnroller struct {
	enrolled []EnrollRequest
}

func (m *mockEnroller) Enroll(_ context.Context, req EnrollRequest) (*models.Enrollment, error) {
	m.enrolled = append(m.enrolled, req)
	return &models.Enrollment{LearnerID: req.LearnerID, GroupID: req.GroupID, Active: true}, nil
}

type mockResultScorer struct {
	tests   []SubmitTestResultRequest
	written []SubmitWrittenResultRequest
}

func (m *mockResultScorer) SubmitTestResult(_ context.Context, req SubmitTestResultRequest) (*models.TestResult, error) {
	m.tests = append(m.tests, req)
	return &models.TestResult{TestID: req.TestID, LearnerID: req.LearnerID, Correct: req.Correct}, nil
}

func (m *mockResultScorer) SubmitWrittenResult(_ context.Context, req SubmitWrittenResultRequest) (*models.WrittenAssessmentResult, error) {
	m.written = append(m.written, req)
	return &models.WrittenAssessmentResult{AssessmentID: req.AssessmentID, LearnerID: req.LearnerID, Correct: req.Correct}, nil
}

func TestImportService_ImportLearners_PartialSuccess(t *testing.T) {
	learners := newMockLearnerWriter()
	svc := NewImportService(learners, &mockEnroller{}, nil, nil, config.ImportsConfig{MaxRows: 100}, nil)

	rows := make([]models.ImportRow, 0, 10)
	for i := 1; i <= 10; i++ {
		phone := fmt.Sprintf("+99890123450%d", i)
		if i == 4 {
			// Same phone as row 3, rejected by the unique key.
			phone = "+998901234503"
		}
		rows = append(rows, models.ImportRow{fmt.Sprintf("Learner %02d", i), phone})
	}

	summary, err := svc.ImportLearners(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 9, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, 4, summary.Errors[0].Row)
	assert.Contains(t, summary.Errors[0].Message, "duplicate phone")
	// Rows before and after the failure are persisted.
	assert.Len(t, learners.created, 9)
}

func TestImportService_ImportLearners_EnrollsWhenGroupGiven(t *testing.T) {
	learners := newMockLearnerWriter()
	enrollments := &mockEnroller{}
	svc := NewImportService(learners, enrollments, nil, nil, config.ImportsConfig{MaxRows: 100}, nil)

	summary, err := svc.ImportLearners(context.Background(), []models.ImportRow{
		{"Aziza Karimova", "+998901112233", "group-1"},
		{"Bekzod Toirov", "", ""},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	require.Len(t, enrollments.enrolled, 1)
	assert.Equal(t, "group-1", enrollments.enrolled[0].GroupID)
}

func TestImportService_ImportLearners_RejectsOversizedBatch(t *testing.T) {
	svc := NewImportService(newMockLearnerWriter(), &mockEnroller{}, nil, nil, config.ImportsConfig{MaxRows: 2}, nil)

	_, err := svc.ImportLearners(context.Background(), []models.ImportRow{
		{"A"}, {"B"}, {"C"},
	})
	require.Error(t, err)
}

func TestImportService_ImportLearners_MissingNameFails(t *testing.T) {
	learners := newMockLearnerWriter()
	svc := NewImportService(learners, &mockEnroller{}, nil, nil, config.ImportsConfig{MaxRows: 10}, nil)

	summary, err := svc.ImportLearners(context.Background(), []models.ImportRow{
		{"  "},
		{"Valid Name"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Errors[0].Row)
}

func TestImportService_ImportTestResults(t *testing.T) {
	scorer := &mockResultScorer{}
	svc := NewImportService(newMockLearnerWriter(), &mockEnroller{}, scorer, nil, config.ImportsConfig{MaxRows: 10}, nil)

	summary, err := svc.ImportTestResults(context.Background(), []models.ImportRow{
		{"test-1", "learner-1", "4"},
		{"test-1", "learner-2", "five"},
		{"test-1", "learner-3"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, scorer.tests, 1)
	assert.Equal(t, 4, scorer.tests[0].Correct)
	assert.Equal(t, 2, summary.Errors[0].Row)
	assert.Contains(t, summary.Errors[0].Message, "whole number")
	assert.Equal(t, 3, summary.Errors[1].Row)
}

func TestImportService_ImportWrittenResults(t *testing.T) {
	scorer := &mockResultScorer{}
	svc := NewImportService(newMockLearnerWriter(), &mockEnroller{}, scorer, nil, config.ImportsConfig{MaxRows: 10}, nil)

	summary, err := svc.ImportWrittenResults(context.Background(), []models.ImportRow{
		{"wa-1", "learner-1", "4", "2"},
		{"wa-1", "learner-2", "3", "-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, scorer.written, 1)
	assert.Equal(t, 2, scorer.written[0].Remaining)
	assert.Contains(t, summary.Errors[0].Message, "negative")
}
