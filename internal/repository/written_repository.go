package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/markaz-dev/markaz-api/internal/models"
)

// WrittenAssessmentRepository handles persistence of timed written
// assessments and their results.
type WrittenAssessmentRepository struct {
	db *sqlx.DB
}

// NewWrittenAssessmentRepository constructs the repository.
func NewWrittenAssessmentRepository(db *sqlx.DB) *WrittenAssessmentRepository {
	return &WrittenAssessmentRepository{db: db}
}

// CreateDefinition inserts an assessment definition.
func (r *WrittenAssessmentRepository) CreateDefinition(ctx context.Context, def *models.WrittenAssessmentDefinition) error {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	def.CreatedAt = time.Now().UTC()
	query := `INSERT INTO written_assessments (id, group_id, title, total_questions, time_given, held_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, def.ID, def.GroupID, def.Title, def.TotalQuestions, def.TimeGiven, def.HeldAt, def.CreatedAt)
	return err
}

// FindDefinitionByID loads an assessment definition.
func (r *WrittenAssessmentRepository) FindDefinitionByID(ctx context.Context, id string) (*models.WrittenAssessmentDefinition, error) {
	var def models.WrittenAssessmentDefinition
	query := `SELECT id, group_id, title, total_questions, time_given, held_at, created_at FROM written_assessments WHERE id = $1`
	if err := r.db.GetContext(ctx, &def, query, id); err != nil {
		return nil, err
	}
	return &def, nil
}

// UpsertResult writes a result keyed by (assessment, learner).
func (r *WrittenAssessmentRepository) UpsertResult(ctx context.Context, result *models.WrittenAssessmentResult) (*models.WrittenAssessmentResult, error) {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	result.CreatedAt = now
	result.UpdatedAt = now
	query := `INSERT INTO written_assessment_results (id, assessment_id, learner_id, correct, remaining, score, mastery, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (assessment_id, learner_id) DO UPDATE
SET correct = EXCLUDED.correct, remaining = EXCLUDED.remaining, score = EXCLUDED.score, mastery = EXCLUDED.mastery, updated_at = EXCLUDED.updated_at
RETURNING id, assessment_id, learner_id, correct, remaining, score, mastery, created_at, updated_at`
	var stored models.WrittenAssessmentResult
	if err := r.db.GetContext(ctx, &stored, query, result.ID, result.AssessmentID, result.LearnerID, result.Correct, result.Remaining, result.Score, result.Mastery, result.CreatedAt, result.UpdatedAt); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListResultsByGroupBetween returns results joined with definitions for a
// group in the inclusive range.
func (r *WrittenAssessmentRepository) ListResultsByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]models.WrittenAssessmentResultDetail, error) {
	results := []models.WrittenAssessmentResultDetail{}
	query := `SELECT wr.id, wr.assessment_id, wr.learner_id, wr.correct, wr.remaining, wr.score, wr.mastery, wr.created_at, wr.updated_at,
w.group_id, w.total_questions, w.time_given, w.held_at
FROM written_assessment_results wr
JOIN written_assessments w ON w.id = wr.assessment_id
WHERE w.group_id = $1 AND w.held_at BETWEEN $2 AND $3
ORDER BY w.held_at`
	if err := r.db.SelectContext(ctx, &results, query, groupID, from, to); err != nil {
		return nil, err
	}
	return results, nil
}
