package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/markaz-dev/markaz-api/internal/models"
)

// TestRepository handles persistence of test definitions and results.
type TestRepository struct {
	db *sqlx.DB
}

// NewTestRepository constructs the repository.
func NewTestRepository(db *sqlx.DB) *TestRepository {
	return &TestRepository{db: db}
}

// CreateDefinition inserts a test definition.
func (r *TestRepository) CreateDefinition(ctx context.Context, def *models.TestDefinition) error {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	def.CreatedAt = time.Now().UTC()
	query := `INSERT INTO tests (id, group_id, title, total_questions, category, held_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, def.ID, def.GroupID, def.Title, def.TotalQuestions, def.Category, def.HeldAt, def.CreatedAt)
	return err
}

// FindDefinitionByID loads a test definition.
func (r *TestRepository) FindDefinitionByID(ctx context.Context, id string) (*models.TestDefinition, error) {
	var def models.TestDefinition
	query := `SELECT id, group_id, title, total_questions, category, held_at, created_at FROM tests WHERE id = $1`
	if err := r.db.GetContext(ctx, &def, query, id); err != nil {
		return nil, err
	}
	return &def, nil
}

// UpsertResult writes a result keyed by (test, learner). Re-submission
// updates the row in place.
func (r *TestRepository) UpsertResult(ctx context.Context, result *models.TestResult) (*models.TestResult, error) {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	result.CreatedAt = now
	result.UpdatedAt = now
	query := `INSERT INTO test_results (id, test_id, learner_id, correct, score, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (test_id, learner_id) DO UPDATE
SET correct = EXCLUDED.correct, score = EXCLUDED.score, updated_at = EXCLUDED.updated_at
RETURNING id, test_id, learner_id, correct, score, created_at, updated_at`
	var stored models.TestResult
	if err := r.db.GetContext(ctx, &stored, query, result.ID, result.TestID, result.LearnerID, result.Correct, result.Score, result.CreatedAt, result.UpdatedAt); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListResultsByGroupBetween returns results joined with definitions for a
// group in the inclusive range.
func (r *TestRepository) ListResultsByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]models.TestResultDetail, error) {
	results := []models.TestResultDetail{}
	query := `SELECT tr.id, tr.test_id, tr.learner_id, tr.correct, tr.score, tr.created_at, tr.updated_at,
t.group_id, t.total_questions, t.category, t.held_at
FROM test_results tr
JOIN tests t ON t.id = tr.test_id
WHERE t.group_id = $1 AND t.held_at BETWEEN $2 AND $3
ORDER BY t.held_at`
	if err := r.db.SelectContext(ctx, &results, query, groupID, from, to); err != nil {
		return nil, err
	}
	return results, nil
}
