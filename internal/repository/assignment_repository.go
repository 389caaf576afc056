package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/markaz-dev/markaz-api/internal/models"
)

// AssignmentRepository handles persistence of assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts an assignment row.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	query := `INSERT INTO assignments (id, group_id, learner_id, title, completed, score, max_score, submitted_at, due_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query, assignment.ID, assignment.GroupID, assignment.LearnerID, assignment.Title,
		assignment.Completed, assignment.Score, assignment.MaxScore, assignment.SubmittedAt, assignment.DueAt,
		assignment.CreatedAt, assignment.UpdatedAt)
	return err
}

// FindByID loads a single assignment.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	query := `SELECT id, group_id, learner_id, title, completed, score, max_score, submitted_at, due_at, created_at, updated_at FROM assignments WHERE id = $1`
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Update persists completion and scoring fields.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	query := `UPDATE assignments SET completed = $1, score = $2, max_score = $3, submitted_at = $4, due_at = $5, updated_at = $6 WHERE id = $7`
	_, err := r.db.ExecContext(ctx, query, assignment.Completed, assignment.Score, assignment.MaxScore, assignment.SubmittedAt, assignment.DueAt, assignment.UpdatedAt, assignment.ID)
	return err
}

// ListByGroupBetween returns a group's assignments whose correlation date
// candidates fall in the inclusive range. The range filter is deliberately
// wide (any of the three date fields) so the service can apply the
// submitted-dueAt-created fallback on a complete set.
func (r *AssignmentRepository) ListByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]models.Assignment, error) {
	assignments := []models.Assignment{}
	query := `SELECT id, group_id, learner_id, title, completed, score, max_score, submitted_at, due_at, created_at, updated_at
FROM assignments
WHERE group_id = $1 AND (
	(submitted_at BETWEEN $2 AND $3)
	OR (submitted_at IS NULL AND due_at BETWEEN $2 AND $3)
	OR (submitted_at IS NULL AND due_at IS NULL AND created_at BETWEEN $2 AND $3)
)
ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &assignments, query, groupID, from, to); err != nil {
		return nil, err
	}
	return assignments, nil
}
