package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/markaz-dev/markaz-api/internal/models"
)

// PointsRepository persists learner point balances. Adjustments run inside a
// transaction with a row lock so the read-modify-write is one atomic unit.
type PointsRepository struct {
	db *sqlx.DB
}

// NewPointsRepository constructs the repository.
func NewPointsRepository(db *sqlx.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// Adjust applies a credit or debit to a learner's balance and returns the
// previous and new values. Debits floor-clamp at zero.
func (r *PointsRepository) Adjust(ctx context.Context, learnerID string, amount int, direction models.PointDirection) (*models.PointAdjustment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var previous int
	if err := tx.GetContext(ctx, &previous, `SELECT points FROM learners WHERE id = $1 FOR UPDATE`, learnerID); err != nil {
		return nil, err
	}

	next := previous
	switch direction {
	case models.PointCredit:
		next = previous + amount
	case models.PointDebit:
		next = previous - amount
		if next < 0 {
			next = 0
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE learners SET points = $1, updated_at = $2 WHERE id = $3`, next, time.Now().UTC(), learnerID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &models.PointAdjustment{LearnerID: learnerID, Previous: previous, New: next}, nil
}
