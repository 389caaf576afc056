package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/markaz-dev/markaz-api/internal/models"
)

// AttendanceRepository handles persistence of attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByLearnerAndSession loads the unique (learner, session) record.
func (r *AttendanceRepository) FindByLearnerAndSession(ctx context.Context, learnerID, sessionID string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	query := `SELECT id, learner_id, session_id, present, arrived_at, created_at, updated_at FROM attendance_records WHERE learner_id = $1 AND session_id = $2`
	if err := r.db.GetContext(ctx, &record, query, learnerID, sessionID); err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert writes an attendance record keyed by (learner, session). Existing
// rows are updated in place; duplicates are impossible.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	query := `INSERT INTO attendance_records (id, learner_id, session_id, present, arrived_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (learner_id, session_id) DO UPDATE
SET present = EXCLUDED.present, arrived_at = EXCLUDED.arrived_at, updated_at = EXCLUDED.updated_at
RETURNING id, learner_id, session_id, present, arrived_at, created_at, updated_at`
	var stored models.AttendanceRecord
	if err := r.db.GetContext(ctx, &stored, query, record.ID, record.LearnerID, record.SessionID, record.Present, record.ArrivedAt, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListByGroupBetween returns a group's attendance joined with session dates
// for the inclusive date range.
func (r *AttendanceRepository) ListByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]models.AttendanceDetail, error) {
	records := []models.AttendanceDetail{}
	query := `SELECT a.id, a.learner_id, a.session_id, a.present, a.arrived_at, a.created_at, a.updated_at,
s.group_id, s.date AS session_date
FROM attendance_records a
JOIN class_sessions s ON s.id = a.session_id
WHERE s.group_id = $1 AND s.date BETWEEN $2 AND $3
ORDER BY s.date`
	if err := r.db.SelectContext(ctx, &records, query, groupID, from, to); err != nil {
		return nil, err
	}
	return records, nil
}

// ListByDate returns every attendance record across all groups for sessions
// held on the given date.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceDetail, error) {
	records := []models.AttendanceDetail{}
	query := `SELECT a.id, a.learner_id, a.session_id, a.present, a.arrived_at, a.created_at, a.updated_at,
s.group_id, s.date AS session_date
FROM attendance_records a
JOIN class_sessions s ON s.id = a.session_id
WHERE s.date = $1`
	if err := r.db.SelectContext(ctx, &records, query, date); err != nil {
		return nil, err
	}
	return records, nil
}
