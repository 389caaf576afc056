package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/markaz-dev/markaz-api/internal/models"
)

// SessionRepository handles persistence of class sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a class session row.
func (r *SessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = time.Now().UTC()
	query := `INSERT INTO class_sessions (id, group_id, date, starts_at, ends_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, session.ID, session.GroupID, session.Date, session.StartsAt, session.EndsAt, session.CreatedAt)
	return err
}

// FindByID loads a single session.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	var session models.ClassSession
	query := `SELECT id, group_id, date, starts_at, ends_at, created_at FROM class_sessions WHERE id = $1`
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByGroupAndDate returns every time slot a group has planned on a date.
func (r *SessionRepository) FindByGroupAndDate(ctx context.Context, groupID string, date time.Time) ([]models.ClassSession, error) {
	sessions := []models.ClassSession{}
	query := `SELECT id, group_id, date, starts_at, ends_at, created_at FROM class_sessions WHERE group_id = $1 AND date = $2 ORDER BY starts_at NULLS FIRST`
	if err := r.db.SelectContext(ctx, &sessions, query, groupID, date); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListByDate returns all sessions across every group scheduled on a date.
func (r *SessionRepository) ListByDate(ctx context.Context, date time.Time) ([]models.ClassSessionDetail, error) {
	sessions := []models.ClassSessionDetail{}
	query := `SELECT s.id, s.group_id, s.date, s.starts_at, s.ends_at, s.created_at, g.name AS group_name
FROM class_sessions s
JOIN groups g ON g.id = s.group_id
WHERE s.date = $1
ORDER BY g.name, s.starts_at NULLS FIRST`
	if err := r.db.SelectContext(ctx, &sessions, query, date); err != nil {
		return nil, err
	}
	return sessions, nil
}

// List returns sessions filtered by group and date range.
func (r *SessionRepository) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, int, error) {
	base := `FROM class_sessions s JOIN groups g ON g.id = s.group_id`
	var conditions []string
	var args []interface{}

	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("s.group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("s.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("s.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf(`SELECT s.id, s.group_id, s.date, s.starts_at, s.ends_at, s.created_at, g.name AS group_name %s%s ORDER BY s.date DESC, s.starts_at NULLS FIRST LIMIT $%d OFFSET $%d`,
		base, clause, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	sessions := []models.ClassSessionDetail{}
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}
