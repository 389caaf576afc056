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

// LearnerRepository handles persistence of learners.
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository constructs the repository.
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// List returns learners filtered by the provided criteria.
func (r *LearnerRepository) List(ctx context.Context, filter models.LearnerFilter) ([]models.Learner, int, error) {
	base := `FROM learners l`
	var conditions []string
	var args []interface{}

	if filter.GroupID != "" {
		base += ` JOIN enrollments e ON e.learner_id = l.id`
		conditions = append(conditions, fmt.Sprintf("e.group_id = $%d AND e.active = TRUE", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("l.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("l.full_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) " + base + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	allowedSorts := map[string]string{
		"full_name":  "l.full_name",
		"created_at": "l.created_at",
		"points":     "l.points",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "l.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf(`SELECT l.id, l.full_name, l.phone, l.points, l.active, l.created_at, l.updated_at %s%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		base, clause, orderBy, order, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	learners := []models.Learner{}
	if err := r.db.SelectContext(ctx, &learners, query, args...); err != nil {
		return nil, 0, err
	}
	return learners, total, nil
}

// FindByID loads a single learner.
func (r *LearnerRepository) FindByID(ctx context.Context, id string) (*models.Learner, error) {
	var learner models.Learner
	query := `SELECT id, full_name, phone, points, active, created_at, updated_at FROM learners WHERE id = $1`
	if err := r.db.GetContext(ctx, &learner, query, id); err != nil {
		return nil, err
	}
	return &learner, nil
}

// Create inserts a learner row.
func (r *LearnerRepository) Create(ctx context.Context, learner *models.Learner) error {
	if learner.ID == "" {
		learner.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	learner.CreatedAt = now
	learner.UpdatedAt = now
	query := `INSERT INTO learners (id, full_name, phone, points, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, learner.ID, learner.FullName, learner.Phone, learner.Points, learner.Active, learner.CreatedAt, learner.UpdatedAt)
	return err
}

// Update persists mutable learner fields.
func (r *LearnerRepository) Update(ctx context.Context, learner *models.Learner) error {
	learner.UpdatedAt = time.Now().UTC()
	query := `UPDATE learners SET full_name = $1, phone = $2, active = $3, updated_at = $4 WHERE id = $5`
	_, err := r.db.ExecContext(ctx, query, learner.FullName, learner.Phone, learner.Active, learner.UpdatedAt, learner.ID)
	return err
}
