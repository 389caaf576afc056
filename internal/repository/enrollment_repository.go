package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/markaz-dev/markaz-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments. Rows are soft
// toggled via the active flag and never deleted.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN learners l ON l.id = e.learner_id
LEFT JOIN groups g ON g.id = e.group_id`
	var conditions []string
	var args []interface{}

	if filter.LearnerID != "" {
		conditions = append(conditions, fmt.Sprintf("e.learner_id = $%d", len(args)+1))
		args = append(args, filter.LearnerID)
	}
	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("e.group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("e.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, err
	}

	allowedSorts := map[string]string{
		"created_at":   "e.created_at",
		"learner_name": "l.full_name",
		"group_name":   "g.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf(`SELECT e.id, e.learner_id, e.group_id, e.active, e.created_at, e.updated_at,
l.full_name AS learner_name, g.name AS group_name %s%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		base, clause, orderBy, order, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	enrollments := []models.EnrollmentDetail{}
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}

// FindByLearnerAndGroup loads the unique (learner, group) row, active or not.
func (r *EnrollmentRepository) FindByLearnerAndGroup(ctx context.Context, learnerID, groupID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	query := `SELECT id, learner_id, group_id, active, created_at, updated_at FROM enrollments WHERE learner_id = $1 AND group_id = $2`
	if err := r.db.GetContext(ctx, &enrollment, query, learnerID, groupID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListActiveByLearner returns all active enrollments for a learner. The
// invariant allows at most one, but the query returns every row so callers
// can repair drift.
func (r *EnrollmentRepository) ListActiveByLearner(ctx context.Context, learnerID string) ([]models.Enrollment, error) {
	enrollments := []models.Enrollment{}
	query := `SELECT id, learner_id, group_id, active, created_at, updated_at FROM enrollments WHERE learner_id = $1 AND active = TRUE`
	if err := r.db.SelectContext(ctx, &enrollments, query, learnerID); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// ListActiveByGroup returns a group's active membership with learner names,
// for report building.
func (r *EnrollmentRepository) ListActiveByGroup(ctx context.Context, groupID string) ([]models.EnrollmentDetail, error) {
	enrollments := []models.EnrollmentDetail{}
	query := `SELECT e.id, e.learner_id, e.group_id, e.active, e.created_at, e.updated_at,
l.full_name AS learner_name, g.name AS group_name
FROM enrollments e
JOIN learners l ON l.id = e.learner_id
JOIN groups g ON g.id = e.group_id
WHERE e.group_id = $1 AND e.active = TRUE
ORDER BY l.full_name`
	if err := r.db.SelectContext(ctx, &enrollments, query, groupID); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// CountActiveByGroup returns the active membership count of a group.
func (r *EnrollmentRepository) CountActiveByGroup(ctx context.Context, groupID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM enrollments WHERE group_id = $1 AND active = TRUE`
	if err := r.db.GetContext(ctx, &count, query, groupID); err != nil {
		return 0, err
	}
	return count, nil
}

// Reassign makes the (learner, group) enrollment the learner's single active
// membership inside one transaction: every other active row is deactivated,
// then the target row is reactivated or created.
func (r *EnrollmentRepository) Reassign(ctx context.Context, learnerID, groupID string) (*models.Enrollment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	deactivate := `UPDATE enrollments SET active = FALSE, updated_at = $1 WHERE learner_id = $2 AND active = TRUE AND group_id <> $3`
	if _, err := tx.ExecContext(ctx, deactivate, now, learnerID, groupID); err != nil {
		return nil, err
	}

	var enrollment models.Enrollment
	find := `SELECT id, learner_id, group_id, active, created_at, updated_at FROM enrollments WHERE learner_id = $1 AND group_id = $2`
	err = tx.GetContext(ctx, &enrollment, find, learnerID, groupID)
	switch {
	case err == sql.ErrNoRows:
		enrollment = models.Enrollment{
			ID:        uuid.NewString(),
			LearnerID: learnerID,
			GroupID:   groupID,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		insert := `INSERT INTO enrollments (id, learner_id, group_id, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.ExecContext(ctx, insert, enrollment.ID, enrollment.LearnerID, enrollment.GroupID, enrollment.Active, enrollment.CreatedAt, enrollment.UpdatedAt); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		reactivate := `UPDATE enrollments SET active = TRUE, updated_at = $1 WHERE id = $2`
		if _, err := tx.ExecContext(ctx, reactivate, now, enrollment.ID); err != nil {
			return nil, err
		}
		enrollment.Active = true
		enrollment.UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// DeactivateAllForLearner clears every active enrollment of a learner in one
// statement. Used by unenroll, where it doubles as the repair pass against
// invariant drift.
func (r *EnrollmentRepository) DeactivateAllForLearner(ctx context.Context, learnerID string) (int64, error) {
	query := `UPDATE enrollments SET active = FALSE, updated_at = $1 WHERE learner_id = $2 AND active = TRUE`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), learnerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
