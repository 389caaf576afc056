package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/markaz-dev/markaz-api/internal/models"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByLearnerAndGroup(ctx context.Context, learnerID, groupID string) (*models.Enrollment, error)
	ListActiveByLearner(ctx context.Context, learnerID string) ([]models.Enrollment, error)
	CountActiveByGroup(ctx context.Context, groupID string) (int, error)
	Reassign(ctx context.Context, learnerID, groupID string) (*models.Enrollment, error)
	DeactivateAllForLearner(ctx context.Context, learnerID string) (int64, error)
}

type learnerReader interface {
	FindByID(ctx context.Context, id string) (*models.Learner, error)
}

type groupReader interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// EnrollRequest describes an enrollment (or reassignment) payload.
type EnrollRequest struct {
	LearnerID string `json:"learner_id" validate:"required"`
	GroupID   string `json:"group_id" validate:"required"`
}

// UnenrollRequest describes the unenroll payload.
type UnenrollRequest struct {
	LearnerID string `json:"learner_id" validate:"required"`
	GroupID   string `json:"group_id" validate:"required"`
}

// EnrollmentService owns learner-group membership and its single-active
// invariant: a learner holds at most one active enrollment at any instant,
// across all groups.
type EnrollmentService struct {
	repo      enrollmentRepository
	learners  learnerReader
	groups    groupReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, learners learnerReader, groups groupReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, learners: learners, groups: groups, validator: validate, logger: logger}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Enroll places a learner into a group. Any other active enrollment the
// learner holds is deactivated first; an inactive historical row for the
// target group is reactivated rather than duplicated. Fails with
// CapacityExceeded when the group's active membership is at its limit.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	learner, err := s.learners.FindByID(ctx, req.LearnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learner")
	}
	if !learner.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "learner inactive")
	}
	group, err := s.groups.FindByID(ctx, req.GroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	existing, err := s.repo.FindByLearnerAndGroup(ctx, req.LearnerID, req.GroupID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if existing != nil && existing.Active {
		// Already the learner's active membership; nothing to change.
		return existing, nil
	}

	count, err := s.repo.CountActiveByGroup(ctx, req.GroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count group membership")
	}
	if group.Capacity > 0 && count >= group.Capacity {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "group "+group.Name+" is full")
	}

	enrollment, err := s.repo.Reassign(ctx, req.LearnerID, req.GroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll learner")
	}
	s.logger.Info("learner enrolled",
		zap.String("learner_id", req.LearnerID),
		zap.String("group_id", req.GroupID),
		zap.Bool("reactivated", existing != nil),
	)
	return enrollment, nil
}

// Unenroll deactivates the (learner, group) enrollment. As a repair pass it
// also deactivates any other rows still active for the learner, guarding
// against invariant drift. Rows are never deleted.
func (s *EnrollmentService) Unenroll(ctx context.Context, req UnenrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unenroll payload")
	}
	enrollment, err := s.repo.FindByLearnerAndGroup(ctx, req.LearnerID, req.GroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	affected, err := s.repo.DeactivateAllForLearner(ctx, req.LearnerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll learner")
	}
	if affected > 1 {
		s.logger.Warn("repaired drifted enrollments during unenroll",
			zap.String("learner_id", req.LearnerID),
			zap.Int64("deactivated", affected),
		)
	}
	enrollment.Active = false
	return enrollment, nil
}

// ActiveGroup resolves the learner's current group, if any.
func (s *EnrollmentService) ActiveGroup(ctx context.Context, learnerID string) (*models.Enrollment, error) {
	active, err := s.repo.ListActiveByLearner(ctx, learnerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active enrollment")
	}
	if len(active) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "learner has no active enrollment")
	}
	return &active[0], nil
}
