package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markaz-dev/markaz-api/internal/models"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
)

type learnerRepository interface {
	List(ctx context.Context, filter models.LearnerFilter) ([]models.Learner, int, error)
	FindByID(ctx context.Context, id string) (*models.Learner, error)
	Create(ctx context.Context, learner *models.Learner) error
	Update(ctx context.Context, learner *models.Learner) error
}

// CreateLearnerRequest registers a learner.
type CreateLearnerRequest struct {
	FullName string  `json:"full_name" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// UpdateLearnerRequest modifies a learner's profile.
type UpdateLearnerRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// LearnerService manages learner accounts.
type LearnerService struct {
	repo      learnerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLearnerService constructs LearnerService.
func NewLearnerService(repo learnerRepository, validate *validator.Validate, logger *zap.Logger) *LearnerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LearnerService{repo: repo, validator: validate, logger: logger}
}

// List returns learners with pagination metadata.
func (s *LearnerService) List(ctx context.Context, filter models.LearnerFilter) ([]models.Learner, *models.Pagination, error) {
	learners, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list learners")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return learners, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one learner.
func (s *LearnerService) Get(ctx context.Context, id string) (*models.Learner, error) {
	learner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learner")
	}
	return learner, nil
}

// Create registers a learner.
func (s *LearnerService) Create(ctx context.Context, req CreateLearnerRequest) (*models.Learner, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid learner payload")
	}
	learner := &models.Learner{
		ID:       uuid.NewString(),
		FullName: strings.TrimSpace(req.FullName),
		Phone:    req.Phone,
		Active:   true,
	}
	if err := s.repo.Create(ctx, learner); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create learner")
	}
	return learner, nil
}

// Update applies partial changes to a learner.
func (s *LearnerService) Update(ctx context.Context, id string, req UpdateLearnerRequest) (*models.Learner, error) {
	learner, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "full name cannot be blank")
		}
		learner.FullName = name
	}
	if req.Phone != nil {
		learner.Phone = req.Phone
	}
	if req.Active != nil {
		learner.Active = *req.Active
	}
	if err := s.repo.Update(ctx, learner); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update learner")
	}
	return learner, nil
}
