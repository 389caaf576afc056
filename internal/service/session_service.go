package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/pkg/clock"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
)

type sessionRepository interface {
	Create(ctx context.Context, session *models.ClassSession) error
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, int, error)
}

// ScheduleSessionRequest plans a class occurrence for a group on a date.
type ScheduleSessionRequest struct {
	GroupID  string     `json:"group_id" validate:"required"`
	Date     string     `json:"date" validate:"required,datetime=2006-01-02"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

// SessionService plans class sessions. A group may run several slots on the
// same date; attendance is only ever recorded against a planned session.
type SessionService struct {
	repo      sessionRepository
	groups    groupReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs SessionService.
func NewSessionService(repo sessionRepository, groups groupReader, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, groups: groups, validator: validate, logger: logger}
}

// Schedule plans a session.
func (s *SessionService) Schedule(ctx context.Context, req ScheduleSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	date, err := time.Parse(clock.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	if _, err := s.groups.FindByID(ctx, req.GroupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	if req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session must end after it starts")
	}

	session := &models.ClassSession{
		ID:       uuid.NewString(),
		GroupID:  req.GroupID,
		Date:     date,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule session")
	}
	return session, nil
}

// Get returns one session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.ClassSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// List returns sessions with pagination metadata.
func (s *SessionService) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return sessions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
