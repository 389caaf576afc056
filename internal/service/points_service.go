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

type pointsRepository interface {
	Adjust(ctx context.Context, learnerID string, amount int, direction models.PointDirection) (*models.PointAdjustment, error)
}

// AdjustPointsRequest credits or debits a learner's point balance.
type AdjustPointsRequest struct {
	LearnerID string                `json:"learner_id" validate:"required"`
	Amount    int                   `json:"amount" validate:"required,gt=0"`
	Direction models.PointDirection `json:"direction" validate:"required"`
}

// PointsService adjusts learner point balances. Debits floor-clamp at zero,
// so over-debiting silently loses the excess instead of going negative.
type PointsService struct {
	repo      pointsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPointsService constructs PointsService.
func NewPointsService(repo pointsRepository, validate *validator.Validate, logger *zap.Logger) *PointsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointsService{repo: repo, validator: validate, logger: logger}
}

// Adjust applies the requested balance change and returns the before and
// after values.
func (s *PointsService) Adjust(ctx context.Context, req AdjustPointsRequest) (*models.PointAdjustment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid points payload")
	}
	if !req.Direction.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown point direction")
	}

	adjustment, err := s.repo.Adjust(ctx, req.LearnerID, req.Amount, req.Direction)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to adjust points")
	}
	s.logger.Info("points adjusted",
		zap.String("learner_id", req.LearnerID),
		zap.String("direction", string(req.Direction)),
		zap.Int("amount", req.Amount),
		zap.Int("previous", adjustment.Previous),
		zap.Int("new", adjustment.New),
	)
	return adjustment, nil
}
