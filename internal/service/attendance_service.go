package service

import (
	"context"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/pkg/clock"
	"github.com/markaz-dev/markaz-api/pkg/config"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
)

type attendanceRepository interface {
	FindByLearnerAndSession(ctx context.Context, learnerID, sessionID string) (*models.AttendanceRecord, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
}

type sessionFinder interface {
	FindByGroupAndDate(ctx context.Context, groupID string, date time.Time) ([]models.ClassSession, error)
}

// RecordAttendanceRequest marks one learner present or absent for a class day.
// SessionID picks a slot when the group runs several sessions that day;
// otherwise the first scheduled session is used.
type RecordAttendanceRequest struct {
	LearnerID string     `json:"learner_id" validate:"required"`
	GroupID   string     `json:"group_id" validate:"required"`
	Date      string     `json:"date" validate:"required,datetime=2006-01-02"`
	SessionID string     `json:"session_id,omitempty"`
	Present   bool       `json:"present"`
	ArrivedAt *time.Time `json:"arrived_at,omitempty"`
}

// AttendanceService records presence against scheduled sessions and scores
// punctuality against the institution-wide daily window.
type AttendanceService struct {
	repo      attendanceRepository
	sessions  sessionFinder
	clock     *clock.Fixed
	window    config.AttendanceConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, sessions sessionFinder, clk *clock.Fixed, window config.AttendanceConfig, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, sessions: sessions, clock: clk, window: window, validator: validate, logger: logger}
}

// Record upserts the (learner, session) attendance row. Arrival resolution
// when present: the explicit value if given, else the previously stored
// arrival so re-saving a day does not erase the original, else now clamped
// to not-before the window start. Marking absent clears the stored arrival.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse(clock.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}

	scheduled, err := s.sessions.FindByGroupAndDate(ctx, req.GroupID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	if len(scheduled) == 0 {
		return nil, appErrors.Clone(appErrors.ErrScheduleMissing, "no class scheduled for "+req.Date)
	}
	session := scheduled[0]
	if req.SessionID != "" {
		found := false
		for _, candidate := range scheduled {
			if candidate.ID == req.SessionID {
				session = candidate
				found = true
				break
			}
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not scheduled for that group and date")
		}
	}

	record := &models.AttendanceRecord{
		LearnerID: req.LearnerID,
		SessionID: session.ID,
		Present:   req.Present,
	}
	if req.Present {
		record.ArrivedAt, err = s.resolveArrival(ctx, req, session)
		if err != nil {
			return nil, err
		}
	}

	saved, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.logger.Info("attendance recorded",
		zap.String("learner_id", req.LearnerID),
		zap.String("session_id", session.ID),
		zap.Bool("present", req.Present),
	)
	return saved, nil
}

func (s *AttendanceService) resolveArrival(ctx context.Context, req RecordAttendanceRequest, session models.ClassSession) (*time.Time, error) {
	if req.ArrivedAt != nil {
		at := req.ArrivedAt.UTC()
		return &at, nil
	}
	existing, err := s.repo.FindByLearnerAndSession(ctx, req.LearnerID, session.ID)
	if err == nil && existing.ArrivedAt != nil {
		return existing.ArrivedAt, nil
	}
	start, _ := s.clock.DayWindow(session.Date, s.window.WindowStart, s.window.WindowDuration)
	now := s.clock.Now()
	if now.Before(start) {
		now = start
	}
	return &now, nil
}

// Window resolves the scoring window for the civil day containing ts.
func (s *AttendanceService) Window(ts time.Time) models.AttendanceWindow {
	start, end := s.clock.DayWindow(ts, s.window.WindowStart, s.window.WindowDuration)
	return models.AttendanceWindow{Start: start, End: end}
}

// Percentage scores punctuality for one record against a window. Absence is 0.
// A present record with no arrival predates arrival tracking and counts as
// 100. Otherwise the score decays linearly with time remaining in the window.
func Percentage(record models.AttendanceRecord, window models.AttendanceWindow) int {
	if !record.Present {
		return 0
	}
	if record.ArrivedAt == nil {
		return 100
	}
	arrival := *record.ArrivedAt
	if !arrival.After(window.Start) {
		return 100
	}
	if !arrival.Before(window.End) {
		return 0
	}
	frac := float64(window.End.Sub(arrival)) / float64(window.End.Sub(window.Start))
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return int(math.Round(frac * 100))
}
