package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/markaz-dev/markaz-api/internal/dto"
	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/pkg/clock"
	"github.com/markaz-dev/markaz-api/pkg/config"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
)

type reportEnrollmentRepo interface {
	ListActiveByGroup(ctx context.Context, groupID string) ([]models.EnrollmentDetail, error)
}

type reportAttendanceRepo interface {
	ListByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]models.AttendanceDetail, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceDetail, error)
}

type reportTestRepo interface {
	ListResultsByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]models.TestResultDetail, error)
}

type reportWrittenRepo interface {
	ListResultsByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]models.WrittenAssessmentResultDetail, error)
}

type reportAssignmentRepo interface {
	ListByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]models.Assignment, error)
}

type sessionDayLister interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.ClassSessionDetail, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReportService correlates attendance, test, written-assessment and
// assignment rows into per-group matrices and organisation-wide daily
// rosters. All joins happen on derived calendar-date keys computed against
// one fixed civil-day offset, never on raw instants.
type ReportService struct {
	enrollments reportEnrollmentRepo
	attendance  reportAttendanceRepo
	tests       reportTestRepo
	written     reportWrittenRepo
	assignments reportAssignmentRepo
	sessions    sessionDayLister
	groups      groupReader
	cache       reportCache
	clock       *clock.Fixed
	cfg         config.ReportsConfig
	collator    *collate.Collator
	logger      *zap.Logger
}

// NewReportService constructs ReportService. cache may be nil, which
// disables report caching regardless of configuration.
func NewReportService(
	enrollments reportEnrollmentRepo,
	attendance reportAttendanceRepo,
	tests reportTestRepo,
	written reportWrittenRepo,
	assignments reportAssignmentRepo,
	sessions sessionDayLister,
	groups groupReader,
	cache reportCache,
	clk *clock.Fixed,
	cfg config.ReportsConfig,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		tag = language.Und
	}
	return &ReportService{
		enrollments: enrollments,
		attendance:  attendance,
		tests:       tests,
		written:     written,
		assignments: assignments,
		sessions:    sessions,
		groups:      groups,
		cache:       cache,
		clock:       clk,
		cfg:         cfg,
		collator:    collate.New(tag),
		logger:      logger,
	}
}

// BuildMatrix assembles the per-date, per-learner matrix for one group over
// an inclusive calendar-date range. A date appears if any of the four source
// collections has a row for it; every actively enrolled learner gets a row.
func (s *ReportService) BuildMatrix(ctx context.Context, groupID, fromDate, toDate string) (*dto.MatrixReport, error) {
	from, to, err := s.parseRange(fromDate, toDate)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("reports:matrix:%s:%s:%s", groupID, fromDate, toDate)
	if s.cacheEnabled() {
		var cached dto.MatrixReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	enrolled, err := s.enrollments.ListActiveByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group roster")
	}

	// Instants whose civil date falls in [from, to] may sit outside the raw
	// range in UTC; widen the query window by the offset and filter by the
	// derived key afterwards.
	queryFrom := from.Add(-s.clock.Offset())
	queryTo := to.Add(24*time.Hour - s.clock.Offset())

	attendance, err := s.attendance.ListByGroupBetween(ctx, groupID, queryFrom, queryTo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	testResults, err := s.tests.ListResultsByGroupBetween(ctx, groupID, queryFrom, queryTo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test results")
	}
	writtenResults, err := s.written.ListResultsByGroupBetween(ctx, groupID, queryFrom, queryTo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load written results")
	}
	assignments, err := s.assignments.ListByGroupBetween(ctx, groupID, queryFrom, queryTo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}

	inRange := func(key string) bool {
		return key >= fromDate && key <= toDate
	}
	dates := make(map[string]struct{})
	cells := make(map[string]*dto.MatrixCell)
	cell := func(learnerID, date string) *dto.MatrixCell {
		key := learnerID + "|" + date
		c, ok := cells[key]
		if !ok {
			c = &dto.MatrixCell{}
			cells[key] = c
		}
		dates[date] = struct{}{}
		return c
	}

	for _, record := range attendance {
		date := s.clock.CivilDate(record.SessionDate)
		if !inRange(date) {
			continue
		}
		c := cell(record.LearnerID, date)
		if record.Present {
			c.Attendance = "present"
		} else {
			c.Attendance = "absent"
		}
	}
	for _, result := range testResults {
		date := s.clock.CivilDate(result.HeldAt)
		if !inRange(date) {
			continue
		}
		c := cell(result.LearnerID, date)
		value := fmt.Sprintf("%d/%d", result.Correct, result.TotalQuestions)
		if result.Category == models.TestCategoryTakeHome {
			c.Homework = value
		} else {
			c.DailyTest = value
		}
	}
	for _, result := range writtenResults {
		date := s.clock.CivilDate(result.HeldAt)
		if !inRange(date) {
			continue
		}
		c := cell(result.LearnerID, date)
		c.Written = fmt.Sprintf("%d/%d (%d%%)", result.Correct, result.TotalQuestions, int(math.Round(result.Mastery)))
	}
	for _, assignment := range assignments {
		date := s.clock.CivilDate(assignment.ReportDate())
		if !inRange(date) {
			continue
		}
		if assignment.Score == nil || assignment.MaxScore == nil {
			continue
		}
		c := cell(assignment.LearnerID, date)
		// Take-home test results outrank assignment scores for the same day.
		if c.Homework == "" {
			c.Homework = fmt.Sprintf("%s/%s", trimFloat(*assignment.Score), trimFloat(*assignment.MaxScore))
		}
	}

	report := &dto.MatrixReport{
		GroupID:   groupID,
		GroupName: group.Name,
		Dates:     sortedKeys(dates),
		Rows:      make([]dto.MatrixRow, 0, len(enrolled)),
	}
	for _, enrollment := range enrolled {
		row := dto.MatrixRow{
			LearnerID:   enrollment.LearnerID,
			LearnerName: enrollment.LearnerName,
			Cells:       make(map[string]dto.MatrixCell, len(report.Dates)),
		}
		for _, date := range report.Dates {
			if c, ok := cells[enrollment.LearnerID+"|"+date]; ok {
				row.Cells[date] = *c
			} else {
				row.Cells[date] = dto.MatrixCell{}
			}
		}
		report.Rows = append(report.Rows, row)
	}
	sort.SliceStable(report.Rows, func(i, j int) bool {
		return s.collator.CompareString(report.Rows[i].LearnerName, report.Rows[j].LearnerName) < 0
	})

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, cacheKey, report, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache matrix report", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return report, nil
}

// BuildRoster assembles the organisation-wide roster for one date: every
// session scheduled that day with its enrolled learners, plus a flattened
// per-learner attended flag. A learner counts as present for a session if
// any record on any of that group's sessions that date marks them present.
func (s *ReportService) BuildRoster(ctx context.Context, date string) (*dto.RosterReport, error) {
	day, err := time.Parse(clock.DateLayout, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}

	cacheKey := "reports:roster:" + date
	if s.cacheEnabled() {
		var cached dto.RosterReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	scheduled, err := s.sessions.ListByDate(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	records, err := s.attendance.ListByDate(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	presentInGroup := make(map[string]bool)
	for _, record := range records {
		if record.Present {
			presentInGroup[record.LearnerID+"|"+record.GroupID] = true
		}
	}

	rosters := make(map[string][]models.EnrollmentDetail)
	report := &dto.RosterReport{Date: date, Sessions: make([]dto.SessionRoster, 0, len(scheduled))}
	for _, session := range scheduled {
		enrolled, ok := rosters[session.GroupID]
		if !ok {
			enrolled, err = s.enrollments.ListActiveByGroup(ctx, session.GroupID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group roster")
			}
			rosters[session.GroupID] = enrolled
		}

		roster := dto.SessionRoster{
			SessionID: session.ID,
			GroupID:   session.GroupID,
			GroupName: session.GroupName,
			Learners:  make([]dto.RosterEntry, 0, len(enrolled)),
		}
		for _, enrollment := range enrolled {
			present := presentInGroup[enrollment.LearnerID+"|"+session.GroupID]
			if present {
				roster.PresentCount++
			} else {
				roster.AbsentCount++
			}
			roster.Learners = append(roster.Learners, dto.RosterEntry{
				LearnerID:   enrollment.LearnerID,
				LearnerName: enrollment.LearnerName,
				Present:     present,
			})
		}
		s.sortEntries(roster.Learners)
		report.Sessions = append(report.Sessions, roster)
	}

	seen := make(map[string]struct{})
	for _, enrolled := range rosters {
		for _, enrollment := range enrolled {
			key := enrollment.LearnerID + "|" + enrollment.GroupID
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			report.Learners = append(report.Learners, dto.LearnerDay{
				LearnerID:   enrollment.LearnerID,
				LearnerName: enrollment.LearnerName,
				GroupID:     enrollment.GroupID,
				Attended:    presentInGroup[key],
			})
		}
	}
	sort.SliceStable(report.Learners, func(i, j int) bool {
		return s.collator.CompareString(report.Learners[i].LearnerName, report.Learners[j].LearnerName) < 0
	})

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, cacheKey, report, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache roster report", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return report, nil
}

func (s *ReportService) cacheEnabled() bool {
	return s.cache != nil && s.cfg.CacheEnabled
}

func (s *ReportService) sortEntries(entries []dto.RosterEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return s.collator.CompareString(entries[i].LearnerName, entries[j].LearnerName) < 0
	})
}

func (s *ReportService) parseRange(fromDate, toDate string) (time.Time, time.Time, error) {
	from, err := time.Parse(clock.DateLayout, fromDate)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid from date")
	}
	to, err := time.Parse(clock.DateLayout, toDate)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid to date")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date range is inverted")
	}
	return from, to, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
