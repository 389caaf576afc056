package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/pkg/clock"
	"github.com/markaz-dev/markaz-api/pkg/config"
)

type mockReportStore struct {
	enrollments map[string][]models.EnrollmentDetail
	attendance  []models.AttendanceDetail
	tests       []models.TestResultDetail
	written     []models.WrittenAssessmentResultDetail
	assignments []models.Assignment
	sessions    []models.ClassSessionDetail
}

func newMockReportStore() *mockReportStore {
	return &mockReportStore{enrollments: make(map[string][]models.EnrollmentDetail)}
}

func (m *mockReportStore) ListActiveByGroup(_ context.Context, groupID string) ([]models.EnrollmentDetail, error) {
	return m.enrollments[groupID], nil
}

func (m *mockReportStore) ListByGroupBetween(_ context.Context, groupID string, from, to time.Time) ([]models.AttendanceDetail, error) {
	var out []models.AttendanceDetail
	for _, r := range m.attendance {
		if r.GroupID == groupID && !r.SessionDate.Before(from) && !r.SessionDate.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReportStore) ListByDate(_ context.Context, date time.Time) ([]models.AttendanceDetail, error) {
	var out []models.AttendanceDetail
	for _, r := range m.attendance {
		if r.SessionDate.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReportStore) ListResultsByGroupBetween(_ context.Context, groupID string, from, to time.Time) ([]models.TestResultDetail, error) {
	var out []models.TestResultDetail
	for _, r := range m.tests {
		if r.GroupID == groupID && !r.HeldAt.Before(from) && !r.HeldAt.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockWrittenReportStore struct{ store *mockReportStore }

func (m mockWrittenReportStore) ListResultsByGroupBetween(_ context.Context, groupID string, from, to time.Time) ([]models.WrittenAssessmentResultDetail, error) {
	var out []models.WrittenAssessmentResultDetail
	for _, r := range m.store.written {
		if r.GroupID == groupID && !r.HeldAt.Before(from) && !r.HeldAt.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockAssignmentReportStore struct{ store *mockReportStore }

func (m mockAssignmentReportStore) ListByGroupBetween(_ context.Context, groupID string, from, to time.Time) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range m.store.assignments {
		if a.GroupID != groupID {
			continue
		}
		at := a.ReportDate()
		if !at.Before(from) && !at.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockSessionDayLister struct{ store *mockReportStore }

func (m mockSessionDayLister) ListByDate(_ context.Context, date time.Time) ([]models.ClassSessionDetail, error) {
	var out []models.ClassSessionDetail
	for _, s := range m.store.sessions {
		if s.Date.Equal(date) {
			out = append(out, s)
		}
	}
	return out, nil
}

func newReportFixture(store *mockReportStore, groups *mockGroupReader) *ReportService {
	cfg := config.ReportsConfig{CivilDayOffset: 5 * time.Hour, Locale: "uz"}
	clk := clock.NewFrozen(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), cfg.CivilDayOffset)
	return NewReportService(
		store,
		store,
		store,
		mockWrittenReportStore{store},
		mockAssignmentReportStore{store},
		mockSessionDayLister{store},
		groups,
		nil,
		clk,
		cfg,
		nil,
	)
}

func enrollDetail(learnerID, learnerName, groupID string) models.EnrollmentDetail {
	return models.EnrollmentDetail{
		Enrollment:  models.Enrollment{ID: uuid.NewString(), LearnerID: learnerID, GroupID: groupID, Active: true},
		LearnerName: learnerName,
	}
}

func TestReportService_BuildMatrix_FullDay(t *testing.T) {
	store := newMockReportStore()
	groups := newMockGroupReader()
	group := groups.add(models.Group{Name: "Math A", Capacity: 20, Active: true})
	learnerID := uuid.NewString()
	store.enrollments[group.ID] = []models.EnrollmentDetail{enrollDetail(learnerID, "Aziza Karimova", group.ID)}

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	sessionID := uuid.NewString()
	store.attendance = []models.AttendanceDetail{{
		AttendanceRecord: models.AttendanceRecord{ID: uuid.NewString(), LearnerID: learnerID, SessionID: sessionID, Present: true},
		GroupID:          group.ID,
		SessionDate:      day,
	}}
	store.tests = []models.TestResultDetail{{
		TestResult:     models.TestResult{ID: uuid.NewString(), LearnerID: learnerID, Correct: 3},
		GroupID:        group.ID,
		TotalQuestions: 5,
		Category:       models.TestCategoryDaily,
		HeldAt:         day,
	}}
	score, mastery := WrittenScore(4, 5, 2, 10)
	store.written = []models.WrittenAssessmentResultDetail{{
		WrittenAssessmentResult: models.WrittenAssessmentResult{ID: uuid.NewString(), LearnerID: learnerID, Correct: 4, Remaining: 2, Score: score, Mastery: mastery},
		GroupID:                 group.ID,
		TotalQuestions:          5,
		TimeGiven:               10,
		HeldAt:                  day,
	}}

	svc := newReportFixture(store, groups)
	report, err := svc.BuildMatrix(context.Background(), group.ID, "2026-03-10", "2026-03-10")
	require.NoError(t, err)

	require.Equal(t, []string{"2026-03-10"}, report.Dates)
	require.Len(t, report.Rows, 1)
	cell := report.Rows[0].Cells["2026-03-10"]
	assert.Equal(t, "present", cell.Attendance)
	assert.Equal(t, "3/5", cell.DailyTest)
	assert.Equal(t, "", cell.Homework)
	assert.Equal(t, "4/5 (77%)", cell.Written)
}

func TestReportService_BuildMatrix_TakeHomeTestOutranksAssignment(t *testing.T) {
	store := newMockReportStore()
	groups := newMockGroupReader()
	group := groups.add(models.Group{Name: "Math A", Capacity: 20, Active: true})
	learnerID := uuid.NewString()
	store.enrollments[group.ID] = []models.EnrollmentDetail{enrollDetail(learnerID, "Bekzod Toirov", group.ID)}

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	store.tests = []models.TestResultDetail{{
		TestResult:     models.TestResult{ID: uuid.NewString(), LearnerID: learnerID, Correct: 9},
		GroupID:        group.ID,
		TotalQuestions: 10,
		Category:       models.TestCategoryTakeHome,
		HeldAt:         day,
	}}
	assignmentScore, assignmentMax := 6.0, 10.0
	submitted := day.Add(9 * time.Hour)
	store.assignments = []models.Assignment{{
		ID: uuid.NewString(), GroupID: group.ID, LearnerID: learnerID, Title: "Essay",
		Completed: true, Score: &assignmentScore, MaxScore: &assignmentMax, SubmittedAt: &submitted,
	}}

	svc := newReportFixture(store, groups)
	report, err := svc.BuildMatrix(context.Background(), group.ID, "2026-03-10", "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, "9/10", report.Rows[0].Cells["2026-03-10"].Homework)
}

func TestReportService_BuildMatrix_AssignmentFallbackAndBlanks(t *testing.T) {
	store := newMockReportStore()
	groups := newMockGroupReader()
	group := groups.add(models.Group{Name: "Math A", Capacity: 20, Active: true})
	scored := uuid.NewString()
	unscored := uuid.NewString()
	store.enrollments[group.ID] = []models.EnrollmentDetail{
		enrollDetail(scored, "Dilnoza Rashidova", group.ID),
		enrollDetail(unscored, "Eldor Nazarov", group.ID),
	}

	due := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	assignmentScore, assignmentMax := 7.5, 10.0
	store.assignments = []models.Assignment{
		{ID: uuid.NewString(), GroupID: group.ID, LearnerID: scored, Completed: true, Score: &assignmentScore, MaxScore: &assignmentMax, DueAt: &due},
		// Completed but unscored work never fills the cell.
		{ID: uuid.NewString(), GroupID: group.ID, LearnerID: unscored, Completed: true, DueAt: &due},
	}

	svc := newReportFixture(store, groups)
	report, err := svc.BuildMatrix(context.Background(), group.ID, "2026-03-10", "2026-03-12")
	require.NoError(t, err)

	require.Equal(t, []string{"2026-03-11"}, report.Dates)
	byName := make(map[string]string)
	for _, row := range report.Rows {
		byName[row.LearnerName] = row.Cells["2026-03-11"].Homework
	}
	assert.Equal(t, "7.5/10", byName["Dilnoza Rashidova"])
	assert.Equal(t, "", byName["Eldor Nazarov"])
}

func TestReportService_BuildMatrix_CivilDayOffsetJoins(t *testing.T) {
	store := newMockReportStore()
	groups := newMockGroupReader()
	group := groups.add(models.Group{Name: "Math A", Capacity: 20, Active: true})
	learnerID := uuid.NewString()
	store.enrollments[group.ID] = []models.EnrollmentDetail{enrollDetail(learnerID, "Gulbahor Saidova", group.ID)}

	// Submitted 21:30 UTC on the 9th is already the 10th at +05:00.
	submitted := time.Date(2026, 3, 9, 21, 30, 0, 0, time.UTC)
	assignmentScore, assignmentMax := 9.0, 10.0
	store.assignments = []models.Assignment{{
		ID: uuid.NewString(), GroupID: group.ID, LearnerID: learnerID,
		Completed: true, Score: &assignmentScore, MaxScore: &assignmentMax, SubmittedAt: &submitted,
	}}

	svc := newReportFixture(store, groups)
	report, err := svc.BuildMatrix(context.Background(), group.ID, "2026-03-10", "2026-03-10")
	require.NoError(t, err)
	require.Equal(t, []string{"2026-03-10"}, report.Dates)
	assert.Equal(t, "9/10", report.Rows[0].Cells["2026-03-10"].Homework)
}

func TestReportService_BuildRoster_PresentAtAnySession(t *testing.T) {
	store := newMockReportStore()
	groups := newMockGroupReader()
	group := groups.add(models.Group{Name: "Math A", Capacity: 20, Active: true})
	attended := uuid.NewString()
	missed := uuid.NewString()
	store.enrollments[group.ID] = []models.EnrollmentDetail{
		enrollDetail(attended, "Aziza Karimova", group.ID),
		enrollDetail(missed, "Bekzod Toirov", group.ID),
	}

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	morning := models.ClassSessionDetail{ClassSession: models.ClassSession{ID: uuid.NewString(), GroupID: group.ID, Date: day}, GroupName: group.Name}
	evening := models.ClassSessionDetail{ClassSession: models.ClassSession{ID: uuid.NewString(), GroupID: group.ID, Date: day}, GroupName: group.Name}
	store.sessions = []models.ClassSessionDetail{morning, evening}
	// Present only at the evening slot still counts for the whole day.
	store.attendance = []models.AttendanceDetail{{
		AttendanceRecord: models.AttendanceRecord{ID: uuid.NewString(), LearnerID: attended, SessionID: evening.ID, Present: true},
		GroupID:          group.ID,
		SessionDate:      day,
	}}

	svc := newReportFixture(store, groups)
	report, err := svc.BuildRoster(context.Background(), "2026-03-10")
	require.NoError(t, err)

	require.Len(t, report.Sessions, 2)
	for _, session := range report.Sessions {
		assert.Equal(t, 1, session.PresentCount)
		assert.Equal(t, 1, session.AbsentCount)
	}
	require.Len(t, report.Learners, 2)
	byID := make(map[string]bool)
	for _, learner := range report.Learners {
		byID[learner.LearnerID] = learner.Attended
	}
	assert.True(t, byID[attended])
	assert.False(t, byID[missed])
}
