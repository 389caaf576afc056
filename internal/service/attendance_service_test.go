package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/pkg/clock"
	"github.com/markaz-dev/markaz-api/pkg/config"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
)

type mockAttendanceRepo struct {
	byKey map[string]*models.AttendanceRecord
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{byKey: make(map[string]*models.AttendanceRecord)}
}

func (m *mockAttendanceRepo) key(learnerID, sessionID string) string {
	return learnerID + "|" + sessionID
}

func (m *mockAttendanceRepo) FindByLearnerAndSession(_ context.Context, learnerID, sessionID string) (*models.AttendanceRecord, error) {
	record, ok := m.byKey[m.key(learnerID, sessionID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *record
	return &cp, nil
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	k := m.key(record.LearnerID, record.SessionID)
	if existing, ok := m.byKey[k]; ok {
		existing.Present = record.Present
		existing.ArrivedAt = record.ArrivedAt
		cp := *existing
		return &cp, nil
	}
	cp := *record
	cp.ID = uuid.NewString()
	m.byKey[k] = &cp
	out := cp
	return &out, nil
}

type mockSessionFinder struct {
	sessions []models.ClassSession
}

func (m *mockSessionFinder) FindByGroupAndDate(_ context.Context, groupID string, date time.Time) ([]models.ClassSession, error) {
	var out []models.ClassSession
	for _, s := range m.sessions {
		if s.GroupID == groupID && s.Date.Equal(date) {
			out = append(out, s)
		}
	}
	return out, nil
}

var testWindow = config.AttendanceConfig{
	WindowStart:    15 * time.Hour,
	WindowDuration: 3 * time.Hour,
}

func newAttendanceFixture(now time.Time) (*AttendanceService, *mockAttendanceRepo, *mockSessionFinder) {
	repo := newMockAttendanceRepo()
	sessions := &mockSessionFinder{}
	clk := clock.NewFrozen(now, 5*time.Hour)
	svc := NewAttendanceService(repo, sessions, clk, testWindow, nil, nil)
	return svc, repo, sessions
}

// Window for 2026-03-10 at +05:00: 10:00-13:00 UTC.
var (
	sessionDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	windowStart = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
)

func TestAttendanceService_Record_ScheduleMissing(t *testing.T) {
	svc, _, _ := newAttendanceFixture(windowStart)

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		LearnerID: uuid.NewString(),
		GroupID:   uuid.NewString(),
		Date:      "2026-03-10",
		Present:   true,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrScheduleMissing.Code, appErr.Code)
}

func TestAttendanceService_Record_ExplicitArrivalWins(t *testing.T) {
	svc, _, sessions := newAttendanceFixture(windowStart.Add(2 * time.Hour))
	groupID := uuid.NewString()
	sessions.sessions = []models.ClassSession{{ID: uuid.NewString(), GroupID: groupID, Date: sessionDate}}
	arrival := windowStart.Add(30 * time.Minute)

	record, err := svc.Record(context.Background(), RecordAttendanceRequest{
		LearnerID: uuid.NewString(),
		GroupID:   groupID,
		Date:      "2026-03-10",
		Present:   true,
		ArrivedAt: &arrival,
	})
	require.NoError(t, err)
	require.NotNil(t, record.ArrivedAt)
	assert.True(t, record.ArrivedAt.Equal(arrival))
}

func TestAttendanceService_Record_KeepsStoredArrivalOnResave(t *testing.T) {
	svc, repo, sessions := newAttendanceFixture(windowStart.Add(2 * time.Hour))
	groupID := uuid.NewString()
	session := models.ClassSession{ID: uuid.NewString(), GroupID: groupID, Date: sessionDate}
	sessions.sessions = []models.ClassSession{session}
	learnerID := uuid.NewString()
	original := windowStart.Add(10 * time.Minute)
	repo.byKey[repo.key(learnerID, session.ID)] = &models.AttendanceRecord{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		SessionID: session.ID,
		Present:   true,
		ArrivedAt: &original,
	}

	record, err := svc.Record(context.Background(), RecordAttendanceRequest{
		LearnerID: learnerID,
		GroupID:   groupID,
		Date:      "2026-03-10",
		Present:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, record.ArrivedAt)
	assert.True(t, record.ArrivedAt.Equal(original))
}

func TestAttendanceService_Record_DefaultsToNowClampedToWindowStart(t *testing.T) {
	// Frozen instant is an hour before the window opens.
	svc, _, sessions := newAttendanceFixture(windowStart.Add(-time.Hour))
	groupID := uuid.NewString()
	sessions.sessions = []models.ClassSession{{ID: uuid.NewString(), GroupID: groupID, Date: sessionDate}}

	record, err := svc.Record(context.Background(), RecordAttendanceRequest{
		LearnerID: uuid.NewString(),
		GroupID:   groupID,
		Date:      "2026-03-10",
		Present:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, record.ArrivedAt)
	assert.True(t, record.ArrivedAt.Equal(windowStart))
}

func TestAttendanceService_Record_AbsentClearsArrival(t *testing.T) {
	svc, repo, sessions := newAttendanceFixture(windowStart)
	groupID := uuid.NewString()
	session := models.ClassSession{ID: uuid.NewString(), GroupID: groupID, Date: sessionDate}
	sessions.sessions = []models.ClassSession{session}
	learnerID := uuid.NewString()
	arrival := windowStart.Add(5 * time.Minute)
	repo.byKey[repo.key(learnerID, session.ID)] = &models.AttendanceRecord{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		SessionID: session.ID,
		Present:   true,
		ArrivedAt: &arrival,
	}

	record, err := svc.Record(context.Background(), RecordAttendanceRequest{
		LearnerID: learnerID,
		GroupID:   groupID,
		Date:      "2026-03-10",
		Present:   false,
	})
	require.NoError(t, err)
	assert.False(t, record.Present)
	assert.Nil(t, record.ArrivedAt)
}

func TestPercentage(t *testing.T) {
	window := models.AttendanceWindow{Start: windowStart, End: windowEnd}
	at := func(d time.Duration) *time.Time {
		ts := windowStart.Add(d)
		return &ts
	}

	tests := []struct {
		name   string
		record models.AttendanceRecord
		want   int
	}{
		{"absent", models.AttendanceRecord{Present: false, ArrivedAt: at(0)}, 0},
		{"legacy no arrival", models.AttendanceRecord{Present: true}, 100},
		{"at window start", models.AttendanceRecord{Present: true, ArrivedAt: at(0)}, 100},
		{"before window start", models.AttendanceRecord{Present: true, ArrivedAt: at(-time.Hour)}, 100},
		{"halfway", models.AttendanceRecord{Present: true, ArrivedAt: at(90 * time.Minute)}, 50},
		{"one hour in", models.AttendanceRecord{Present: true, ArrivedAt: at(time.Hour)}, 67},
		{"at window end", models.AttendanceRecord{Present: true, ArrivedAt: at(3 * time.Hour)}, 0},
		{"after window end", models.AttendanceRecord{Present: true, ArrivedAt: at(4 * time.Hour)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.record, window))
		})
	}
}
