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
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	byID    map[string]*models.Enrollment
	listErr error
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{byID: make(map[string]*models.Enrollment)}
}

func (m *mockEnrollmentRepo) add(e models.Enrollment) *models.Enrollment {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	cp := e
	m.byID[cp.ID] = &cp
	return &cp
}

func (m *mockEnrollmentRepo) List(_ context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []models.EnrollmentDetail
	for _, e := range m.byID {
		if filter.LearnerID != "" && e.LearnerID != filter.LearnerID {
			continue
		}
		if filter.GroupID != "" && e.GroupID != filter.GroupID {
			continue
		}
		if filter.Active != nil && e.Active != *filter.Active {
			continue
		}
		out = append(out, models.EnrollmentDetail{Enrollment: *e})
	}
	return out, len(out), nil
}

func (m *mockEnrollmentRepo) FindByLearnerAndGroup(_ context.Context, learnerID, groupID string) (*models.Enrollment, error) {
	for _, e := range m.byID {
		if e.LearnerID == learnerID && e.GroupID == groupID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ListActiveByLearner(_ context.Context, learnerID string) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range m.byID {
		if e.LearnerID == learnerID && e.Active {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) CountActiveByGroup(_ context.Context, groupID string) (int, error) {
	count := 0
	for _, e := range m.byID {
		if e.GroupID == groupID && e.Active {
			count++
		}
	}
	return count, nil
}

func (m *mockEnrollmentRepo) Reassign(_ context.Context, learnerID, groupID string) (*models.Enrollment, error) {
	for _, e := range m.byID {
		if e.LearnerID == learnerID && e.Active && e.GroupID != groupID {
			e.Active = false
		}
	}
	for _, e := range m.byID {
		if e.LearnerID == learnerID && e.GroupID == groupID {
			e.Active = true
			cp := *e
			return &cp, nil
		}
	}
	created := &models.Enrollment{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		GroupID:   groupID,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.byID[created.ID] = created
	cp := *created
	return &cp, nil
}

func (m *mockEnrollmentRepo) DeactivateAllForLearner(_ context.Context, learnerID string) (int64, error) {
	var affected int64
	for _, e := range m.byID {
		if e.LearnerID == learnerID && e.Active {
			e.Active = false
			affected++
		}
	}
	return affected, nil
}

type mockLearnerReader struct {
	byID map[string]*models.Learner
}

func newMockLearnerReader() *mockLearnerReader {
	return &mockLearnerReader{byID: make(map[string]*models.Learner)}
}

func (m *mockLearnerReader) add(l models.Learner) *models.Learner {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	cp := l
	m.byID[cp.ID] = &cp
	return &cp
}

func (m *mockLearnerReader) FindByID(_ context.Context, id string) (*models.Learner, error) {
	l, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

type mockGroupReader struct {
	byID map[string]*models.Group
}

func newMockGroupReader() *mockGroupReader {
	return &mockGroupReader{byID: make(map[string]*models.Group)}
}

func (m *mockGroupReader) add(g models.Group) *models.Group {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	cp := g
	m.byID[cp.ID] = &cp
	return &cp
}

func (m *mockGroupReader) FindByID(_ context.Context, id string) (*models.Group, error) {
	g, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *g
	return &cp, nil
}

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollmentRepo, *mockLearnerReader, *mockGroupReader) {
	repo := newMockEnrollmentRepo()
	learners := newMockLearnerReader()
	groups := newMockGroupReader()
	svc := NewEnrollmentService(repo, learners, groups, nil, nil)
	return svc, repo, learners, groups
}

func TestEnrollmentService_Enroll_Creates(t *testing.T) {
	svc, _, learners, groups := newEnrollmentFixture()
	learner := learners.add(models.Learner{FullName: "Aziza Karimova", Active: true})
	group := groups.add(models.Group{Name: "Math A", Capacity: 10, Active: true})

	enrollment, err := svc.Enroll(context.Background(), EnrollRequest{LearnerID: learner.ID, GroupID: group.ID})
	require.NoError(t, err)
	assert.True(t, enrollment.Active)
	assert.Equal(t, learner.ID, enrollment.LearnerID)
	assert.Equal(t, group.ID, enrollment.GroupID)
}

func TestEnrollmentService_Enroll_MovesBetweenGroups(t *testing.T) {
	svc, repo, learners, groups := newEnrollmentFixture()
	learner := learners.add(models.Learner{FullName: "Bekzod Toirov", Active: true})
	mathGroup := groups.add(models.Group{Name: "Math A", Capacity: 10, Active: true})
	engGroup := groups.add(models.Group{Name: "English B", Capacity: 10, Active: true})

	_, err := svc.Enroll(context.Background(), EnrollRequest{LearnerID: learner.ID, GroupID: mathGroup.ID})
	require.NoError(t, err)
	moved, err := svc.Enroll(context.Background(), EnrollRequest{LearnerID: learner.ID, GroupID: engGroup.ID})
	require.NoError(t, err)

	assert.Equal(t, engGroup.ID, moved.GroupID)
	active, err := repo.ListActiveByLearner(context.Background(), learner.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, engGroup.ID, active[0].GroupID)
}

func TestEnrollmentService_Enroll_ReactivatesHistoricalRow(t *testing.T) {
	svc, repo, learners, groups := newEnrollmentFixture()
	learner := learners.add(models.Learner{FullName: "Dilnoza Rashidova", Active: true})
	group := groups.add(models.Group{Name: "Math A", Capacity: 10, Active: true})
	old := repo.add(models.Enrollment{LearnerID: learner.ID, GroupID: group.ID, Active: false})

	enrollment, err := svc.Enroll(context.Background(), EnrollRequest{LearnerID: learner.ID, GroupID: group.ID})
	require.NoError(t, err)
	assert.Equal(t, old.ID, enrollment.ID)
	assert.True(t, enrollment.Active)
	assert.Len(t, repo.byID, 1)
}

func TestEnrollmentService_Enroll_SameGroupNoOp(t *testing.T) {
	svc, repo, learners, groups := newEnrollmentFixture()
	learner := learners.add(models.Learner{FullName: "Eldor Nazarov", Active: true})
	group := groups.add(models.Group{Name: "Math A", Capacity: 10, Active: true})

	first, err := svc.Enroll(context.Background(), EnrollRequest{LearnerID: learner.ID, GroupID: group.ID})
	require.NoError(t, err)
	again, err := svc.Enroll(context.Background(), EnrollRequest{LearnerID: learner.ID, GroupID: group.ID})
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, repo.byID, 1)
}

func TestEnrollmentService_Enroll_CapacityExceeded(t *testing.T) {
	svc, repo, learners, groups := newEnrollmentFixture()
	group := groups.add(models.Group{Name: "Math A", Capacity: 1, Active: true})
	occupant := learners.add(models.Learner{FullName: "First In", Active: true})
	repo.add(models.Enrollment{LearnerID: occupant.ID, GroupID: group.ID, Active: true})
	learner := learners.add(models.Learner{FullName: "Turned Away", Active: true})

	_, err := svc.Enroll(context.Background(), EnrollRequest{LearnerID: learner.ID, GroupID: group.ID})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
}

func TestEnrollmentService_Enroll_LearnerNotFound(t *testing.T) {
	svc, _, _, groups := newEnrollmentFixture()
	group := groups.add(models.Group{Name: "Math A", Capacity: 10, Active: true})

	_, err := svc.Enroll(context.Background(), EnrollRequest{LearnerID: uuid.NewString(), GroupID: group.ID})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEnrollmentService_Unenroll_RepairsDrift(t *testing.T) {
	svc, repo, learners, groups := newEnrollmentFixture()
	learner := learners.add(models.Learner{FullName: "Gulbahor Saidova", Active: true})
	groupA := groups.add(models.Group{Name: "Math A", Capacity: 10, Active: true})
	groupB := groups.add(models.Group{Name: "English B", Capacity: 10, Active: true})
	// Drifted state: two active rows for the same learner.
	repo.add(models.Enrollment{LearnerID: learner.ID, GroupID: groupA.ID, Active: true})
	repo.add(models.Enrollment{LearnerID: learner.ID, GroupID: groupB.ID, Active: true})

	enrollment, err := svc.Unenroll(context.Background(), UnenrollRequest{LearnerID: learner.ID, GroupID: groupA.ID})
	require.NoError(t, err)
	assert.False(t, enrollment.Active)

	active, err := repo.ListActiveByLearner(context.Background(), learner.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestEnrollmentService_Unenroll_NotFound(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	_, err := svc.Unenroll(context.Background(), UnenrollRequest{LearnerID: uuid.NewString(), GroupID: uuid.NewString()})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
