package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-dev/markaz-api/internal/models"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
)

type mockPointsRepo struct {
	balances map[string]int
}

func newMockPointsRepo() *mockPointsRepo {
	return &mockPointsRepo{balances: make(map[string]int)}
}

func (m *mockPointsRepo) Adjust(_ context.Context, learnerID string, amount int, direction models.PointDirection) (*models.PointAdjustment, error) {
	previous, ok := m.balances[learnerID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	next := previous + amount
	if direction == models.PointDebit {
		next = previous - amount
		if next < 0 {
			next = 0
		}
	}
	m.balances[learnerID] = next
	return &models.PointAdjustment{LearnerID: learnerID, Previous: previous, New: next}, nil
}

func TestPointsService_Adjust_DebitFloorClamps(t *testing.T) {
	repo := newMockPointsRepo()
	learnerID := uuid.NewString()
	repo.balances[learnerID] = 10
	svc := NewPointsService(repo, nil, nil)

	adjustment, err := svc.Adjust(context.Background(), AdjustPointsRequest{
		LearnerID: learnerID,
		Amount:    50,
		Direction: models.PointDebit,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, adjustment.Previous)
	assert.Equal(t, 0, adjustment.New)
}

func TestPointsService_Adjust_CreditThenDebitNotInvertible(t *testing.T) {
	repo := newMockPointsRepo()
	learnerID := uuid.NewString()
	repo.balances[learnerID] = 0
	svc := NewPointsService(repo, nil, nil)

	credited, err := svc.Adjust(context.Background(), AdjustPointsRequest{LearnerID: learnerID, Amount: 5, Direction: models.PointCredit})
	require.NoError(t, err)
	assert.Equal(t, 5, credited.New)

	debited, err := svc.Adjust(context.Background(), AdjustPointsRequest{LearnerID: learnerID, Amount: 5, Direction: models.PointDebit})
	require.NoError(t, err)
	assert.Equal(t, 0, debited.New)
}

func TestPointsService_Adjust_RejectsNonPositiveAmount(t *testing.T) {
	svc := NewPointsService(newMockPointsRepo(), nil, nil)

	_, err := svc.Adjust(context.Background(), AdjustPointsRequest{
		LearnerID: uuid.NewString(),
		Amount:    0,
		Direction: models.PointCredit,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestPointsService_Adjust_LearnerNotFound(t *testing.T) {
	svc := NewPointsService(newMockPointsRepo(), nil, nil)

	_, err := svc.Adjust(context.Background(), AdjustPointsRequest{
		LearnerID: uuid.NewString(),
		Amount:    5,
		Direction: models.PointCredit,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
