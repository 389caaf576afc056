package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/markaz-dev/markaz-api/internal/models"
)

func TestPointsRepositoryAdjustDebitClampsAtZero(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPointsRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT points FROM learners WHERE id = $1 FOR UPDATE")).
		WithArgs("lrn-1").
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE learners SET points = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(0, sqlmock.AnyArg(), "lrn-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	adj, err := repo.Adjust(context.Background(), "lrn-1", 50, models.PointDebit)
	require.NoError(t, err)
	require.Equal(t, 10, adj.Previous)
	require.Equal(t, 0, adj.New)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPointsRepositoryAdjustCredit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPointsRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT points FROM learners WHERE id = $1 FOR UPDATE")).
		WithArgs("lrn-1").
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE learners SET points = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(8, sqlmock.AnyArg(), "lrn-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	adj, err := repo.Adjust(context.Background(), "lrn-1", 5, models.PointCredit)
	require.NoError(t, err)
	require.Equal(t, 3, adj.Previous)
	require.Equal(t, 8, adj.New)
	require.NoError(t, mock.ExpectationsWereMet())
}
