package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-schedule-api/internal/models"
)

var periodRowColumns = []string{"id", "code", "start_date", "end_date", "status", "created_at", "updated_at"}

func TestPeriodRepositoryFindFirstByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	start := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_periods WHERE status = $1 ORDER BY id ASC LIMIT 1")).
		WithArgs("open").
		WillReturnRows(sqlmock.NewRows(periodRowColumns).AddRow(3, "2025-1", start, start.AddDate(0, 4, 0), "open", time.Now(), time.Now()))

	period, err := repo.FindFirstByStatus(context.Background(), nil, models.PeriodOpen)
	require.NoError(t, err)
	assert.Equal(t, int64(3), period.ID)
	assert.Equal(t, models.PeriodOpen, period.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryFindFirstByStatusNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectQuery("FROM academic_periods WHERE status").
		WithArgs("planned").
		WillReturnRows(sqlmock.NewRows(periodRowColumns))

	_, err := repo.FindFirstByStatus(context.Background(), nil, models.PeriodPlanned)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestPeriodRepositoryOpenClosesOthers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_periods SET status = 'closed', updated_at = $1 WHERE status = 'open' AND id <> $2")).
		WithArgs(sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_periods SET status = 'open', updated_at = $2 WHERE id = $1")).
		WithArgs(int64(5), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Open(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryOpenRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE academic_periods SET status = 'closed'").
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := repo.Open(context.Background(), 5)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryCreateDefaultsToPlanned(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectQuery("INSERT INTO academic_periods").
		WithArgs("2025-2", sqlmock.AnyArg(), sqlmock.AnyArg(), "planned", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))

	period := &models.AcademicPeriod{Code: "2025-2", StartDate: time.Now(), EndDate: time.Now().AddDate(0, 4, 0)}
	require.NoError(t, repo.Create(context.Background(), period))
	assert.Equal(t, int64(8), period.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
