package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-schedule-api/internal/models"
)

var assignmentDetailColumns = []string{"id", "group_id", "room_id", "room_code", "weekday", "start_time", "end_time", "period_id", "subject_code", "subject_name", "section_code", "professor_id", "professor_name"}

func TestAssignmentRepositoryListByRoomDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE sa.room_id = $1 AND g.period_id = $2 AND sa.weekday = $3")).
		WithArgs(int64(2), int64(3), "Miércoles").
		WillReturnRows(sqlmock.NewRows(assignmentDetailColumns).
			AddRow(10, 4, 2, "A-101", "Miércoles", "08:00:00", "10:00:00", 3, "1155605", "Cálculo", "A", "1001", "Ana Pérez"))

	items, err := repo.ListByRoomDay(context.Background(), nil, 2, 3, models.Wednesday)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.Wednesday, items[0].Weekday)
	assert.Equal(t, models.Clock("08:00:00"), items[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryScansTimeColumns(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE sa.id = $1")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(assignmentDetailColumns).
			AddRow(10, 4, 2, "A-101", "Lunes", time.Date(0, 1, 1, 7, 30, 0, 0, time.UTC), time.Date(0, 1, 1, 9, 0, 0, 0, time.UTC), 3, "1155605", "Cálculo", "A", nil, nil))

	item, err := repo.FindDetail(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Equal(t, models.Clock("07:30:00"), item.StartTime)
	assert.Equal(t, models.Clock("09:00:00"), item.EndTime)
	assert.Nil(t, item.ProfessorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListByGroupsDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE sa.group_id = ANY($1) AND sa.weekday = $2")).
		WithArgs(pq.Array([]int64{4, 7}), "Lunes").
		WillReturnRows(sqlmock.NewRows(assignmentDetailColumns))

	items, err := repo.ListByGroupsDay(context.Background(), nil, []int64{4, 7}, models.Monday)
	require.NoError(t, err)
	assert.Empty(t, items)

	none, err := repo.ListByGroupsDay(context.Background(), nil, nil, models.Monday)
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindOrCreateSkipsDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (group_id, room_id, weekday, start_time, end_time) DO NOTHING RETURNING id")).
		WithArgs(int64(4), int64(2), "Lunes", "08:00:00", "10:00:00", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM schedule_assignments WHERE group_id = $1 AND room_id = $2 AND weekday = $3 AND start_time = $4 AND end_time = $5")).
		WithArgs(int64(4), int64(2), "Lunes", "08:00:00", "10:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))

	item := &models.ScheduleAssignment{GroupID: 4, RoomID: 2, Weekday: models.Monday, StartTime: "08:00:00", EndTime: "10:00:00"}
	created, err := repo.FindOrCreate(context.Background(), nil, item)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(77), item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("INSERT INTO schedule_assignments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_schedule_assignments_slot"})

	err := repo.Create(context.Background(), nil, &models.ScheduleAssignment{GroupID: 4, RoomID: 2, Weekday: models.Monday, StartTime: "08:00:00", EndTime: "10:00:00"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateAndDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_assignments SET group_id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_assignments WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), nil, &models.ScheduleAssignment{ID: 99, GroupID: 1, RoomID: 1, Weekday: models.Friday, StartTime: "10:00:00", EndTime: "11:00:00"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(context.Background(), 99), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListBuildsFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	period := int64(3)
	professor := "1001"
	day := models.Tuesday
	pattern := regexp.QuoteMeta("WHERE g.period_id = $1 AND g.professor_id = $2 AND sa.weekday = $3") + ".*" + regexp.QuoteMeta("LIMIT 10 OFFSET 10")
	mock.ExpectQuery(pattern).
		WithArgs(int64(3), "1001", "Martes").
		WillReturnRows(sqlmock.NewRows(assignmentDetailColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedule_assignments sa JOIN course_groups g ON g.id = sa.group_id WHERE g.period_id = $1")).
		WithArgs(int64(3), "1001", "Martes").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	_, total, err := repo.List(context.Background(), models.AssignmentFilter{PeriodID: &period, ProfessorID: &professor, Weekday: &day, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
