package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	"github.com/noah-isme/campus-schedule-api/internal/repository"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
)

type slotReaderStub struct {
	byRoom      []models.AssignmentDetail
	byGroups    []models.AssignmentDetail
	roomCalls   int
	groupCalls  int
	lastGroups  []int64
	lastWeekday models.Weekday
	err         error
}

func (s *slotReaderStub) ListByRoomDay(ctx context.Context, exec sqlx.ExtContext, roomID, periodID int64, weekday models.Weekday) ([]models.AssignmentDetail, error) {
	s.roomCalls++
	s.lastWeekday = weekday
	return s.byRoom, s.err
}

func (s *slotReaderStub) ListByGroupsDay(ctx context.Context, exec sqlx.ExtContext, groupIDs []int64, weekday models.Weekday) ([]models.AssignmentDetail, error) {
	s.groupCalls++
	s.lastGroups = groupIDs
	s.lastWeekday = weekday
	return s.byGroups, s.err
}

type professorGroupStub struct {
	ids []int64
}

func (s *professorGroupStub) ListIDsByProfessor(ctx context.Context, exec sqlx.ExtContext, professorID string, periodID int64) ([]int64, error) {
	return s.ids, nil
}

type userResolverStub struct {
	users map[string]models.User
}

func (s *userResolverStub) FindByReference(ctx context.Context, ref string) (*models.User, error) {
	user, ok := s.users[ref]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func assignmentAt(id int64, day models.Weekday, start, end string) models.AssignmentDetail {
	return models.AssignmentDetail{ID: id, Weekday: day, StartTime: models.Clock(start), EndTime: models.Clock(end)}
}

func slotQuery(day, start, end string) models.AvailabilityQuery {
	return models.AvailabilityQuery{Weekday: day, Start: start, End: end, PeriodID: 1}
}

func TestAvailabilityServiceCheckRoom(t *testing.T) {
	slots := &slotReaderStub{byRoom: []models.AssignmentDetail{
		assignmentAt(1, models.Monday, "07:00:00", "09:00:00"),
		assignmentAt(2, models.Monday, "09:00:00", "11:00:00"),
		assignmentAt(3, models.Monday, "10:00:00", "12:00:00"),
	}}
	svc := NewAvailabilityService(slots, &professorGroupStub{}, &userResolverStub{}, nil, nil, nil)

	result, err := svc.CheckRoom(context.Background(), 10, slotQuery("lunes", "08:00", "10:00"))
	require.NoError(t, err)
	assert.False(t, result.Available)
	require.Len(t, result.Conflicts, 2)
	assert.Equal(t, int64(1), result.Conflicts[0].ID)
	assert.Equal(t, int64(2), result.Conflicts[1].ID)
	assert.Equal(t, models.Monday, slots.lastWeekday)
}

func TestAvailabilityServiceCheckRoomTouchingIsFree(t *testing.T) {
	slots := &slotReaderStub{byRoom: []models.AssignmentDetail{
		assignmentAt(1, models.Tuesday, "07:00:00", "09:00:00"),
		assignmentAt(2, models.Tuesday, "11:00:00", "13:00:00"),
	}}
	svc := NewAvailabilityService(slots, &professorGroupStub{}, &userResolverStub{}, nil, nil, nil)

	result, err := svc.CheckRoom(context.Background(), 10, slotQuery("Martes", "09:00", "11:00"))
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.NotNil(t, result.Conflicts)
	assert.Empty(t, result.Conflicts)
}

func TestAvailabilityServiceCheckRoomExcludesAssignment(t *testing.T) {
	slots := &slotReaderStub{byRoom: []models.AssignmentDetail{assignmentAt(5, models.Wednesday, "08:00:00", "10:00:00")}}
	svc := NewAvailabilityService(slots, &professorGroupStub{}, &userResolverStub{}, nil, nil, nil)

	query := slotQuery("Miercoles", "08:00", "10:00")
	exclude := int64(5)
	query.ExcludeID = &exclude

	result, err := svc.CheckRoom(context.Background(), 10, query)
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Equal(t, models.Wednesday, slots.lastWeekday)
}

func TestAvailabilityServiceValidation(t *testing.T) {
	slots := &slotReaderStub{}
	svc := NewAvailabilityService(slots, &professorGroupStub{}, &userResolverStub{}, nil, nil, nil)

	cases := map[string]models.AvailabilityQuery{
		"missing weekday": {Start: "08:00", End: "10:00", PeriodID: 1},
		"missing period":  {Weekday: "Lunes", Start: "08:00", End: "10:00"},
		"unknown weekday": slotQuery("Domingo", "08:00", "10:00"),
		"bad clock":       slotQuery("Lunes", "8am", "10:00"),
		"inverted range":  slotQuery("Lunes", "10:00", "08:00"),
		"empty range":     slotQuery("Lunes", "10:00", "10:00"),
	}
	for name, query := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CheckRoom(context.Background(), 1, query)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
	assert.Zero(t, slots.roomCalls)
}

func TestAvailabilityServiceCheckProfessor(t *testing.T) {
	slots := &slotReaderStub{byGroups: []models.AssignmentDetail{
		assignmentAt(1, models.Thursday, "14:00:00", "16:00:00"),
		assignmentAt(2, models.Thursday, "16:00:00", "18:00:00"),
	}}
	users := &userResolverStub{users: map[string]models.User{"P01": {ID: "1098765432"}}}
	svc := NewAvailabilityService(slots, &professorGroupStub{ids: []int64{3, 4}}, users, nil, nil, nil)

	result, err := svc.CheckProfessor(context.Background(), "P01", slotQuery("Jueves", "15:00", "16:00"))
	require.NoError(t, err)
	assert.False(t, result.Available)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, int64(1), result.Conflicts[0].ID)
	assert.Equal(t, []int64{3, 4}, slots.lastGroups)
}

func TestAvailabilityServiceCheckProfessorWithoutGroups(t *testing.T) {
	slots := &slotReaderStub{}
	users := &userResolverStub{users: map[string]models.User{"1098765432": {ID: "1098765432"}}}
	svc := NewAvailabilityService(slots, &professorGroupStub{}, users, nil, nil, nil)

	result, err := svc.CheckProfessor(context.Background(), "1098765432", slotQuery("Viernes", "08:00", "10:00"))
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Empty(t, result.Conflicts)
	assert.Zero(t, slots.groupCalls)
}

func TestAvailabilityServiceCheckProfessorUnknownIsAvailable(t *testing.T) {
	slots := &slotReaderStub{}
	svc := NewAvailabilityService(slots, &professorGroupStub{ids: []int64{1}}, &userResolverStub{}, nil, nil, nil)

	result, err := svc.CheckProfessor(context.Background(), "nobody", slotQuery("Sabado", "08:00", "10:00"))
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.NotNil(t, result.Conflicts)
	assert.Zero(t, slots.groupCalls)
}

func TestAvailabilityServiceStoreFailure(t *testing.T) {
	slots := &slotReaderStub{err: errors.New("db down")}
	svc := NewAvailabilityService(slots, &professorGroupStub{}, &userResolverStub{}, nil, nil, nil)

	_, err := svc.CheckRoom(context.Background(), 1, slotQuery("Lunes", "08:00", "10:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceCheckRoomWithPostgresTimeColumns(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	columns := []string{"id", "group_id", "room_id", "room_code", "weekday", "start_time", "end_time", "period_id", "subject_code", "subject_name", "section_code", "professor_id", "professor_name"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE sa.room_id = $1 AND g.period_id = $2 AND sa.weekday = $3")).
		WithArgs(int64(10), int64(1), "Lunes").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			7, 4, 10, "A-101", "Lunes",
			time.Date(0, 1, 1, 8, 0, 0, 0, time.UTC),
			time.Date(0, 1, 1, 10, 0, 0, 0, time.UTC),
			1, "1155605", "Cálculo", "A", nil, nil,
		))

	repo := repository.NewAssignmentRepository(sqlx.NewDb(db, "sqlmock"))
	svc := NewAvailabilityService(repo, &professorGroupStub{}, &userResolverStub{}, nil, nil, nil)

	result, err := svc.CheckRoom(context.Background(), 10, slotQuery("Lunes", "09:00", "11:00"))
	require.NoError(t, err)
	assert.False(t, result.Available)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, models.Clock("08:00:00"), result.Conflicts[0].StartTime)
	assert.Equal(t, models.Clock("10:00:00"), result.Conflicts[0].EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}
