package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
)

type exportPeriodStub struct {
	periodSelectorStub
	byID map[int64]models.AcademicPeriod
}

func (s *exportPeriodStub) Get(ctx context.Context, id int64) (*models.AcademicPeriod, error) {
	period, ok := s.byID[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
	}
	return &period, nil
}

type assignmentListerStub struct {
	items  []models.AssignmentDetail
	filter models.AssignmentFilter
}

func (s *assignmentListerStub) ListAll(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	s.filter = filter
	return s.items, nil
}

func newExportFixture() (*ExportService, *assignmentListerStub) {
	name := "Ana Ruiz"
	periods := &exportPeriodStub{
		periodSelectorStub: periodSelectorStub{period: &models.AcademicPeriod{ID: 7, Code: "2024-2"}},
		byID:               map[int64]models.AcademicPeriod{3: {ID: 3, Code: "2023-1"}},
	}
	lister := &assignmentListerStub{items: []models.AssignmentDetail{{
		ID: 1, RoomCode: "A-101", Weekday: models.Monday, StartTime: "08:00:00", EndTime: "10:00:00",
		SubjectCode: "1155605", SubjectName: "Cálculo I", SectionCode: "A", ProfessorName: &name,
	}}}
	users := &userResolverStub{users: map[string]models.User{"P01": {ID: "1098765432", FullName: name}}}
	return NewExportService(periods, lister, users, nil, nil), lister
}

func TestExportServiceTimetableCSV(t *testing.T) {
	svc, lister := newExportFixture()

	file, err := svc.Timetable(context.Background(), models.TimetableExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	assert.Equal(t, "timetable-2024-2.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Contains(t, string(file.Data), "Day,Start,End,Room,Subject,Code,Section,Professor")
	assert.Contains(t, string(file.Data), "Lunes,08:00,10:00,A-101,Cálculo I,1155605,A,Ana Ruiz")
	require.NotNil(t, lister.filter.PeriodID)
	assert.Equal(t, int64(7), *lister.filter.PeriodID)
}

func TestExportServiceTimetableByProfessorPDF(t *testing.T) {
	svc, lister := newExportFixture()
	ref := "P01"

	file, err := svc.Timetable(context.Background(), models.TimetableExportRequest{PeriodID: 3, ProfessorID: &ref})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "timetable-2023-1-professor-1098765432.pdf", file.Filename)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
	require.NotNil(t, lister.filter.ProfessorID)
	assert.Equal(t, "1098765432", *lister.filter.ProfessorID)
}

func TestExportServiceTimetableXLSX(t *testing.T) {
	svc, _ := newExportFixture()
	room := int64(10)

	file, err := svc.Timetable(context.Background(), models.TimetableExportRequest{RoomID: &room, Format: models.ExportFormatXLSX})
	require.NoError(t, err)
	assert.Equal(t, "timetable-2024-2-room-10.xlsx", file.Filename)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("PK")))
}

func TestExportServiceTimetableValidation(t *testing.T) {
	svc, _ := newExportFixture()
	room := int64(10)
	ref := "P01"

	_, err := svc.Timetable(context.Background(), models.TimetableExportRequest{RoomID: &room, ProfessorID: &ref})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Timetable(context.Background(), models.TimetableExportRequest{Format: "docx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	unknown := "P99"
	_, err = svc.Timetable(context.Background(), models.TimetableExportRequest{ProfessorID: &unknown})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
