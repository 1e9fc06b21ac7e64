package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
	"github.com/noah-isme/campus-schedule-api/pkg/export"
)

var timetableHeaders = []string{"Day", "Start", "End", "Room", "Subject", "Code", "Section", "Professor"}

type exportPeriodReader interface {
	periodSelector
	Get(ctx context.Context, id int64) (*models.AcademicPeriod, error)
}

type assignmentLister interface {
	ListAll(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders period timetables as PDF, XLSX or CSV.
type ExportService struct {
	periods     exportPeriodReader
	assignments assignmentLister
	users       professorResolver
	csv         csvRenderer
	pdf         titledRenderer
	xlsx        titledRenderer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewExportService constructs an ExportService with the default renderers.
func NewExportService(periods exportPeriodReader, assignments assignmentLister, users professorResolver, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		periods:     periods,
		assignments: assignments,
		users:       users,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		xlsx:        export.NewXLSXExporter(),
		validator:   validate,
		logger:      logger,
	}
}

// Timetable renders the assignments of a period, optionally narrowed to one
// room or one professor. Without a period id the active period is used.
func (s *ExportService) Timetable(ctx context.Context, req models.TimetableExportRequest) (*models.ExportFile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export parameters")
	}
	if req.RoomID != nil && req.ProfessorID != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "room_id and professor_id are mutually exclusive")
	}
	if req.Format == "" {
		req.Format = models.ExportFormatPDF
	}

	period, err := s.resolvePeriod(ctx, req.PeriodID)
	if err != nil {
		return nil, err
	}

	filter := models.AssignmentFilter{PeriodID: &period.ID, RoomID: req.RoomID}
	nameParts := []string{"timetable", period.Code}
	title := "Timetable " + period.Code
	if req.RoomID != nil {
		nameParts = append(nameParts, fmt.Sprintf("room-%d", *req.RoomID))
	}
	if req.ProfessorID != nil {
		professor, err := s.users.FindByReference(ctx, *req.ProfessorID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
		}
		filter.ProfessorID = &professor.ID
		nameParts = append(nameParts, "professor-"+professor.ID)
		title += " - " + professor.FullName
	}

	items, err := s.assignments.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	data := timetableDataset(items)
	if len(items) > 0 && req.RoomID != nil {
		title += " - " + items[0].RoomCode
	}

	file := &models.ExportFile{Filename: sanitizeFilename(strings.Join(nameParts, "-")) + "." + string(req.Format)}
	switch req.Format {
	case models.ExportFormatCSV:
		file.ContentType = "text/csv"
		file.Data, err = s.csv.Render(data)
	case models.ExportFormatXLSX:
		file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		file.Data, err = s.xlsx.Render(data, period.Code)
	default:
		file.ContentType = "application/pdf"
		file.Data, err = s.pdf.Render(data, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	s.logger.Info("timetable exported",
		zap.Int64("period_id", period.ID),
		zap.String("format", string(req.Format)),
		zap.Int("rows", len(items)),
	)
	return file, nil
}

func (s *ExportService) resolvePeriod(ctx context.Context, id int64) (*models.AcademicPeriod, error) {
	if id == 0 {
		return s.periods.SelectActive(ctx, nil)
	}
	return s.periods.Get(ctx, id)
}

func timetableDataset(items []models.AssignmentDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]string{
			"Day":       string(item.Weekday),
			"Start":     item.StartTime.Short(),
			"End":       item.EndTime.Short(),
			"Room":      item.RoomCode,
			"Subject":   item.SubjectName,
			"Code":      item.SubjectCode,
			"Section":   item.SectionCode,
			"Professor": deref(item.ProfessorName),
		})
	}
	return export.Dataset{Headers: timetableHeaders, Rows: rows}
}

func sanitizeFilename(raw string) string {
	replacer := strings.NewReplacer(" ", "-", "/", "-", "\\", "-", ":", "-")
	return strings.ToLower(replacer.Replace(raw))
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
