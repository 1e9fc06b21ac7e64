package models

// ExportFormat selects the timetable renderer.
type ExportFormat string

const (
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatCSV  ExportFormat = "csv"
)

// TimetableExportRequest selects which assignments to render. At most one of
// RoomID and ProfessorID may be set; without either the whole period is exported.
type TimetableExportRequest struct {
	PeriodID    int64        `form:"period_id" validate:"omitempty,gt=0"`
	RoomID      *int64       `form:"room_id" validate:"omitempty,gt=0"`
	ProfessorID *string      `form:"professor_id"`
	Format      ExportFormat `form:"format" validate:"omitempty,oneof=pdf xlsx csv"`
}

// ExportFile is a rendered document ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
