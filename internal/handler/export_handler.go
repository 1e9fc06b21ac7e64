package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	"github.com/noah-isme/campus-schedule-api/pkg/response"
)

type timetableExporter interface {
	Timetable(ctx context.Context, req models.TimetableExportRequest) (*models.ExportFile, error)
}

// ExportHandler streams rendered timetables.
type ExportHandler struct {
	exports timetableExporter
}

// NewExportHandler constructs handler.
func NewExportHandler(exports timetableExporter) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Timetable godoc
// @Summary Export timetable
// @Description Renders the assignments of a period, optionally narrowed to one room or professor.
// @Tags Exports
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param period_id query int false "Academic period, defaults to the active one"
// @Param room_id query int false "Room"
// @Param professor_id query string false "Professor"
// @Param format query string false "pdf, xlsx or csv"
// @Success 200 {file} file
// @Router /schedules/export [get]
func (h *ExportHandler) Timetable(c *gin.Context) {
	var req models.TimetableExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	file, err := h.exports.Timetable(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
