package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
	"github.com/noah-isme/campus-schedule-api/pkg/response"
)

type importService interface {
	Import(ctx context.Context, payload models.SchedulePayload) (*models.ImportResult, error)
	ImportDocument(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error)
}

type importJobService interface {
	Enqueue(ctx context.Context, payload models.SchedulePayload, source, createdBy string) (*models.ImportJob, error)
	Get(ctx context.Context, id string) (*models.ImportJob, error)
}

// ImportHandler exposes schedule imports.
type ImportHandler struct {
	imports importService
	jobs    importJobService
}

// NewImportHandler constructs handler.
func NewImportHandler(imports importService, jobs importJobService) *ImportHandler {
	return &ImportHandler{imports: imports, jobs: jobs}
}

// Upload godoc
// @Summary Import schedule document
// @Description Sends the uploaded timetable to the extraction service and reconciles the result.
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Timetable document"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /schedules/import [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unable to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	result, err := h.imports.ImportDocument(c.Request.Context(), header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ImportJSON godoc
// @Summary Import schedule payload
// @Description Reconciles an already extracted payload keyed by room code and weekday.
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body models.SchedulePayload true "Extracted schedule"
// @Success 200 {object} response.Envelope
// @Router /schedules/import/json [post]
func (h *ImportHandler) ImportJSON(c *gin.Context) {
	var payload models.SchedulePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.imports.Import(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// EnqueueJob godoc
// @Summary Queue schedule import
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body models.SchedulePayload true "Extracted schedule"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schedules/import/jobs [post]
func (h *ImportHandler) EnqueueJob(c *gin.Context) {
	var payload models.SchedulePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	job, err := h.jobs.Enqueue(c.Request.Context(), payload, "api", actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// GetJob godoc
// @Summary Get import job status
// @Tags Imports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/import/jobs/{id} [get]
func (h *ImportHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}
