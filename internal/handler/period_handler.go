package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-schedule-api/internal/middleware"
	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
	"github.com/noah-isme/campus-schedule-api/pkg/response"
)

type periodService interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.AcademicPeriod, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.AcademicPeriod, error)
	Active(ctx context.Context) (*models.AcademicPeriod, bool, error)
	Create(ctx context.Context, req models.CreatePeriodRequest) (*models.AcademicPeriod, error)
	Update(ctx context.Context, id int64, req models.UpdatePeriodRequest) (*models.AcademicPeriod, error)
	Open(ctx context.Context, id int64) (*models.AcademicPeriod, error)
	Close(ctx context.Context, id int64) (*models.AcademicPeriod, error)
}

// PeriodHandler manages academic period endpoints.
type PeriodHandler struct {
	service periodService
}

// NewPeriodHandler constructs handler.
func NewPeriodHandler(svc periodService) *PeriodHandler {
	return &PeriodHandler{service: svc}
}

// List godoc
// @Summary List academic periods
// @Tags Periods
// @Produce json
// @Param status query string false "planned, open or closed"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	var filter models.PeriodFilter
	if raw := strings.ToLower(c.Query("status")); raw != "" {
		status := models.PeriodStatus(raw)
		filter.Status = &status
	}
	filter.Page, filter.PageSize = pageParams(c)

	periods, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, pagination)
}

// Active godoc
// @Summary Get the active period
// @Description Lowest-id open period, falling back to the lowest-id planned one.
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /periods/active [get]
func (h *PeriodHandler) Active(c *gin.Context) {
	period, hit, err := h.service.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, period, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get academic period
// @Tags Periods
// @Produce json
// @Param id path int true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	period, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Create godoc
// @Summary Create academic period
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body models.CreatePeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Router /periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req models.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	period, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Update academic period
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path int true "Period ID"
// @Param payload body models.UpdatePeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [put]
func (h *PeriodHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	period, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Open godoc
// @Summary Open academic period
// @Description Opens the period and closes any other open one.
// @Tags Periods
// @Produce json
// @Param id path int true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/open [post]
func (h *PeriodHandler) Open(c *gin.Context) {
	h.transition(c, h.service.Open)
}

// Close godoc
// @Summary Close academic period
// @Tags Periods
// @Produce json
// @Param id path int true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/close [post]
func (h *PeriodHandler) Close(c *gin.Context) {
	h.transition(c, h.service.Close)
}

func (h *PeriodHandler) transition(c *gin.Context, apply func(context.Context, int64) (*models.AcademicPeriod, error)) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	period, err := apply(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if period == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}
