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

type assignmentService interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, *models.Pagination, error)
	Create(ctx context.Context, req models.CreateAssignmentRequest) (*models.AssignmentDetail, error)
	Update(ctx context.Context, id int64, req models.UpdateAssignmentRequest) (*models.AssignmentDetail, error)
	Delete(ctx context.Context, id int64) error
}

type availabilityService interface {
	CheckRoom(ctx context.Context, roomID int64, query models.AvailabilityQuery) (*models.AvailabilityResult, error)
	CheckProfessor(ctx context.Context, ref string, query models.AvailabilityQuery) (*models.AvailabilityResult, error)
}

// ScheduleHandler manages schedule assignment and availability endpoints.
type ScheduleHandler struct {
	assignments  assignmentService
	availability availabilityService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(assignments assignmentService, availability availabilityService) *ScheduleHandler {
	return &ScheduleHandler{assignments: assignments, availability: availability}
}

// List godoc
// @Summary List schedule assignments
// @Tags Schedules
// @Produce json
// @Param period_id query int false "Filter by period"
// @Param room_id query int false "Filter by room"
// @Param group_id query int false "Filter by group"
// @Param professor_id query string false "Filter by professor"
// @Param weekday query string false "Filter by weekday"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var (
		filter models.AssignmentFilter
		err    error
	)
	if filter.PeriodID, err = queryInt64(c, "period_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.RoomID, err = queryInt64(c, "room_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.GroupID, err = queryInt64(c, "group_id"); err != nil {
		response.Error(c, err)
		return
	}
	if professor := strings.TrimSpace(c.Query("professor_id")); professor != "" {
		filter.ProfessorID = &professor
	}
	if raw := c.Query("weekday"); raw != "" {
		day, ok := models.ParseWeekday(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown weekday "+raw))
			return
		}
		filter.Weekday = &day
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.assignments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Create schedule assignment
// @Description Books a group into a room slot after checking room and professor availability.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body models.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req models.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	detail, err := h.assignments.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Update schedule assignment
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body models.UpdateAssignmentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	detail, err := h.assignments.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete schedule assignment
// @Tags Schedules
// @Param id path int true "Assignment ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.assignments.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RoomAvailability godoc
// @Summary Check room availability
// @Tags Availability
// @Produce json
// @Param id path int true "Room ID"
// @Param weekday query string true "Weekday"
// @Param start query string true "Start time HH:MM"
// @Param end query string true "End time HH:MM"
// @Param period_id query int true "Academic period"
// @Param exclude_id query int false "Assignment to ignore"
// @Success 200 {object} response.Envelope
// @Router /schedules/availability/rooms/{id} [get]
func (h *ScheduleHandler) RoomAvailability(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var query models.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.availability.CheckRoom(c.Request.Context(), id, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// ProfessorAvailability godoc
// @Summary Check professor availability
// @Tags Availability
// @Produce json
// @Param id path string true "Professor ID or external code"
// @Param weekday query string true "Weekday"
// @Param start query string true "Start time HH:MM"
// @Param end query string true "End time HH:MM"
// @Param period_id query int true "Academic period"
// @Param exclude_id query int false "Assignment to ignore"
// @Success 200 {object} response.Envelope
// @Router /schedules/availability/professors/{id} [get]
func (h *ScheduleHandler) ProfessorAvailability(c *gin.Context) {
	var query models.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.availability.CheckProfessor(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}
