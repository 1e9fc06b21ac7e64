package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-schedule-api/internal/middleware"
	"github.com/noah-isme/campus-schedule-api/internal/models"
	"github.com/noah-isme/campus-schedule-api/pkg/response"
)

type activeGroupLister interface {
	ListActive(ctx context.Context) (*models.ActiveGroups, bool, error)
}

// GroupHandler exposes group listings.
type GroupHandler struct {
	service activeGroupLister
}

// NewGroupHandler constructs handler.
func NewGroupHandler(svc activeGroupLister) *GroupHandler {
	return &GroupHandler{service: svc}
}

// Active godoc
// @Summary List groups of the active period
// @Tags Groups
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /groups/active [get]
func (h *GroupHandler) Active(c *gin.Context) {
	groups, hit, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, groups, nil, middleware.ExtractMeta(c))
}
