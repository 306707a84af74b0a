package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsline/training-assign-api/internal/service"
	"github.com/opsline/training-assign-api/pkg/response"
)

// AutoAssignHandler exposes the bulk planner endpoints.
type AutoAssignHandler struct {
	service *service.AutoAssignService
}

// NewAutoAssignHandler constructs an auto-assign handler.
func NewAutoAssignHandler(svc *service.AutoAssignService) *AutoAssignHandler {
	return &AutoAssignHandler{service: svc}
}

// Start godoc
// @Summary Start a background auto-assign run for a schedule
// @Tags AutoAssign
// @Produce json
// @Param scheduleID path string true "Schedule ID"
// @Success 202 {object} response.Envelope
// @Router /schedules/{scheduleID}/auto-assign [post]
func (h *AutoAssignHandler) Start(c *gin.Context) {
	result, err := h.service.Start(c.Request.Context(), c.Param("scheduleID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}

// Status godoc
// @Summary Poll an auto-assign run by id
// @Tags AutoAssign
// @Produce json
// @Param runID path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /auto-assign/runs/{runID} [get]
func (h *AutoAssignHandler) Status(c *gin.Context) {
	result, err := h.service.Status(c.Param("runID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
