package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsline/training-assign-api/internal/service"
	"github.com/opsline/training-assign-api/pkg/response"
)

// CategoryHandler exposes the categorization snapshot endpoint.
type CategoryHandler struct {
	service *service.CategoryService
}

// NewCategoryHandler constructs a category handler.
func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: svc}
}

// Snapshot godoc
// @Summary Categorize a schedule's trainees by outstanding requirements
// @Tags Categories
// @Produce json
// @Param scheduleID path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleID}/categories [get]
func (h *CategoryHandler) Snapshot(c *gin.Context) {
	set, err := h.service.Snapshot(c.Request.Context(), c.Param("scheduleID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, set, nil)
}
