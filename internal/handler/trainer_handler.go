package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsline/training-assign-api/internal/dto"
	"github.com/opsline/training-assign-api/internal/service"
	appErrors "github.com/opsline/training-assign-api/pkg/errors"
	"github.com/opsline/training-assign-api/pkg/response"
)

// TrainerHandler exposes trainer-to-session assignment endpoints.
type TrainerHandler struct {
	service *service.TrainerService
}

// NewTrainerHandler constructs a trainer handler.
func NewTrainerHandler(svc *service.TrainerService) *TrainerHandler {
	return &TrainerHandler{service: svc}
}

// AssignSessions godoc
// @Summary Commit a trainer to a set of sessions
// @Tags Trainers
// @Accept json
// @Produce json
// @Param id path string true "Trainer ID"
// @Param payload body dto.TrainerAssignRequest true "Session selection"
// @Success 201 {object} response.Envelope
// @Router /trainers/{id}/sessions [post]
func (h *TrainerHandler) AssignSessions(c *gin.Context) {
	var req dto.TrainerAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.AssignSessions(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListSessions godoc
// @Summary List a trainer's committed sessions
// @Tags Trainers
// @Produce json
// @Param id path string true "Trainer ID"
// @Success 200 {object} response.Envelope
// @Router /trainers/{id}/sessions [get]
func (h *TrainerHandler) ListSessions(c *gin.Context) {
	assignments, err := h.service.ListSessions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}
