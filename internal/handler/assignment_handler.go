package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsline/training-assign-api/internal/dto"
	"github.com/opsline/training-assign-api/internal/service"
	appErrors "github.com/opsline/training-assign-api/pkg/errors"
	"github.com/opsline/training-assign-api/pkg/response"
)

// AssignmentHandler exposes manual assignment endpoints.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// Assign godoc
// @Summary Assign one trainee to a session reference
// @Tags Assignments
// @Accept json
// @Produce json
// @Param scheduleID path string true "Schedule ID"
// @Param payload body dto.AssignRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /schedules/{scheduleID}/assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.AssignOne(c.Request.Context(), c.Param("scheduleID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// AssignBulk godoc
// @Summary Assign a set of trainees to the same session reference
// @Tags Assignments
// @Accept json
// @Produce json
// @Param scheduleID path string true "Schedule ID"
// @Param payload body dto.BulkAssignRequest true "Bulk assignment payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleID}/assignments/bulk [post]
func (h *AssignmentHandler) AssignBulk(c *gin.Context) {
	var req dto.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.AssignMany(c.Request.Context(), c.Param("scheduleID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RemoveGroup godoc
// @Summary Remove a trainee from a whole group
// @Tags Assignments
// @Accept json
// @Produce json
// @Param scheduleID path string true "Schedule ID"
// @Param payload body dto.RemoveRequest true "Removal payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleID}/assignments/group [delete]
func (h *AssignmentHandler) RemoveGroup(c *gin.Context) {
	var req dto.RemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.RemoveFromGroup(c.Request.Context(), c.Param("scheduleID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RemoveCourse godoc
// @Summary Remove a trainee from one course at a group
// @Tags Assignments
// @Accept json
// @Produce json
// @Param scheduleID path string true "Schedule ID"
// @Param payload body dto.RemoveRequest true "Removal payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleID}/assignments/course [delete]
func (h *AssignmentHandler) RemoveCourse(c *gin.Context) {
	var req dto.RemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.RemoveFromCourse(c.Request.Context(), c.Param("scheduleID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListForTrainee godoc
// @Summary List one trainee's assignments in a schedule
// @Tags Assignments
// @Produce json
// @Param scheduleID path string true "Schedule ID"
// @Param traineeID path string true "Trainee ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleID}/trainees/{traineeID}/assignments [get]
func (h *AssignmentHandler) ListForTrainee(c *gin.Context) {
	assignments, err := h.service.ListForTrainee(c.Request.Context(), c.Param("scheduleID"), c.Param("traineeID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Count godoc
// @Summary Count a schedule's assignment records
// @Tags Assignments
// @Produce json
// @Param scheduleID path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleID}/assignments/count [get]
func (h *AssignmentHandler) Count(c *gin.Context) {
	count, err := h.service.CountForSchedule(c.Request.Context(), c.Param("scheduleID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": count}, nil)
}

// Reset godoc
// @Summary Delete every assignment of a schedule
// @Tags Assignments
// @Accept json
// @Produce json
// @Param scheduleID path string true "Schedule ID"
// @Param payload body dto.ResetScheduleRequest true "Typed confirmation"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleID}/assignments [delete]
func (h *AssignmentHandler) Reset(c *gin.Context) {
	var req dto.ResetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.RemoveAllForSchedule(c.Request.Context(), c.Param("scheduleID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
