package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghumahchegu/tuition-api/internal/models"
	"github.com/ghumahchegu/tuition-api/internal/service"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
	"github.com/ghumahchegu/tuition-api/pkg/response"
)

// AssignmentHandler exposes subject-roster endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

func (h *AssignmentHandler) List(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	filter := models.AssignmentFilter{
		SubjectID: c.Query("subject_id"),
		StudentID: c.Query("student_id"),
	}
	assignments, err := h.assignments.List(c.Request.Context(), scope, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

func (h *AssignmentHandler) Assign(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	var req service.AssignStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.assignments.Assign(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *AssignmentHandler) Unassign(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	if err := h.assignments.Unassign(c.Request.Context(), scope, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
