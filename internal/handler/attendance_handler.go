package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghumahchegu/tuition-api/internal/service"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
	"github.com/ghumahchegu/tuition-api/pkg/response"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

func (h *AttendanceHandler) Mark(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

func (h *AttendanceHandler) ForDate(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	entries, err := h.attendance.ReadForDate(c.Request.Context(), scope, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
