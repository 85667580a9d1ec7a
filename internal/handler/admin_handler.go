package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghumahchegu/tuition-api/internal/service"
	"github.com/ghumahchegu/tuition-api/pkg/response"
)

// AdminHandler exposes maintenance endpoints.
type AdminHandler struct {
	migration *service.MigrationService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(migration *service.MigrationService) *AdminHandler {
	return &AdminHandler{migration: migration}
}

// MigrateTeacherAssignments runs the legacy teacher-id migration.
func (h *AdminHandler) MigrateTeacherAssignments(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	result, err := h.migration.MigrateTeacherAssignments(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
