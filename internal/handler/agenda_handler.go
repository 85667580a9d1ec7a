package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghumahchegu/tuition-api/internal/service"
	"github.com/ghumahchegu/tuition-api/pkg/response"
)

// AgendaHandler exposes the day-view endpoint.
type AgendaHandler struct {
	agenda *service.AgendaService
}

// NewAgendaHandler constructs AgendaHandler.
func NewAgendaHandler(agenda *service.AgendaService) *AgendaHandler {
	return &AgendaHandler{agenda: agenda}
}

func (h *AgendaHandler) ForDate(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	result, err := h.agenda.ForDate(c.Request.Context(), scope, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"cache": "miss"}
	if result.FromCache {
		meta["cache"] = "hit"
	}
	response.JSON(c, http.StatusOK, result, nil, meta)
}
