package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ghumahchegu/tuition-api/internal/middleware"
	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
	"github.com/ghumahchegu/tuition-api/pkg/response"
)

// requestScope returns the caller's data scope or writes a 401 and reports
// false.
func requestScope(c *gin.Context) (models.Scope, bool) {
	scope, ok := middleware.CurrentScope(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Scope{}, false
	}
	return scope, true
}
