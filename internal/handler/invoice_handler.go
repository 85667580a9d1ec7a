package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ghumahchegu/tuition-api/internal/models"
	"github.com/ghumahchegu/tuition-api/internal/service"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
	"github.com/ghumahchegu/tuition-api/pkg/response"
)

// InvoiceHandler exposes invoice endpoints.
type InvoiceHandler struct {
	invoices *service.InvoiceService
	exports  *service.ExportService
}

// NewInvoiceHandler constructs InvoiceHandler.
func NewInvoiceHandler(invoices *service.InvoiceService, exports *service.ExportService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, exports: exports}
}

func (h *InvoiceHandler) List(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}

	var filter models.InvoiceFilter
	filter.StudentID = c.Query("student_id")
	if month, err := strconv.Atoi(c.Query("month")); err == nil {
		filter.Month = month
	}
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	invoices, pagination, err := h.invoices.List(c.Request.Context(), scope, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoices, pagination)
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.Get(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

func (h *InvoiceHandler) Generate(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	var req service.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	invoice, err := h.invoices.Generate(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

func (h *InvoiceHandler) GenerateConsolidated(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	var req service.GenerateConsolidatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	invoice, err := h.invoices.GenerateConsolidated(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

func (h *InvoiceHandler) Delete(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	if err := h.invoices.Delete(c.Request.Context(), scope, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV streams one invoice's breakdown as a CSV attachment.
func (h *InvoiceHandler) ExportCSV(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}
	body, filename, err := h.exports.InvoiceCSV(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", body)
}
