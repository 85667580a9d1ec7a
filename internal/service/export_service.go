package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
	"github.com/ghumahchegu/tuition-api/pkg/export"
)

type invoiceExporter interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportService renders invoice breakdowns as downloadable files.
type ExportService struct {
	invoices invoiceRepository
	exporter invoiceExporter
	currency string
	logger   *zap.Logger
}

// NewExportService constructs the export service. currency prefixes money
// columns, for example "RM".
func NewExportService(invoices invoiceRepository, exporter invoiceExporter, currency string, logger *zap.Logger) *ExportService {
	if exporter == nil {
		exporter = export.NewCSVExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{invoices: invoices, exporter: exporter, currency: currency, logger: logger}
}

func (s *ExportService) money(value string) string {
	if s.currency == "" {
		return value
	}
	return s.currency + " " + value
}

var invoiceCSVHeaders = []string{
	"student", "teacher", "subject", "sessions", "duration_hours", "hourly_rate", "subtotal",
}

// InvoiceCSV renders one invoice's line items as CSV, with a trailing grand
// total row. The returned filename carries the billing period.
func (s *ExportService) InvoiceCSV(ctx context.Context, scope models.Scope, id string) ([]byte, string, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
	}
	if !scope.Unrestricted() && invoice.TeacherID != scope.TeacherID {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
	}

	rows := make([]map[string]string, 0, len(invoice.Details.Breakdown)+1)
	for _, line := range invoice.Details.Breakdown {
		rows = append(rows, map[string]string{
			"student":        line.StudentName,
			"teacher":        line.TeacherName,
			"subject":        line.SubjectName,
			"sessions":       strconv.Itoa(line.Sessions),
			"duration_hours": strconv.FormatFloat(line.DurationHours, 'f', -1, 64),
			"hourly_rate":    s.money(line.Rate.StringFixed(2)),
			"subtotal":       s.money(line.Subtotal.StringFixed(2)),
		})
	}
	rows = append(rows, map[string]string{
		"subject":  "TOTAL",
		"subtotal": s.money(invoice.Amount.StringFixed(2)),
	})

	body, err := s.exporter.Render(export.Dataset{Headers: invoiceCSVHeaders, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render invoice export")
	}

	filename := fmt.Sprintf("invoice-%s-%02d-%d.csv", invoice.StudentID, invoice.Month, invoice.Year)
	return body, filename, nil
}
