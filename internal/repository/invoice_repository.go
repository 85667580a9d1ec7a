package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ghumahchegu/tuition-api/internal/models"
)

// InvoiceRepository manages persistence for invoice documents.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository constructs an InvoiceRepository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = "id, student_id, teacher_id, month, year, amount, status, generated_at, details, description"

// FindByPeriod looks up the single invoice for a (student, teacher, month,
// year) key. Returns sql.ErrNoRows when none exists yet.
func (r *InvoiceRepository) FindByPeriod(ctx context.Context, studentID, teacherID string, month, year int) (*models.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices WHERE student_id = $1 AND teacher_id = $2 AND month = $3 AND year = $4", invoiceColumns)
	var invoice models.Invoice
	if err := r.db.GetContext(ctx, &invoice, query, studentID, teacherID, month, year); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindByID fetches an invoice by ID.
func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices WHERE id = $1", invoiceColumns)
	var invoice models.Invoice
	if err := r.db.GetContext(ctx, &invoice, query, id); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List returns invoices matching the provided filters.
func (r *InvoiceRepository) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Month > 0 {
		conditions = append(conditions, fmt.Sprintf("month = $%d", len(args)+1))
		args = append(args, filter.Month)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}

	whereClause := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM invoices WHERE %s ORDER BY year DESC, month DESC, generated_at DESC LIMIT %d OFFSET %d",
		invoiceColumns, whereClause, size, offset)

	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM invoices WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	return invoices, total, nil
}

// Create inserts a new invoice document.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	if invoice.GeneratedAt.IsZero() {
		invoice.GeneratedAt = time.Now().UTC()
	}
	const query = `INSERT INTO invoices (id, student_id, teacher_id, month, year, amount, status, generated_at, details, description)
        VALUES (:id, :student_id, :teacher_id, :month, :year, :amount, :status, :generated_at, :details, :description)`
	if _, err := r.db.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// Update overwrites the computed fields of an existing invoice in place,
// keeping its identity.
func (r *InvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	const query = `UPDATE invoices SET amount = :amount, status = :status, generated_at = :generated_at,
        details = :details, description = :description WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// Delete removes an invoice document.
func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}
