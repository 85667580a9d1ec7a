package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ghumahchegu/tuition-api/internal/billing"
	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
)

type invoiceRepository interface {
	FindByPeriod(ctx context.Context, studentID, teacherID string, month, year int) (*models.Invoice, error)
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, int, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	Delete(ctx context.Context, id string) error
}

type teacherDirectory interface {
	ListTeachers(ctx context.Context) ([]models.User, error)
}

type invoiceMetrics interface {
	RecordInvoiceUpsert(kind string)
}

// GenerateInvoiceRequest asks for one student's invoice for a period.
type GenerateInvoiceRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Month     int    `json:"month" validate:"required,min=1,max=12"`
	Year      int    `json:"year" validate:"required,min=2000"`
}

// GenerateConsolidatedRequest asks for one combined invoice covering several
// students.
type GenerateConsolidatedRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1"`
	Month      int      `json:"month" validate:"required,min=1,max=12"`
	Year       int      `json:"year" validate:"required,min=2000"`
}

// InvoiceService computes billing statements from attendance snapshots and
// upserts the resulting invoice documents.
type InvoiceService struct {
	invoices   invoiceRepository
	attendance attendanceRepository
	subjects   subjectRepository
	students   studentRepository
	teachers   teacherDirectory
	metrics    invoiceMetrics
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewInvoiceService constructs the invoice service. metrics may be nil.
func NewInvoiceService(invoices invoiceRepository, attendance attendanceRepository, subjects subjectRepository, students studentRepository, teachers teacherDirectory, metrics invoiceMetrics, validate *validator.Validate, logger *zap.Logger) *InvoiceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		invoices:   invoices,
		attendance: attendance,
		subjects:   subjects,
		students:   students,
		teachers:   teachers,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Generate computes and upserts the invoice for one (student, caller,
// month, year) key. When the period holds no present sessions nothing is
// written and the distinct no-attendance condition is returned.
func (s *InvoiceService) Generate(ctx context.Context, scope models.Scope, req GenerateInvoiceRequest) (*models.Invoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !scope.Unrestricted() && !student.VisibleTo(scope.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	teacherFilter := ""
	if !scope.Unrestricted() {
		teacherFilter = scope.TeacherID
	}

	from, to := billing.PeriodRange(req.Month, req.Year)
	marks, err := s.attendance.ListPresentForPeriod(ctx, req.StudentID, teacherFilter, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if len(marks) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoAttendance,
			fmt.Sprintf("no attendance records found for %s in %d/%d", student.Name, req.Month, req.Year))
	}

	subjects, err := s.subjects.ListAll(ctx, teacherFilter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}

	statement := billing.Compute(req.StudentID, req.Month, req.Year, marks, subjects, student.HourlyRate)

	invoice := &models.Invoice{
		StudentID: req.StudentID,
		TeacherID: scope.TeacherID,
		Month:     req.Month,
		Year:      req.Year,
		Amount:    statement.GrandTotal,
		Status:    models.InvoiceStatusPending,
		Details: models.InvoiceDetails{
			Breakdown:  statement.Breakdown(),
			GrandTotal: statement.GrandTotal,
		},
	}
	if err := s.upsert(ctx, invoice); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordInvoiceUpsert("single")
	}
	return invoice, nil
}

// GenerateConsolidated computes and upserts one combined invoice covering
// the requested students. Restricted scopes may not issue consolidated
// invoices.
func (s *InvoiceService) GenerateConsolidated(ctx context.Context, scope models.Scope, req GenerateConsolidatedRequest) (*models.Invoice, error) {
	if !scope.Unrestricted() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "consolidated invoices are admin-only")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}

	found, err := s.students.FindByIDs(ctx, req.StudentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	byID := make(map[string]models.Student, len(found))
	for _, student := range found {
		byID[student.ID] = student
	}
	// Unresolvable ids are skipped rather than failing the whole batch.
	students := make([]models.Student, 0, len(req.StudentIDs))
	for _, id := range req.StudentIDs {
		if student, ok := byID[id]; ok {
			students = append(students, student)
		}
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "none of the requested students exist")
	}

	from, to := billing.PeriodRange(req.Month, req.Year)
	marks := make([]models.AttendanceRecord, 0)
	for _, student := range students {
		studentMarks, err := s.attendance.ListPresentForPeriod(ctx, student.ID, "", from, to)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
		}
		marks = append(marks, studentMarks...)
	}

	subjects, err := s.subjects.ListAll(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}

	teacherNames := map[string]string{}
	if s.teachers != nil {
		accounts, err := s.teachers.ListTeachers(ctx)
		if err != nil {
			s.logger.Warn("teacher directory unavailable, lines will carry the unknown sentinel", zap.Error(err))
		}
		for _, account := range accounts {
			teacherNames[account.ID] = account.DisplayName()
		}
	}

	statement := billing.ComputeConsolidated(students, req.Month, req.Year, marks, subjects, teacherNames)
	if statement.Empty() {
		return nil, appErrors.Clone(appErrors.ErrNoAttendance,
			fmt.Sprintf("no attendance records found for selected students in %d/%d", req.Month, req.Year))
	}

	names := make([]string, 0, len(students))
	seen := make(map[string]struct{}, len(students))
	for _, student := range students {
		if _, ok := seen[student.Name]; ok {
			continue
		}
		seen[student.Name] = struct{}{}
		names = append(names, student.Name)
	}
	description := "Consolidated Invoice for: " + strings.Join(names, ", ")

	invoice := &models.Invoice{
		StudentID: models.ConsolidatedStudentID,
		TeacherID: models.ConsolidatedIssuerID,
		Month:     req.Month,
		Year:      req.Year,
		Amount:    statement.GrandTotal,
		Status:    models.InvoiceStatusGenerated,
		Details: models.InvoiceDetails{
			Breakdown:  statement.Breakdown(),
			GrandTotal: statement.GrandTotal,
			StudentIDs: statement.StudentIDs,
		},
		Description: &description,
	}
	if err := s.upsert(ctx, invoice); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordInvoiceUpsert("consolidated")
	}
	return invoice, nil
}

// upsert enforces the one-invoice-per-key guarantee: an existing document
// for the key is overwritten in place, otherwise a new one is created. The
// amount always reflects the latest computation.
func (s *InvoiceService) upsert(ctx context.Context, invoice *models.Invoice) error {
	invoice.GeneratedAt = time.Now().UTC()

	existing, err := s.invoices.FindByPeriod(ctx, invoice.StudentID, invoice.TeacherID, invoice.Month, invoice.Year)
	if err != nil && err != sql.ErrNoRows {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up invoice")
	}

	if existing != nil {
		invoice.ID = existing.ID
		if err := s.invoices.Update(ctx, invoice); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invoice")
		}
		return nil
	}

	if err := s.invoices.Create(ctx, invoice); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invoice")
	}
	return nil
}

// List returns invoices visible to the scope.
func (s *InvoiceService) List(ctx context.Context, scope models.Scope, filter models.InvoiceFilter) ([]models.Invoice, *models.Pagination, error) {
	if !scope.Unrestricted() {
		filter.TeacherID = scope.TeacherID
	}
	invoices, total, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return invoices, pagination, nil
}

// Get returns a single invoice if the scope may see it.
func (s *InvoiceService) Get(ctx context.Context, scope models.Scope, id string) (*models.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	if !scope.Unrestricted() && invoice.TeacherID != scope.TeacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
	}
	return invoice, nil
}

// Delete removes an invoice document.
func (s *InvoiceService) Delete(ctx context.Context, scope models.Scope, id string) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	if err := s.invoices.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete invoice")
	}
	return nil
}
