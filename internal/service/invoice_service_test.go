package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
)

type invoiceRepoStub struct {
	invoices map[string]models.Invoice
	nextID   int
}

func newInvoiceRepoStub() *invoiceRepoStub {
	return &invoiceRepoStub{invoices: map[string]models.Invoice{}}
}

func (s *invoiceRepoStub) FindByPeriod(ctx context.Context, studentID, teacherID string, month, year int) (*models.Invoice, error) {
	for _, inv := range s.invoices {
		if inv.StudentID == studentID && inv.TeacherID == teacherID && inv.Month == month && inv.Year == year {
			match := inv
			return &match, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *invoiceRepoStub) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	if inv, ok := s.invoices[id]; ok {
		return &inv, nil
	}
	return nil, sql.ErrNoRows
}

func (s *invoiceRepoStub) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, int, error) {
	result := []models.Invoice{}
	for _, inv := range s.invoices {
		if filter.TeacherID != "" && inv.TeacherID != filter.TeacherID {
			continue
		}
		if filter.StudentID != "" && inv.StudentID != filter.StudentID {
			continue
		}
		result = append(result, inv)
	}
	return result, len(result), nil
}

func (s *invoiceRepoStub) Create(ctx context.Context, invoice *models.Invoice) error {
	s.nextID++
	invoice.ID = "inv-" + strconv.Itoa(s.nextID)
	s.invoices[invoice.ID] = *invoice
	return nil
}

func (s *invoiceRepoStub) Update(ctx context.Context, invoice *models.Invoice) error {
	if _, ok := s.invoices[invoice.ID]; !ok {
		return sql.ErrNoRows
	}
	s.invoices[invoice.ID] = *invoice
	return nil
}

func (s *invoiceRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.invoices, id)
	return nil
}

type teacherDirectoryStub struct {
	teachers []models.User
}

func (s *teacherDirectoryStub) ListTeachers(ctx context.Context) ([]models.User, error) {
	return s.teachers, nil
}

func invoiceFixture(t *testing.T) (*InvoiceService, *invoiceRepoStub, *attendanceRepoStub) {
	t.Helper()
	subjects := newSubjectRepoStub(models.Subject{
		ID: "math", Name: "Mathematics", TeacherID: "t1",
		StartTime: "14:00", EndTime: "15:30",
	})
	students := newStudentRepoStub(
		models.Student{ID: "st1", Name: "Aina", HourlyRate: decimal.NewFromInt(40), TeacherIDs: pq.StringArray{"t1"}},
		models.Student{ID: "st2", Name: "Farid", HourlyRate: decimal.NewFromInt(30), TeacherIDs: pq.StringArray{"t2"}},
	)
	mathID := "math"
	attendance := &attendanceRepoStub{records: []models.AttendanceRecord{
		{ID: "m1", StudentID: "st1", SubjectID: &mathID, TeacherID: "t1", Date: "2025-03-03", Status: models.AttendanceStatusPresent},
		{ID: "m2", StudentID: "st1", SubjectID: &mathID, TeacherID: "t1", Date: "2025-03-10", Status: models.AttendanceStatusPresent},
		{ID: "m3", StudentID: "st2", SubjectID: &mathID, TeacherID: "t2", Date: "2025-03-04", Status: models.AttendanceStatusPresent},
	}}
	invoices := newInvoiceRepoStub()
	directory := &teacherDirectoryStub{teachers: []models.User{
		{ID: "t1", Email: "lim@example.com", Name: "Cikgu Lim", Role: models.RoleTeacher},
	}}
	svc := NewInvoiceService(invoices, attendance, subjects, students, directory, nil, nil, nil)
	return svc, invoices, attendance
}

func TestInvoiceGenerateCreatesPendingInvoice(t *testing.T) {
	svc, invoices, _ := invoiceFixture(t)

	invoice, err := svc.Generate(context.Background(), teacherScope("t1"), GenerateInvoiceRequest{
		StudentID: "st1", Month: 3, Year: 2025,
	})
	require.NoError(t, err)
	assert.Equal(t, "st1", invoice.StudentID)
	assert.Equal(t, "t1", invoice.TeacherID)
	assert.Equal(t, models.InvoiceStatusPending, invoice.Status)
	// 2 sessions * 40/hour * 1.5 hours
	assert.True(t, decimal.NewFromInt(120).Equal(invoice.Amount))
	require.Len(t, invoice.Details.Breakdown, 1)
	assert.Equal(t, "Mathematics", invoice.Details.Breakdown[0].SubjectName)
	assert.Len(t, invoices.invoices, 1)
}

func TestInvoiceGenerateTwiceOverwritesInPlace(t *testing.T) {
	svc, invoices, attendance := invoiceFixture(t)
	scope := teacherScope("t1")
	req := GenerateInvoiceRequest{StudentID: "st1", Month: 3, Year: 2025}

	first, err := svc.Generate(context.Background(), scope, req)
	require.NoError(t, err)

	second, err := svc.Generate(context.Background(), scope, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.Amount.Equal(second.Amount))
	assert.Len(t, invoices.invoices, 1)

	// One more present session raises the amount by rate * duration on the
	// same document.
	mathID := "math"
	attendance.records = append(attendance.records, models.AttendanceRecord{
		ID: "m4", StudentID: "st1", SubjectID: &mathID, TeacherID: "t1",
		Date: "2025-03-17", Status: models.AttendanceStatusPresent,
	})
	third, err := svc.Generate(context.Background(), scope, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
	assert.True(t, first.Amount.Add(decimal.NewFromInt(60)).Equal(third.Amount))
	assert.Len(t, invoices.invoices, 1)
}

func TestInvoiceGenerateNoAttendance(t *testing.T) {
	svc, invoices, _ := invoiceFixture(t)

	_, err := svc.Generate(context.Background(), teacherScope("t1"), GenerateInvoiceRequest{
		StudentID: "st1", Month: 7, Year: 2025,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoAttendance.Code, appErrors.FromError(err).Code)
	// The no-attendance outcome writes nothing.
	assert.Empty(t, invoices.invoices)
}

func TestInvoiceGenerateScopedStudentVisibility(t *testing.T) {
	svc, _, _ := invoiceFixture(t)

	_, err := svc.Generate(context.Background(), teacherScope("t1"), GenerateInvoiceRequest{
		StudentID: "st2", Month: 3, Year: 2025,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestInvoiceGenerateValidatesPeriod(t *testing.T) {
	svc, _, _ := invoiceFixture(t)

	_, err := svc.Generate(context.Background(), teacherScope("t1"), GenerateInvoiceRequest{
		StudentID: "st1", Month: 13, Year: 2025,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestInvoiceGenerateConsolidated(t *testing.T) {
	svc, invoices, _ := invoiceFixture(t)

	invoice, err := svc.GenerateConsolidated(context.Background(), adminScope(), GenerateConsolidatedRequest{
		StudentIDs: []string{"st1", "st2", "missing"}, Month: 3, Year: 2025,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ConsolidatedStudentID, invoice.StudentID)
	assert.Equal(t, models.ConsolidatedIssuerID, invoice.TeacherID)
	assert.Equal(t, models.InvoiceStatusGenerated, invoice.Status)
	require.NotNil(t, invoice.Description)
	assert.Equal(t, "Consolidated Invoice for: Aina, Farid", *invoice.Description)

	// 2*40*1.5 + 1*30*1.5
	assert.True(t, decimal.NewFromInt(165).Equal(invoice.Amount))
	require.Len(t, invoice.Details.Breakdown, 2)
	assert.Equal(t, "Aina", invoice.Details.Breakdown[0].StudentName)
	assert.Equal(t, "Cikgu Lim", invoice.Details.Breakdown[0].TeacherName)
	assert.Equal(t, []string{"st1", "st2"}, invoice.Details.StudentIDs)
	assert.Len(t, invoices.invoices, 1)

	// Regeneration reuses the sentinel-keyed document.
	again, err := svc.GenerateConsolidated(context.Background(), adminScope(), GenerateConsolidatedRequest{
		StudentIDs: []string{"st1", "st2"}, Month: 3, Year: 2025,
	})
	require.NoError(t, err)
	assert.Equal(t, invoice.ID, again.ID)
	assert.Len(t, invoices.invoices, 1)
}

func TestInvoiceGenerateConsolidatedAdminOnly(t *testing.T) {
	svc, _, _ := invoiceFixture(t)

	_, err := svc.GenerateConsolidated(context.Background(), teacherScope("t1"), GenerateConsolidatedRequest{
		StudentIDs: []string{"st1"}, Month: 3, Year: 2025,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestInvoiceListScopedToTeacher(t *testing.T) {
	svc, invoices, _ := invoiceFixture(t)
	invoices.invoices["inv-a"] = models.Invoice{ID: "inv-a", StudentID: "st1", TeacherID: "t1", Month: 3, Year: 2025}
	invoices.invoices["inv-b"] = models.Invoice{ID: "inv-b", StudentID: "st2", TeacherID: "t2", Month: 3, Year: 2025}

	mine, _, err := svc.List(context.Background(), teacherScope("t1"), models.InvoiceFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "inv-a", mine[0].ID)

	all, pagination, err := svc.List(context.Background(), adminScope(), models.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestInvoiceDeleteScoped(t *testing.T) {
	svc, invoices, _ := invoiceFixture(t)
	invoices.invoices["inv-a"] = models.Invoice{ID: "inv-a", StudentID: "st1", TeacherID: "t1", Month: 3, Year: 2025}

	err := svc.Delete(context.Background(), teacherScope("t2"), "inv-a")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Len(t, invoices.invoices, 1)

	err = svc.Delete(context.Background(), teacherScope("t1"), "inv-a")
	require.NoError(t, err)
	assert.Empty(t, invoices.invoices)
}
