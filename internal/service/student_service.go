package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ghumahchegu/tuition-api/internal/billing"
	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListAll(ctx context.Context, teacherID string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type studentAssignmentCascade interface {
	DeleteByStudent(ctx context.Context, studentID string) (int64, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Name       string   `json:"name" validate:"required"`
	HourlyRate *string  `json:"hourly_rate"`
	TeacherIDs []string `json:"teacher_ids"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	Name       string   `json:"name" validate:"required"`
	HourlyRate string   `json:"hourly_rate" validate:"required"`
	TeacherIDs []string `json:"teacher_ids"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo        studentRepository
	assignments studentAssignmentCascade
	defaultRate decimal.Decimal
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service. A zero defaultRate falls
// back to the standard hourly rate.
func NewStudentService(repo studentRepository, assignments studentAssignmentCascade, defaultRate decimal.Decimal, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if !defaultRate.IsPositive() {
		defaultRate = billing.DefaultHourlyRate
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, assignments: assignments, defaultRate: defaultRate, validator: validate, logger: logger}
}

// List returns students visible to the scope with pagination metadata.
func (s *StudentService) List(ctx context.Context, scope models.Scope, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if !scope.Unrestricted() {
		filter.TeacherID = scope.TeacherID
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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
	return students, pagination, nil
}

// Get returns a single student if the scope may see them.
func (s *StudentService) Get(ctx context.Context, scope models.Scope, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !scope.Unrestricted() && !student.VisibleTo(scope.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// Create registers a new student owned by the scoped teacher. The hourly
// rate defaults to the standard rate and must be positive when given.
func (s *StudentService) Create(ctx context.Context, scope models.Scope, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	rate := s.defaultRate
	if req.HourlyRate != nil && *req.HourlyRate != "" {
		parsed, err := decimal.NewFromString(*req.HourlyRate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "hourly rate must be a number")
		}
		rate = parsed
	}
	if !rate.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hourly rate must be positive")
	}

	owners := pq.StringArray{scope.TeacherID}
	if scope.Unrestricted() && len(req.TeacherIDs) > 0 {
		owners = pq.StringArray(req.TeacherIDs)
	}
	student := &models.Student{
		Name:       req.Name,
		HourlyRate: rate,
		TeacherIDs: owners,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student.
func (s *StudentService) Update(ctx context.Context, scope models.Scope, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	rate, err := decimal.NewFromString(req.HourlyRate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hourly rate must be a number")
	}
	if !rate.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hourly rate must be positive")
	}

	student, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	student.Name = req.Name
	student.HourlyRate = rate
	if scope.Unrestricted() && req.TeacherIDs != nil {
		student.TeacherIDs = pq.StringArray(req.TeacherIDs)
		student.TeacherID = nil
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student and cascades to their roster assignments. Like
// the subject cascade this is sequential and non-atomic.
func (s *StudentService) Delete(ctx context.Context, scope models.Scope, id string) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	removed, err := s.assignments.DeleteByStudent(ctx, id)
	if err != nil {
		s.logger.Error("student deleted but assignment cascade failed",
			zap.String("student_id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "student deleted but assignments were not fully removed")
	}
	if removed > 0 {
		s.logger.Info("cascaded assignment delete", zap.String("student_id", id), zap.Int64("assignments_removed", removed))
	}
	return nil
}
