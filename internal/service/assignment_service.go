package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	Exists(ctx context.Context, subjectID, studentID string) (bool, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

// AssignStudentsRequest assigns one or more students to a subject.
type AssignStudentsRequest struct {
	SubjectID  string   `json:"subject_id" validate:"required"`
	StudentIDs []string `json:"student_ids" validate:"required,min=1"`
}

// AssignResult reports what an assignment request actually changed.
type AssignResult struct {
	Assigned []models.Assignment `json:"assigned"`
	Skipped  []string            `json:"skipped,omitempty"`
}

// AssignmentService handles roster assignment use-cases.
type AssignmentService struct {
	repo        assignmentRepository
	agendaCache agendaInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(repo assignmentRepository, agendaCache agendaInvalidator, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, agendaCache: agendaCache, validator: validate, logger: logger}
}

// List returns assignments visible to the scope.
func (s *AssignmentService) List(ctx context.Context, scope models.Scope, filter models.AssignmentFilter) ([]models.Assignment, error) {
	if !scope.Unrestricted() {
		filter.TeacherID = scope.TeacherID
	}
	assignments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Assign links the requested students to the subject. Students already on
// the roster are skipped rather than duplicated: the (subject, student) pair
// is unique.
func (s *AssignmentService) Assign(ctx context.Context, scope models.Scope, req AssignStudentsRequest) (*AssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	result := &AssignResult{}
	for _, studentID := range req.StudentIDs {
		exists, err := s.repo.Exists(ctx, req.SubjectID, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing assignment")
		}
		if exists {
			result.Skipped = append(result.Skipped, studentID)
			continue
		}
		assignment := &models.Assignment{
			SubjectID: req.SubjectID,
			StudentID: studentID,
			TeacherID: scope.TeacherID,
		}
		if err := s.repo.Create(ctx, assignment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
		}
		result.Assigned = append(result.Assigned, *assignment)
	}

	if len(result.Assigned) > 0 {
		s.invalidateAgenda(ctx)
	}
	return result, nil
}

// Unassign removes a single roster assignment.
func (s *AssignmentService) Unassign(ctx context.Context, scope models.Scope, id string) error {
	filter := models.AssignmentFilter{}
	if !scope.Unrestricted() {
		filter.TeacherID = scope.TeacherID
	}
	assignments, err := s.repo.List(ctx, filter)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	found := false
	for _, a := range assignments {
		if a.ID == id {
			found = true
			break
		}
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	s.invalidateAgenda(ctx)
	return nil
}

func (s *AssignmentService) invalidateAgenda(ctx context.Context) {
	if s.agendaCache == nil {
		return
	}
	if err := s.agendaCache.InvalidateAgenda(ctx); err != nil {
		s.logger.Warn("agenda cache invalidation failed", zap.Error(err))
	}
}
