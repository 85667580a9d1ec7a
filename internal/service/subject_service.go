package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	ListAll(ctx context.Context, teacherID string) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type subjectAssignmentCascade interface {
	DeleteBySubject(ctx context.Context, subjectID string) (int64, error)
}

// CreateSubjectRequest holds payload for creating subjects.
type CreateSubjectRequest struct {
	Name       string `json:"name" validate:"required"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
	Recurring  string `json:"recurring" validate:"required,oneof=weekly none"`
	DaysOfWeek []int  `json:"days_of_week"`
	Date       string `json:"date"`
}

// UpdateSubjectRequest holds payload for updating subjects.
type UpdateSubjectRequest struct {
	Name       string `json:"name" validate:"required"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
	Recurring  string `json:"recurring" validate:"required,oneof=weekly none"`
	DaysOfWeek []int  `json:"days_of_week"`
	Date       string `json:"date"`
}

// SubjectService handles subject use-cases.
type SubjectService struct {
	repo        subjectRepository
	assignments subjectAssignmentCascade
	agendaCache agendaInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo subjectRepository, assignments subjectAssignmentCascade, agendaCache agendaInvalidator, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, assignments: assignments, agendaCache: agendaCache, validator: validate, logger: logger}
}

// List returns subjects visible to the scope with pagination metadata.
func (s *SubjectService) List(ctx context.Context, scope models.Scope, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	if !scope.Unrestricted() {
		filter.TeacherID = scope.TeacherID
	}
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
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
	return subjects, pagination, nil
}

// Get returns a single subject if the scope may see it.
func (s *SubjectService) Get(ctx context.Context, scope models.Scope, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if !scope.Unrestricted() && subject.TeacherID != scope.TeacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return subject, nil
}

// Create registers a new subject owned by the scoped teacher.
func (s *SubjectService) Create(ctx context.Context, scope models.Scope, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if err := validateSubjectSchedule(req.StartTime, req.EndTime, req.Recurring, req.DaysOfWeek, req.Date); err != nil {
		return nil, err
	}

	subject := &models.Subject{
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Recurring: req.Recurring,
		TeacherID: scope.TeacherID,
	}
	applyRecurrence(subject, req.Recurring, req.DaysOfWeek, req.Date)

	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.invalidateAgenda(ctx)
	return subject, nil
}

// Update modifies an existing subject owned by the scope.
func (s *SubjectService) Update(ctx context.Context, scope models.Scope, id string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if err := validateSubjectSchedule(req.StartTime, req.EndTime, req.Recurring, req.DaysOfWeek, req.Date); err != nil {
		return nil, err
	}

	subject, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	subject.Name = req.Name
	subject.StartTime = req.StartTime
	subject.EndTime = req.EndTime
	subject.Recurring = req.Recurring
	applyRecurrence(subject, req.Recurring, req.DaysOfWeek, req.Date)

	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	s.invalidateAgenda(ctx)
	return subject, nil
}

// Delete removes a subject and cascades to its roster assignments. The two
// deletes run sequentially without a transaction; a failure in between can
// leave orphaned assignments for a later cleanup.
func (s *SubjectService) Delete(ctx context.Context, scope models.Scope, id string) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	removed, err := s.assignments.DeleteBySubject(ctx, id)
	if err != nil {
		s.logger.Error("subject deleted but assignment cascade failed",
			zap.String("subject_id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "subject deleted but assignments were not fully removed")
	}
	if removed > 0 {
		s.logger.Info("cascaded assignment delete", zap.String("subject_id", id), zap.Int64("assignments_removed", removed))
	}
	s.invalidateAgenda(ctx)
	return nil
}

func (s *SubjectService) invalidateAgenda(ctx context.Context) {
	if s.agendaCache == nil {
		return
	}
	if err := s.agendaCache.InvalidateAgenda(ctx); err != nil {
		s.logger.Warn("agenda cache invalidation failed", zap.Error(err))
	}
}

// applyRecurrence writes the canonical recurrence fields for the requested
// kind and clears the rest, including the legacy single-day column.
func applyRecurrence(subject *models.Subject, recurring string, days []int, date string) {
	subject.DayOfWeek = nil
	subject.DaysOfWeek = nil
	subject.Date = nil
	if recurring == models.RecurrenceWeekly {
		set := make(pq.Int64Array, len(days))
		for i, d := range days {
			set[i] = int64(d)
		}
		subject.DaysOfWeek = set
		return
	}
	d := date
	subject.Date = &d
}

func validateSubjectSchedule(startTime, endTime, recurring string, days []int, date string) error {
	startMinutes, okStart := clockMinutes(startTime)
	endMinutes, okEnd := clockMinutes(endTime)
	if !okStart || !okEnd {
		return appErrors.Clone(appErrors.ErrValidation, "start and end times must be HH:MM")
	}
	if endMinutes <= startMinutes {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	if recurring == models.RecurrenceWeekly {
		if len(days) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "weekly subjects need at least one day of week")
		}
		for _, d := range days {
			if d < 0 || d > 6 {
				return appErrors.Clone(appErrors.ErrValidation, "days of week must be between 0 and 6")
			}
		}
		return nil
	}
	if date == "" {
		return appErrors.Clone(appErrors.ErrValidation, "one-time subjects need a date")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return nil
}

func clockMinutes(clock string) (int, bool) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
