package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
)

type attendanceRepository interface {
	FindByKey(ctx context.Context, studentID, subjectID, date, teacherID string) (*models.AttendanceRecord, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, markedBy string, markedAt time.Time) error
	ListByDate(ctx context.Context, date, teacherID string) ([]models.AttendanceRecord, error)
	ListPresentForPeriod(ctx context.Context, studentID, teacherID, from, to string) ([]models.AttendanceRecord, error)
}

// MarkAttendanceRequest is the payload for marking one student's attendance
// in one subject session.
type MarkAttendanceRequest struct {
	StudentID string                  `json:"student_id" validate:"required"`
	SubjectID string                  `json:"subject_id" validate:"required"`
	Date      string                  `json:"date" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required"`
}

// AttendanceService is the ledger of marks: at most one row exists per
// (student, subject, date) key and re-marking overwrites in place.
type AttendanceService struct {
	repo      attendanceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, validator: validate, logger: logger}
}

// Mark records or updates the attendance status for the request key. The
// existence check and the write are two store calls; concurrent marks for
// the same key resolve last-write-wins, which is acceptable here.
func (s *AttendanceService) Mark(ctx context.Context, scope models.Scope, req MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be present or absent")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	teacherID := ""
	if !scope.Unrestricted() {
		teacherID = scope.TeacherID
	}

	existing, err := s.repo.FindByKey(ctx, req.StudentID, req.SubjectID, req.Date, teacherID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up attendance")
	}

	now := time.Now().UTC()
	markedBy := scope.TeacherID

	if existing == nil {
		subjectID := req.SubjectID
		record := &models.AttendanceRecord{
			StudentID: req.StudentID,
			SubjectID: &subjectID,
			TeacherID: markedBy,
			Date:      req.Date,
			Status:    req.Status,
			MarkedBy:  markedBy,
			MarkedAt:  now,
		}
		if err := s.repo.Create(ctx, record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
		}
		return record, nil
	}

	if err := s.repo.UpdateStatus(ctx, existing.ID, req.Status, markedBy, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	existing.Status = req.Status
	existing.MarkedBy = markedBy
	existing.MarkedAt = now
	return existing, nil
}

// ReadForDate returns the day's marks keyed by composite identifier:
// "{studentId}_{subjectId}" for class-scoped marks, the bare student id for
// legacy marks without a subject.
func (s *AttendanceService) ReadForDate(ctx context.Context, scope models.Scope, date string) (map[string]models.AttendanceEntry, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	teacherID := ""
	if !scope.Unrestricted() {
		teacherID = scope.TeacherID
	}
	records, err := s.repo.ListByDate(ctx, date, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	entries := make(map[string]models.AttendanceEntry, len(records))
	for i := range records {
		record := records[i]
		entries[record.Key()] = models.AttendanceEntry{Status: record.Status, MarkID: record.ID}
	}
	return entries, nil
}
