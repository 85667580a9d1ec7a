package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
)

type legacyStudentRepository interface {
	ListWithLegacyTeacherID(ctx context.Context) ([]models.Student, error)
	ApplyTeacherMigration(ctx context.Context, id string, teacherIDs []string) error
}

// MigrationService rewrites students still carrying the legacy single
// teacher_id column into the teacher_ids array schema.
type MigrationService struct {
	students legacyStudentRepository
	logger   *zap.Logger
}

// NewMigrationService constructs the migration service.
func NewMigrationService(students legacyStudentRepository, logger *zap.Logger) *MigrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationService{students: students, logger: logger}
}

// MigrateTeacherAssignments moves every legacy teacher_id value into the
// teacher_ids array and clears the old column. Students that already carry
// both fields are reconciled: the legacy id is appended only when the array
// does not contain it yet. The operation is idempotent, a second run finds
// nothing left to migrate.
func (s *MigrationService) MigrateTeacherAssignments(ctx context.Context, scope models.Scope) (*models.MigrationResult, error) {
	if !scope.Unrestricted() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "migration is admin-only")
	}

	legacy, err := s.students.ListWithLegacyTeacherID(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan students")
	}

	result := &models.MigrationResult{Scanned: len(legacy)}
	for _, student := range legacy {
		if student.TeacherID == nil || *student.TeacherID == "" {
			continue
		}
		legacyID := *student.TeacherID

		teacherIDs := append([]string(nil), student.TeacherIDs...)
		reconciled := len(teacherIDs) > 0
		if !contains(teacherIDs, legacyID) {
			teacherIDs = append(teacherIDs, legacyID)
		}

		if err := s.students.ApplyTeacherMigration(ctx, student.ID, teacherIDs); err != nil {
			s.logger.Error("failed to migrate student teacher assignment",
				zap.String("student_id", student.ID), zap.Error(err))
			return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "migration stopped on write failure")
		}

		if reconciled {
			result.Reconciled++
		} else {
			result.Migrated++
		}
	}

	s.logger.Info("teacher assignment migration complete",
		zap.Int("scanned", result.Scanned),
		zap.Int("migrated", result.Migrated),
		zap.Int("reconciled", result.Reconciled))
	return result, nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
