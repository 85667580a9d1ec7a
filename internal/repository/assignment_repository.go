package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ghumahchegu/tuition-api/internal/models"
)

// AssignmentRepository manages persistence for roster assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = "id, subject_id, student_id, teacher_id, created_at"

// List returns assignments matching the provided filters.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}

	query := fmt.Sprintf("SELECT %s FROM assignments WHERE %s ORDER BY created_at ASC",
		assignmentColumns, strings.Join(conditions, " AND "))

	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// Exists checks for an assignment with the given (subject, student) pair.
func (r *AssignmentRepository) Exists(ctx context.Context, subjectID, studentID string) (bool, error) {
	const query = "SELECT 1 FROM assignments WHERE subject_id = $1 AND student_id = $2 LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, subjectID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}

// Create inserts a new assignment row.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignments (id, subject_id, student_id, teacher_id, created_at)
        VALUES (:id, :subject_id, :student_id, :teacher_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Delete removes a single assignment row.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

// DeleteBySubject removes every assignment referencing the subject and
// returns how many rows went away. Used by the subject delete cascade.
func (r *AssignmentRepository) DeleteBySubject(ctx context.Context, subjectID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE subject_id = $1", subjectID)
	if err != nil {
		return 0, fmt.Errorf("delete assignments by subject: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

// DeleteByStudent removes every assignment referencing the student.
func (r *AssignmentRepository) DeleteByStudent(ctx context.Context, studentID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE student_id = $1", studentID)
	if err != nil {
		return 0, fmt.Errorf("delete assignments by student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
