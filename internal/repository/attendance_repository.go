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

// AttendanceRepository manages persistence for attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = "id, student_id, subject_id, teacher_id, date, status, marked_by, marked_at"

// FindByKey looks up the mark for a (student, subject, date) key. When
// teacherID is non-empty the lookup is additionally scoped to that teacher's
// marks. Returns sql.ErrNoRows when no mark exists.
func (r *AttendanceRepository) FindByKey(ctx context.Context, studentID, subjectID, date, teacherID string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE student_id = $1 AND subject_id = $2 AND date = $3", attendanceColumns)
	args := []interface{}{studentID, subjectID, date}
	if teacherID != "" {
		query += " AND teacher_id = $4"
		args = append(args, teacherID)
	}
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new attendance mark.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.MarkedAt.IsZero() {
		record.MarkedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance (id, student_id, subject_id, teacher_id, date, status, marked_by, marked_at)
        VALUES (:id, :student_id, :subject_id, :teacher_id, :date, :status, :marked_by, :marked_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// UpdateStatus overwrites the status and mark metadata of an existing row in
// place, keeping its identity.
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, markedBy string, markedAt time.Time) error {
	const query = `UPDATE attendance SET status = $2, marked_by = $3, marked_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, markedBy, markedAt); err != nil {
		return fmt.Errorf("update attendance status: %w", err)
	}
	return nil
}

// ListByDate returns all marks for one calendar date, optionally scoped to a
// teacher.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date, teacherID string) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE date = $1", attendanceColumns)
	args := []interface{}{date}
	if teacherID != "" {
		query += " AND teacher_id = $2"
		args = append(args, teacherID)
	}
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance by date: %w", err)
	}
	return records, nil
}

// ListPresentForPeriod returns a student's present marks inside the
// inclusive [from, to] date range. Dates are text columns, so the range is
// the same lexicographic comparison the callers use.
func (r *AttendanceRepository) ListPresentForPeriod(ctx context.Context, studentID, teacherID, from, to string) ([]models.AttendanceRecord, error) {
	conditions := []string{"student_id = $1", "status = $2", "date >= $3", "date <= $4"}
	args := []interface{}{studentID, models.AttendanceStatusPresent, from, to}
	if teacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, teacherID)
	}
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE %s ORDER BY date ASC",
		attendanceColumns, strings.Join(conditions, " AND "))
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list present attendance: %w", err)
	}
	return records, nil
}
