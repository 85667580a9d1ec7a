package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghumahchegu/tuition-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "subject_id", "teacher_id", "date", "status", "marked_by", "marked_at"})
}

func TestAttendanceRepositoryFindByKeyScoped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, subject_id, teacher_id, date, status, marked_by, marked_at FROM attendance WHERE student_id = $1 AND subject_id = $2 AND date = $3 AND teacher_id = $4")).
		WithArgs("st1", "math", "2025-03-03", "t1").
		WillReturnRows(attendanceRows().AddRow("m1", "st1", "math", "t1", "2025-03-03", "present", "t1", time.Now()))

	record, err := repo.FindByKey(context.Background(), "st1", "math", "2025-03-03", "t1")
	require.NoError(t, err)
	assert.Equal(t, "m1", record.ID)
	assert.Equal(t, models.AttendanceStatusPresent, record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindByKeyMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, subject_id, teacher_id, date, status, marked_by, marked_at FROM attendance WHERE student_id = $1 AND subject_id = $2 AND date = $3")).
		WithArgs("st1", "math", "2025-03-03").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByKey(context.Background(), "st1", "math", "2025-03-03", "")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	subjectID := "math"
	record := &models.AttendanceRecord{
		StudentID: "st1", SubjectID: &subjectID, TeacherID: "t1",
		Date: "2025-03-03", Status: models.AttendanceStatusPresent, MarkedBy: "t1",
	}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.MarkedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance SET status = $2, marked_by = $3, marked_at = $4 WHERE id = $1")).
		WithArgs("m1", models.AttendanceStatusAbsent, "t1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "m1", models.AttendanceStatusAbsent, "t1", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListPresentForPeriod(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, subject_id, teacher_id, date, status, marked_by, marked_at FROM attendance WHERE student_id = $1 AND status = $2 AND date >= $3 AND date <= $4 AND teacher_id = $5 ORDER BY date ASC")).
		WithArgs("st1", models.AttendanceStatusPresent, "2025-03-01", "2025-03-31", "t1").
		WillReturnRows(attendanceRows().
			AddRow("m1", "st1", "math", "t1", "2025-03-03", "present", "t1", time.Now()).
			AddRow("m2", "st1", "math", "t1", "2025-03-10", "present", "t1", time.Now()))

	records, err := repo.ListPresentForPeriod(context.Background(), "st1", "t1", "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
