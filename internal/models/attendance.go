package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceRecord is a single mark for a (student, subject, date) key.
// Dates are stored as local-calendar "YYYY-MM-DD" strings; comparisons on
// them are plain string comparisons. SubjectID is nullable because marks
// written before class-scoped attendance carried no subject.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	SubjectID *string          `db:"subject_id" json:"subject_id,omitempty"`
	TeacherID string           `db:"teacher_id" json:"teacher_id"`
	Date      string           `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	MarkedBy  string           `db:"marked_by" json:"marked_by"`
	MarkedAt  time.Time        `db:"marked_at" json:"marked_at"`
}

// Key returns the composite identifier used by day views:
// "{studentId}_{subjectId}" for class-scoped marks, the bare student id for
// legacy unscoped marks.
func (r *AttendanceRecord) Key() string {
	if r.SubjectID != nil && *r.SubjectID != "" {
		return r.StudentID + "_" + *r.SubjectID
	}
	return r.StudentID
}

// AttendanceEntry is the per-key view of a day's attendance state.
type AttendanceEntry struct {
	Status AttendanceStatus `json:"status"`
	MarkID string           `json:"mark_id"`
}
