package models

import "time"

// Assignment links one student to one subject for attendance and billing.
// The (subject_id, student_id) pair is unique; assigning an already-assigned
// student is a no-op.
type Assignment struct {
	ID        string    `db:"id" json:"id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AssignmentFilter describes query params for listing assignments.
type AssignmentFilter struct {
	TeacherID string
	SubjectID string
	StudentID string
}
