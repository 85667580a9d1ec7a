package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Student represents a learner registered at the centre. A student may be
// taught and billed by several teachers, hence the teacher_ids array; the
// nullable teacher_id column holds the pre-migration single-teacher shape.
type Student struct {
	ID         string          `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	HourlyRate decimal.Decimal `db:"hourly_rate" json:"hourly_rate"`
	TeacherIDs pq.StringArray  `db:"teacher_ids" json:"teacher_ids,omitempty"`
	TeacherID  *string         `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// EffectiveTeacherIDs returns the canonical teacher-id set regardless of
// which physical field the row carries.
func (s *Student) EffectiveTeacherIDs() []string {
	if len(s.TeacherIDs) > 0 {
		return []string(s.TeacherIDs)
	}
	if s.TeacherID != nil && *s.TeacherID != "" {
		return []string{*s.TeacherID}
	}
	return nil
}

// VisibleTo reports whether the student belongs to the given teacher.
func (s *Student) VisibleTo(teacherID string) bool {
	for _, id := range s.EffectiveTeacherIDs() {
		if id == teacherID {
			return true
		}
	}
	return false
}

// StudentFilter describes query params for listing students.
type StudentFilter struct {
	TeacherID string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// MigrationResult summarises a teacher-id migration run.
type MigrationResult struct {
	Scanned    int `json:"scanned"`
	Migrated   int `json:"migrated"`
	Reconciled int `json:"reconciled"`
}
