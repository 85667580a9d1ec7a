package models

import (
	"time"

	"github.com/lib/pq"
)

// Recurrence kinds stored on subject rows.
const (
	RecurrenceWeekly = "weekly"
	RecurrenceNone   = "none"
)

// Subject represents a class definition: a named lesson with wall-clock
// start/end times and either a weekly day-of-week set or a single fixed date.
//
// Older rows carry a single day_of_week instead of the days_of_week array;
// EffectiveDays normalises both shapes and callers must never read the
// physical fields directly when evaluating recurrence.
type Subject struct {
	ID         string        `db:"id" json:"id"`
	Name       string        `db:"name" json:"name"`
	StartTime  string        `db:"start_time" json:"start_time"`
	EndTime    string        `db:"end_time" json:"end_time"`
	Recurring  string        `db:"recurring" json:"recurring"`
	DaysOfWeek pq.Int64Array `db:"days_of_week" json:"days_of_week,omitempty"`
	DayOfWeek  *int64        `db:"day_of_week" json:"day_of_week,omitempty"`
	Date       *string       `db:"date" json:"date,omitempty"`
	TeacherID  string        `db:"teacher_id" json:"teacher_id"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// EffectiveDays returns the canonical day-of-week set (0=Sunday..6=Saturday)
// regardless of which physical field the row carries. Legacy single-day rows
// yield a one-element set. Rows with neither field yield nil.
func (s *Subject) EffectiveDays() []int {
	if len(s.DaysOfWeek) > 0 {
		days := make([]int, len(s.DaysOfWeek))
		for i, d := range s.DaysOfWeek {
			days[i] = int(d)
		}
		return days
	}
	if s.DayOfWeek != nil {
		return []int{int(*s.DayOfWeek)}
	}
	return nil
}

// OneTimeDate returns the fixed calendar date for non-recurring subjects.
func (s *Subject) OneTimeDate() string {
	if s.Date == nil {
		return ""
	}
	return *s.Date
}

// SubjectFilter describes query params for listing subjects.
type SubjectFilter struct {
	TeacherID string
	Recurring string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
