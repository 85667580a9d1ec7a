// Package schedule decides which subjects meet on a calendar date and builds
// the day agenda from plain record snapshots. Everything here is a pure
// function of its inputs; fetching and caching belong to the service layer.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/ghumahchegu/tuition-api/internal/models"
)

// UnknownStudentName is shown when a roster assignment references a student
// id that no longer resolves. Assignments are never silently dropped.
const UnknownStudentName = "Unknown Student"

// FormatDate renders a timestamp as its local "YYYY-MM-DD" calendar date.
// It reads the calendar fields directly instead of round-tripping through
// UTC, so dates never shift across timezone boundaries.
func FormatDate(t time.Time) string {
	year, month, day := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// Weekday returns the day of week (0=Sunday..6=Saturday) of a "YYYY-MM-DD"
// date. ok is false when the date does not parse.
func Weekday(date string) (int, bool) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, false
	}
	return int(t.Weekday()), true
}

// OccursOn reports whether the subject meets on the given calendar date.
//
// Weekly subjects match when the date's weekday is in the normalised day
// set (legacy single-day rows count as a one-element set). One-time subjects
// match on exact date-string equality. Malformed recurrence data evaluates
// to false rather than failing.
func OccursOn(subject *models.Subject, date string) bool {
	if subject == nil {
		return false
	}
	switch subject.Recurring {
	case models.RecurrenceWeekly:
		weekday, ok := Weekday(date)
		if !ok {
			return false
		}
		for _, day := range subject.EffectiveDays() {
			if day == weekday {
				return true
			}
		}
		return false
	case models.RecurrenceNone:
		return subject.OneTimeDate() != "" && subject.OneTimeDate() == date
	default:
		return false
	}
}

// Entry is one agenda row: a subject occurring on the requested date along
// with the display names of its assigned students.
type Entry struct {
	Subject  models.Subject `json:"subject"`
	Students []string       `json:"students"`
}

// BuildAgenda filters the subject snapshot to those occurring on date, joins
// each with its roster and orders the result by start time. HH:MM strings
// compare lexicographically in chronological order for same-day times.
func BuildAgenda(date string, subjects []models.Subject, assignments []models.Assignment, students []models.Student) []Entry {
	names := make(map[string]string, len(students))
	for _, s := range students {
		names[s.ID] = s.Name
	}

	entries := make([]Entry, 0)
	for i := range subjects {
		subject := subjects[i]
		if !OccursOn(&subject, date) {
			continue
		}

		assigned := make([]string, 0)
		for _, a := range assignments {
			if a.SubjectID != subject.ID {
				continue
			}
			if name, ok := names[a.StudentID]; ok {
				assigned = append(assigned, name)
			} else {
				assigned = append(assigned, UnknownStudentName)
			}
		}

		entries = append(entries, Entry{Subject: subject, Students: assigned})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Subject.StartTime < entries[j].Subject.StartTime
	})
	return entries
}
