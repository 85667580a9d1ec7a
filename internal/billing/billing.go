// Package billing aggregates present attendance into invoice breakdowns.
// Like the schedule package it is pure: callers hand in record snapshots and
// receive a computed statement.
package billing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ghumahchegu/tuition-api/internal/models"
)

// UnknownSubjectName labels sessions whose subject no longer resolves.
// A dangling reference degrades to this sentinel instead of failing the
// whole computation.
const UnknownSubjectName = "Unknown Subject"

// UnknownTeacherName labels consolidated lines whose teacher no longer
// resolves.
const UnknownTeacherName = "Unknown"

// DefaultHourlyRate applies when a student has no positive rate stored.
var DefaultHourlyRate = decimal.NewFromInt(35)

// defaultDurationHours applies when a subject is unresolvable or carries
// invalid start/end times.
const defaultDurationHours = 1.0

// PeriodRange returns the inclusive "YYYY-MM-DD" bounds of a billing month.
// The upper bound is always day 31: dates compare as strings, so the range
// never excludes a valid date in shorter months.
func PeriodRange(month, year int) (string, string) {
	prefix := strconv.Itoa(year) + "-" + pad2(month)
	return prefix + "-01", prefix + "-31"
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// SessionDuration returns the subject's session length in hours, derived
// from its HH:MM start/end times, defaulting to one hour when the subject is
// missing or its times do not parse.
func SessionDuration(subject *models.Subject) float64 {
	if subject == nil || subject.StartTime == "" || subject.EndTime == "" {
		return defaultDurationHours
	}
	start, okStart := parseMinutes(subject.StartTime)
	end, okEnd := parseMinutes(subject.EndTime)
	if !okStart || !okEnd {
		return defaultDurationHours
	}
	return float64(end-start) / 60
}

func parseMinutes(clock string) (int, bool) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return hours*60 + minutes, true
}

// Line is one billed group with the subject id it was grouped under. The id
// is kept alongside the persisted breakdown shape so callers can attribute
// lines without re-deriving the grouping.
type Line struct {
	models.InvoiceLine
	SubjectID string
}

// Statement is the outcome of a billing computation. An empty statement
// (no present sessions in the period) is a valid result, not an error.
type Statement struct {
	Lines      []Line
	GrandTotal decimal.Decimal
	StudentIDs []string
}

// Empty reports whether the period held no billable sessions.
func (s *Statement) Empty() bool {
	return len(s.Lines) == 0
}

// Breakdown returns the persisted breakdown shape of the statement.
func (s *Statement) Breakdown() []models.InvoiceLine {
	lines := make([]models.InvoiceLine, len(s.Lines))
	for i, line := range s.Lines {
		lines[i] = line.InvoiceLine
	}
	return lines
}

// Compute aggregates one student's present attendance for a billing period.
//
// Marks are filtered to the student, present status and the inclusive period
// range, grouped by subject, and each group is billed as
// sessions * rate * durationHours. Unresolvable subjects degrade to the
// unknown-subject sentinel with the default one-hour duration.
func Compute(studentID string, month, year int, marks []models.AttendanceRecord, subjects []models.Subject, rate decimal.Decimal) Statement {
	if !rate.IsPositive() {
		rate = DefaultHourlyRate
	}

	from, to := PeriodRange(month, year)

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, mark := range marks {
		if mark.StudentID != studentID || mark.Status != models.AttendanceStatusPresent {
			continue
		}
		if mark.Date < from || mark.Date > to {
			continue
		}
		subjectID := ""
		if mark.SubjectID != nil {
			subjectID = *mark.SubjectID
		}
		if _, seen := counts[subjectID]; !seen {
			order = append(order, subjectID)
		}
		counts[subjectID]++
	}

	byID := make(map[string]*models.Subject, len(subjects))
	for i := range subjects {
		byID[subjects[i].ID] = &subjects[i]
	}

	statement := Statement{GrandTotal: decimal.Zero, StudentIDs: []string{studentID}}
	for _, subjectID := range order {
		subject := byID[subjectID]

		name := UnknownSubjectName
		if subject != nil {
			name = subject.Name
		}
		sessions := counts[subjectID]
		duration := SessionDuration(subject)
		subtotal := decimal.NewFromInt(int64(sessions)).Mul(rate).Mul(decimal.NewFromFloat(duration))

		statement.Lines = append(statement.Lines, Line{
			InvoiceLine: models.InvoiceLine{
				SubjectName:   name,
				Sessions:      sessions,
				DurationHours: duration,
				Rate:          rate,
				Subtotal:      subtotal,
			},
			SubjectID: subjectID,
		})
		statement.GrandTotal = statement.GrandTotal.Add(subtotal)
	}

	return statement
}

// ComputeConsolidated merges the statements of several students into one
// breakdown with a single grand total. Lines carry student and teacher
// attribution so the combined invoice stays auditable, and every requested
// student id is recorded for regeneration.
func ComputeConsolidated(students []models.Student, month, year int, marks []models.AttendanceRecord, subjects []models.Subject, teacherNames map[string]string) Statement {
	byID := make(map[string]*models.Subject, len(subjects))
	for i := range subjects {
		byID[subjects[i].ID] = &subjects[i]
	}

	consolidated := Statement{GrandTotal: decimal.Zero}
	for i := range students {
		student := students[i]
		consolidated.StudentIDs = append(consolidated.StudentIDs, student.ID)

		statement := Compute(student.ID, month, year, marks, subjects, student.HourlyRate)
		for _, line := range statement.Lines {
			line.StudentName = student.Name
			line.TeacherName = UnknownTeacherName
			if subject := byID[line.SubjectID]; subject != nil {
				if name, ok := teacherNames[subject.TeacherID]; ok && name != "" {
					line.TeacherName = name
				}
			}
			consolidated.Lines = append(consolidated.Lines, line)
		}
		consolidated.GrandTotal = consolidated.GrandTotal.Add(statement.GrandTotal)
	}

	return consolidated
}
