package schedule

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghumahchegu/tuition-api/internal/models"
)

func weeklySubject(id string, days ...int64) models.Subject {
	return models.Subject{
		ID:         id,
		Name:       "Subject " + id,
		Recurring:  models.RecurrenceWeekly,
		DaysOfWeek: pq.Int64Array(days),
		StartTime:  "10:00",
		EndTime:    "11:00",
	}
}

func oneTimeSubject(id, date string) models.Subject {
	return models.Subject{
		ID:        id,
		Name:      "Subject " + id,
		Recurring: models.RecurrenceNone,
		Date:      &date,
		StartTime: "10:00",
		EndTime:   "11:00",
	}
}

func TestOccursOnWeeklyMatchesConfiguredDaysOnly(t *testing.T) {
	subject := weeklySubject("s1", 1, 3, 5) // Mon, Wed, Fri

	// Walk 400 consecutive days so the window crosses a year boundary and
	// both DST transitions.
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 400; i++ {
		day := start.AddDate(0, 0, i)
		date := FormatDate(day)
		want := day.Weekday() == time.Monday || day.Weekday() == time.Wednesday || day.Weekday() == time.Friday
		assert.Equal(t, want, OccursOn(&subject, date), "date %s", date)
	}
}

func TestOccursOnLegacySingleDayEqualsOneElementSet(t *testing.T) {
	legacyDay := int64(2)
	legacy := models.Subject{
		ID:        "legacy",
		Recurring: models.RecurrenceWeekly,
		DayOfWeek: &legacyDay,
	}
	canonical := weeklySubject("canonical", 2)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		date := FormatDate(start.AddDate(0, 0, i))
		assert.Equal(t, OccursOn(&canonical, date), OccursOn(&legacy, date), "date %s", date)
	}
}

func TestOccursOnOneTimeExactDateOnly(t *testing.T) {
	subject := oneTimeSubject("s1", "2025-03-15")

	assert.True(t, OccursOn(&subject, "2025-03-15"))
	assert.False(t, OccursOn(&subject, "2025-03-14"))
	assert.False(t, OccursOn(&subject, "2025-03-16"))
	assert.False(t, OccursOn(&subject, "2026-03-15"))
}

func TestOccursOnMalformedDataIsFalse(t *testing.T) {
	empty := models.Subject{ID: "s1", Recurring: models.RecurrenceNone}
	assert.False(t, OccursOn(&empty, "2025-03-15"))

	noDays := models.Subject{ID: "s2", Recurring: models.RecurrenceWeekly}
	assert.False(t, OccursOn(&noDays, "2025-03-15"))

	unknown := models.Subject{ID: "s3", Recurring: "monthly"}
	assert.False(t, OccursOn(&unknown, "2025-03-15"))

	weekly := weeklySubject("s4", 0, 1, 2, 3, 4, 5, 6)
	assert.False(t, OccursOn(&weekly, "not-a-date"))
	assert.False(t, OccursOn(nil, "2025-03-15"))
}

func TestWeekday(t *testing.T) {
	day, ok := Weekday("2025-03-16") // a Sunday
	require.True(t, ok)
	assert.Equal(t, 0, day)

	_, ok = Weekday("2025-13-40")
	assert.False(t, ok)
}

func TestBuildAgendaOrdersByStartTime(t *testing.T) {
	late := weeklySubject("late", 1)
	late.StartTime = "14:30"
	early := weeklySubject("early", 1)
	early.StartTime = "08:00"
	mid := weeklySubject("mid", 1)
	mid.StartTime = "09:15"
	skipped := weeklySubject("off-day", 4)

	// 2025-03-17 is a Monday.
	entries := BuildAgenda("2025-03-17", []models.Subject{late, early, mid, skipped}, nil, nil)
	require.Len(t, entries, 3)
	assert.Equal(t, "early", entries[0].Subject.ID)
	assert.Equal(t, "mid", entries[1].Subject.ID)
	assert.Equal(t, "late", entries[2].Subject.ID)
}

func TestBuildAgendaJoinsRosterNames(t *testing.T) {
	subject := weeklySubject("math", 1)
	students := []models.Student{
		{ID: "st1", Name: "Aina"},
		{ID: "st2", Name: "Farid"},
	}
	assignments := []models.Assignment{
		{ID: "a1", SubjectID: "math", StudentID: "st1"},
		{ID: "a2", SubjectID: "math", StudentID: "st2"},
		{ID: "a3", SubjectID: "math", StudentID: "gone"},
		{ID: "a4", SubjectID: "other", StudentID: "st1"},
	}

	entries := BuildAgenda("2025-03-17", []models.Subject{subject}, assignments, students)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"Aina", "Farid", UnknownStudentName}, entries[0].Students)
}

func TestBuildAgendaEmptyWhenNothingOccurs(t *testing.T) {
	subject := oneTimeSubject("s1", "2025-06-01")
	entries := BuildAgenda("2025-06-02", []models.Subject{subject}, nil, nil)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestFormatDateUsesLocalCalendarFields(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	// 23:30 local is already the next day in UTC; the local date must win.
	stamp := time.Date(2025, 12, 31, 23, 30, 0, 0, loc)
	assert.Equal(t, "2025-12-31", FormatDate(stamp))
}
