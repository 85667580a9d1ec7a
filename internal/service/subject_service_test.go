package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
)

type subjectRepoStub struct {
	subjects map[string]models.Subject
	nextID   int
}

func newSubjectRepoStub(subjects ...models.Subject) *subjectRepoStub {
	stub := &subjectRepoStub{subjects: map[string]models.Subject{}}
	for _, s := range subjects {
		stub.subjects[s.ID] = s
	}
	return stub
}

func (s *subjectRepoStub) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	result := []models.Subject{}
	for _, subject := range s.subjects {
		if filter.TeacherID != "" && subject.TeacherID != filter.TeacherID {
			continue
		}
		result = append(result, subject)
	}
	return result, len(result), nil
}

func (s *subjectRepoStub) ListAll(ctx context.Context, teacherID string) ([]models.Subject, error) {
	result, _, _ := s.List(ctx, models.SubjectFilter{TeacherID: teacherID})
	return result, nil
}

func (s *subjectRepoStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := s.subjects[id]; ok {
		return &subject, nil
	}
	return nil, sql.ErrNoRows
}

func (s *subjectRepoStub) Create(ctx context.Context, subject *models.Subject) error {
	s.nextID++
	subject.ID = "subj-" + strconv.Itoa(s.nextID)
	s.subjects[subject.ID] = *subject
	return nil
}

func (s *subjectRepoStub) Update(ctx context.Context, subject *models.Subject) error {
	if _, ok := s.subjects[subject.ID]; !ok {
		return sql.ErrNoRows
	}
	s.subjects[subject.ID] = *subject
	return nil
}

func (s *subjectRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.subjects, id)
	return nil
}

type cascadeStub struct {
	bySubject []string
	byStudent []string
	removed   int64
	err       error
}

func (c *cascadeStub) DeleteBySubject(ctx context.Context, subjectID string) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.bySubject = append(c.bySubject, subjectID)
	return c.removed, nil
}

func (c *cascadeStub) DeleteByStudent(ctx context.Context, studentID string) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.byStudent = append(c.byStudent, studentID)
	return c.removed, nil
}

type invalidatorStub struct {
	calls int
}

func (i *invalidatorStub) InvalidateAgenda(ctx context.Context) error {
	i.calls++
	return nil
}

func TestSubjectCreateWeekly(t *testing.T) {
	repo := newSubjectRepoStub()
	invalidator := &invalidatorStub{}
	svc := NewSubjectService(repo, &cascadeStub{}, invalidator, nil, nil)

	subject, err := svc.Create(context.Background(), teacherScope("t1"), CreateSubjectRequest{
		Name: "Mathematics", StartTime: "14:00", EndTime: "15:30",
		Recurring: models.RecurrenceWeekly, DaysOfWeek: []int{1, 3, 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", subject.TeacherID)
	assert.Equal(t, []int{1, 3, 5}, subject.EffectiveDays())
	assert.Nil(t, subject.Date)
	assert.Nil(t, subject.DayOfWeek)
	assert.Equal(t, 1, invalidator.calls)
}

func TestSubjectCreateOneTime(t *testing.T) {
	svc := NewSubjectService(newSubjectRepoStub(), &cascadeStub{}, nil, nil, nil)

	subject, err := svc.Create(context.Background(), teacherScope("t1"), CreateSubjectRequest{
		Name: "Exam Prep", StartTime: "09:00", EndTime: "12:00",
		Recurring: models.RecurrenceNone, Date: "2025-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", subject.OneTimeDate())
	assert.Empty(t, subject.EffectiveDays())
}

func TestSubjectCreateValidation(t *testing.T) {
	svc := NewSubjectService(newSubjectRepoStub(), &cascadeStub{}, nil, nil, nil)
	scope := teacherScope("t1")

	cases := []CreateSubjectRequest{
		// end before start
		{Name: "X", StartTime: "15:00", EndTime: "14:00", Recurring: models.RecurrenceWeekly, DaysOfWeek: []int{1}},
		// weekly without days
		{Name: "X", StartTime: "14:00", EndTime: "15:00", Recurring: models.RecurrenceWeekly},
		// day out of range
		{Name: "X", StartTime: "14:00", EndTime: "15:00", Recurring: models.RecurrenceWeekly, DaysOfWeek: []int{7}},
		// one-time without a date
		{Name: "X", StartTime: "14:00", EndTime: "15:00", Recurring: models.RecurrenceNone},
		// unsupported recurrence
		{Name: "X", StartTime: "14:00", EndTime: "15:00", Recurring: "monthly", Date: "2025-06-01"},
		// unparseable clock
		{Name: "X", StartTime: "2pm", EndTime: "15:00", Recurring: models.RecurrenceNone, Date: "2025-06-01"},
	}
	for i, req := range cases {
		_, err := svc.Create(context.Background(), scope, req)
		require.Error(t, err, "case %d", i)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code, "case %d", i)
	}
}

func TestSubjectUpdateSwitchesRecurrenceAndClearsLegacyDay(t *testing.T) {
	legacyDay := int64(2)
	repo := newSubjectRepoStub(models.Subject{
		ID: "subj-1", Name: "Science", TeacherID: "t1",
		StartTime: "10:00", EndTime: "11:00",
		Recurring: models.RecurrenceWeekly, DayOfWeek: &legacyDay,
	})
	svc := NewSubjectService(repo, &cascadeStub{}, nil, nil, nil)

	subject, err := svc.Update(context.Background(), teacherScope("t1"), "subj-1", UpdateSubjectRequest{
		Name: "Science", StartTime: "10:00", EndTime: "11:00",
		Recurring: models.RecurrenceNone, Date: "2025-06-01",
	})
	require.NoError(t, err)
	assert.Nil(t, subject.DayOfWeek)
	assert.Empty(t, subject.DaysOfWeek)
	assert.Equal(t, "2025-06-01", subject.OneTimeDate())
}

func TestSubjectGetScoped(t *testing.T) {
	repo := newSubjectRepoStub(models.Subject{ID: "subj-1", TeacherID: "t1"})
	svc := NewSubjectService(repo, &cascadeStub{}, nil, nil, nil)

	_, err := svc.Get(context.Background(), teacherScope("t2"), "subj-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	subject, err := svc.Get(context.Background(), adminScope(), "subj-1")
	require.NoError(t, err)
	assert.Equal(t, "subj-1", subject.ID)
}

func TestSubjectDeleteCascadesAssignments(t *testing.T) {
	repo := newSubjectRepoStub(models.Subject{ID: "subj-1", TeacherID: "t1"})
	cascade := &cascadeStub{removed: 2}
	invalidator := &invalidatorStub{}
	svc := NewSubjectService(repo, cascade, invalidator, nil, nil)

	err := svc.Delete(context.Background(), teacherScope("t1"), "subj-1")
	require.NoError(t, err)
	assert.Empty(t, repo.subjects)
	assert.Equal(t, []string{"subj-1"}, cascade.bySubject)
	assert.Equal(t, 1, invalidator.calls)
}
