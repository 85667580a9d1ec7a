package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
)

type assignmentRepoStub struct {
	assignments []models.Assignment
	nextID      int
}

func (s *assignmentRepoStub) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	result := []models.Assignment{}
	for _, a := range s.assignments {
		if filter.TeacherID != "" && a.TeacherID != filter.TeacherID {
			continue
		}
		if filter.SubjectID != "" && a.SubjectID != filter.SubjectID {
			continue
		}
		if filter.StudentID != "" && a.StudentID != filter.StudentID {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (s *assignmentRepoStub) Exists(ctx context.Context, subjectID, studentID string) (bool, error) {
	for _, a := range s.assignments {
		if a.SubjectID == subjectID && a.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *assignmentRepoStub) Create(ctx context.Context, assignment *models.Assignment) error {
	s.nextID++
	assignment.ID = "asg-" + strconv.Itoa(s.nextID)
	s.assignments = append(s.assignments, *assignment)
	return nil
}

func (s *assignmentRepoStub) Delete(ctx context.Context, id string) error {
	for i, a := range s.assignments {
		if a.ID == id {
			s.assignments = append(s.assignments[:i], s.assignments[i+1:]...)
			return nil
		}
	}
	return nil
}

func TestAssignSkipsExistingPairs(t *testing.T) {
	repo := &assignmentRepoStub{assignments: []models.Assignment{
		{ID: "asg-0", SubjectID: "math", StudentID: "st1", TeacherID: "t1"},
	}}
	invalidator := &invalidatorStub{}
	svc := NewAssignmentService(repo, invalidator, nil, nil)

	result, err := svc.Assign(context.Background(), teacherScope("t1"), AssignStudentsRequest{
		SubjectID: "math", StudentIDs: []string{"st1", "st2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"st1"}, result.Skipped)
	require.Len(t, result.Assigned, 1)
	assert.Equal(t, "st2", result.Assigned[0].StudentID)
	assert.Equal(t, "t1", result.Assigned[0].TeacherID)
	assert.Len(t, repo.assignments, 2)
	assert.Equal(t, 1, invalidator.calls)
}

func TestAssignAllExistingIsNoOp(t *testing.T) {
	repo := &assignmentRepoStub{assignments: []models.Assignment{
		{ID: "asg-0", SubjectID: "math", StudentID: "st1", TeacherID: "t1"},
	}}
	invalidator := &invalidatorStub{}
	svc := NewAssignmentService(repo, invalidator, nil, nil)

	result, err := svc.Assign(context.Background(), teacherScope("t1"), AssignStudentsRequest{
		SubjectID: "math", StudentIDs: []string{"st1"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Assigned)
	assert.Len(t, repo.assignments, 1)
	// Nothing changed, so the cached agenda stays valid.
	assert.Equal(t, 0, invalidator.calls)
}

func TestAssignRequiresStudents(t *testing.T) {
	svc := NewAssignmentService(&assignmentRepoStub{}, nil, nil, nil)

	_, err := svc.Assign(context.Background(), teacherScope("t1"), AssignStudentsRequest{SubjectID: "math"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUnassignScoped(t *testing.T) {
	repo := &assignmentRepoStub{assignments: []models.Assignment{
		{ID: "asg-1", SubjectID: "math", StudentID: "st1", TeacherID: "t1"},
	}}
	svc := NewAssignmentService(repo, nil, nil, nil)

	err := svc.Unassign(context.Background(), teacherScope("t2"), "asg-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.assignments, 1)

	err = svc.Unassign(context.Background(), teacherScope("t1"), "asg-1")
	require.NoError(t, err)
	assert.Empty(t, repo.assignments)
}
