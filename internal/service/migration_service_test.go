package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghumahchegu/tuition-api/internal/models"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
)

func TestMigrationMovesLegacyTeacherID(t *testing.T) {
	legacyOwner := "t1"
	repo := newStudentRepoStub()
	repo.legacy = []models.Student{
		{ID: "st-1", Name: "Aina", TeacherID: &legacyOwner},
	}
	svc := NewMigrationService(repo, nil)

	result, err := svc.MigrateTeacherAssignments(context.Background(), adminScope())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Migrated)
	assert.Equal(t, 0, result.Reconciled)
	assert.Equal(t, []string{"t1"}, repo.migrated["st-1"])
}

func TestMigrationReconcilesBothFields(t *testing.T) {
	legacyOwner := "t1"
	repo := newStudentRepoStub()
	repo.legacy = []models.Student{
		// Array already holds the legacy id: just clear the old column.
		{ID: "st-1", TeacherID: &legacyOwner, TeacherIDs: pq.StringArray{"t1", "t2"}},
		// Array misses the legacy id: append it.
		{ID: "st-2", TeacherID: &legacyOwner, TeacherIDs: pq.StringArray{"t3"}},
	}
	svc := NewMigrationService(repo, nil)

	result, err := svc.MigrateTeacherAssignments(context.Background(), adminScope())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 0, result.Migrated)
	assert.Equal(t, 2, result.Reconciled)
	assert.Equal(t, []string{"t1", "t2"}, repo.migrated["st-1"])
	assert.Equal(t, []string{"t3", "t1"}, repo.migrated["st-2"])
}

func TestMigrationIdempotentWhenNothingLeft(t *testing.T) {
	repo := newStudentRepoStub()
	svc := NewMigrationService(repo, nil)

	result, err := svc.MigrateTeacherAssignments(context.Background(), adminScope())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Scanned)
	assert.Empty(t, repo.migrated)
}

func TestMigrationAdminOnly(t *testing.T) {
	svc := NewMigrationService(newStudentRepoStub(), nil)

	_, err := svc.MigrateTeacherAssignments(context.Background(), teacherScope("t1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
