package services

import (
	"context"
	"testing"

	"marketplace-chat/internal/cache"
	"marketplace-chat/internal/models"
	"marketplace-chat/internal/repositories/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type projectFixture struct {
	svc     ProjectService
	backend *recordingBackend
}

func newProjectFixture(t *testing.T) *projectFixture {
	t.Helper()
	db := openTestDB(t)
	seedUser(t, db, "client-1", "Carla")
	seedUser(t, db, "client-2", "Chris")
	seedUser(t, db, "freelancer-1", "Frank")

	backend := newRecordingBackend()
	svc := NewProjectService(postgres.NewProjectRepository(db), cache.NewStore(backend))
	return &projectFixture{svc: svc, backend: backend}
}

func (f *projectFixture) createProject(t *testing.T) *models.ProjectResponse {
	t.Helper()
	project, err := f.svc.CreateProject(context.Background(), "client-1", &models.CreateProjectRequest{
		Title:  "Landing page",
		Budget: 1200,
	})
	require.NoError(t, err)
	return project
}

func TestCreateProjectStartsOpen(t *testing.T) {
	f := newProjectFixture(t)
	project := f.createProject(t)

	assert.Equal(t, models.ProjectStatusOpen, project.Status)
	assert.Nil(t, project.FreelancerID)
	assert.NotZero(t, project.ProjectID)
}

func TestCreateProjectValidation(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateProject(ctx, "client-1", &models.CreateProjectRequest{Budget: 100})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateProject(ctx, "client-1", &models.CreateProjectRequest{Title: "x", Budget: 0})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAssignFreelancer(t *testing.T) {
	f := newProjectFixture(t)
	project := f.createProject(t)
	ctx := context.Background()

	assigned, err := f.svc.AssignFreelancer(ctx, project.ProjectID, "client-1", "freelancer-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.FreelancerID)
	assert.Equal(t, "freelancer-1", *assigned.FreelancerID)
}

func TestAssignFreelancerRejectsReassignment(t *testing.T) {
	f := newProjectFixture(t)
	project := f.createProject(t)
	ctx := context.Background()

	_, err := f.svc.AssignFreelancer(ctx, project.ProjectID, "client-1", "freelancer-1")
	require.NoError(t, err)

	_, err = f.svc.AssignFreelancer(ctx, project.ProjectID, "client-1", "someone-else")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestProjectOwnership(t *testing.T) {
	f := newProjectFixture(t)
	project := f.createProject(t)
	ctx := context.Background()

	_, err := f.svc.AssignFreelancer(ctx, project.ProjectID, "client-2", "freelancer-1")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.svc.AssignFreelancer(ctx, 999, "client-1", "freelancer-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteProjectLifecycle(t *testing.T) {
	f := newProjectFixture(t)
	project := f.createProject(t)
	ctx := context.Background()

	// Open projects cannot be completed.
	_, err := f.svc.CompleteProject(ctx, project.ProjectID, "client-1")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.AssignFreelancer(ctx, project.ProjectID, "client-1", "freelancer-1")
	require.NoError(t, err)

	done, err := f.svc.CompleteProject(ctx, project.ProjectID, "client-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusApproved, done.Status)
	assert.Contains(t, f.backend.removed, cache.ApprovedProjectsKey("client-1"))
}

func TestGetApprovedProjectsReflectsCompletion(t *testing.T) {
	f := newProjectFixture(t)
	project := f.createProject(t)
	ctx := context.Background()

	// Prime the cache while the list is still empty.
	approved, err := f.svc.GetApprovedProjects(ctx, "client-1")
	require.NoError(t, err)
	assert.Empty(t, approved)

	_, err = f.svc.AssignFreelancer(ctx, project.ProjectID, "client-1", "freelancer-1")
	require.NoError(t, err)
	_, err = f.svc.CompleteProject(ctx, project.ProjectID, "client-1")
	require.NoError(t, err)

	// Completion invalidated the primed entry, so the read recomputes.
	approved, err = f.svc.GetApprovedProjects(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, project.ProjectID, approved[0].ProjectID)
	assert.Equal(t, models.ProjectStatusApproved, approved[0].Status)
}
