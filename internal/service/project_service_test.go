package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"siteops/internal/model"
)

func intPtr(v int) *int { return &v }

func TestComputeProgress(t *testing.T) {
	root := func(status model.TaskStatus) model.Task {
		return model.Task{Status: status}
	}
	child := func(status model.TaskStatus) model.Task {
		return model.Task{ParentID: intPtr(1), Status: status}
	}

	tests := []struct {
		name  string
		tasks []model.Task
		want  int
	}{
		{"no tasks", nil, 0},
		{"all cancelled", []model.Task{root(model.TaskStatusCancelled)}, 0},
		{"half complete", []model.Task{root(model.TaskStatusCompleted), root(model.TaskStatusPending)}, 50},
		{"rounding", []model.Task{
			root(model.TaskStatusCompleted),
			root(model.TaskStatusPending),
			root(model.TaskStatusPending),
		}, 33},
		{"cancelled excluded from denominator", []model.Task{
			root(model.TaskStatusCompleted),
			root(model.TaskStatusCancelled),
		}, 100},
		{"children do not dilute top level", []model.Task{
			root(model.TaskStatusCompleted),
			root(model.TaskStatusPending),
			child(model.TaskStatusPending),
			child(model.TaskStatusPending),
		}, 50},
		{"flat fallback when no roots", []model.Task{
			child(model.TaskStatusCompleted),
			child(model.TaskStatusPending),
		}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeProgress(tt.tasks)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func newProjectEnv(t *testing.T) (*ProjectService, *fakeProjectStore, *fakeTaskStore) {
	t.Helper()
	projects := newFakeProjectStore()
	tasks := newFakeTaskStore()
	return NewProjectService(projects, tasks, zap.NewNop()), projects, tasks
}

func TestProjectCreateDefaults(t *testing.T) {
	svc, _, _ := newProjectEnv(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, ProjectInput{Name: "Depot refit"}, 7)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusPlanning, p.Status)
	assert.Equal(t, 7, p.ManagerID, "creator manages by default")

	_, err = svc.Create(ctx, ProjectInput{}, 7)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Create(ctx, ProjectInput{Name: "x", Status: "started"}, 7)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestProjectUpdateDiscardsClientProgress(t *testing.T) {
	svc, projects, tasks := newProjectEnv(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProjectInput{Name: "Depot refit"}, 7)
	require.NoError(t, err)

	_, err = tasks.CreateWithActivity(ctx, &model.Task{
		ProjectID: created.ID,
		Status:    model.TaskStatusCompleted,
		Title:     "done",
	}, 7)
	require.NoError(t, err)
	_, err = tasks.CreateWithActivity(ctx, &model.Task{
		ProjectID: created.ID,
		Status:    model.TaskStatusPending,
		Title:     "open",
	}, 7)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, ProjectInput{Description: "phase 2"}, 7)
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Progress, "progress is derived, never client-set")

	stored, _ := projects.GetByID(ctx, created.ID)
	assert.Equal(t, 50, stored.Progress)
}

func TestProjectMutationsManagerOnly(t *testing.T) {
	svc, _, _ := newProjectEnv(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProjectInput{Name: "Depot refit"}, 7)
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, ProjectInput{Name: "renamed"}, 9)
	assert.ErrorIs(t, err, model.ErrForbidden)

	err = svc.Delete(ctx, created.ID, 9)
	assert.ErrorIs(t, err, model.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, created.ID, 7))
}

func TestGetResolvesManagerList(t *testing.T) {
	svc, projects, _ := newProjectEnv(t)
	ctx := context.Background()

	id, err := projects.Insert(ctx, &model.Project{
		Name:           "Harbour wall",
		Status:         model.ProjectStatusActive,
		ManagerID:      3,
		ManagerIDsJSON: "[4,5]",
	})
	require.NoError(t, err)

	p, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, p.ManagerIDs)
}
