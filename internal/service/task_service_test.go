package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"siteops/internal/model"
)

type workflowEnv struct {
	svc      *TaskService
	tasks    *fakeTaskStore
	projects *fakeProjectStore
	notifier *recordingNotifier
}

// newWorkflowEnv creates a service stack over in-memory fakes with one
// project (id 1) managed by user 1.
func newWorkflowEnv(t *testing.T) *workflowEnv {
	t.Helper()
	tasks := newFakeTaskStore()
	projects := newFakeProjectStore()
	notifier := &recordingNotifier{}
	log := zap.NewNop()

	projectSvc := NewProjectService(projects, tasks, log)
	svc := NewTaskService(tasks, projects, projectSvc, notifier, log)

	_, err := projects.Insert(context.Background(), &model.Project{
		Name:      "Riverside Bridge",
		Status:    model.ProjectStatusActive,
		ManagerID: 1,
	})
	require.NoError(t, err)

	return &workflowEnv{svc: svc, tasks: tasks, projects: projects, notifier: notifier}
}

func (e *workflowEnv) seedTask(t *testing.T, parentID *int, assignee int, status model.TaskStatus) int {
	t.Helper()
	id, err := e.tasks.CreateWithActivity(context.Background(), &model.Task{
		ProjectID:  1,
		ParentID:   parentID,
		Title:      "task",
		Priority:   model.TaskPriorityNormal,
		Status:     model.TaskStatusPending,
		AssignedTo: assignee,
		CreatedBy:  1,
	}, 1)
	require.NoError(t, err)
	if status != model.TaskStatusPending {
		require.NoError(t, e.tasks.SetStatus(context.Background(), id, status))
	}
	return id
}

func TestChangeStatusEdges(t *testing.T) {
	tests := []struct {
		from model.TaskStatus
		to   model.TaskStatus
		ok   bool
	}{
		{model.TaskStatusPending, model.TaskStatusInProgress, true},
		{model.TaskStatusPending, model.TaskStatusBlocked, true},
		{model.TaskStatusPending, model.TaskStatusCancelled, true},
		{model.TaskStatusPending, model.TaskStatusSubmitted, false},
		{model.TaskStatusPending, model.TaskStatusCompleted, false},
		{model.TaskStatusInProgress, model.TaskStatusSubmitted, true},
		{model.TaskStatusInProgress, model.TaskStatusBlocked, true},
		{model.TaskStatusInProgress, model.TaskStatusCancelled, true},
		{model.TaskStatusInProgress, model.TaskStatusCompleted, false},
		{model.TaskStatusInProgress, model.TaskStatusPending, false},
		{model.TaskStatusSubmitted, model.TaskStatusCompleted, true},
		{model.TaskStatusSubmitted, model.TaskStatusBlocked, true},
		{model.TaskStatusSubmitted, model.TaskStatusCancelled, true},
		{model.TaskStatusSubmitted, model.TaskStatusInProgress, false},
		{model.TaskStatusBlocked, model.TaskStatusInProgress, true},
		{model.TaskStatusBlocked, model.TaskStatusCancelled, true},
		{model.TaskStatusBlocked, model.TaskStatusSubmitted, false},
		{model.TaskStatusCompleted, model.TaskStatusInProgress, false},
		{model.TaskStatusCompleted, model.TaskStatusCancelled, false},
		{model.TaskStatusCancelled, model.TaskStatusInProgress, false},
		{model.TaskStatusCancelled, model.TaskStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			env := newWorkflowEnv(t)
			id := env.seedTask(t, nil, 2, tt.from)

			got, err := env.svc.ChangeStatus(context.Background(), id, string(tt.to), "", 2)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, got.Status)

				activity, _ := env.tasks.ListActivity(context.Background(), id)
				last := activity[len(activity)-1]
				assert.Equal(t, model.ActivityActionStatusChange, last.Action)
				assert.Equal(t, string(tt.from)+" -> "+string(tt.to), last.Note)
			} else {
				var transitionErr *model.InvalidTransitionError
				require.ErrorAs(t, err, &transitionErr)
				assert.Equal(t, tt.from, transitionErr.From)
				assert.Equal(t, tt.to, transitionErr.To)

				stored, _ := env.tasks.GetByID(context.Background(), id)
				assert.Equal(t, tt.from, stored.Status)
			}
		})
	}
}

func TestChangeStatusInputErrors(t *testing.T) {
	env := newWorkflowEnv(t)
	id := env.seedTask(t, nil, 2, model.TaskStatusPending)

	_, err := env.svc.ChangeStatus(context.Background(), id, "done", "", 2)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = env.svc.ChangeStatus(context.Background(), 999, "in_progress", "", 2)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestChangeStatusAuthorization(t *testing.T) {
	env := newWorkflowEnv(t)
	id := env.seedTask(t, nil, 2, model.TaskStatusPending)

	// neither assignee nor manager
	_, err := env.svc.ChangeStatus(context.Background(), id, "in_progress", "", 99)
	assert.ErrorIs(t, err, model.ErrForbidden)

	// the assignee may act
	_, err = env.svc.ChangeStatus(context.Background(), id, "in_progress", "", 2)
	require.NoError(t, err)

	// so may the project manager
	_, err = env.svc.ChangeStatus(context.Background(), id, "submitted", "", 1)
	require.NoError(t, err)
}

func TestCompletionGatedOnChildren(t *testing.T) {
	env := newWorkflowEnv(t)
	parent := env.seedTask(t, nil, 2, model.TaskStatusSubmitted)
	env.seedTask(t, &parent, 3, model.TaskStatusCompleted)
	env.seedTask(t, &parent, 3, model.TaskStatusInProgress)
	env.seedTask(t, &parent, 3, model.TaskStatusCancelled)

	_, err := env.svc.ChangeStatus(context.Background(), parent, "completed", "", 2)

	var blocked *model.CompletionBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, 1, blocked.Count)
	assert.Equal(t, []model.TaskStatus{model.TaskStatusInProgress}, blocked.Statuses)
}

func TestCompletionAllowedWhenChildrenFinished(t *testing.T) {
	env := newWorkflowEnv(t)
	parent := env.seedTask(t, nil, 2, model.TaskStatusSubmitted)
	env.seedTask(t, &parent, 3, model.TaskStatusCompleted)
	env.seedTask(t, &parent, 3, model.TaskStatusCancelled)

	got, err := env.svc.ChangeStatus(context.Background(), parent, "completed", "", 2)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, got.Status)
}

func TestComputeParentStatus(t *testing.T) {
	s := func(statuses ...model.TaskStatus) []model.TaskStatus { return statuses }

	tests := []struct {
		name     string
		children []model.TaskStatus
		want     model.TaskStatus
	}{
		{"all blocked", s(model.TaskStatusBlocked, model.TaskStatusBlocked), model.TaskStatusBlocked},
		{"all cancelled", s(model.TaskStatusCancelled, model.TaskStatusCancelled), model.TaskStatusCancelled},
		{"cancelled beside blocked", s(model.TaskStatusBlocked, model.TaskStatusCancelled), model.TaskStatusCancelled},
		{"all completed", s(model.TaskStatusCompleted, model.TaskStatusCompleted), model.TaskStatusCompleted},
		{"completed and cancelled", s(model.TaskStatusCompleted, model.TaskStatusCancelled), model.TaskStatusCompleted},
		{"completed beside blocked", s(model.TaskStatusCompleted, model.TaskStatusBlocked), model.TaskStatusInProgress},
		{"any in progress", s(model.TaskStatusInProgress, model.TaskStatusPending), model.TaskStatusInProgress},
		{"any submitted", s(model.TaskStatusSubmitted, model.TaskStatusPending), model.TaskStatusInProgress},
		{"blocked beside pending", s(model.TaskStatusBlocked, model.TaskStatusPending), model.TaskStatusInProgress},
		{"all pending", s(model.TaskStatusPending, model.TaskStatusPending), model.TaskStatusPending},
		{"pending beside completed", s(model.TaskStatusPending, model.TaskStatusCompleted), model.TaskStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeParentStatus(tt.children))
		})
	}
}

func TestPropagationRecursesUpward(t *testing.T) {
	env := newWorkflowEnv(t)
	ctx := context.Background()

	grand := env.seedTask(t, nil, 2, model.TaskStatusPending)
	parent := env.seedTask(t, &grand, 2, model.TaskStatusPending)
	child := env.seedTask(t, &parent, 2, model.TaskStatusPending)

	_, err := env.svc.ChangeStatus(ctx, child, "in_progress", "", 2)
	require.NoError(t, err)

	p, _ := env.tasks.GetByID(ctx, parent)
	g, _ := env.tasks.GetByID(ctx, grand)
	assert.Equal(t, model.TaskStatusInProgress, p.Status)
	assert.Equal(t, model.TaskStatusInProgress, g.Status)

	_, err = env.svc.ChangeStatus(ctx, child, "submitted", "", 2)
	require.NoError(t, err)
	_, err = env.svc.ChangeStatus(ctx, child, "completed", "", 2)
	require.NoError(t, err)

	p, _ = env.tasks.GetByID(ctx, parent)
	g, _ = env.tasks.GetByID(ctx, grand)
	assert.Equal(t, model.TaskStatusCompleted, p.Status)
	assert.Equal(t, model.TaskStatusCompleted, g.Status)
}

func TestPropagationStopsWhenUnchanged(t *testing.T) {
	env := newWorkflowEnv(t)
	ctx := context.Background()

	parent := env.seedTask(t, nil, 2, model.TaskStatusInProgress)
	env.seedTask(t, &parent, 2, model.TaskStatusInProgress)

	require.NoError(t, env.svc.recomputeParentStatus(ctx, parent))
	assert.Equal(t, 0, env.tasks.setStatusCalls)

	p, _ := env.tasks.GetByID(ctx, parent)
	assert.Equal(t, model.TaskStatusInProgress, p.Status)
}

func TestSubtreeBlockedDominance(t *testing.T) {
	env := newWorkflowEnv(t)
	ctx := context.Background()

	parent := env.seedTask(t, nil, 2, model.TaskStatusInProgress)
	a := env.seedTask(t, &parent, 2, model.TaskStatusInProgress)
	b := env.seedTask(t, &parent, 2, model.TaskStatusInProgress)

	_, err := env.svc.ChangeStatus(ctx, a, "blocked", "", 2)
	require.NoError(t, err)

	p, _ := env.tasks.GetByID(ctx, parent)
	assert.Equal(t, model.TaskStatusInProgress, p.Status, "one blocked child keeps the parent in progress")

	_, err = env.svc.ChangeStatus(ctx, b, "blocked", "", 2)
	require.NoError(t, err)

	p, _ = env.tasks.GetByID(ctx, parent)
	assert.Equal(t, model.TaskStatusBlocked, p.Status, "all children blocked blocks the parent")
}

func TestCreateTask(t *testing.T) {
	env := newWorkflowEnv(t)
	ctx := context.Background()

	got, err := env.svc.Create(ctx, 1, CreateTaskInput{
		Title:      "Pour foundation",
		AssignedTo: 2,
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, got.Status)
	assert.Equal(t, model.TaskPriorityNormal, got.Priority)

	activity, _ := env.tasks.ListActivity(ctx, got.ID)
	require.Len(t, activity, 1)
	assert.Equal(t, model.ActivityActionCreated, activity[0].Action)

	require.Len(t, env.notifier.sent, 1)
	assert.Equal(t, 2, env.notifier.sent[0].UserID)
	assert.Equal(t, model.NotificationKindTaskAssigned, env.notifier.sent[0].Kind)
}

func TestCreateTaskValidation(t *testing.T) {
	env := newWorkflowEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, 1, CreateTaskInput{AssignedTo: 2}, 1)
	assert.ErrorIs(t, err, model.ErrInvalidInput, "title required")

	_, err = env.svc.Create(ctx, 1, CreateTaskInput{Title: "x"}, 1)
	assert.ErrorIs(t, err, model.ErrInvalidInput, "assignee required")

	_, err = env.svc.Create(ctx, 1, CreateTaskInput{Title: "x", AssignedTo: 2, Priority: "urgent"}, 1)
	assert.ErrorIs(t, err, model.ErrInvalidInput, "unknown priority")

	_, err = env.svc.Create(ctx, 1, CreateTaskInput{Title: "x", AssignedTo: 2}, 5)
	assert.ErrorIs(t, err, model.ErrForbidden, "only managers create tasks")

	cancelled := env.seedTask(t, nil, 2, model.TaskStatusCancelled)
	_, err = env.svc.Create(ctx, 1, CreateTaskInput{Title: "x", AssignedTo: 2, ParentTaskID: &cancelled}, 1)
	assert.ErrorIs(t, err, model.ErrInvalidInput, "cancelled parent")

	missing := 12345
	_, err = env.svc.Create(ctx, 1, CreateTaskInput{Title: "x", AssignedTo: 2, ParentTaskID: &missing}, 1)
	assert.ErrorIs(t, err, model.ErrNotFound, "missing parent")
}

func TestUpdateTaskMetadataOnly(t *testing.T) {
	env := newWorkflowEnv(t)
	ctx := context.Background()
	id := env.seedTask(t, nil, 2, model.TaskStatusInProgress)

	title := "Rebar inspection"
	priority := model.TaskPriorityHigh
	got, err := env.svc.Update(ctx, id, UpdateTaskInput{Title: &title, Priority: &priority}, 2)
	require.NoError(t, err)
	assert.Equal(t, "Rebar inspection", got.Title)
	assert.Equal(t, model.TaskPriorityHigh, got.Priority)
	assert.Equal(t, model.TaskStatusInProgress, got.Status, "metadata edits never move status")

	bad := "urgent"
	_, err = env.svc.Update(ctx, id, UpdateTaskInput{Priority: &bad}, 2)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestProgressRefreshOnStatusChange(t *testing.T) {
	env := newWorkflowEnv(t)
	ctx := context.Background()

	a := env.seedTask(t, nil, 2, model.TaskStatusSubmitted)
	b := env.seedTask(t, nil, 2, model.TaskStatusPending)

	_, err := env.svc.ChangeStatus(ctx, a, "completed", "", 2)
	require.NoError(t, err)

	p, _ := env.projects.GetByID(ctx, 1)
	assert.Equal(t, 50, p.Progress)

	// cancelled tasks leave the denominator
	_, err = env.svc.ChangeStatus(ctx, b, "cancelled", "", 2)
	require.NoError(t, err)

	p, _ = env.projects.GetByID(ctx, 1)
	assert.Equal(t, 100, p.Progress)
}

func TestDeleteCascade(t *testing.T) {
	env := newWorkflowEnv(t)
	ctx := context.Background()

	parent := env.seedTask(t, nil, 2, model.TaskStatusInProgress)
	child := env.seedTask(t, &parent, 2, model.TaskStatusPending)
	grandchild := env.seedTask(t, &child, 2, model.TaskStatusPending)

	err := env.svc.Delete(ctx, parent, 5)
	assert.ErrorIs(t, err, model.ErrForbidden)

	require.NoError(t, env.svc.Delete(ctx, parent, 1))
	for _, id := range []int{parent, child, grandchild} {
		_, err := env.tasks.GetByID(ctx, id)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	}
}
