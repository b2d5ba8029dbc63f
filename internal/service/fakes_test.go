package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"siteops/internal/model"
)

// fakeTaskStore is an in-memory TaskStore for workflow tests.
type fakeTaskStore struct {
	nextID         int
	tasks          map[int]*model.Task
	activity       map[int][]model.TaskActivity
	setStatusCalls int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		tasks:    make(map[int]*model.Task),
		activity: make(map[int][]model.TaskActivity),
	}
}

func (f *fakeTaskStore) GetByID(_ context.Context, id int) (*model.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, model.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTaskStore) ListByProject(_ context.Context, projectID int) ([]model.Task, error) {
	var out []model.Task
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTaskStore) ChildStatuses(_ context.Context, parentID int) ([]model.TaskStatus, error) {
	var out []model.TaskStatus
	for _, t := range f.tasks {
		if t.ParentID != nil && *t.ParentID == parentID {
			out = append(out, t.Status)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) CreateWithActivity(_ context.Context, t *model.Task, actorID int) (int, error) {
	f.nextID++
	cp := *t
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.tasks[cp.ID] = &cp
	f.activity[cp.ID] = append(f.activity[cp.ID], model.TaskActivity{
		TaskID: cp.ID,
		Action: model.ActivityActionCreated,
		UserID: actorID,
	})
	return cp.ID, nil
}

func (f *fakeTaskStore) UpdateStatusWithActivity(_ context.Context, taskID int, status model.TaskStatus, note string, actorID int) error {
	t, ok := f.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %d: %w", taskID, model.ErrNotFound)
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	f.activity[taskID] = append(f.activity[taskID], model.TaskActivity{
		TaskID: taskID,
		Action: model.ActivityActionStatusChange,
		Note:   note,
		UserID: actorID,
	})
	return nil
}

func (f *fakeTaskStore) SetStatus(_ context.Context, taskID int, status model.TaskStatus) error {
	f.setStatusCalls++
	t, ok := f.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %d: %w", taskID, model.ErrNotFound)
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}

func (f *fakeTaskStore) UpdateFields(_ context.Context, t *model.Task) error {
	stored, ok := f.tasks[t.ID]
	if !ok {
		return fmt.Errorf("task %d: %w", t.ID, model.ErrNotFound)
	}
	stored.Title = t.Title
	stored.Description = t.Description
	stored.Priority = t.Priority
	stored.DueDate = t.DueDate
	stored.AssignedTo = t.AssignedTo
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeTaskStore) DeleteCascade(_ context.Context, taskID int) error {
	if _, ok := f.tasks[taskID]; !ok {
		return fmt.Errorf("task %d: %w", taskID, model.ErrNotFound)
	}
	var children []int
	for id, t := range f.tasks {
		if t.ParentID != nil && *t.ParentID == taskID {
			children = append(children, id)
		}
	}
	for _, id := range children {
		f.DeleteCascade(context.Background(), id)
	}
	delete(f.tasks, taskID)
	delete(f.activity, taskID)
	return nil
}

func (f *fakeTaskStore) ListActivity(_ context.Context, taskID int) ([]model.TaskActivity, error) {
	return f.activity[taskID], nil
}

// fakeProjectStore is an in-memory ProjectStore.
type fakeProjectStore struct {
	nextID   int
	projects map[int]*model.Project
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[int]*model.Project)}
}

func (f *fakeProjectStore) GetByID(_ context.Context, id int) (*model.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, model.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectStore) List(_ context.Context) ([]model.Project, error) {
	var out []model.Project
	for _, p := range f.projects {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProjectStore) Insert(_ context.Context, p *model.Project) (int, error) {
	f.nextID++
	cp := *p
	cp.ID = f.nextID
	f.projects[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeProjectStore) Update(_ context.Context, p *model.Project) error {
	if _, ok := f.projects[p.ID]; !ok {
		return fmt.Errorf("project %d: %w", p.ID, model.ErrNotFound)
	}
	cp := *p
	f.projects[p.ID] = &cp
	return nil
}

func (f *fakeProjectStore) UpdateProgress(_ context.Context, projectID, progress int) error {
	p, ok := f.projects[projectID]
	if !ok {
		return fmt.Errorf("project %d: %w", projectID, model.ErrNotFound)
	}
	p.Progress = progress
	return nil
}

func (f *fakeProjectStore) Delete(_ context.Context, id int) error {
	if _, ok := f.projects[id]; !ok {
		return fmt.Errorf("project %d: %w", id, model.ErrNotFound)
	}
	delete(f.projects, id)
	return nil
}

// recordingNotifier captures Notify calls.
type recordingNotifier struct {
	sent []sentNotification
}

type sentNotification struct {
	UserID    int
	Kind      string
	Body      string
	ProjectID int
	TaskID    int
}

func (r *recordingNotifier) Notify(_ context.Context, userID int, kind, body string, projectID, taskID int) error {
	r.sent = append(r.sent, sentNotification{
		UserID:    userID,
		Kind:      kind,
		Body:      body,
		ProjectID: projectID,
		TaskID:    taskID,
	})
	return nil
}
