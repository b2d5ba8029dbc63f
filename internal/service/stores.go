package service

import (
	"context"

	"siteops/internal/model"
)

// TaskStore is the persistence surface the task workflow needs. The pgx
// repository satisfies it; tests use in-memory fakes.
type TaskStore interface {
	GetByID(ctx context.Context, id int) (*model.Task, error)
	ListByProject(ctx context.Context, projectID int) ([]model.Task, error)
	ChildStatuses(ctx context.Context, parentID int) ([]model.TaskStatus, error)
	CreateWithActivity(ctx context.Context, t *model.Task, actorID int) (int, error)
	UpdateStatusWithActivity(ctx context.Context, taskID int, status model.TaskStatus, note string, actorID int) error
	SetStatus(ctx context.Context, taskID int, status model.TaskStatus) error
	UpdateFields(ctx context.Context, t *model.Task) error
	DeleteCascade(ctx context.Context, taskID int) error
	ListActivity(ctx context.Context, taskID int) ([]model.TaskActivity, error)
}

type ProjectStore interface {
	GetByID(ctx context.Context, id int) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	Insert(ctx context.Context, p *model.Project) (int, error)
	Update(ctx context.Context, p *model.Project) error
	UpdateProgress(ctx context.Context, projectID, progress int) error
	Delete(ctx context.Context, id int) error
}

// Notifier delivers user-facing notifications. Failures are the caller's to
// log; notification delivery never blocks a workflow operation.
type Notifier interface {
	Notify(ctx context.Context, userID int, kind, body string, projectID, taskID int) error
}
