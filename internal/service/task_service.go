package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"siteops/internal/model"
	"siteops/internal/repository"
	"siteops/pkg/metrics"
)

// ProgressRefresher recomputes and persists a project's derived progress.
type ProgressRefresher interface {
	RefreshProgress(ctx context.Context, projectID int) (int, error)
}

// TaskService runs the task workflow: creation, metadata edits, and the
// status state machine with its side effects. Domain-rule violations are
// detected before any write; parent propagation and progress refresh run
// after the commit, best-effort.
type TaskService struct {
	tasks    TaskStore
	projects ProjectStore
	progress ProgressRefresher
	notifier Notifier
	logger   *zap.Logger
}

func NewTaskService(
	tasks TaskStore,
	projects ProjectStore,
	progress ProgressRefresher,
	notifier Notifier,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		projects: projects,
		progress: progress,
		notifier: notifier,
		logger:   logger,
	}
}

// ListTree returns the project's tasks as a tree of roots with nested
// children.
func (s *TaskService) ListTree(ctx context.Context, projectID int) ([]*model.Task, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return repository.BuildTaskTree(tasks), nil
}

type CreateTaskInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Priority     string     `json:"priority"`
	DueDate      *time.Time `json:"due_date"`
	AssignedTo   int        `json:"assigned_to"`
	ParentTaskID *int       `json:"parent_task_id"`
}

// Create inserts a pending task. Only project managers create tasks; a
// parent, when given, must belong to the same project and not be cancelled.
func (s *TaskService) Create(ctx context.Context, projectID int, in CreateTaskInput, actorID int) (*model.Task, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("title is required: %w", model.ErrInvalidInput)
	}
	if in.AssignedTo == 0 {
		return nil, fmt.Errorf("assigned_to is required: %w", model.ErrInvalidInput)
	}
	if in.Priority == "" {
		in.Priority = model.TaskPriorityNormal
	}
	if !model.ValidTaskPriority(in.Priority) {
		return nil, fmt.Errorf("invalid priority %q: %w", in.Priority, model.ErrInvalidInput)
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !IsProjectManager(actorID, project) {
		metrics.RecordTaskTransitionRejected("forbidden")
		return nil, fmt.Errorf("only project managers create tasks: %w", model.ErrForbidden)
	}

	if in.ParentTaskID != nil {
		parent, err := s.tasks.GetByID(ctx, *in.ParentTaskID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != projectID {
			return nil, fmt.Errorf("parent task belongs to another project: %w", model.ErrInvalidInput)
		}
		if parent.Status == model.TaskStatusCancelled {
			return nil, fmt.Errorf("cannot add a task under a cancelled parent: %w", model.ErrInvalidInput)
		}
	}

	t := &model.Task{
		ProjectID:   projectID,
		ParentID:    in.ParentTaskID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      model.TaskStatusPending,
		DueDate:     in.DueDate,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   actorID,
	}

	id, err := s.tasks.CreateWithActivity(ctx, t, actorID)
	if err != nil {
		return nil, err
	}

	s.afterTaskChange(ctx, projectID, in.ParentTaskID)

	if in.AssignedTo != actorID {
		if err := s.notifier.Notify(ctx, in.AssignedTo, model.NotificationKindTaskAssigned,
			fmt.Sprintf("You were assigned task %q", in.Title), projectID, id); err != nil {
			s.logger.Warn("Assignment notification failed",
				zap.Int("task_id", id),
				zap.Error(err),
			)
		}
	}

	return s.tasks.GetByID(ctx, id)
}

type UpdateTaskInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *int       `json:"assigned_to"`
}

// Update edits task metadata. Status is never touched here; no transition
// rules apply.
func (s *TaskService) Update(ctx context.Context, taskID int, in UpdateTaskInput, actorID int) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeActor(ctx, t, actorID); err != nil {
		return nil, err
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, fmt.Errorf("title cannot be empty: %w", model.ErrInvalidInput)
		}
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		if !model.ValidTaskPriority(*in.Priority) {
			return nil, fmt.Errorf("invalid priority %q: %w", *in.Priority, model.ErrInvalidInput)
		}
		t.Priority = *in.Priority
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if in.AssignedTo != nil {
		if *in.AssignedTo == 0 {
			return nil, fmt.Errorf("assigned_to cannot be empty: %w", model.ErrInvalidInput)
		}
		t.AssignedTo = *in.AssignedTo
	}

	if err := s.tasks.UpdateFields(ctx, t); err != nil {
		return nil, err
	}
	return s.tasks.GetByID(ctx, taskID)
}

// ChangeStatus applies a workflow transition. Guards run in order: status
// enum, actor authorization, transition edge, completion gate. The status
// write and activity append commit atomically; propagation and progress
// refresh follow outside the transaction.
func (s *TaskService) ChangeStatus(ctx context.Context, taskID int, requested, note string, actorID int) (*model.Task, error) {
	if !model.ValidTaskStatus(requested) {
		return nil, fmt.Errorf("invalid status %q: %w", requested, model.ErrInvalidInput)
	}
	target := model.TaskStatus(requested)

	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeActor(ctx, t, actorID); err != nil {
		metrics.RecordTaskTransitionRejected("forbidden")
		return nil, err
	}

	if !t.Status.CanTransitionTo(target) {
		metrics.RecordTaskTransitionRejected("invalid_transition")
		return nil, &model.InvalidTransitionError{From: t.Status, To: target}
	}

	if target == model.TaskStatusCompleted {
		statuses, err := s.tasks.ChildStatuses(ctx, taskID)
		if err != nil {
			return nil, err
		}
		unfinished := []model.TaskStatus{}
		for _, cs := range statuses {
			if cs != model.TaskStatusCompleted && cs != model.TaskStatusCancelled {
				unfinished = append(unfinished, cs)
			}
		}
		if len(unfinished) > 0 {
			metrics.RecordTaskTransitionRejected("completion_blocked")
			return nil, &model.CompletionBlockedError{Count: len(unfinished), Statuses: unfinished}
		}
	}

	if note == "" {
		note = fmt.Sprintf("%s -> %s", t.Status, target)
	}

	if err := s.tasks.UpdateStatusWithActivity(ctx, taskID, target, note, actorID); err != nil {
		return nil, err
	}
	metrics.RecordTaskTransition(string(t.Status), string(target))

	s.logger.Info("Task status changed",
		zap.Int("task_id", taskID),
		zap.String("from", string(t.Status)),
		zap.String("to", string(target)),
		zap.Int("actor_id", actorID),
	)

	s.afterTaskChange(ctx, t.ProjectID, t.ParentID)

	if t.AssignedTo != actorID {
		if err := s.notifier.Notify(ctx, t.AssignedTo, model.NotificationKindTaskStatus,
			fmt.Sprintf("Task %q moved to %s", t.Title, target), t.ProjectID, taskID); err != nil {
			s.logger.Warn("Status notification failed",
				zap.Int("task_id", taskID),
				zap.Error(err),
			)
		}
	}

	return s.tasks.GetByID(ctx, taskID)
}

// Delete removes a task and its descendants. Manager-only; the workflow does
// not gate deletion.
func (s *TaskService) Delete(ctx context.Context, taskID, actorID int) error {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	project, err := s.projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		return err
	}
	if !IsProjectManager(actorID, project) {
		return fmt.Errorf("only project managers delete tasks: %w", model.ErrForbidden)
	}

	if err := s.tasks.DeleteCascade(ctx, taskID); err != nil {
		return err
	}

	s.afterTaskChange(ctx, t.ProjectID, t.ParentID)
	return nil
}

func (s *TaskService) Activity(ctx context.Context, taskID int) ([]model.TaskActivity, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.tasks.ListActivity(ctx, taskID)
}

// authorizeActor allows the task's assignee and the project's managers.
func (s *TaskService) authorizeActor(ctx context.Context, t *model.Task, actorID int) error {
	if actorID == t.AssignedTo {
		return nil
	}
	project, err := s.projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		return err
	}
	if IsProjectManager(actorID, project) {
		return nil
	}
	return fmt.Errorf("user %d is neither assignee nor manager of task %d: %w",
		actorID, t.ID, model.ErrForbidden)
}

// afterTaskChange runs the post-commit fix-ups: parent status propagation
// and project progress refresh. Both are idempotent, so a failure here is
// recoverable: the next read or write recomputes the same values. Errors
// are logged, never surfaced.
func (s *TaskService) afterTaskChange(ctx context.Context, projectID int, parentID *int) {
	if parentID != nil {
		if err := s.recomputeParentStatus(ctx, *parentID); err != nil {
			s.logger.Warn("Parent status propagation failed",
				zap.Int("parent_id", *parentID),
				zap.Error(err),
			)
		}
	}
	if _, err := s.progress.RefreshProgress(ctx, projectID); err != nil {
		s.logger.Warn("Progress refresh failed",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
	}
}

// computeParentStatus derives a parent's status from its children's.
// Blocked children signal stalled-but-active work: the parent reads blocked
// only when every child is blocked, and completed only when nothing is
// blocked and all remaining children are finished.
func computeParentStatus(children []model.TaskStatus) model.TaskStatus {
	blocked := 0
	nonBlocked := make([]model.TaskStatus, 0, len(children))
	for _, cs := range children {
		if cs == model.TaskStatusBlocked {
			blocked++
		} else {
			nonBlocked = append(nonBlocked, cs)
		}
	}
	if len(nonBlocked) == 0 {
		return model.TaskStatusBlocked
	}

	allCancelled := true
	allFinished := true // completed or cancelled
	anyActive := false  // in_progress or submitted
	for _, cs := range nonBlocked {
		if cs != model.TaskStatusCancelled {
			allCancelled = false
		}
		if cs != model.TaskStatusCompleted && cs != model.TaskStatusCancelled {
			allFinished = false
		}
		if cs == model.TaskStatusInProgress || cs == model.TaskStatusSubmitted {
			anyActive = true
		}
	}

	switch {
	case allCancelled:
		return model.TaskStatusCancelled
	case allFinished && blocked == 0:
		return model.TaskStatusCompleted
	case anyActive || blocked > 0:
		return model.TaskStatusInProgress
	default:
		return model.TaskStatusPending
	}
}

// recomputeParentStatus recomputes parentID's status from its direct
// children and recurses upward while the computed value keeps changing.
// Recursion stops on the first unchanged level, so reruns write nothing.
func (s *TaskService) recomputeParentStatus(ctx context.Context, parentID int) error {
	statuses, err := s.tasks.ChildStatuses(ctx, parentID)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		// childless: nothing to propagate from
		return nil
	}

	desired := computeParentStatus(statuses)

	parent, err := s.tasks.GetByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent.Status == desired {
		return nil
	}

	if err := s.tasks.SetStatus(ctx, parentID, desired); err != nil {
		return err
	}

	s.logger.Debug("Parent status propagated",
		zap.Int("task_id", parentID),
		zap.String("from", string(parent.Status)),
		zap.String("to", string(desired)),
	)

	if parent.ParentID != nil {
		return s.recomputeParentStatus(ctx, *parent.ParentID)
	}
	return nil
}
