package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"siteops/internal/model"
	"siteops/pkg/metrics"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `
	t.id, t.project_id, t.parent_id, t.title, t.description, t.priority,
	t.status, t.due_date, t.assigned_to, COALESCE(a.name, ''),
	t.created_by, COALESCE(c.name, ''), t.created_at, t.updated_at
`

const taskJoins = `
	LEFT JOIN users a ON a.id = t.assigned_to
	LEFT JOIN users c ON c.id = t.created_by
`

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.ParentID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.DueDate,
		&t.AssignedTo,
		&t.AssigneeName,
		&t.CreatedBy,
		&t.CreatorName,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int) (*model.Task, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "tasks", time.Since(start)) }()

	query := `SELECT ` + taskColumns + ` FROM tasks t ` + taskJoins + ` WHERE t.id = $1`

	t, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("task %d: %w", id, model.ErrNotFound)
		}
		r.logger.Error("Failed to get task", zap.Error(err), zap.Int("task_id", id))
		return nil, err
	}
	return t, nil
}

// ListByProject returns the project's tasks as flat rows ordered by creation
// time. Tree assembly happens in BuildTaskTree.
func (r *TaskRepository) ListByProject(ctx context.Context, projectID int) ([]model.Task, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "tasks", time.Since(start)) }()

	r.logger.Debug("Listing tasks for project", zap.Int("project_id", projectID))
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t ` + taskJoins + `
		WHERE t.project_id = $1
		ORDER BY t.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to query tasks",
			zap.Error(err),
			zap.Int("project_id", projectID),
		)
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task row",
				zap.Error(err),
				zap.Int("project_id", projectID),
			)
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ChildStatuses returns the statuses of a task's direct children.
func (r *TaskRepository) ChildStatuses(ctx context.Context, parentID int) ([]model.TaskStatus, error) {
	query := `SELECT status FROM tasks WHERE parent_id = $1`

	rows, err := r.db.Query(ctx, query, parentID)
	if err != nil {
		r.logger.Error("Failed to query child statuses",
			zap.Error(err),
			zap.Int("parent_id", parentID),
		)
		return nil, err
	}
	defer rows.Close()

	statuses := []model.TaskStatus{}
	for rows.Next() {
		var s model.TaskStatus
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// CreateWithActivity inserts the task and its "created" activity row in one
// transaction: a task never exists without its audit trail.
func (r *TaskRepository) CreateWithActivity(ctx context.Context, t *model.Task, actorID int) (int, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("insert", "tasks", time.Since(start)) }()

	r.logger.Debug("Inserting task",
		zap.Int("project_id", t.ProjectID),
		zap.String("title", t.Title),
		zap.Int("assigned_to", t.AssignedTo),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO tasks (project_id, parent_id, title, description, priority,
		                   status, due_date, assigned_to, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		t.ProjectID,
		t.ParentID,
		t.Title,
		t.Description,
		t.Priority,
		t.Status,
		t.DueDate,
		t.AssignedTo,
		t.CreatedBy,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.Int("project_id", t.ProjectID),
		)
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO task_activities (task_id, action, note, user_id)
		VALUES ($1, $2, $3, $4)
	`, id, model.ActivityActionCreated, "task created", actorID)
	if err != nil {
		r.logger.Error("Failed to insert task activity",
			zap.Error(err),
			zap.Int("task_id", id),
		)
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Task inserted successfully",
		zap.Int("task_id", id),
		zap.Int("project_id", t.ProjectID),
	)
	return id, nil
}

// UpdateStatusWithActivity updates the task status and appends the
// status_change activity row atomically.
func (r *TaskRepository) UpdateStatusWithActivity(ctx context.Context, taskID int, status model.TaskStatus, note string, actorID int) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("update", "tasks", time.Since(start)) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, taskID)
	if err != nil {
		r.logger.Error("Failed to update task status",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %d: %w", taskID, model.ErrNotFound)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO task_activities (task_id, action, note, user_id)
		VALUES ($1, $2, $3, $4)
	`, taskID, model.ActivityActionStatusChange, note, actorID)
	if err != nil {
		r.logger.Error("Failed to insert status activity",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Task status updated",
		zap.Int("task_id", taskID),
		zap.String("status", string(status)),
	)
	return nil
}

// SetStatus writes the status column only. Used by parent propagation, which
// is a derived fix-up rather than a user transition.
func (r *TaskRepository) SetStatus(ctx context.Context, taskID int, status model.TaskStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, taskID)
	if err != nil {
		r.logger.Error("Failed to set task status",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
	}
	return err
}

// UpdateFields persists metadata edits; status is never touched here.
func (r *TaskRepository) UpdateFields(ctx context.Context, t *model.Task) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("update", "tasks", time.Since(start)) }()

	tag, err := r.db.Exec(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, priority = $3, due_date = $4,
		    assigned_to = $5, updated_at = NOW()
		WHERE id = $6
	`,
		t.Title,
		t.Description,
		t.Priority,
		t.DueDate,
		t.AssignedTo,
		t.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update task", zap.Error(err), zap.Int("task_id", t.ID))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %d: %w", t.ID, model.ErrNotFound)
	}
	return nil
}

// DeleteCascade removes a task and all of its descendants, with their
// activity rows. The subtree is resolved with a recursive CTE so arbitrary
// nesting depth is covered in one statement.
func (r *TaskRepository) DeleteCascade(ctx context.Context, taskID int) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("delete", "tasks", time.Since(start)) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM tasks WHERE id = $1
			UNION ALL
			SELECT t.id FROM tasks t JOIN subtree s ON t.parent_id = s.id
		)
		DELETE FROM task_activities WHERE task_id IN (SELECT id FROM subtree)
	`, taskID)
	if err != nil {
		r.logger.Error("Failed to delete task activities",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
		return err
	}

	tag, err := tx.Exec(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM tasks WHERE id = $1
			UNION ALL
			SELECT t.id FROM tasks t JOIN subtree s ON t.parent_id = s.id
		)
		DELETE FROM tasks WHERE id IN (SELECT id FROM subtree)
	`, taskID)
	if err != nil {
		r.logger.Error("Failed to delete task subtree",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %d: %w", taskID, model.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Task subtree deleted",
		zap.Int("task_id", taskID),
		zap.Int64("rows_deleted", tag.RowsAffected()),
	)
	return nil
}

func (r *TaskRepository) ListActivity(ctx context.Context, taskID int) ([]model.TaskActivity, error) {
	query := `
		SELECT id, task_id, action, note, user_id, created_at
		FROM task_activities
		WHERE task_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		r.logger.Error("Failed to query task activity",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
		return nil, err
	}
	defer rows.Close()

	activities := []model.TaskActivity{}
	for rows.Next() {
		var a model.TaskActivity
		if err := rows.Scan(&a.ID, &a.TaskID, &a.Action, &a.Note, &a.UserID, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
