package model

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusSubmitted  TaskStatus = "submitted"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

func ValidTaskStatus(s string) bool {
	switch TaskStatus(s) {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusSubmitted,
		TaskStatusCompleted, TaskStatusBlocked, TaskStatusCancelled:
		return true
	}
	return false
}

// taskTransitions is the directed edge set of the task workflow. completed
// and cancelled are terminal.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:    {TaskStatusInProgress, TaskStatusBlocked, TaskStatusCancelled},
	TaskStatusInProgress: {TaskStatusSubmitted, TaskStatusBlocked, TaskStatusCancelled},
	TaskStatusSubmitted:  {TaskStatusCompleted, TaskStatusBlocked, TaskStatusCancelled},
	TaskStatusBlocked:    {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusCompleted:  {},
	TaskStatusCancelled:  {},
}

// CanTransitionTo reports whether the edge s -> to exists in the workflow.
func (s TaskStatus) CanTransitionTo(to TaskStatus) bool {
	for _, next := range taskTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no edges leave s.
func (s TaskStatus) IsTerminal() bool {
	return len(taskTransitions[s]) == 0
}

const (
	TaskPriorityLow    = "low"
	TaskPriorityNormal = "normal"
	TaskPriorityHigh   = "high"
)

func ValidTaskPriority(p string) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityNormal, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID           int        `json:"id"`
	ProjectID    int        `json:"project_id"`
	ParentID     *int       `json:"parent_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Priority     string     `json:"priority"`
	Status       TaskStatus `json:"status"`
	DueDate      *time.Time `json:"due_date"`
	AssignedTo   int        `json:"assigned_to"`
	AssigneeName string     `json:"assignee_name,omitempty"`
	CreatedBy    int        `json:"created_by"`
	CreatorName  string     `json:"creator_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	// Children is populated only by the tree view; it is a per-request
	// structure, never persisted.
	Children []*Task `json:"children,omitempty"`
}

const (
	ActivityActionCreated      = "created"
	ActivityActionStatusChange = "status_change"
)

// TaskActivity is an append-only audit entry. Rows are written in the same
// transaction as the task mutation they describe.
type TaskActivity struct {
	ID        int       `json:"id"`
	TaskID    int       `json:"task_id"`
	Action    string    `json:"action"`
	Note      string    `json:"note"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
