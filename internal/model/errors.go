package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// InvalidTransitionError reports a status-change request whose edge does not
// exist in the task workflow.
type InvalidTransitionError struct {
	From TaskStatus
	To   TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s in this order", e.From, e.To)
}

// CompletionBlockedError reports an attempt to complete a task while direct
// children are still unfinished.
type CompletionBlockedError struct {
	Count    int
	Statuses []TaskStatus
}

func (e *CompletionBlockedError) Error() string {
	return fmt.Sprintf("cannot complete: %d unfinished child task(s) %v", e.Count, e.Statuses)
}
