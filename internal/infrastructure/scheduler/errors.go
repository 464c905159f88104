package scheduler

import "errors"

var (
	// ErrInvalidTask is returned when a task has no name
	ErrInvalidTask = errors.New("invalid task")

	// ErrUnknownTask is returned when no handler is registered for a task
	ErrUnknownTask = errors.New("no handler registered for task")
)
