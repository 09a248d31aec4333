package engine

import (
	"context"
	"fmt"
	"strings"
)

const (
	DefaultLockDuration = 60000 // Default lock duration in milliseconds.
	DefaultMaxTasks     = 1     // Default number of tasks, fetched and locked at once.
)

// An Engine hands out external tasks under a time-boxed lock (lease) and accepts their outcome.
//
// Process state, scheduling, retries and correlation are owned by the engine. A worker only holds
// a transient lease on a task, identified by the worker ID that fetched and locked it.
type Engine interface {
	// Complete completes a task, locked by the given worker, and passes output variables to the engine.
	Complete(context.Context, CompleteCmd) error

	// ExtendLock extends the lock of a task, locked by the given worker.
	ExtendLock(context.Context, ExtendLockCmd) error

	// FetchAndLock fetches and locks up to max tasks of the requested topics.
	//
	// If no task is available and an async response timeout is set, the call waits until a task
	// becomes available or the timeout elapses (long polling).
	FetchAndLock(context.Context, FetchAndLockCmd) ([]Task, error)

	// HandleBpmnError reports a business error, which can be caught by an error boundary event.
	HandleBpmnError(context.Context, BpmnErrorCmd) error

	// HandleFailure reports a technical failure. The engine retries the task until the retries are
	// exhausted, then it creates an incident.
	HandleFailure(context.Context, FailureCmd) error

	// Unlock releases the lock of a task, making it available for other workers.
	Unlock(context.Context, UnlockCmd) error

	// Shutdown shuts the engine down.
	Shutdown()
}

// A TaskCreator creates external tasks without a process. It is provided by engines, used for
// testing and demonstration.
type TaskCreator interface {
	CreateTask(context.Context, CreateTaskCmd) (Task, error)
}

// A TaskQuery queries external tasks.
type TaskQuery interface {
	QueryTasks(context.Context, TaskCriteria) ([]Task, error)
}

type Error struct {
	Type   ErrorType
	Title  string
	Detail string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Title, e.Detail)
}

type ErrorType int

const (
	ErrorBug ErrorType = iota + 1
	ErrorConflict
	ErrorNotFound
	ErrorValidation
)

func MapErrorType(s string) ErrorType {
	switch strings.ToUpper(s) {
	case "BUG":
		return ErrorBug
	case "CONFLICT":
		return ErrorConflict
	case "NOT_FOUND":
		return ErrorNotFound
	case "VALIDATION":
		return ErrorValidation
	default:
		return 0
	}
}

func (v ErrorType) String() string {
	switch v {
	case ErrorBug:
		return "BUG"
	case ErrorConflict:
		return "CONFLICT"
	case ErrorNotFound:
		return "NOT_FOUND"
	case ErrorValidation:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}
