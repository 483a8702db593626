// Package hook defines the lifecycle hook system for quiver.
// Hooks are notified of queue events (task submitted, completed, failed,
// queue idle, etc.) and can react to them: logging, metrics, streaming.
//
// Each lifecycle event is a separate interface so hooks opt in only to
// the events they care about.
package hook

import (
	"context"
	"time"

	"github.com/quivertask/quiver/task"
)

// Hook is the base interface all hooks must implement.
type Hook interface {
	// Name returns a unique human-readable name for the hook.
	Name() string
}

// TaskSubmitted is called after a task is inserted into the pending queue.
type TaskSubmitted interface {
	OnTaskSubmitted(ctx context.Context, t *task.Task) error
}

// TaskStarted is called when a task's work function begins executing.
type TaskStarted interface {
	OnTaskStarted(ctx context.Context, t *task.Task) error
}

// TaskCompleted is called after a task finishes successfully.
type TaskCompleted interface {
	OnTaskCompleted(ctx context.Context, t *task.Task, elapsed time.Duration) error
}

// TaskFailed is called when a task's work function returns an error.
type TaskFailed interface {
	OnTaskFailed(ctx context.Context, t *task.Task, err error) error
}

// TaskDiscarded is called when a pending task is removed by Clear.
type TaskDiscarded interface {
	OnTaskDiscarded(ctx context.Context, t *task.Task) error
}

// QueueIdle is called on every idle transition, when the last running
// task settles with nothing pending.
type QueueIdle interface {
	OnQueueIdle(ctx context.Context) error
}

// QueuePaused is called when Pause stops new task starts.
type QueuePaused interface {
	OnQueuePaused(ctx context.Context) error
}

// QueueResumed is called when Start clears the paused state.
type QueueResumed interface {
	OnQueueResumed(ctx context.Context) error
}
