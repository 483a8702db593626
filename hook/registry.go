package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/quivertask/quiver/task"
)

// Named entry types pair a hook implementation with the hook name captured
// at registration time. This avoids type-asserting back to Hook inside the
// emit methods.
type taskSubmittedEntry struct {
	name string
	hook TaskSubmitted
}

type taskStartedEntry struct {
	name string
	hook TaskStarted
}

type taskCompletedEntry struct {
	name string
	hook TaskCompleted
}

type taskFailedEntry struct {
	name string
	hook TaskFailed
}

type taskDiscardedEntry struct {
	name string
	hook TaskDiscarded
}

type queueIdleEntry struct {
	name string
	hook QueueIdle
}

type queuePausedEntry struct {
	name string
	hook QueuePaused
}

type queueResumedEntry struct {
	name string
	hook QueueResumed
}

// Registry holds registered hooks and dispatches lifecycle events to them.
// It type-caches hooks at registration time so emit calls iterate only
// over hooks that implement the relevant event interface.
type Registry struct {
	hooks  []Hook
	logger *slog.Logger

	taskSubmitted []taskSubmittedEntry
	taskStarted   []taskStartedEntry
	taskCompleted []taskCompletedEntry
	taskFailed    []taskFailedEntry
	taskDiscarded []taskDiscardedEntry
	queueIdle     []queueIdleEntry
	queuePaused   []queuePausedEntry
	queueResumed  []queueResumedEntry
}

// NewRegistry creates a hook registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a hook and type-asserts it into all applicable event
// caches. Hooks are notified in registration order.
func (r *Registry) Register(h Hook) {
	r.hooks = append(r.hooks, h)
	name := h.Name()

	if hk, ok := h.(TaskSubmitted); ok {
		r.taskSubmitted = append(r.taskSubmitted, taskSubmittedEntry{name, hk})
	}
	if hk, ok := h.(TaskStarted); ok {
		r.taskStarted = append(r.taskStarted, taskStartedEntry{name, hk})
	}
	if hk, ok := h.(TaskCompleted); ok {
		r.taskCompleted = append(r.taskCompleted, taskCompletedEntry{name, hk})
	}
	if hk, ok := h.(TaskFailed); ok {
		r.taskFailed = append(r.taskFailed, taskFailedEntry{name, hk})
	}
	if hk, ok := h.(TaskDiscarded); ok {
		r.taskDiscarded = append(r.taskDiscarded, taskDiscardedEntry{name, hk})
	}
	if hk, ok := h.(QueueIdle); ok {
		r.queueIdle = append(r.queueIdle, queueIdleEntry{name, hk})
	}
	if hk, ok := h.(QueuePaused); ok {
		r.queuePaused = append(r.queuePaused, queuePausedEntry{name, hk})
	}
	if hk, ok := h.(QueueResumed); ok {
		r.queueResumed = append(r.queueResumed, queueResumedEntry{name, hk})
	}
}

// Hooks returns all registered hooks.
func (r *Registry) Hooks() []Hook { return r.hooks }

// EmitTaskSubmitted notifies all hooks that implement TaskSubmitted.
func (r *Registry) EmitTaskSubmitted(ctx context.Context, t *task.Task) {
	for _, e := range r.taskSubmitted {
		if err := e.hook.OnTaskSubmitted(ctx, t); err != nil {
			r.logHookError("OnTaskSubmitted", e.name, err)
		}
	}
}

// EmitTaskStarted notifies all hooks that implement TaskStarted.
func (r *Registry) EmitTaskStarted(ctx context.Context, t *task.Task) {
	for _, e := range r.taskStarted {
		if err := e.hook.OnTaskStarted(ctx, t); err != nil {
			r.logHookError("OnTaskStarted", e.name, err)
		}
	}
}

// EmitTaskCompleted notifies all hooks that implement TaskCompleted.
func (r *Registry) EmitTaskCompleted(ctx context.Context, t *task.Task, elapsed time.Duration) {
	for _, e := range r.taskCompleted {
		if err := e.hook.OnTaskCompleted(ctx, t, elapsed); err != nil {
			r.logHookError("OnTaskCompleted", e.name, err)
		}
	}
}

// EmitTaskFailed notifies all hooks that implement TaskFailed.
func (r *Registry) EmitTaskFailed(ctx context.Context, t *task.Task, taskErr error) {
	for _, e := range r.taskFailed {
		if err := e.hook.OnTaskFailed(ctx, t, taskErr); err != nil {
			r.logHookError("OnTaskFailed", e.name, err)
		}
	}
}

// EmitTaskDiscarded notifies all hooks that implement TaskDiscarded.
func (r *Registry) EmitTaskDiscarded(ctx context.Context, t *task.Task) {
	for _, e := range r.taskDiscarded {
		if err := e.hook.OnTaskDiscarded(ctx, t); err != nil {
			r.logHookError("OnTaskDiscarded", e.name, err)
		}
	}
}

// EmitQueueIdle notifies all hooks that implement QueueIdle.
func (r *Registry) EmitQueueIdle(ctx context.Context) {
	for _, e := range r.queueIdle {
		if err := e.hook.OnQueueIdle(ctx); err != nil {
			r.logHookError("OnQueueIdle", e.name, err)
		}
	}
}

// EmitQueuePaused notifies all hooks that implement QueuePaused.
func (r *Registry) EmitQueuePaused(ctx context.Context) {
	for _, e := range r.queuePaused {
		if err := e.hook.OnQueuePaused(ctx); err != nil {
			r.logHookError("OnQueuePaused", e.name, err)
		}
	}
}

// EmitQueueResumed notifies all hooks that implement QueueResumed.
func (r *Registry) EmitQueueResumed(ctx context.Context) {
	for _, e := range r.queueResumed {
		if err := e.hook.OnQueueResumed(ctx); err != nil {
			r.logHookError("OnQueueResumed", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated; they must not block the queue.
func (r *Registry) logHookError(event, hookName string, err error) {
	r.logger.Warn("hook error",
		slog.String("event", event),
		slog.String("hook", hookName),
		slog.String("error", err.Error()),
	)
}
