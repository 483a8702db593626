package task

import "time"

// SubmitOption configures a task at submission time.
type SubmitOption func(*Task)

// WithPriority sets the task's priority. Higher values are dequeued
// sooner; the default is 0. Tasks of equal priority start in submission
// order.
func WithPriority(p int) SubmitOption {
	return func(t *Task) { t.Priority = p }
}

// WithName attaches a human-readable label used in logs, spans, and
// stream events.
func WithName(name string) SubmitOption {
	return func(t *Task) { t.Name = name }
}

// WithTimeout sets a per-task execution deadline, enforced by
// middleware.Timeout when the queue's middleware chain includes it.
func WithTimeout(d time.Duration) SubmitOption {
	return func(t *Task) { t.Timeout = d }
}
