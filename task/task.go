// Package task defines the task entity and its lifecycle state machine.
//
// A Task is the queue's record of one submitted unit of work: identity,
// priority, lifecycle state, and timestamps. The work function itself is
// held by the queue, not by the Task, so a Task is safe to hand to hooks
// and stream subscribers.
package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/quivertask/quiver/id"
)

// ErrBadTransition is returned when a lifecycle transition is not allowed.
var ErrBadTransition = errors.New("task: invalid state transition")

// State represents the lifecycle state of a task.
type State string

const (
	// StatePending means the task is queued and waiting for a free slot.
	StatePending State = "pending"
	// StateRunning means the task's work function is executing.
	StateRunning State = "running"
	// StateCompleted means the task finished successfully.
	StateCompleted State = "completed"
	// StateFailed means the task's work function returned an error.
	StateFailed State = "failed"
	// StateDiscarded means the task was removed by Clear before it ran.
	StateDiscarded State = "discarded"
)

// transitions is the closed set of legal state changes. Terminal states
// have no outgoing edges.
var transitions = map[State][]State{
	StatePending: {StateRunning, StateDiscarded},
	StateRunning: {StateCompleted, StateFailed},
}

// Task is the queue-visible record of one submitted unit of work.
type Task struct {
	ID          id.TaskID     `json:"id"`
	Name        string        `json:"name,omitempty"`
	Priority    int           `json:"priority"`
	State       State         `json:"state"`
	LastError   string        `json:"last_error,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	SettledAt   *time.Time    `json:"settled_at,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// New creates a pending task with a fresh ID and the given submit options
// applied.
func New(opts ...SubmitOption) *Task {
	t := &Task{
		ID:          id.NewTaskID(),
		State:       StatePending,
		SubmittedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transition moves the task to the given state, recording the relevant
// timestamp. It returns ErrBadTransition if the change is not in the
// lifecycle graph.
func (t *Task) Transition(to State) error {
	for _, allowed := range transitions[t.State] {
		if allowed != to {
			continue
		}

		now := time.Now().UTC()
		switch to {
		case StateRunning:
			t.StartedAt = &now
		case StateCompleted, StateFailed, StateDiscarded:
			t.SettledAt = &now
		}
		t.State = to
		return nil
	}

	return fmt.Errorf("%w: %s -> %s", ErrBadTransition, t.State, to)
}

// Settled reports whether the task is in a terminal state.
func (t *Task) Settled() bool {
	switch t.State {
	case StateCompleted, StateFailed, StateDiscarded:
		return true
	default:
		return false
	}
}
