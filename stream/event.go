// Package stream provides an in-process event broker for queue lifecycle
// events. It bridges the hook system to observers via topic-based pub/sub,
// so callers can watch a single task, all tasks, or the queue as a whole
// without registering their own hooks.
package stream

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Task events.
	EventTaskSubmitted EventType = "task.submitted"
	EventTaskStarted   EventType = "task.started"
	EventTaskCompleted EventType = "task.completed"
	EventTaskFailed    EventType = "task.failed"
	EventTaskDiscarded EventType = "task.discarded"

	// Queue events.
	EventQueueIdle    EventType = "queue.idle"
	EventQueuePaused  EventType = "queue.paused"
	EventQueueResumed EventType = "queue.resumed"
)

// Event is the envelope sent to subscribers on a topic channel.
type Event struct {
	// Type identifies the lifecycle event.
	Type EventType `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"ts"`

	// Topic is the entity-specific channel this event belongs to, if any.
	Topic string `json:"topic,omitempty"`

	// Data is the event-specific payload.
	Data json.RawMessage `json:"data,omitempty"`
}

// TaskEventData is the payload for task lifecycle events.
type TaskEventData struct {
	TaskID    string `json:"task_id"`
	TaskName  string `json:"task_name,omitempty"`
	Priority  int    `json:"priority"`
	State     string `json:"state"`
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}
