package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quivertask/quiver/hook"
	"github.com/quivertask/quiver/id"
	"github.com/quivertask/quiver/task"
)

// Compile-time interface checks.
var (
	_ hook.Hook          = (*Broker)(nil)
	_ hook.TaskSubmitted = (*Broker)(nil)
	_ hook.TaskStarted   = (*Broker)(nil)
	_ hook.TaskCompleted = (*Broker)(nil)
	_ hook.TaskFailed    = (*Broker)(nil)
	_ hook.TaskDiscarded = (*Broker)(nil)
	_ hook.QueueIdle     = (*Broker)(nil)
	_ hook.QueuePaused   = (*Broker)(nil)
	_ hook.QueueResumed  = (*Broker)(nil)
)

// DefaultBufferSize is the default per-subscriber event buffer.
const DefaultBufferSize = 256

// DefaultCredits is the default initial credits for new subscribers.
const DefaultCredits int64 = 1000

// Broker fans queue lifecycle events out to subscribers via topic-based
// pub/sub. Register it on the queue's hook registry to activate it.
type Broker struct {
	topics *TopicRegistry
	logger *slog.Logger

	// Subscriber management, keyed by SubscriberID string form.
	subscribers sync.Map

	// Metrics.
	totalPublished atomic.Int64

	// Config.
	bufferSize     int
	defaultCredits int64
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithBufferSize sets the per-subscriber event buffer size.
func WithBufferSize(size int) BrokerOption {
	return func(b *Broker) { b.bufferSize = size }
}

// WithDefaultCredits sets the initial credits for new subscribers.
func WithDefaultCredits(credits int64) BrokerOption {
	return func(b *Broker) { b.defaultCredits = credits }
}

// NewBroker creates a stream broker.
func NewBroker(logger *slog.Logger, opts ...BrokerOption) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broker{
		topics:         NewTopicRegistry(),
		logger:         logger,
		bufferSize:     DefaultBufferSize,
		defaultCredits: DefaultCredits,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements hook.Hook.
func (b *Broker) Name() string { return "stream-broker" }

// Topics returns the topic registry for external inspection.
func (b *Broker) Topics() *TopicRegistry { return b.topics }

// Subscribe creates a new subscriber on the given topics. The subscriber
// ID is generated; read it back with Subscriber.ID.
func (b *Broker) Subscribe(topics ...string) *Subscriber {
	return b.SubscribeFiltered(nil, topics...)
}

// SubscribeFiltered is Subscribe with a per-subscriber event filter.
// Events the filter rejects are skipped for this subscriber without
// consuming credits.
func (b *Broker) SubscribeFiltered(filter func(*Event) bool, topics ...string) *Subscriber {
	sub := newSubscriber(id.NewSubscriberID(), b.bufferSize, b.defaultCredits, filter)
	b.subscribers.Store(sub.ID().String(), sub)
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
	return sub
}

// SubscribeTo adds an existing subscriber to additional topics.
func (b *Broker) SubscribeTo(sid id.SubscriberID, topics ...string) {
	val, ok := b.subscribers.Load(sid.String())
	if !ok {
		return
	}
	sub := val.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
}

// Unsubscribe removes a subscriber from specific topics.
func (b *Broker) Unsubscribe(sid id.SubscriberID, topics ...string) {
	for _, topic := range topics {
		b.topics.Unsubscribe(topic, sid)
	}
}

// RemoveSubscriber removes a subscriber from all topics and closes it.
func (b *Broker) RemoveSubscriber(sid id.SubscriberID) {
	b.topics.UnsubscribeAll(sid)
	if val, ok := b.subscribers.LoadAndDelete(sid.String()); ok {
		val.(*Subscriber).Close() //nolint:errcheck // sync.Map always stores *Subscriber
	}
}

// Stats returns broker statistics.
func (b *Broker) Stats() BrokerStats {
	count := 0
	b.subscribers.Range(func(_, _ any) bool {
		count++
		return true
	})
	return BrokerStats{
		TopicCount:      b.topics.TopicCount(),
		SubscriberCount: count,
		TotalPublished:  b.totalPublished.Load(),
	}
}

// BrokerStats contains broker metrics.
type BrokerStats struct {
	TopicCount      int   `json:"topic_count"`
	SubscriberCount int   `json:"subscriber_count"`
	TotalPublished  int64 `json:"total_published"`
}

// Close removes and closes every subscriber.
func (b *Broker) Close() {
	b.subscribers.Range(func(key, value any) bool {
		sub := value.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
		b.topics.UnsubscribeAll(sub.ID())
		sub.Close()
		b.subscribers.Delete(key)
		return true
	})
}

// publish creates an event and broadcasts it to all matching topics.
func (b *Broker) publish(evt *Event) {
	topics := resolveTopics(evt)
	delivered := b.topics.Broadcast(topics, evt)
	b.totalPublished.Add(int64(delivered))
}

// mustMarshal marshals data to JSON, panicking on error (programming error).
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("stream: marshal event data: " + err.Error())
	}
	return data
}

func taskData(t *task.Task) TaskEventData {
	return TaskEventData{
		TaskID:   t.ID.String(),
		TaskName: t.Name,
		Priority: t.Priority,
		State:    string(t.State),
	}
}

// ── Task lifecycle hooks ────────────────────────────

func (b *Broker) OnTaskSubmitted(_ context.Context, t *task.Task) error {
	b.publish(&Event{
		Type:      EventTaskSubmitted,
		Timestamp: time.Now().UTC(),
		Topic:     TaskTopic(t.ID.String()),
		Data:      mustMarshal(taskData(t)),
	})
	return nil
}

func (b *Broker) OnTaskStarted(_ context.Context, t *task.Task) error {
	b.publish(&Event{
		Type:      EventTaskStarted,
		Timestamp: time.Now().UTC(),
		Topic:     TaskTopic(t.ID.String()),
		Data:      mustMarshal(taskData(t)),
	})
	return nil
}

func (b *Broker) OnTaskCompleted(_ context.Context, t *task.Task, elapsed time.Duration) error {
	data := taskData(t)
	data.ElapsedMs = elapsed.Milliseconds()
	b.publish(&Event{
		Type:      EventTaskCompleted,
		Timestamp: time.Now().UTC(),
		Topic:     TaskTopic(t.ID.String()),
		Data:      mustMarshal(data),
	})
	return nil
}

func (b *Broker) OnTaskFailed(_ context.Context, t *task.Task, taskErr error) error {
	data := taskData(t)
	data.Error = taskErr.Error()
	b.publish(&Event{
		Type:      EventTaskFailed,
		Timestamp: time.Now().UTC(),
		Topic:     TaskTopic(t.ID.String()),
		Data:      mustMarshal(data),
	})
	return nil
}

func (b *Broker) OnTaskDiscarded(_ context.Context, t *task.Task) error {
	b.publish(&Event{
		Type:      EventTaskDiscarded,
		Timestamp: time.Now().UTC(),
		Topic:     TaskTopic(t.ID.String()),
		Data:      mustMarshal(taskData(t)),
	})
	return nil
}

// ── Queue lifecycle hooks ───────────────────────────

func (b *Broker) OnQueueIdle(_ context.Context) error {
	b.publish(&Event{Type: EventQueueIdle, Timestamp: time.Now().UTC()})
	return nil
}

func (b *Broker) OnQueuePaused(_ context.Context) error {
	b.publish(&Event{Type: EventQueuePaused, Timestamp: time.Now().UTC()})
	return nil
}

func (b *Broker) OnQueueResumed(_ context.Context) error {
	b.publish(&Event{Type: EventQueueResumed, Timestamp: time.Now().UTC()})
	return nil
}
