package stream

import (
	"sync"
	"sync/atomic"

	"github.com/quivertask/quiver/id"
)

// Subscriber is one consumer of the broker's event stream. Events arrive
// on a buffered inbox channel. Delivery is lossy by design: when the
// subscriber is out of credits or its inbox is full, the event is counted
// as dropped and the publisher moves on without blocking.
type Subscriber struct {
	sid   id.SubscriberID
	inbox chan *Event

	// filter, when non-nil, selects which events this subscriber wants.
	// Fixed at subscribe time, read-only afterwards.
	filter func(*Event) bool

	// credits is how many more events this subscriber may receive before
	// the consumer replenishes with AddCredits.
	credits atomic.Int64
	dropped atomic.Int64

	mu     sync.RWMutex
	topics map[string]struct{}

	closed atomic.Bool
}

// newSubscriber is called by the broker; subscribers are not created
// directly.
func newSubscriber(sid id.SubscriberID, bufferSize int, credits int64, filter func(*Event) bool) *Subscriber {
	s := &Subscriber{
		sid:    sid,
		inbox:  make(chan *Event, bufferSize),
		filter: filter,
		topics: make(map[string]struct{}),
	}
	s.credits.Store(credits)
	return s
}

// ID returns the subscriber's identity.
func (s *Subscriber) ID() id.SubscriberID { return s.sid }

// C returns the read-only event inbox.
func (s *Subscriber) C() <-chan *Event { return s.inbox }

// AddCredits grants the subscriber capacity for n more events.
func (s *Subscriber) AddCredits(n int64) { s.credits.Add(n) }

// Credits returns the remaining event credits.
func (s *Subscriber) Credits() int64 { return s.credits.Load() }

// Dropped returns how many events were lost to credit exhaustion or a
// full inbox.
func (s *Subscriber) Dropped() int64 { return s.dropped.Load() }

func (s *Subscriber) addTopic(topic string) {
	s.mu.Lock()
	s.topics[topic] = struct{}{}
	s.mu.Unlock()
}

func (s *Subscriber) removeTopic(topic string) {
	s.mu.Lock()
	delete(s.topics, topic)
	s.mu.Unlock()
}

// Topics returns a copy of the subscribed topic names.
func (s *Subscriber) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	return out
}

// deliver hands an event to the subscriber without ever blocking the
// publisher. Filtered-out events are not charged against credits and do
// not count as drops; an event the subscriber wanted but could not take
// does.
func (s *Subscriber) deliver(evt *Event) bool {
	if s.closed.Load() {
		return false
	}
	if s.filter != nil && !s.filter(evt) {
		return false
	}
	if !s.takeCredit() {
		s.dropped.Add(1)
		return false
	}

	select {
	case s.inbox <- evt:
		return true
	default:
		// Inbox full: give the credit back, count the loss.
		s.credits.Add(1)
		s.dropped.Add(1)
		return false
	}
}

func (s *Subscriber) takeCredit() bool {
	for {
		n := s.credits.Load()
		if n <= 0 {
			return false
		}
		if s.credits.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// Close closes the inbox. Safe to call multiple times.
func (s *Subscriber) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.inbox)
	}
}
