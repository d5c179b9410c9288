package stream

import (
	"sync"
	"sync/atomic"
)

// Subscriber is one consumer of change events. Delivery is credit
// metered: every delivered event spends one credit, and a subscriber
// with no credits left is skipped rather than blocked on. Whatever
// drains C() tops credits back up as it keeps pace, so a stalled
// consumer can never wedge the store's notification path.
type Subscriber struct {
	id  string
	out chan *Event

	// credits is the number of events this subscriber may still
	// receive before the consumer grants more.
	credits atomic.Int64

	// dropped counts events this subscriber missed, whether from an
	// empty credit balance, a full buffer, or a filter mismatch.
	dropped atomic.Int64

	mu     sync.RWMutex
	topics map[string]struct{}
	accept func(*Event) bool

	closed atomic.Bool
}

// NewSubscriber returns a subscriber whose channel buffers bufferSize
// events and that starts with initialCredits to spend.
func NewSubscriber(id string, bufferSize int, initialCredits int64) *Subscriber {
	s := &Subscriber{
		id:     id,
		out:    make(chan *Event, bufferSize),
		topics: make(map[string]struct{}),
	}
	s.credits.Store(initialCredits)
	return s
}

// ID returns the subscriber identifier.
func (s *Subscriber) ID() string { return s.id }

// C returns the channel events arrive on. It is closed when the
// subscriber is removed from the broker.
func (s *Subscriber) C() <-chan *Event { return s.out }

// AddCredits grants the subscriber n more deliveries.
func (s *Subscriber) AddCredits(n int64) { s.credits.Add(n) }

// Credits reports the remaining credit balance.
func (s *Subscriber) Credits() int64 { return s.credits.Load() }

// Dropped reports how many events this subscriber has missed.
func (s *Subscriber) Dropped() int64 { return s.dropped.Load() }

// SetFilter installs a predicate; events it rejects are not delivered.
func (s *Subscriber) SetFilter(fn func(*Event) bool) {
	s.mu.Lock()
	s.accept = fn
	s.mu.Unlock()
}

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

// Topics returns the names of every topic this subscriber is on.
func (s *Subscriber) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	return out
}

// send offers evt to the subscriber and reports whether it was taken.
// It never blocks.
func (s *Subscriber) send(evt *Event) bool {
	if s.closed.Load() {
		return false
	}

	s.mu.RLock()
	accept := s.accept
	s.mu.RUnlock()
	if accept != nil && !accept(evt) {
		s.dropped.Add(1)
		return false
	}

	// Spend one credit, or drop if the balance is empty.
	for {
		cur := s.credits.Load()
		if cur <= 0 {
			s.dropped.Add(1)
			return false
		}
		if s.credits.CompareAndSwap(cur, cur-1) {
			break
		}
	}

	select {
	case s.out <- evt:
		return true
	default:
		// Buffer full. The consumer never saw the event, so hand
		// the credit back.
		s.credits.Add(1)
		s.dropped.Add(1)
		return false
	}
}

// Close closes the event channel. Safe to call more than once.
func (s *Subscriber) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.out)
	}
}
