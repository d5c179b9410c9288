package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
	"github.com/Tafakari-Ltd/kazibuddy-sync/store"
)

// Broker implements store.Notifier, so it can be wired straight into
// the entity store.
var _ store.Notifier = (*Broker)(nil)

// DefaultBufferSize is the default per-subscriber event buffer.
const DefaultBufferSize = 256

// DefaultCredits is the default initial credits for new subscribers.
const DefaultCredits int64 = 1000

// Broker fans store change notifications and pipeline operation events
// out to subscribers via topic-based pub/sub. Delivery is best-effort:
// a slow subscriber drops events rather than blocking the store.
type Broker struct {
	topics *TopicRegistry
	logger *slog.Logger

	// Subscriber management.
	subscribers sync.Map // subscriberID → *Subscriber

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

// NewBroker creates a new stream broker.
func NewBroker(logger *slog.Logger, opts ...BrokerOption) *Broker {
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

// Topics returns the topic registry for external use.
func (b *Broker) Topics() *TopicRegistry { return b.topics }

// Subscribe creates a new subscriber on the given topics.
func (b *Broker) Subscribe(subscriberID string, topics ...string) *Subscriber {
	sub := NewSubscriber(subscriberID, b.bufferSize, b.defaultCredits)
	b.subscribers.Store(subscriberID, sub)
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
	return sub
}

// SubscribeTo adds an existing subscriber to additional topics.
func (b *Broker) SubscribeTo(subscriberID string, topics ...string) {
	val, ok := b.subscribers.Load(subscriberID)
	if !ok {
		return
	}
	sub := val.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
}

// Unsubscribe removes a subscriber from specific topics.
func (b *Broker) Unsubscribe(subscriberID string, topics ...string) {
	for _, topic := range topics {
		b.topics.Unsubscribe(topic, subscriberID)
	}
}

// RemoveSubscriber removes a subscriber from all topics and closes it.
func (b *Broker) RemoveSubscriber(subscriberID string) {
	b.topics.UnsubscribeAll(subscriberID)
	if val, ok := b.subscribers.LoadAndDelete(subscriberID); ok {
		val.(*Subscriber).Close() //nolint:errcheck // sync.Map always stores *Subscriber
	}
}

// GetSubscriber returns a subscriber by ID.
func (b *Broker) GetSubscriber(subscriberID string) (*Subscriber, bool) {
	val, ok := b.subscribers.Load(subscriberID)
	if !ok {
		return nil, false
	}
	return val.(*Subscriber), true //nolint:errcheck // sync.Map always stores *Subscriber
}

// Stats returns broker statistics.
func (b *Broker) Stats() BrokerStats {
	count := 0
	var dropped int64
	b.subscribers.Range(func(_, value any) bool {
		count++
		dropped += value.(*Subscriber).Dropped() //nolint:errcheck // sync.Map always stores *Subscriber
		return true
	})
	return BrokerStats{
		TopicCount:      b.topics.TopicCount(),
		SubscriberCount: count,
		TotalPublished:  b.totalPublished.Load(),
		TotalDropped:    dropped,
	}
}

// BrokerStats contains broker metrics.
type BrokerStats struct {
	TopicCount      int   `json:"topic_count"`
	SubscriberCount int   `json:"subscriber_count"`
	TotalPublished  int64 `json:"total_published"`
	TotalDropped    int64 `json:"total_dropped"`
}

// publish broadcasts an event to all matching topics.
func (b *Broker) publish(evt *Event, entityID string) {
	topics := resolveTopics(evt, entityID)
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

// ── Store change notifications ──────────────────────

// NotifyChange implements store.Notifier: every store mutation becomes a
// projection event on the projection's own topic, the touched entity's
// topic, and the global channels.
func (b *Broker) NotifyChange(c store.Change) {
	b.publish(&Event{
		Type:      changeEventType(c.Kind),
		Timestamp: time.Now().UTC(),
		Topic:     ProjectionTopic(c.Projection),
		Data: mustMarshal(ProjectionEventData{
			Projection: c.Projection,
			EntityID:   c.EntityID,
			Kind:       string(c.Kind),
		}),
	}, c.EntityID)
}

func changeEventType(kind store.ChangeKind) EventType {
	switch kind {
	case store.ChangePrepended:
		return EventProjectionPrepended
	case store.ChangeUpdated:
		return EventProjectionUpdated
	case store.ChangeRemoved:
		return EventProjectionRemoved
	case store.ChangePropagated:
		return EventProjectionPropagated
	default:
		return EventProjectionReplaced
	}
}

// ── Pipeline operation events ───────────────────────

// Wrapper returns a pipeline wrapper that publishes operation start and
// settle events around every wrapped call.
func (b *Broker) Wrapper() pipeline.Wrapper {
	return func(ctx context.Context, op *pipeline.Descriptor, next pipeline.Handler) error {
		b.publish(&Event{
			Type:      EventOperationStarted,
			Timestamp: time.Now().UTC(),
			Data: mustMarshal(OperationEventData{
				Operation: op.Name,
				EntityID:  op.EntityID,
			}),
		}, op.EntityID)

		start := time.Now()
		err := next(ctx)

		data := OperationEventData{
			Operation: op.Name,
			EntityID:  op.EntityID,
			ElapsedMs: time.Since(start).Milliseconds(),
		}
		evtType := EventOperationOK
		if err != nil {
			evtType = EventOperationFailed
			data.Error = err.Error()
		}
		b.publish(&Event{
			Type:      evtType,
			Timestamp: time.Now().UTC(),
			Data:      mustMarshal(data),
		}, op.EntityID)
		return err
	}
}

// ── Shutdown ────────────────────────────────────────

// Shutdown closes every subscriber and clears the registry.
func (b *Broker) Shutdown(_ context.Context) error {
	b.subscribers.Range(func(key, value any) bool {
		sub := value.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
		sub.Close()
		b.subscribers.Delete(key)
		return true
	})
	b.logger.Info("stream broker shut down")
	return nil
}
