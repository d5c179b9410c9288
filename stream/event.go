// Package stream provides a real-time event broker for store and
// pipeline lifecycle events. It bridges the entity store's change
// notifications to interested observers via topic-based pub/sub, so a
// rendering layer can re-render exactly the projections that moved.
package stream

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Projection events, one per store change kind.
	EventProjectionReplaced   EventType = "projection.replaced"
	EventProjectionPrepended  EventType = "projection.prepended"
	EventProjectionUpdated    EventType = "projection.updated"
	EventProjectionRemoved    EventType = "projection.removed"
	EventProjectionPropagated EventType = "projection.propagated"

	// Operation events, emitted as pipeline operations settle.
	EventOperationStarted EventType = "operation.started"
	EventOperationOK      EventType = "operation.ok"
	EventOperationFailed  EventType = "operation.failed"
)

// Event is the envelope sent to subscribers on a topic channel.
type Event struct {
	// Type identifies the lifecycle event.
	Type EventType `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"ts"`

	// Topic is the channel this event was published on.
	Topic string `json:"topic"`

	// Data is the event-specific payload.
	Data json.RawMessage `json:"data"`
}

// ProjectionEventData is the payload for projection change events.
type ProjectionEventData struct {
	Projection string `json:"projection"`
	EntityID   string `json:"entity_id,omitempty"`
	Kind       string `json:"kind"`
}

// OperationEventData is the payload for pipeline operation events.
type OperationEventData struct {
	Operation string `json:"operation"`
	EntityID  string `json:"entity_id,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}
