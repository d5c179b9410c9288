package feed

import (
	"encoding/json"
	"time"
)

// Type identifies the frame category.
type Type string

const (
	// TypeHello is the client's first frame: token and format choice.
	TypeHello Type = "hello"
	// TypeWelcome acknowledges a hello and confirms the wire format.
	TypeWelcome Type = "welcome"
	// TypeSubscribe asks for events on a topic.
	TypeSubscribe Type = "subscribe"
	// TypeUnsubscribe stops events on a topic.
	TypeUnsubscribe Type = "unsubscribe"
	// TypeAck confirms a control frame.
	TypeAck Type = "ack"
	// TypeEvent carries one broker event to the client.
	TypeEvent Type = "event"
	// TypeErr reports a protocol or authorization failure.
	TypeErr Type = "error"
	// TypePing and TypePong are the liveness probe pair.
	TypePing Type = "ping"
	TypePong Type = "pong"
)

// Frame is the message envelope for the live update feed. Every message
// exchanged on a feed connection is a Frame.
type Frame struct {
	// ID uniquely identifies this frame.
	ID string `json:"id" msgpack:"id"`

	// Type categorizes the frame.
	Type Type `json:"type" msgpack:"type"`

	// CorrelID links an ack or pong to the frame it answers.
	CorrelID string `json:"correl_id,omitempty" msgpack:"correl_id,omitempty"`

	// Token carries the session token (hello frames only).
	Token string `json:"token,omitempty" msgpack:"token,omitempty"`

	// Format requests a wire format on hello; echoed on welcome.
	Format string `json:"format,omitempty" msgpack:"format,omitempty"`

	// Topic names the subscription target for control frames and the
	// origin topic on event frames.
	Topic string `json:"topic,omitempty" msgpack:"topic,omitempty"`

	// Credits replenishes flow-control credits.
	Credits int `json:"credits,omitempty" msgpack:"credits,omitempty"`

	// Data carries the event payload.
	Data json.RawMessage `json:"data,omitempty" msgpack:"data,omitempty"`

	// Error carries failure details on error frames.
	Error *ErrorDetail `json:"error,omitempty" msgpack:"error,omitempty"`

	// Timestamp records when the frame was created.
	Timestamp time.Time `json:"ts" msgpack:"ts"`
}

// ErrorDetail describes a failure in an error frame. Code reuses HTTP
// status vocabulary.
type ErrorDetail struct {
	Code    int    `json:"code" msgpack:"code"`
	Message string `json:"message" msgpack:"message"`
}

// Error codes used by the feed server.
const (
	ErrCodeBadRequest   = 400
	ErrCodeUnauthorized = 401
	ErrCodeForbidden    = 403
)

// GenerateFrameID returns a new unique frame ID. Timestamp-based for
// cheap generation on the hot event path.
func GenerateFrameID() string {
	return time.Now().UTC().Format("20060102150405.000000000")
}

// NewEventFrame wraps an event payload for delivery on a topic.
func NewEventFrame(topic string, data any) (*Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Frame{
		ID:        GenerateFrameID(),
		Type:      TypeEvent,
		Topic:     topic,
		Data:      raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// NewErrorFrame builds an error frame answering correlID.
func NewErrorFrame(correlID string, code int, message string) *Frame {
	return &Frame{
		ID:        GenerateFrameID(),
		Type:      TypeErr,
		CorrelID:  correlID,
		Error:     &ErrorDetail{Code: code, Message: message},
		Timestamp: time.Now().UTC(),
	}
}

// NewAckFrame builds an ack answering correlID.
func NewAckFrame(correlID string) *Frame {
	return &Frame{
		ID:        GenerateFrameID(),
		Type:      TypeAck,
		CorrelID:  correlID,
		Timestamp: time.Now().UTC(),
	}
}
