package feed

import (
	"sync"
	"sync/atomic"
	"time"
)

// Conn is the server-side state of one authenticated feed connection.
type Conn struct {
	// ID uniquely identifies this connection; it doubles as the broker
	// subscriber ID.
	ID string

	// Subject is the authenticated user the session token resolved to.
	Subject string

	// Codec is the negotiated wire format.
	Codec Codec

	// ConnectedAt records when the hello completed.
	ConnectedAt time.Time

	// LastActivity tracks the most recent frame received.
	LastActivity atomic.Value // time.Time

	mu     sync.RWMutex
	topics map[string]struct{}
}

// NewConn creates connection state for an authenticated client.
func NewConn(id, subject string, codec Codec) *Conn {
	c := &Conn{
		ID:          id,
		Subject:     subject,
		Codec:       codec,
		ConnectedAt: time.Now().UTC(),
		topics:      make(map[string]struct{}),
	}
	c.LastActivity.Store(time.Now().UTC())
	return c
}

// Touch updates the last activity timestamp.
func (c *Conn) Touch() {
	c.LastActivity.Store(time.Now().UTC())
}

// AddTopic records a topic subscription.
func (c *Conn) AddTopic(topic string) {
	c.mu.Lock()
	c.topics[topic] = struct{}{}
	c.mu.Unlock()
}

// RemoveTopic removes a topic subscription.
func (c *Conn) RemoveTopic(topic string) {
	c.mu.Lock()
	delete(c.topics, topic)
	c.mu.Unlock()
}

// Topics returns a copy of the subscribed topics.
func (c *Conn) Topics() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.topics))
	for t := range c.topics {
		out = append(out, t)
	}
	return out
}

// Registry tracks active feed connections.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Add registers a connection.
func (r *Registry) Add(c *Conn) {
	r.mu.Lock()
	r.conns[c.ID] = c
	r.mu.Unlock()
}

// Remove unregisters a connection.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	delete(r.conns, connID)
	r.mu.Unlock()
}

// Get returns a connection by ID.
func (r *Registry) Get(connID string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	return c, ok
}

// Count returns the number of active connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
