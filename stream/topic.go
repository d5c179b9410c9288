package stream

import (
	"fmt"
	"strings"
	"sync"
)

// Topic names follow a pattern:
//
//	projection:<name>  — change events for one named projection
//	entity:<id>        — events touching a specific entity
//	projections        — all projection change events
//	operations         — all pipeline operation events
//	firehose           — everything
const (
	TopicProjections = "projections"
	TopicOperations  = "operations"
	TopicFirehose    = "firehose"
)

// ProjectionTopic returns the topic name for a named projection.
func ProjectionTopic(name string) string { return "projection:" + name }

// EntityTopic returns the topic name for a specific entity.
func EntityTopic(entityID string) string { return "entity:" + entityID }

// TopicRegistry manages subscriber sets per topic.
// It is safe for concurrent use.
type TopicRegistry struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Subscriber // topic → subscriberID → subscriber
}

// NewTopicRegistry creates an empty topic registry.
func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{
		topics: make(map[string]map[string]*Subscriber),
	}
}

// Subscribe adds a subscriber to a topic. Creates the topic if it
// doesn't exist.
func (tr *TopicRegistry) Subscribe(topic string, sub *Subscriber) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	subs, ok := tr.topics[topic]
	if !ok {
		subs = make(map[string]*Subscriber)
		tr.topics[topic] = subs
	}
	subs[sub.ID()] = sub
	sub.addTopic(topic)
}

// Unsubscribe removes a subscriber from a topic. Cleans up empty topics.
func (tr *TopicRegistry) Unsubscribe(topic, subscriberID string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	subs, ok := tr.topics[topic]
	if !ok {
		return
	}
	if sub, exists := subs[subscriberID]; exists {
		sub.removeTopic(topic)
		delete(subs, subscriberID)
	}
	if len(subs) == 0 {
		delete(tr.topics, topic)
	}
}

// UnsubscribeAll removes a subscriber from all topics.
func (tr *TopicRegistry) UnsubscribeAll(subscriberID string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	for topic, subs := range tr.topics {
		if sub, ok := subs[subscriberID]; ok {
			sub.removeTopic(topic)
			delete(subs, subscriberID)
		}
		if len(subs) == 0 {
			delete(tr.topics, topic)
		}
	}
}

// Publish sends an event to all subscribers on the given topic.
// Returns the number of subscribers that received the event.
func (tr *TopicRegistry) Publish(topic string, evt *Event) int {
	tr.mu.RLock()
	subs := tr.topics[topic]
	// Copy to avoid holding lock during send.
	targets := make([]*Subscriber, 0, len(subs))
	for _, s := range subs {
		targets = append(targets, s)
	}
	tr.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if s.send(evt) {
			delivered++
		}
	}
	return delivered
}

// Broadcast sends an event to all subscribers on multiple topics.
// Deduplicates subscribers that are on more than one of the listed topics.
func (tr *TopicRegistry) Broadcast(topics []string, evt *Event) int {
	tr.mu.RLock()
	seen := make(map[string]*Subscriber)
	for _, topic := range topics {
		for id, sub := range tr.topics[topic] {
			seen[id] = sub
		}
	}
	tr.mu.RUnlock()

	delivered := 0
	for _, sub := range seen {
		if sub.send(evt) {
			delivered++
		}
	}
	return delivered
}

// TopicCount returns the number of active topics.
func (tr *TopicRegistry) TopicCount() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.topics)
}

// SubscriberCount returns the number of subscribers on a topic.
func (tr *TopicRegistry) SubscriberCount(topic string) int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.topics[topic])
}

// resolveTopics returns all topics an event should be published to based
// on its type, its own topic field, and the entity it touches.
func resolveTopics(evt *Event, entityID string) []string {
	topics := []string{TopicFirehose}

	evtType := string(evt.Type)
	if strings.HasPrefix(evtType, "projection.") {
		topics = append(topics, TopicProjections)
	} else if strings.HasPrefix(evtType, "operation.") {
		topics = append(topics, TopicOperations)
	}

	if evt.Topic != "" {
		topics = append(topics, evt.Topic)
	}
	if entityID != "" {
		topics = append(topics, EntityTopic(entityID))
	}

	return topics
}

// ParseTopicEntity extracts the kind and ID from a topic string.
// For example, "entity:job_abc123" returns ("entity", "job_abc123").
// Returns ("", "") for global topics like "projections" or "firehose".
func ParseTopicEntity(topic string) (kind, name string) {
	idx := strings.IndexByte(topic, ':')
	if idx < 0 {
		return "", ""
	}
	return topic[:idx], topic[idx+1:]
}

// ValidateTopic checks whether a topic string is valid.
func ValidateTopic(topic string) error {
	switch topic {
	case TopicProjections, TopicOperations, TopicFirehose:
		return nil
	}

	kind, name := ParseTopicEntity(topic)
	if kind == "" || name == "" {
		return fmt.Errorf("stream: invalid topic %q", topic)
	}

	switch kind {
	case "projection", "entity":
		return nil
	default:
		return fmt.Errorf("stream: unknown topic kind %q", kind)
	}
}
