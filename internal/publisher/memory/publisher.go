// Package memory contains an in-memory publisher for tests and development.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Publisher stores published payloads for inspection. IDs are assigned
// per topic so tests can assert on ordering within a single topic.
type Publisher struct {
	mu       sync.RWMutex
	messages []PublishedMessage
	perTopic map[string]int
}

// PublishedMessage captures one publish call.
type PublishedMessage struct {
	Topic   string
	Payload any
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{perTopic: make(map[string]int)}
}

// Publish records the message and returns an ID of the form "<topic>-<n>",
// where n counts publishes to that topic starting at 1.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, PublishedMessage{Topic: topic, Payload: payload})
	p.perTopic[topic]++
	return fmt.Sprintf("%s-%d", topic, p.perTopic[topic]), nil
}

// Messages returns a copy of the recorded publishes.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// TopicCount reports how many messages have been published to topic.
func (p *Publisher) TopicCount(topic string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.perTopic[topic]
}
