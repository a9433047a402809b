package eventbus

import (
	"sync"
	"time"
)

// Bus is a simple in-process pub/sub event bus. It carries telemetry from
// the agent loop to the activity log in the chat UI.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[Topic][]Handler),
	}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// SubscribeAll registers a handler for every listed topic.
func (b *Bus) SubscribeAll(topics []Topic, handler Handler) {
	for _, t := range topics {
		b.Subscribe(t, handler)
	}
}

// Publish sends an event to all subscribers of the topic. Handlers run
// synchronously in registration order.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[topic]))
	copy(handlers, b.handlers[topic])
	b.mu.RUnlock()

	event := Event{
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for _, h := range handlers {
		h(event)
	}
}
