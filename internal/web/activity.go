package web

import (
	"fmt"
	"sync"
	"time"

	"medoryx/internal/eventbus"
)

const activityCap = 100

// ActivityEntry is one line of the activity feed.
type ActivityEntry struct {
	Topic  string    `json:"topic"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

// activityLog keeps the most recent bus events for the activity endpoint.
type activityLog struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func newActivityLog(bus *eventbus.Bus) *activityLog {
	a := &activityLog{}
	if bus == nil {
		return a
	}
	bus.SubscribeAll([]eventbus.Topic{
		eventbus.TopicQuestion,
		eventbus.TopicReply,
		eventbus.TopicLLMRequest,
		eventbus.TopicLLMResponse,
		eventbus.TopicToolCall,
		eventbus.TopicToolResult,
		eventbus.TopicError,
		eventbus.TopicStatus,
	}, a.record)
	return a
}

func (a *activityLog) record(ev eventbus.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, ActivityEntry{
		Topic:  string(ev.Topic),
		Detail: fmt.Sprint(ev.Payload),
		At:     ev.Timestamp,
	})
	if len(a.entries) > activityCap {
		a.entries = a.entries[len(a.entries)-activityCap:]
	}
}

// Recent returns the stored entries, newest last.
func (a *activityLog) Recent() []ActivityEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ActivityEntry(nil), a.entries...)
}
