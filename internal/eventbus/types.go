package eventbus

import "time"

// Topic represents an event topic.
type Topic string

const (
	TopicQuestion    Topic = "question"     // user turn accepted
	TopicReply       Topic = "reply"        // assistant turn produced
	TopicLLMRequest  Topic = "llm_request"  // request sent to the model
	TopicLLMResponse Topic = "llm_response" // model replied
	TopicToolCall    Topic = "tool_call"    // model invoked a SQL tool
	TopicToolResult  Topic = "tool_result"  // tool result returned
	TopicError       Topic = "error"
	TopicStatus      Topic = "status" // channel/server lifecycle
)

// Event is a message passed through the event bus.
type Event struct {
	Topic     Topic
	Payload   any
	Timestamp time.Time
}

// Handler processes an event.
type Handler func(Event)
