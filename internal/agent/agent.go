// Package agent produces the next assistant turn for a transcript. The
// agent itself is stateless between calls: callers own their transcripts
// and hand over the full history each time, mirroring the blocking
// request/response cycle of the chat surfaces.
package agent

import (
	"context"
	"fmt"
	"log"

	"medoryx/internal/config"
	"medoryx/internal/eventbus"
	"medoryx/internal/llm"
	"medoryx/internal/security"
	"medoryx/internal/tool"
	"medoryx/internal/transcript"
)

// Agent answers natural-language questions about the adverse-drug-event
// database by letting the model call the registered SQL tools.
type Agent struct {
	cfg       config.AgentConfig
	provider  llm.Provider
	tools     *tool.Registry
	bus       *eventbus.Bus
	sanitizer *security.Sanitizer
}

// Reply is the outcome of one successful round-trip.
type Reply struct {
	Text        string
	Invocations []transcript.ToolInvocation
	Usage       llm.Usage
}

// New creates an Agent. The sanitizer may be nil.
func New(cfg config.AgentConfig, provider llm.Provider, tools *tool.Registry, bus *eventbus.Bus, sanitizer *security.Sanitizer) *Agent {
	return &Agent{
		cfg:       cfg,
		provider:  provider,
		tools:     tools,
		bus:       bus,
		sanitizer: sanitizer,
	}
}

// Converse runs one full round-trip against a session: append the user
// turn, produce the assistant turn, and keep the transcript consistent on
// failure. The returned turn is the one appended last.
//
// Transcript growth: +2 turns on success, +1 user turn plus one error
// turn on failure, +0 for empty input (transcript.ErrEmptyMessage).
func (a *Agent) Converse(ctx context.Context, sess *transcript.Session, text string) (transcript.Turn, error) {
	if err := sess.AppendUser(text); err != nil {
		return transcript.Turn{}, err
	}
	a.bus.Publish(eventbus.TopicQuestion, truncate(text, 200))

	reply, err := a.respond(ctx, sess.Messages())
	if err != nil {
		log.Printf("[agent] session %s: %v", sess.ID, err)
		a.bus.Publish(eventbus.TopicError, err)
		sess.AppendError(err)
		turns := sess.Turns()
		return turns[len(turns)-1], err
	}

	sess.AppendAssistant(reply.Text, reply.Invocations)
	a.bus.Publish(eventbus.TopicReply, truncate(reply.Text, 200))
	turns := sess.Turns()
	return turns[len(turns)-1], nil
}

// respond runs the tool loop until the model returns plain text.
func (a *Agent) respond(ctx context.Context, messages []llm.Message) (*Reply, error) {
	messages = a.sanitizeOutbound(messages)

	var (
		invocations []transcript.ToolInvocation
		usage       llm.Usage
		toolCalls   int
	)

	for {
		req := &llm.ChatRequest{
			Messages:     messages,
			Tools:        a.tools.Definitions(),
			MaxTokens:    a.cfg.MaxTokens,
			Temperature:  a.cfg.Temperature,
			SystemPrompt: a.cfg.SystemPrompt,
		}
		a.bus.Publish(eventbus.TopicLLMRequest, fmt.Sprintf("%d messages, %d tools", len(req.Messages), len(req.Tools)))

		resp, err := a.provider.Chat(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("LLM call: %w", err)
		}
		a.bus.Publish(eventbus.TopicLLMResponse, resp.StopReason)
		usage.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			return &Reply{
				Text:        a.restoreInbound(resp.Content),
				Invocations: invocations,
				Usage:       usage,
			}, nil
		}

		toolCalls += len(resp.ToolCalls)
		if toolCalls > a.cfg.MaxToolCalls {
			text := "I've reached the maximum number of database queries for this question. Here's what I have so far: " + resp.Content
			return &Reply{Text: a.restoreInbound(text), Invocations: invocations, Usage: usage}, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			a.bus.Publish(eventbus.TopicToolCall, tc.Name)
			result, isErr := a.executeTool(ctx, tc)
			a.bus.Publish(eventbus.TopicToolResult, fmt.Sprintf("%s: %s", tc.Name, truncate(result, 120)))

			invocations = append(invocations, transcript.ToolInvocation{
				Name:      tc.Name,
				Arguments: tc.Arguments,
				Result:    result,
				IsError:   isErr,
			})
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}
}

// executeTool runs one tool call; failures are reported back to the model
// as text so it can explain them, never as a loop abort.
func (a *Agent) executeTool(ctx context.Context, tc llm.ToolCall) (string, bool) {
	t, err := a.tools.Get(tc.Name)
	if err != nil {
		return fmt.Sprintf("Error: tool %q not found", tc.Name), true
	}
	res, err := t.Execute(ctx, tc.Arguments)
	if err != nil {
		return "Error executing tool: " + err.Error(), true
	}
	if res.IsError {
		return "Error: " + res.Error, true
	}
	return res.Output, false
}

func (a *Agent) sanitizeOutbound(messages []llm.Message) []llm.Message {
	if a.sanitizer == nil {
		return messages
	}
	out := make([]llm.Message, len(messages))
	copy(out, messages)
	for i := range out {
		if out[i].Role == llm.RoleUser {
			out[i].Content = a.sanitizer.Sanitize(out[i].Content)
		}
	}
	return out
}

func (a *Agent) restoreInbound(text string) string {
	if a.sanitizer == nil {
		return text
	}
	return a.sanitizer.Restore(text)
}

// TestConnection sends a trivial message to verify the provider works.
func (a *Agent) TestConnection(ctx context.Context) error {
	_, err := a.provider.Chat(ctx, &llm.ChatRequest{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Say 'OK' if you can hear me."}},
		MaxTokens: 32,
	})
	return err
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
