package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"medoryx/internal/config"
	"medoryx/internal/eventbus"
	"medoryx/internal/llm"
	"medoryx/internal/tool"
	"medoryx/internal/transcript"
)

func testAgentConfig() config.AgentConfig {
	return config.AgentConfig{
		SystemPrompt: "test",
		MaxTokens:    256,
		MaxToolCalls: 4,
	}
}

// echoProvider replies with the content of the last user message.
type echoProvider struct{}

func (echoProvider) Name() string { return "echo" }

func (echoProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Reply, error) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			return &llm.Reply{Content: req.Messages[i].Content}, nil
		}
	}
	return &llm.Reply{Content: ""}, nil
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Reply, error) {
	return nil, &llm.ProviderError{Type: llm.ErrorNetwork, Message: "connection refused"}
}

// sqlOnceProvider issues one tool call, then answers with the tool result.
type sqlOnceProvider struct{}

func (sqlOnceProvider) Name() string { return "sql-once" }

func (sqlOnceProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Reply, error) {
	last := req.Messages[len(req.Messages)-1]
	if last.Role == llm.RoleTool {
		return &llm.Reply{Content: "The query returned: " + last.Content}, nil
	}
	return &llm.Reply{
		ToolCalls: []llm.ToolCall{{
			ID:        "call_1",
			Name:      "execute_query",
			Arguments: json.RawMessage(`{"query":"SELECT 1"}`),
		}},
	}, nil
}

// loopingProvider never stops calling tools.
type loopingProvider struct{}

func (loopingProvider) Name() string { return "looping" }

func (loopingProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Reply, error) {
	return &llm.Reply{
		Content: "partial",
		ToolCalls: []llm.ToolCall{{
			ID:        "call_n",
			Name:      "execute_query",
			Arguments: json.RawMessage(`{"query":"SELECT 1"}`),
		}},
	}, nil
}

type fixedTool struct {
	name   string
	output string
	calls  int
}

func (f *fixedTool) Name() string        { return f.name }
func (f *fixedTool) Description() string { return "fixed" }
func (f *fixedTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object"}`)
}
func (f *fixedTool) Execute(ctx context.Context, args json.RawMessage) (*tool.Result, error) {
	f.calls++
	return &tool.Result{Output: f.output}, nil
}

func newTestAgent(p llm.Provider, tools ...tool.Tool) *Agent {
	reg := tool.NewRegistry()
	reg.RegisterAll(tools)
	return New(testAgentConfig(), p, reg, eventbus.New(), nil)
}

func TestConverseEcho(t *testing.T) {
	a := newTestAgent(echoProvider{})
	sess := transcript.NewSession("t")

	turn, err := a.Converse(context.Background(), sess, "hello onsides")
	if err != nil {
		t.Fatal(err)
	}
	if turn.Text != "hello onsides" {
		t.Fatalf("expected echo, got %q", turn.Text)
	}
	if sess.Len() != 2 {
		t.Fatalf("expected transcript to grow by 2, got %d turns", sess.Len())
	}
}

func TestConverseFailureAppendsErrorTurn(t *testing.T) {
	a := newTestAgent(failingProvider{})
	sess := transcript.NewSession("t")

	turn, err := a.Converse(context.Background(), sess, "anything")
	if err == nil {
		t.Fatal("expected error")
	}
	if !turn.IsError {
		t.Fatal("expected error turn")
	}
	if sess.Len() != 2 {
		t.Fatalf("expected user turn + error turn, got %d turns", sess.Len())
	}

	// The session stays usable: a later successful exchange works.
	a2 := newTestAgent(echoProvider{})
	if _, err := a2.Converse(context.Background(), sess, "retry"); err != nil {
		t.Fatal(err)
	}
	if sess.Len() != 4 {
		t.Fatalf("expected 4 turns after recovery, got %d", sess.Len())
	}
}

func TestConverseEmptyInput(t *testing.T) {
	a := newTestAgent(echoProvider{})
	sess := transcript.NewSession("t")

	_, err := a.Converse(context.Background(), sess, "   ")
	if !errors.Is(err, transcript.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if sess.Len() != 0 {
		t.Fatalf("transcript must be unchanged, has %d turns", sess.Len())
	}
}

func TestToolLoopExecutesAndRecords(t *testing.T) {
	ft := &fixedTool{name: "execute_query", output: "1. row\ncount: 42\n\nResult: 1 rows"}
	a := newTestAgent(sqlOnceProvider{}, ft)
	sess := transcript.NewSession("t")

	turn, err := a.Converse(context.Background(), sess, "how many rows?")
	if err != nil {
		t.Fatal(err)
	}
	if ft.calls != 1 {
		t.Fatalf("expected 1 tool execution, got %d", ft.calls)
	}
	if len(turn.Invocations) != 1 {
		t.Fatalf("expected 1 recorded invocation, got %d", len(turn.Invocations))
	}
	inv := turn.Invocations[0]
	if inv.Name != "execute_query" || inv.IsError {
		t.Fatalf("unexpected invocation: %+v", inv)
	}
	if turn.Text != "The query returned: "+ft.output {
		t.Fatalf("tool result not fed back: %q", turn.Text)
	}
}

func TestUnknownToolReportedToModel(t *testing.T) {
	a := newTestAgent(sqlOnceProvider{}) // no tools registered
	sess := transcript.NewSession("t")

	turn, err := a.Converse(context.Background(), sess, "query something")
	if err != nil {
		t.Fatal(err)
	}
	if len(turn.Invocations) != 1 || !turn.Invocations[0].IsError {
		t.Fatalf("expected one error invocation, got %+v", turn.Invocations)
	}
}

func TestMaxToolCallGuard(t *testing.T) {
	ft := &fixedTool{name: "execute_query", output: "ok"}
	a := newTestAgent(loopingProvider{}, ft)
	sess := transcript.NewSession("t")

	turn, err := a.Converse(context.Background(), sess, "loop forever")
	if err != nil {
		t.Fatal(err)
	}
	if ft.calls > testAgentConfig().MaxToolCalls {
		t.Fatalf("guard did not stop the loop: %d calls", ft.calls)
	}
	if turn.Text == "" {
		t.Fatal("expected partial answer text")
	}
}
