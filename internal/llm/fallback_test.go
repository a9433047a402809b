package llm

import (
	"context"
	"testing"
)

type stubProvider struct {
	name  string
	reply *Reply
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Chat(ctx context.Context, req *ChatRequest) (*Reply, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.reply, nil
}

func TestFallbackUsesPrimaryOnSuccess(t *testing.T) {
	primary := &stubProvider{name: "a", reply: &Reply{Content: "primary"}}
	secondary := &stubProvider{name: "b", reply: &Reply{Content: "secondary"}}
	f := NewFallbackProvider(primary, secondary)

	reply, err := f.Chat(context.Background(), &ChatRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Content != "primary" {
		t.Fatalf("expected primary reply, got %q", reply.Content)
	}
	if secondary.calls != 0 {
		t.Fatal("secondary should not have been called")
	}
}

func TestFallbackOnServerError(t *testing.T) {
	primary := &stubProvider{name: "a", err: &ProviderError{Type: ErrorServer, Message: "overloaded"}}
	secondary := &stubProvider{name: "b", reply: &Reply{Content: "rescued"}}
	f := NewFallbackProvider(primary, secondary)

	reply, err := f.Chat(context.Background(), &ChatRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Content != "rescued" {
		t.Fatalf("expected fallback reply, got %q", reply.Content)
	}
}

func TestNoFallbackOnAuthError(t *testing.T) {
	primary := &stubProvider{name: "a", err: &ProviderError{Type: ErrorAuth, Message: "bad key"}}
	secondary := &stubProvider{name: "b", reply: &Reply{Content: "should not happen"}}
	f := NewFallbackProvider(primary, secondary)

	_, err := f.Chat(context.Background(), &ChatRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if secondary.calls != 0 {
		t.Fatal("auth errors must not trigger fallback")
	}
}
