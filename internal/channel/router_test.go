package channel

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"medoryx/internal/transcript"
)

type fakeChannel struct {
	mu      sync.Mutex
	handler func(InboundMessage)
	sent    []OutboundMessage
}

func (f *fakeChannel) Name() string                    { return "fake" }
func (f *fakeChannel) Start(_ context.Context) error   { return nil }
func (f *fakeChannel) Stop(_ context.Context) error    { return nil }
func (f *fakeChannel) IsRunning() bool                 { return true }
func (f *fakeChannel) OnMessage(h func(InboundMessage)) { f.handler = h }

func (f *fakeChannel) Send(_ context.Context, msg OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeChannel) sentMessages() []OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]OutboundMessage(nil), f.sent...)
}

type echoResponder struct{}

func (echoResponder) Converse(_ context.Context, sess *transcript.Session, text string) (transcript.Turn, error) {
	if err := sess.AppendUser(text); err != nil {
		return transcript.Turn{}, err
	}
	sess.AppendAssistant("echo: "+text, nil)
	turns := sess.Turns()
	return turns[len(turns)-1], nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRouterRepliesOnChannel(t *testing.T) {
	store := transcript.NewStore()
	router := NewRouter(echoResponder{}, store)
	ch := &fakeChannel{}
	router.Attach(ch)

	ch.handler(InboundMessage{ChannelName: "fake", ChatID: "42", Text: "list the tables"})

	waitFor(t, func() bool { return len(ch.sentMessages()) == 1 })
	sent := ch.sentMessages()[0]
	if sent.ChatID != "42" {
		t.Fatalf("reply went to chat %q", sent.ChatID)
	}
	if !strings.Contains(sent.Text, "list the tables") {
		t.Fatalf("unexpected reply %q", sent.Text)
	}
}

func TestRouterSessionsArePerChat(t *testing.T) {
	store := transcript.NewStore()
	router := NewRouter(echoResponder{}, store)
	ch := &fakeChannel{}
	router.Attach(ch)

	ch.handler(InboundMessage{ChannelName: "fake", ChatID: "1", Text: "first"})
	ch.handler(InboundMessage{ChannelName: "fake", ChatID: "2", Text: "second"})

	waitFor(t, func() bool { return len(ch.sentMessages()) == 2 })
	if store.Get("fake:1").Len() != 2 || store.Get("fake:2").Len() != 2 {
		t.Fatal("each chat should have its own two-turn session")
	}
}

func TestRouterIgnoresEmptyMessages(t *testing.T) {
	store := transcript.NewStore()
	router := NewRouter(echoResponder{}, store)
	ch := &fakeChannel{}
	router.Attach(ch)

	ch.handler(InboundMessage{ChannelName: "fake", ChatID: "1", Text: "   "})

	time.Sleep(50 * time.Millisecond)
	if got := len(ch.sentMessages()); got != 0 {
		t.Fatalf("expected no reply, got %d", got)
	}
	if store.Get("fake:1").Len() != 0 {
		t.Fatal("empty input must leave the session unchanged")
	}
}
