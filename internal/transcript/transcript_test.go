package transcript

import (
	"errors"
	"testing"

	"medoryx/internal/llm"
)

func TestSuccessfulRoundTripGrowsByTwo(t *testing.T) {
	s := NewSession("s1")

	if err := s.AppendUser("What are the side effects of metformin?"); err != nil {
		t.Fatal(err)
	}
	s.AppendAssistant("Common side effects include nausea and diarrhea.", nil)

	if s.Len() != 2 {
		t.Fatalf("expected 2 turns, got %d", s.Len())
	}
	turns := s.Turns()
	if turns[0].Role != llm.RoleUser || turns[1].Role != llm.RoleAssistant {
		t.Fatalf("unexpected roles: %s, %s", turns[0].Role, turns[1].Role)
	}
	if turns[1].IsError {
		t.Fatal("successful turn must not be marked as error")
	}
}

func TestFailedRoundTripAppendsErrorTurn(t *testing.T) {
	s := NewSession("s1")

	if err := s.AppendUser("compare amoxicillin and azithromycin"); err != nil {
		t.Fatal(err)
	}
	s.AppendError(errors.New("connection refused"))

	turns := s.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	last := turns[1]
	if !last.IsError {
		t.Fatal("expected error marker on final turn")
	}
	if last.Role != llm.RoleAssistant {
		t.Fatalf("error turn should be assistant-role, got %s", last.Role)
	}
	if len(last.Invocations) != 0 {
		t.Fatal("error turn must not carry tool invocations")
	}
}

func TestEmptyMessageLeavesTranscriptUnchanged(t *testing.T) {
	s := NewSession("s1")

	for _, input := range []string{"", "   ", "\n\t"} {
		if err := s.AppendUser(input); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("input %q: expected ErrEmptyMessage, got %v", input, err)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("transcript should be unchanged, has %d turns", s.Len())
	}
}

func TestMessagesSkipErrorTurns(t *testing.T) {
	s := NewSession("s1")
	_ = s.AppendUser("first question")
	s.AppendError(errors.New("timeout"))
	_ = s.AppendUser("second question")
	s.AppendAssistant("an answer", nil)

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages (error turn skipped), got %d", len(msgs))
	}
	for _, m := range msgs {
		if m.Content == "" {
			t.Fatal("empty message content")
		}
	}
}

func TestInvocationsRecordedOnAssistantTurn(t *testing.T) {
	s := NewSession("s1")
	_ = s.AppendUser("how many drugs are in the database?")
	s.AppendAssistant("There are 2,793 drug ingredients.", []ToolInvocation{
		{Name: "execute_query", Result: "1. row\ncount: 2793\n\nResult: 1 rows"},
	})

	turns := s.Turns()
	if len(turns[1].Invocations) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(turns[1].Invocations))
	}
	if turns[1].Invocations[0].Name != "execute_query" {
		t.Fatalf("unexpected invocation name %s", turns[1].Invocations[0].Name)
	}
}

func TestStoreCreatesAndReuses(t *testing.T) {
	st := NewStore()

	a := st.Get("a")
	b := st.Get("a")
	if a != b {
		t.Fatal("expected same session for same ID")
	}
	if st.Get("c") == a {
		t.Fatal("expected distinct session for different ID")
	}
	if st.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", st.Len())
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	st := NewStore()
	st.maxSessions = 2

	first := st.Get("first")
	st.Get("second")
	_ = first.AppendUser("hello") // first is now the most recently used
	st.Get("third")               // evicts "second"

	if st.Len() != 2 {
		t.Fatalf("expected 2 sessions after eviction, got %d", st.Len())
	}
	if st.Get("first") != first {
		t.Fatal("recently used session should have survived eviction")
	}
}
