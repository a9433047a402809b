// Package transcript holds the in-memory conversation state for one chat
// session. A transcript lives exactly as long as its session: created
// empty, appended to on every round-trip, discarded on eviction. Nothing
// here is persisted.
package transcript

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"medoryx/internal/llm"
)

// ErrEmptyMessage is returned when a submitted message is empty or
// whitespace; the transcript is left untouched.
var ErrEmptyMessage = errors.New("empty message")

// ToolInvocation records one SQL tool call made while producing an
// assistant turn, for display alongside the answer.
type ToolInvocation struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Result    string          `json:"result"`
	IsError   bool            `json:"is_error,omitempty"`
}

// Turn is one entry in a transcript.
type Turn struct {
	Role        llm.Role         `json:"role"`
	Text        string           `json:"text"`
	Invocations []ToolInvocation `json:"invocations,omitempty"`
	IsError     bool             `json:"is_error,omitempty"`
	At          time.Time        `json:"at"`
}

// Session is one chat session's transcript. Appends are serialized; the
// round-trip invariant (one user turn, then exactly one assistant turn or
// one error turn) is the caller's contract, enforced by Converse in the
// agent package.
type Session struct {
	ID string

	mu       sync.Mutex
	turns    []Turn
	lastUsed time.Time
}

// NewSession creates an empty session transcript.
func NewSession(id string) *Session {
	return &Session{ID: id, lastUsed: time.Now()}
}

// AppendUser records a user turn. Empty or whitespace-only text is
// rejected without modifying the transcript.
func (s *Session) AppendUser(text string) error {
	if isBlank(text) {
		return ErrEmptyMessage
	}
	s.append(Turn{Role: llm.RoleUser, Text: text, At: time.Now()})
	return nil
}

// AppendAssistant records a successful assistant turn with its tool
// invocations.
func (s *Session) AppendAssistant(text string, invocations []ToolInvocation) {
	s.append(Turn{
		Role:        llm.RoleAssistant,
		Text:        text,
		Invocations: invocations,
		At:          time.Now(),
	})
}

// AppendError records a failed round-trip as an assistant-role error turn,
// so the transcript never holds a partial answer and stays usable for the
// next input.
func (s *Session) AppendError(err error) {
	s.append(Turn{
		Role:    llm.RoleAssistant,
		Text:    "Error processing your request: " + err.Error(),
		IsError: true,
		At:      time.Now(),
	})
}

func (s *Session) append(t Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, t)
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// Turns returns a copy of the transcript.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Messages converts the transcript into provider-neutral chat messages.
// Error turns are skipped: a failed round-trip contributes nothing to the
// model's context.
func (s *Session) Messages() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]llm.Message, 0, len(s.turns))
	for _, t := range s.turns {
		if t.IsError {
			continue
		}
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Text})
	}
	return msgs
}

// LastUsed returns the time of the most recent append or store access.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
