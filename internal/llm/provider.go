package llm

import "context"

// Provider is the interface all LLM backends implement. The chat UI blocks
// on the whole round-trip, so there is no streaming surface.
type Provider interface {
	// Chat sends a chat completion request and returns the full reply.
	Chat(ctx context.Context, req *ChatRequest) (*Reply, error)

	// Name returns the provider name (e.g. "anthropic", "openai").
	Name() string
}

// ErrorType classifies provider errors for fallback decisions.
type ErrorType int

const (
	ErrorUnknown      ErrorType = iota
	ErrorRateLimit              // 429
	ErrorAuth                   // 401/403
	ErrorInvalidInput           // 400
	ErrorServer                 // 500+
	ErrorTimeout                // context deadline exceeded
	ErrorNetwork                // connection refused, DNS, etc.
)

// ProviderError wraps a backend error with its classification.
type ProviderError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
