package llm

import (
	"context"
	"errors"
	"log"
)

// FallbackProvider tries providers in order, moving on only for errors that
// a different backend could plausibly survive.
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a provider chain. The first provider is primary.
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	return &FallbackProvider{providers: providers}
}

func (f *FallbackProvider) Name() string {
	if len(f.providers) > 0 {
		return f.providers[0].Name() + "+fallback"
	}
	return "fallback"
}

func (f *FallbackProvider) Chat(ctx context.Context, req *ChatRequest) (*Reply, error) {
	var lastErr error
	for _, p := range f.providers {
		reply, err := p.Chat(ctx, req)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
		log.Printf("[llm] provider %s failed: %v, trying next", p.Name(), err)
	}
	return nil, lastErr
}

// isRetryable reports whether a different provider is worth trying.
func isRetryable(err error) bool {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		return true
	}
	switch perr.Type {
	case ErrorAuth, ErrorInvalidInput:
		return false // these won't succeed elsewhere with the same request
	default:
		return true
	}
}
