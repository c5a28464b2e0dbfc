package provider

import (
	"context"

	"pagegist/internal/domain"
)

// Client completes a single prompt against an LLM backend. Implementations
// make exactly one HTTP call per invocation and keep no state between calls.
type Client interface {
	Complete(ctx context.Context, prompt string, cfg domain.ProviderConfig) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt string, cfg domain.ProviderConfig) (string, error)

func (f ClientFunc) Complete(ctx context.Context, prompt string, cfg domain.ProviderConfig) (string, error) {
	return f(ctx, prompt, cfg)
}

// DisplayName is the human readable backend name used in error messages.
func DisplayName(id domain.ProviderID) string {
	switch id {
	case domain.ProviderGroq:
		return "Groq"
	case domain.ProviderGemini:
		return "Gemini"
	default:
		return string(id)
	}
}
