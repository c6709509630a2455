// Package llm implements the mind-map content collaborator on top of a
// chat-completion provider, plus an HTTP client for a remote instance.
package llm

import "context"

// Provider is a text completion backend (OpenAI, a local mock, ...).
type Provider interface {
	Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error)
	IsAvailable() bool
	Name() string
}

// CompletionOptions configures one completion request.
type CompletionOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Format      string  `json:"format"` // "json" or "text"
}
