// File path: internal/llm/providers/provider.go
package providers

import "context"

// Message is one role-tagged entry in the transcript sent upstream.
type Message struct {
	Role    string
	Content string
}

// Provider is a chat completion backend. Implementations are black-box and
// non-deterministic; callers own parsing and validation of the returned text.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}
