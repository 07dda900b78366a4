// Package llm defines the completion provider used by chats and its eino-backed
// implementations.
package llm

import (
	"context"

	"github.com/natebrady-cyera/deep-thought/internal/db/models"
)

// Message is one conversation turn replayed to the provider.
type Message struct {
	Role    models.MessageRole
	Content string
}

// Usage is the token accounting reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is a provider reply.
type Completion struct {
	Content string
	Usage   Usage
}

// Provider produces a completion for an ordered conversation under a system prompt.
// Implementations must honor ctx cancellation; they do not retry.
type Provider interface {
	Complete(ctx context.Context, messages []Message, systemPrompt string, maxTokens int) (*Completion, error)
}
