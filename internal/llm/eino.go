package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
)

// EinoProvider adapts an eino chat model to Provider.
type EinoProvider struct {
	name        string
	chatModel   model.BaseChatModel
	temperature *float32
}

// NewEinoProvider wraps chatModel. name identifies the backend in errors and logs.
func NewEinoProvider(name string, chatModel model.BaseChatModel) *EinoProvider {
	return &EinoProvider{name: name, chatModel: chatModel}
}

// WithTemperature sets the sampling temperature sent with every request.
func (p *EinoProvider) WithTemperature(t float32) *EinoProvider {
	p.temperature = &t
	return p
}

// Name returns the backend name.
func (p *EinoProvider) Name() string {
	return p.name
}

// Complete sends the system prompt followed by messages and returns the reply.
func (p *EinoProvider) Complete(ctx context.Context, messages []Message, systemPrompt string, maxTokens int) (*Completion, error) {
	input := make([]*schema.Message, 0, len(messages)+1)
	if systemPrompt != "" {
		input = append(input, schema.SystemMessage(systemPrompt))
	}
	for _, m := range messages {
		switch m.Role {
		case models.MessageRoleUser:
			input = append(input, schema.UserMessage(m.Content))
		case models.MessageRoleAssistant:
			input = append(input, schema.AssistantMessage(m.Content, nil))
		case models.MessageRoleSystem:
			input = append(input, schema.SystemMessage(m.Content))
		default:
			return nil, fmt.Errorf("%s: unsupported message role %q", p.name, m.Role)
		}
	}

	opts := []model.Option{}
	if maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(maxTokens))
	}
	if p.temperature != nil {
		opts = append(opts, model.WithTemperature(*p.temperature))
	}

	resp, err := p.chatModel.Generate(ctx, input, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s generate: %w", p.name, err)
	}
	if resp == nil {
		return nil, errors.New(p.name + " returned no message")
	}

	out := &Completion{Content: resp.Content}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		out.Usage = Usage{
			PromptTokens:     resp.ResponseMeta.Usage.PromptTokens,
			CompletionTokens: resp.ResponseMeta.Usage.CompletionTokens,
			TotalTokens:      resp.ResponseMeta.Usage.TotalTokens,
		}
	}
	return out, nil
}
