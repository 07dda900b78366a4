package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/natebrady-cyera/deep-thought/internal/config"
)

// NewFromConfig builds the provider selected by cfg.Provider.
func NewFromConfig(ctx context.Context, cfg config.LLMConfig) (*EinoProvider, error) {
	var (
		chatModel model.BaseChatModel
		err       error
	)

	switch cfg.Provider {
	case config.ProviderClaude:
		cc := &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}
		if cfg.UseBedrock {
			cc.ByBedrock = true
			cc.Region = cfg.AWSRegion
		}
		if cfg.BaseURL != "" {
			baseURL := cfg.BaseURL
			cc.BaseURL = &baseURL
		}
		chatModel, err = claude.NewChatModel(ctx, cc)

	case config.ProviderOpenAI:
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})

	case config.ProviderOllama:
		chatModel, err = ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})

	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s chat model: %w", cfg.Provider, err)
	}

	return NewEinoProvider(cfg.Provider, chatModel).WithTemperature(cfg.Temperature), nil
}
