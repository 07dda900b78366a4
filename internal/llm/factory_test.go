package llm

import (
	"context"
	"testing"
	"time"

	"github.com/natebrady-cyera/deep-thought/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfig_OpenAI(t *testing.T) {
	p, err := NewFromConfig(context.Background(), config.LLMConfig{
		Provider:    config.ProviderOpenAI,
		Model:       "gpt-4o-mini",
		APIKey:      "sk-test",
		BaseURL:     "http://127.0.0.1:1/v1",
		MaxTokens:   512,
		Temperature: 0.2,
		Timeout:     time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOpenAI, p.Name())
	require.NotNil(t, p.temperature)
	assert.Equal(t, float32(0.2), *p.temperature)
}

func TestNewFromConfig_Unsupported(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)
}
