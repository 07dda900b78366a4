package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestMetrics_RecordWithoutProvider(t *testing.T) {
	ctx := context.Background()

	server, err := NewServerMetrics()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		server.RecordRequest(ctx, "GET", "/api/v1/canvases", 200, 12.5)
		server.RecordRequest(ctx, "POST", "/api/v1/chats/{chatID}/messages", 502, 900)
	})

	completions, err := NewCompletionMetrics()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		completions.RecordCompletion(ctx, "sales_assistant", 1200, 3400, nil)
		completions.RecordCompletion(ctx, "whats_next", 0, 120000, context.DeadlineExceeded)
	})

	authn, err := NewAuthMetrics()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		authn.RecordAuth(ctx, true, "")
		authn.RecordAuth(ctx, false, "expired")
	})
}

func TestStartSpan_NoopTracer(t *testing.T) {
	ctx, span := StartSpan(context.Background(), TracerChat, "chat.SendMessage",
		attribute.String(AttrChatID, "c1"),
	)
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		AddEvent(span, "context.over_budget", attribute.Int(AttrContextTokens, 120000))
		RecordError(span, errors.New("provider failed"))
		RecordError(span, nil)
	})
}
