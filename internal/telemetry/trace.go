package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts a span on the named tracer.
//
//	ctx, span := telemetry.StartSpan(ctx, TracerChat, "chat.SendMessage",
//	    attribute.String(telemetry.AttrChatID, chatID),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records err on the span and marks the span failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddEvent adds a named event to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Tracer names.
const (
	TracerChat     = "deep-thought/services/chat"
	TracerIdentity = "deep-thought/services/identity"
)

// Span attribute keys.
const (
	AttrCanvasID       = "canvas.id"
	AttrChatID         = "chat.id"
	AttrChatType       = "chat.type"
	AttrNodeID         = "node.id"
	AttrUserID         = "user.id"
	AttrUserRole       = "user.role"
	AttrContextChars   = "context.chars"
	AttrContextTokens  = "context.tokens_estimate"
	AttrHistoryLength  = "chat.history_length"
	AttrTokensTotal    = "llm.tokens.total"
	AttrBootstrapAdmin = "identity.bootstrap_admin"
)
