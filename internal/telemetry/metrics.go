package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ServerMetrics holds the HTTP instruments. Create once at startup.
type ServerMetrics struct {
	RequestCounter  metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ErrorCounter    metric.Int64Counter
}

// NewServerMetrics registers the HTTP instruments on the global meter provider.
func NewServerMetrics() (*ServerMetrics, error) {
	meter := otel.Meter("deep-thought/http")

	requestCounter, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 30000),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"http.server.error.count",
		metric.WithDescription("Total number of HTTP server errors (5xx)"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &ServerMetrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		ErrorCounter:    errorCounter,
	}, nil
}

// RecordRequest records one finished request.
func (m *ServerMetrics) RecordRequest(ctx context.Context, method, route string, status int, durationMs float64) {
	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
		attribute.Int(AttrHTTPStatusCode, status),
	)

	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, durationMs, attrs)
	if status >= 500 {
		m.ErrorCounter.Add(ctx, 1, attrs)
	}
}

// CompletionMetrics holds the instruments for completion provider calls.
type CompletionMetrics struct {
	Calls    metric.Int64Counter
	Failures metric.Int64Counter
	Tokens   metric.Int64Counter
	Duration metric.Float64Histogram
}

// NewCompletionMetrics registers the completion instruments on the global meter provider.
func NewCompletionMetrics() (*CompletionMetrics, error) {
	meter := otel.Meter("deep-thought/llm")

	calls, err := meter.Int64Counter(
		"llm.completion.count",
		metric.WithDescription("Total number of completion calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"llm.completion.failure.count",
		metric.WithDescription("Completion calls that failed or returned no content"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	tokens, err := meter.Int64Counter(
		"llm.completion.tokens",
		metric.WithDescription("Tokens reported by the completion provider"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"llm.completion.duration",
		metric.WithDescription("Completion call duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000),
	)
	if err != nil {
		return nil, err
	}

	return &CompletionMetrics{Calls: calls, Failures: failures, Tokens: tokens, Duration: duration}, nil
}

// RecordCompletion records one provider call. tokens is ignored on failure.
func (m *CompletionMetrics) RecordCompletion(ctx context.Context, chatType string, tokens int, durationMs float64, err error) {
	attrs := metric.WithAttributes(
		attribute.String(AttrChatType, chatType),
		attribute.Bool(AttrLLMSuccess, err == nil),
	)

	m.Calls.Add(ctx, 1, attrs)
	m.Duration.Record(ctx, durationMs, attrs)
	if err != nil {
		m.Failures.Add(ctx, 1, attrs)
		return
	}
	m.Tokens.Add(ctx, int64(tokens), attrs)
}

// AuthMetrics holds the instruments for bearer-token authentication.
type AuthMetrics struct {
	AuthAttempts metric.Int64Counter
	AuthFailures metric.Int64Counter
}

// NewAuthMetrics registers the authentication instruments on the global meter provider.
func NewAuthMetrics() (*AuthMetrics, error) {
	meter := otel.Meter("deep-thought/auth")

	authAttempts, err := meter.Int64Counter(
		"auth.attempt.count",
		metric.WithDescription("Total number of authentication attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	authFailures, err := meter.Int64Counter(
		"auth.failure.count",
		metric.WithDescription("Total number of failed authentication attempts"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{AuthAttempts: authAttempts, AuthFailures: authFailures}, nil
}

// RecordAuth records an authentication attempt. reason is empty on success.
func (a *AuthMetrics) RecordAuth(ctx context.Context, success bool, reason string) {
	attrs := metric.WithAttributes(
		attribute.Bool(AttrAuthSuccess, success),
		attribute.String(AttrAuthReason, reason),
	)

	a.AuthAttempts.Add(ctx, 1, attrs)
	if !success {
		a.AuthFailures.Add(ctx, 1, attrs)
	}
}

// Metric attribute keys.
const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPRoute      = "http.route"
	AttrHTTPStatusCode = "http.status_code"

	AttrLLMSuccess = "llm.success"

	AttrAuthSuccess = "auth.success"
	AttrAuthReason  = "auth.reason"
)
