package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T) (*Provider, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
		DetailedLabels:  true,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider, ctx
}

func TestMetrics_Record(t *testing.T) {
	provider, ctx := newTestProvider(t)
	m := provider.Metrics()
	if m == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// None of these should panic.
	m.RecordHTTPRequest(ctx, "POST", "/api/chat", 200, 120*time.Millisecond)
	m.RecordModelRequest(ctx, "chat", "llama-3.1-8b", StatusSuccess, 2*time.Second)
	m.RecordModelRequest(ctx, "chat", "llama-3.1-8b", StatusTimeout, 30*time.Second)
	m.RecordCatalogRefresh(ctx, "chat", StatusSuccess)
	m.TurnStarted(ctx)
	m.RecordTurn(ctx, OutcomeDone, 2)
	m.RecordTurn(ctx, OutcomeCapReached, 5)
	m.TurnFinished(ctx)
	m.RecordToolInvocation(ctx, "tasks_get_tasks", StatusSuccess, "", "user:abc", 40*time.Millisecond)
	m.RecordToolInvocation(ctx, "calendar_delete_event", StatusError, "not_found", "", 80*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationList, StatusSuccess, 90*time.Millisecond)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
}

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()

	var zero Metrics
	zero.RecordModelRequest(ctx, "mock", "mock", StatusSuccess, time.Millisecond)
	zero.RecordTurn(ctx, OutcomeFailed, 0)
	zero.TurnStarted(ctx)

	var nilMetrics *Metrics
	nilMetrics.RecordToolInvocation(ctx, "x", StatusError, "generic", "", time.Millisecond)
	nilMetrics.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
	nilMetrics.TurnFinished(ctx)
}
