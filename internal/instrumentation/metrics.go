package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrErrorKind = "error_kind"
	attrBackend   = "backend"
	attrModel     = "model"
	attrOutcome   = "outcome"
	attrUser      = "user"
)

// Metrics records the counters and histograms for one process. A zero
// Metrics is a valid no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	modelRequestsTotal   metric.Int64Counter
	modelRequestDuration metric.Float64Histogram
	catalogRefreshTotal  metric.Int64Counter

	turnsTotal  metric.Int64Counter
	turnRounds  metric.Int64Histogram
	activeTurns metric.Int64UpDownCounter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram
	oauthTokenRefreshTotal     metric.Int64Counter

	// detailedLabels adds the anonymized user to tool metrics.
	detailedLabels bool
}

var (
	latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}
	modelBuckets   = []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 20.0, 30.0, 60.0}
)

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.httpRequestsTotal, "http_requests_total", "Total number of HTTP requests", "{request}"},
		{&m.modelRequestsTotal, "model_requests_total", "Total number of model completion requests", "{request}"},
		{&m.catalogRefreshTotal, "model_catalog_refresh_total", "Total number of model catalog fetches", "{fetch}"},
		{&m.turnsTotal, "conversation_turns_total", "Total number of conversation turns by outcome", "{turn}"},
		{&m.toolInvocationsTotal, "tool_invocations_total", "Total number of tool invocations", "{invocation}"},
		{&m.googleAPIOperationsTotal, "google_api_operations_total", "Total number of Google API operations", "{operation}"},
		{&m.oauthTokenRefreshTotal, "oauth_token_refresh_total", "Total number of OAuth token refresh attempts", "{attempt}"},
	}
	for _, c := range counters {
		inst, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.dst = inst
	}

	histograms := []struct {
		dst     *metric.Float64Histogram
		name    string
		desc    string
		buckets []float64
	}{
		{&m.httpRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds", modelBuckets},
		{&m.modelRequestDuration, "model_request_duration_seconds", "Model completion latency in seconds", modelBuckets},
		{&m.toolDuration, "tool_duration_seconds", "Tool execution duration in seconds", latencyBuckets},
		{&m.googleAPIOperationDuration, "google_api_operation_duration_seconds", "Google API operation duration in seconds", latencyBuckets},
	}
	for _, h := range histograms {
		inst, err := meter.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(h.buckets...),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s histogram: %w", h.name, err)
		}
		*h.dst = inst
	}

	var err error
	m.turnRounds, err = meter.Int64Histogram(
		"conversation_rounds",
		metric.WithDescription("Model rounds used per conversation turn"),
		metric.WithUnit("{round}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 5, 6, 8, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation_rounds histogram: %w", err)
	}

	m.activeTurns, err = meter.Int64UpDownCounter(
		"active_turns",
		metric.WithDescription("Number of conversation turns in flight"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_turns gauge: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordModelRequest records one completion against a backend.
// status is StatusSuccess, StatusError or StatusTimeout.
func (m *Metrics) RecordModelRequest(ctx context.Context, backend, model, status string, duration time.Duration) {
	if m == nil || m.modelRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrBackend, backend),
		attribute.String(attrModel, model),
		attribute.String(attrStatus, status),
	)
	m.modelRequestsTotal.Add(ctx, 1, attrs)
	m.modelRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCatalogRefresh records one upstream model listing.
func (m *Metrics) RecordCatalogRefresh(ctx context.Context, backend, result string) {
	if m == nil || m.catalogRefreshTotal == nil {
		return
	}
	m.catalogRefreshTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrBackend, backend),
		attribute.String(attrResult, result),
	))
}

// RecordTurn records a finished turn. outcome is OutcomeDone,
// OutcomeCapReached or OutcomeFailed.
func (m *Metrics) RecordTurn(ctx context.Context, outcome string, rounds int) {
	if m == nil || m.turnsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	m.turnsTotal.Add(ctx, 1, attrs)
	m.turnRounds.Record(ctx, int64(rounds), attrs)
}

// TurnStarted increments the in-flight turn gauge.
func (m *Metrics) TurnStarted(ctx context.Context) {
	if m == nil || m.activeTurns == nil {
		return
	}
	m.activeTurns.Add(ctx, 1)
}

// TurnFinished decrements the in-flight turn gauge.
func (m *Metrics) TurnFinished(ctx context.Context) {
	if m == nil || m.activeTurns == nil {
		return
	}
	m.activeTurns.Add(ctx, -1)
}

// RecordToolInvocation records one dispatched tool call. errorKind is empty
// on success. user is only attached when detailed labels are enabled and
// should already be anonymized.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, status, errorKind, user string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	kv := []attribute.KeyValue{
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	}
	if errorKind != "" {
		kv = append(kv, attribute.String(attrErrorKind, errorKind))
	}
	if m.detailedLabels && user != "" {
		kv = append(kv, attribute.String(attrUser, user))
	}
	attrs := metric.WithAttributes(kv...)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation records one call against a Google API.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordOAuthTokenRefresh records a token refresh. result is one of the
// OAuthResult constants.
func (m *Metrics) RecordOAuthTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.oauthTokenRefreshTotal == nil {
		return
	}
	m.oauthTokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
