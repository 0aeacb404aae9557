package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for every span auraflow starts.
const TracerName = "github.com/teemow/auraflow"

// Span attribute keys.
const (
	SpanAttrTurnID    = "auraflow.turn_id"
	SpanAttrRound     = "auraflow.round"
	SpanAttrTool      = "auraflow.tool"
	SpanAttrCallID    = "auraflow.tool_call_id"
	SpanAttrBackend   = "llm.backend"
	SpanAttrModel     = "llm.model"
	SpanAttrToolCalls = "llm.tool_calls"
	SpanAttrService   = "google.service"
	SpanAttrOperation = "google.operation"
)

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartSpan starts an internal span.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartTurnSpan starts the root span of one conversation turn.
func StartTurnSpan(ctx context.Context, turnID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "conversation.turn",
		trace.WithAttributes(attribute.String(SpanAttrTurnID, turnID)),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartModelSpan starts a client span for one model completion.
func StartModelSpan(ctx context.Context, backend, model string, round int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "model.complete",
		trace.WithAttributes(
			attribute.String(SpanAttrBackend, backend),
			attribute.String(SpanAttrModel, model),
			attribute.Int(SpanAttrRound, round),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartToolSpan starts a span for one tool dispatch.
func StartToolSpan(ctx context.Context, toolName, callID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(
			attribute.String(SpanAttrTool, toolName),
			attribute.String(SpanAttrCallID, callID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartGoogleAPISpan starts a client span named google.<service>.<operation>.
func StartGoogleAPISpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "google."+service+"."+operation,
		trace.WithAttributes(
			attribute.String(SpanAttrService, service),
			attribute.String(SpanAttrOperation, operation),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// GetTraceID returns the active trace id or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the active span id or "".
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}
