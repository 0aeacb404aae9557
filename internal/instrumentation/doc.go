// Package instrumentation wires OpenTelemetry metrics and tracing for
// auraflow.
//
// # Metrics
//
// Model gateway:
//   - model_requests_total, model_request_duration_seconds by backend, model, status
//   - model_catalog_refresh_total by backend and result
//
// Conversation:
//   - conversation_turns_total by outcome (done, cap_reached, failed)
//   - conversation_rounds histogram of rounds per turn
//   - active_turns gauge
//
// Tools and Google APIs:
//   - tool_invocations_total, tool_duration_seconds by tool, status, error_kind
//   - google_api_operations_total, google_api_operation_duration_seconds
//   - oauth_token_refresh_total
//
// HTTP:
//   - http_requests_total, http_request_duration_seconds
//
// Metrics go to Prometheus by default (served by the metrics server on its
// own port), or to an OTLP collector or stdout. Tracing is off unless
// TRACING_EXPORTER is set.
//
// # Spans
//
// A turn produces conversation.turn with model.complete and tool.<name>
// children; Google calls nest google.<service>.<operation> under the tool.
//
// A zero Metrics and a nil *Metrics both record nothing, so components can
// be built without a provider in tests.
package instrumentation
