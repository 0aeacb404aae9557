package instrumentation

import (
	"fmt"
	"os"
	"strconv"
)

// Config controls metrics and tracing export.
type Config struct {
	// ServiceName defaults to "auraflow".
	ServiceName    string
	ServiceVersion string
	// ServiceInstanceID defaults to the hostname.
	ServiceInstanceID string

	// Enabled switches the whole provider. Disabled providers hand out a
	// no-op Metrics and tracer.
	Enabled bool

	// MetricsExporter is "prometheus", "otlp" or "stdout".
	MetricsExporter string
	// TracingExporter is "otlp", "stdout" or "none".
	TracingExporter string

	// OTLPEndpoint is host:port without scheme.
	OTLPEndpoint string
	// OTLPInsecure disables TLS to the collector. Local development only.
	OTLPInsecure bool

	// TraceSamplingRate is in [0, 1].
	TraceSamplingRate float64

	// DetailedLabels adds the anonymized user to tool metrics. Keep it off in
	// production.
	DetailedLabels bool

	Audit AuditConfig
}

// AuditConfig controls the tool audit log.
type AuditConfig struct {
	Enabled bool
	// IncludeUserID logs raw user ids instead of hashes.
	IncludeUserID bool
}

// DefaultConfig reads the OTEL_* and related environment variables.
func DefaultConfig() Config {
	return Config{
		ServiceName:       envString("OTEL_SERVICE_NAME", "auraflow"),
		ServiceVersion:    "unknown",
		ServiceInstanceID: envString("OTEL_SERVICE_INSTANCE_ID", ""),
		Enabled:           envBool("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:   envString("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:   envString("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:      envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:      envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate: envFloat("OTEL_TRACES_SAMPLER_ARG", 0.1),
		DetailedLabels:    envBool("METRICS_DETAILED_LABELS", false),
		Audit: AuditConfig{
			Enabled:       envBool("AUDIT_LOGGING_ENABLED", true),
			IncludeUserID: envBool("AUDIT_LOGGING_INCLUDE_PII", false),
		},
	}
}

// Validate checks exporter names and the sampling rate.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}
	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" && (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when an OTLP exporter is selected")
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// Label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"

	OutcomeDone       = "done"
	OutcomeCapReached = "cap_reached"
	OutcomeFailed     = "failed"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"

	ServiceCalendar = "calendar"
	ServiceTasks    = "tasks"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Google API operation labels.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)
