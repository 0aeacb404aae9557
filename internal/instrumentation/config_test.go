package instrumentation

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	for _, k := range []string{"OTEL_SERVICE_NAME", "INSTRUMENTATION_ENABLED", "METRICS_EXPORTER", "TRACING_EXPORTER", "OTEL_TRACES_SAMPLER_ARG"} {
		t.Setenv(k, "")
	}

	config := DefaultConfig()

	if config.ServiceName != "auraflow" {
		t.Errorf("expected ServiceName 'auraflow', got %q", config.ServiceName)
	}
	if !config.Enabled {
		t.Error("expected Enabled to be true by default")
	}
	if config.MetricsExporter != ExporterPrometheus {
		t.Errorf("expected MetricsExporter 'prometheus', got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterNone {
		t.Errorf("expected TracingExporter 'none', got %q", config.TracingExporter)
	}
	if config.TraceSamplingRate != 0.1 {
		t.Errorf("expected TraceSamplingRate 0.1, got %f", config.TraceSamplingRate)
	}
	if !config.Audit.Enabled || config.Audit.IncludeUserID {
		t.Errorf("unexpected audit defaults: %+v", config.Audit)
	}
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "test-service")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("METRICS_EXPORTER", "stdout")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("AUDIT_LOGGING_INCLUDE_PII", "not-a-bool")

	config := DefaultConfig()

	if config.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %q", config.ServiceName)
	}
	if config.Enabled {
		t.Error("expected Enabled to be false")
	}
	if config.MetricsExporter != ExporterStdout {
		t.Errorf("expected MetricsExporter 'stdout', got %q", config.MetricsExporter)
	}
	if config.TraceSamplingRate != 0.5 {
		t.Errorf("expected TraceSamplingRate 0.5, got %f", config.TraceSamplingRate)
	}
	if config.Audit.IncludeUserID {
		t.Error("unparseable bool should fall back to the default")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"defaults", Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone, TraceSamplingRate: 0.1}, ""},
		{"empty exporters", Config{}, ""},
		{"rate too high", Config{TraceSamplingRate: 1.5}, "sampling rate"},
		{"rate negative", Config{TraceSamplingRate: -0.1}, "sampling rate"},
		{"bad metrics exporter", Config{MetricsExporter: "graphite"}, "invalid metrics exporter"},
		{"bad tracing exporter", Config{TracingExporter: "jaeger"}, "invalid tracing exporter"},
		{"otlp without endpoint", Config{MetricsExporter: ExporterOTLP}, "OTLP endpoint"},
		{"otlp with endpoint", Config{TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
