package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/auraflow/internal/instrumentation"
)

func newTestProvider(t *testing.T, enabled bool) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "auraflow-test",
		ServiceVersion:  "test",
		Enabled:         enabled,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func TestNewMetricsServer(t *testing.T) {
	tests := []struct {
		name        string
		cfg         MetricsServerConfig
		wantAddr    string
		errContains string
	}{
		{name: "explicit addr", cfg: MetricsServerConfig{Addr: ":9191", Provider: newTestProvider(t, true)}, wantAddr: ":9191"},
		{name: "default addr", cfg: MetricsServerConfig{Provider: newTestProvider(t, true)}, wantAddr: DefaultMetricsAddr},
		{name: "nil provider", cfg: MetricsServerConfig{}, errContains: "provider is required"},
		{name: "disabled provider", cfg: MetricsServerConfig{Provider: newTestProvider(t, false)}, errContains: "not enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMetricsServer(tt.cfg)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, s.Addr())
		})
	}
}

func TestMetricsServer_ExposesRecordedMetrics(t *testing.T) {
	provider := newTestProvider(t, true)
	s, err := NewMetricsServer(MetricsServerConfig{Provider: provider})
	require.NoError(t, err)

	provider.Metrics().RecordModelRequest(context.Background(), "mock", "mock", instrumentation.StatusSuccess, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "model_requests_total"), "metrics output lacks model_requests_total")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	s, err := NewMetricsServer(MetricsServerConfig{Provider: newTestProvider(t, true)})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}
