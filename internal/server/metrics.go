package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teemow/auraflow/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is where the metrics server listens by default.
	DefaultMetricsAddr = ":9090"

	// DefaultShutdownTimeout bounds graceful shutdown of both servers.
	DefaultShutdownTimeout = 30 * time.Second

	metricsReadTimeout  = 10 * time.Second
	metricsWriteTimeout = 10 * time.Second
	metricsIdleTimeout  = 60 * time.Second
)

// MetricsServerConfig configures the metrics server.
type MetricsServerConfig struct {
	Addr     string
	Provider *instrumentation.Provider
	Logger   *slog.Logger
}

// MetricsServer exposes /metrics on its own port, apart from the chat API.
type MetricsServer struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewMetricsServer requires an enabled provider; the OTel Prometheus
// exporter registers with the default registry that promhttp serves.
func NewMetricsServer(cfg MetricsServerConfig) (*MetricsServer, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	}
	if !cfg.Provider.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultMetricsAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: metricsReadTimeout,
			WriteTimeout:      metricsWriteTimeout,
			IdleTimeout:       metricsIdleTimeout,
		},
		logger: cfg.Logger,
	}, nil
}

// Handler returns the metrics mux.
func (s *MetricsServer) Handler() http.Handler { return s.httpServer.Handler }

// Addr returns the listen address.
func (s *MetricsServer) Addr() string { return s.httpServer.Addr }

// Start listens and blocks until Shutdown.
func (s *MetricsServer) Start() error {
	s.logger.Info("starting metrics server", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}
