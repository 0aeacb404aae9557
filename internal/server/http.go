package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/teemow/auraflow/internal/instrumentation"
)

const (
	// DefaultHTTPAddr is where serve listens without --http-addr.
	DefaultHTTPAddr = ":8080"

	httpReadHeaderTimeout = 10 * time.Second
	httpIdleTimeout       = 120 * time.Second
)

// HTTPServerConfig configures the chat API server.
type HTTPServerConfig struct {
	Addr    string
	Metrics *instrumentation.Metrics
}

// HTTPServer serves the chat API, the websocket endpoint and health probes.
type HTTPServer struct {
	httpServer *http.Server
	health     *HealthChecker
	logger     *slog.Logger
}

// NewHTTPServer wires the routes for sc.
func NewHTTPServer(sc *ServerContext, cfg HTTPServerConfig) *HTTPServer {
	if cfg.Addr == "" {
		cfg.Addr = DefaultHTTPAddr
	}
	health := NewHealthChecker(sc)

	mux := http.NewServeMux()
	route := func(pattern string, h http.Handler) {
		mux.Handle(pattern, instrumentHTTP(cfg.Metrics, pattern, h))
	}
	route("/api/chat", sc.ChatHandler())
	route("/api/models", sc.ModelsHandler())
	route("/ws", sc.WebSocketHandler())
	health.RegisterHealthEndpoints(mux)

	return &HTTPServer{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: httpReadHeaderTimeout,
			IdleTimeout:       httpIdleTimeout,
			BaseContext:       func(net.Listener) context.Context { return sc.Context() },
		},
		health: health,
		logger: sc.logger,
	}
}

// Handler returns the routed handler.
func (s *HTTPServer) Handler() http.Handler { return s.httpServer.Handler }

// Health returns the server's health checker.
func (s *HTTPServer) Health() *HealthChecker { return s.health }

// Addr returns the listen address.
func (s *HTTPServer) Addr() string { return s.httpServer.Addr }

// Start listens and blocks until Shutdown.
func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server not ready and drains connections.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
