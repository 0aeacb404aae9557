package model

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teemow/auraflow/internal/instrumentation"
	"github.com/teemow/auraflow/internal/logging"
)

// DefaultTimeout bounds a single completion.
const DefaultTimeout = 60 * time.Second

// Gateway is the single entry point for model calls. It resolves the model
// through its Catalog, applies a per-call timeout and normalises failures
// to UnavailableError or ResponseInvalidError.
type Gateway struct {
	backend Backend
	catalog *Catalog
	timeout time.Duration
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithMetrics records model_request_* metrics.
func WithMetrics(m *instrumentation.Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// NewGateway wraps backend. A nil catalog lists the backend's models.
func NewGateway(backend Backend, catalog *Catalog, opts ...GatewayOption) *Gateway {
	if catalog == nil {
		catalog = NewBackendCatalog(backend)
	}
	g := &Gateway{
		backend: backend,
		catalog: catalog,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.WithComponent(g.logger, "model").With(logging.Backend(backend.Name()))
	return g
}

// Backend returns the backend name.
func (g *Gateway) Backend() string { return g.backend.Name() }

// Catalog returns the gateway's model catalog.
func (g *Gateway) Catalog() *Catalog { return g.catalog }

// ListModels returns the catalog, fetching it on first use.
func (g *Gateway) ListModels(ctx context.Context) ([]ModelInfo, error) {
	models, err := g.catalog.Models(ctx)
	if err != nil {
		return nil, g.normalise(ctx, err)
	}
	return models, nil
}

// DefaultModel returns the model used when a request names none.
func (g *Gateway) DefaultModel(ctx context.Context) (string, error) {
	id, err := g.catalog.DefaultModel(ctx)
	if err != nil {
		return "", g.normalise(ctx, err)
	}
	return id, nil
}

// Complete runs one completion under the gateway timeout.
func (g *Gateway) Complete(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if req.Model == "" {
		id, err := g.catalog.DefaultModel(ctx)
		if err != nil {
			return nil, g.normalise(ctx, err)
		}
		req.Model = id
	}

	ctx, span := instrumentation.StartModelSpan(ctx, g.backend.Name(), req.Model, req.Round)
	start := time.Now()

	resp, err := g.backend.Complete(ctx, req)
	if err != nil {
		err = g.normalise(ctx, err)
	}
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		if errors.Is(err, context.DeadlineExceeded) {
			status = instrumentation.StatusTimeout
		}
	}
	g.metrics.RecordModelRequest(ctx, g.backend.Name(), req.Model, status, duration)
	instrumentation.EndSpan(span, err)

	if err != nil {
		g.logger.Warn("model request failed",
			logging.Model(req.Model),
			logging.Round(req.Round),
			logging.Duration(duration),
			logging.Err(err))
		return nil, err
	}
	g.logger.Debug("model request completed",
		logging.Model(req.Model),
		logging.Round(req.Round),
		logging.Duration(duration),
		slog.Int("tool_calls", len(resp.ToolCalls)))
	return resp, nil
}

// normalise maps any failure to one of the two gateway error types.
func (g *Gateway) normalise(ctx context.Context, err error) error {
	if IsGatewayError(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = errors.Join(err, ctxErr)
	}
	return &UnavailableError{Backend: g.backend.Name(), Err: err}
}
