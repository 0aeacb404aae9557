package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/teemow/auraflow/internal/config"
	"github.com/teemow/auraflow/internal/logging"
	"github.com/teemow/auraflow/internal/model"
	"github.com/teemow/auraflow/internal/server"
)

// catalogRefreshTimeout bounds one scheduled catalog refresh.
const catalogRefreshTimeout = time.Minute

type serveOptions struct {
	httpAddr       string
	metricsAddr    string
	metricsEnabled bool
	catalogRefresh string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API server",
		Long: `Start the HTTP chat service.

Routes:
  POST /api/chat     {"message": "...", "model": "..."} -> {"response", "toolResults", "turnId"}
  GET  /api/models   model catalog and default model
  GET  /ws           websocket carrying the same chat exchange
  GET  /healthz, /readyz, /healthz/detailed

The caller identity is taken from the X-User-ID, X-User-Email, X-User-Name
and X-User-Timezone headers, which an authenticating reverse proxy must set.

Metrics are served separately on --metrics-addr at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyServeOptions(cmd, cfg, opts)
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9090", "Metrics server listen address")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics", true, "Serve Prometheus metrics")
	cmd.Flags().StringVar(&opts.catalogRefresh, "catalog-refresh", "", `Cron schedule for refreshing the model catalog (e.g. "@every 30m")`)

	return cmd
}

// applyServeOptions copies explicitly set flags over the config.
func applyServeOptions(cmd *cobra.Command, c *config.Config, opts serveOptions) {
	if cmd.Flags().Changed("http-addr") {
		c.Server.HTTPAddr = opts.httpAddr
	}
	if cmd.Flags().Changed("metrics-addr") {
		c.Server.MetricsAddr = opts.metricsAddr
	}
	if cmd.Flags().Changed("metrics") {
		c.Server.MetricsEnabled = opts.metricsEnabled
	}
	if cmd.Flags().Changed("catalog-refresh") {
		c.Server.CatalogRefresh = opts.catalogRefresh
	}
}

func runServe(c *config.Config) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := buildRuntime(shutdownCtx, c, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := rt.Close(ctx); err != nil {
			logger.Warn("error during shutdown", logging.Err(err))
		}
	}()

	errCh := make(chan error, 2)

	var metricsServer *server.MetricsServer
	if c.Server.MetricsEnabled && rt.provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:     c.Server.MetricsAddr,
			Provider: rt.provider,
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	if c.Server.CatalogRefresh != "" {
		scheduler, err := newCatalogScheduler(c.Server.CatalogRefresh, rt.catalog, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	httpServer := server.NewHTTPServer(rt.server, server.HTTPServerConfig{
		Addr:    c.Server.HTTPAddr,
		Metrics: rt.provider.Metrics(),
	})
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server failed", logging.Err(runErr))
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("error shutting down HTTP server", logging.Err(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("error shutting down metrics server", logging.Err(err))
		}
	}
	return runErr
}

// newCatalogScheduler returns a stopped scheduler that refreshes catalog on
// spec. Overlapping runs are skipped.
func newCatalogScheduler(spec string, catalog *model.Catalog, logger *slog.Logger) (*cron.Cron, error) {
	adapter := logging.NewCronAdapter(logger)
	c := cron.New(
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), catalogRefreshTimeout)
		defer cancel()
		models, err := catalog.Refresh(ctx)
		if err != nil {
			logger.Warn("model catalog refresh failed", logging.Err(err))
			return
		}
		logger.Info("model catalog refreshed", slog.Int("models", len(models)))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid catalog refresh schedule %q: %w", spec, err)
	}
	return c, nil
}
