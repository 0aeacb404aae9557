package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/teemow/auraflow/internal/calendar"
	"github.com/teemow/auraflow/internal/config"
	"github.com/teemow/auraflow/internal/conversation"
	"github.com/teemow/auraflow/internal/google"
	"github.com/teemow/auraflow/internal/history"
	"github.com/teemow/auraflow/internal/instrumentation"
	"github.com/teemow/auraflow/internal/model"
	"github.com/teemow/auraflow/internal/prompt"
	"github.com/teemow/auraflow/internal/server"
	"github.com/teemow/auraflow/internal/tasks"
	"github.com/teemow/auraflow/internal/toolerr"
	"github.com/teemow/auraflow/internal/tools"
)

// errGoogleNotConfigured backs every tool call when no OAuth client is set.
var errGoogleNotConfigured = errors.New("google oauth client is not configured")

// runtime is the wired application shared by all commands.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider

	backend      model.Backend
	catalog      *model.Catalog
	gateway      *model.Gateway
	oauth        *oauth2.Config
	tokens       google.TokenStore
	registry     *tools.Registry
	orchestrator *conversation.Orchestrator
	server       *server.ServerContext
}

// buildRuntime validates c and wires config, instrumentation, the model
// gateway, the Google services, the tool registry, the orchestrator and the
// history store into a ServerContext.
func buildRuntime(ctx context.Context, c *config.Config, logger *slog.Logger) (_ *runtime, err error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err != nil {
			_ = provider.Shutdown(ctx)
		}
	}()
	metrics := provider.Metrics()

	rt := &runtime{cfg: c, logger: logger, provider: provider}

	rt.backend, err = model.NewBackend(c.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model backend: %w", err)
	}
	rt.catalog = model.NewBackendCatalog(rt.backend,
		model.WithPreferences(c.LLM.Preferences),
		model.WithCatalogMetrics(metrics, rt.backend.Name()))
	rt.gateway = model.NewGateway(rt.backend, rt.catalog,
		model.WithTimeout(c.LLM.Timeout.Std()),
		model.WithMetrics(metrics),
		model.WithLogger(logger))

	var clients google.HTTPClientSource = google.HTTPClientFunc(func(context.Context, string) (*http.Client, error) {
		return nil, toolerr.Wrap(toolerr.KindAuthExpired, "google.token", errGoogleNotConfigured)
	})
	if c.Google.Enabled() {
		rt.oauth = google.NewOAuthConfig(c.Google, nil)
		rt.tokens = google.NewFileTokenStore(c.Google.TokenDir)
		clients = google.NewClientFactory(rt.oauth, rt.tokens, metrics, logger)
	} else {
		logger.Warn("google oauth client not configured, calendar and tasks tools will report expired authorization")
	}

	rt.registry = tools.NewRegistry(
		calendar.NewGoogleService(clients, calendar.WithMetrics(metrics)),
		tasks.NewGoogleService(clients, tasks.WithMetrics(metrics)),
		tools.WithMetrics(metrics),
		tools.WithAuditLogger(instrumentation.NewAuditLogger(logger, instrConfig.Audit)),
		tools.WithLogger(logger),
	)

	prompts := prompt.NewBuilder(
		prompt.WithPersona(c.Conversation.Persona),
		prompt.WithHistoryLimit(c.Conversation.HistoryLimit),
	)
	rt.orchestrator = conversation.New(rt.gateway, rt.registry,
		conversation.WithMaxRounds(c.Conversation.MaxRounds),
		conversation.WithToolTimeout(c.Conversation.ToolTimeout.Std()),
		conversation.WithModelTimeout(c.LLM.Timeout.Std()),
		conversation.WithModel(c.LLM.Model),
		conversation.WithPromptBuilder(prompts),
		conversation.WithMetrics(metrics),
		conversation.WithLogger(logger),
	)

	store, err := history.Open(c.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	rt.server = server.NewServerContext(ctx, rt.orchestrator, rt.gateway, store, logger)
	rt.server.SetHistoryLimit(prompts.HistoryLimit())

	logger.Debug("runtime ready",
		slog.String("backend", rt.backend.Name()),
		slog.String("history", c.History.Driver),
		slog.Int("tools", len(rt.registry.Names())),
		slog.Int("max_rounds", rt.orchestrator.MaxRounds()))
	return rt, nil
}

// user is the locally configured identity used by chat and mcp.
func (rt *runtime) user() prompt.UserContext {
	return prompt.UserContext{
		ID:       rt.cfg.User.ID,
		Name:     rt.cfg.User.Name,
		Email:    rt.cfg.User.Email,
		TimeZone: rt.cfg.User.TimeZone,
	}
}

// Close shuts down the server context and flushes instrumentation.
func (rt *runtime) Close(ctx context.Context) error {
	return errors.Join(rt.server.Shutdown(), rt.provider.Shutdown(ctx))
}
