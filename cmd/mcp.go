package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/auraflow/internal/logging"
	"github.com/teemow/auraflow/internal/resources"
)

func newMCPCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the Calendar and Tasks tools over MCP stdio",
		Long: `Start a Model Context Protocol server on standard input/output.

Every tool acts on behalf of the configured user (user.id, or --user). A
userId argument sent by the MCP client is ignored. The user's Google token
must already exist; run "auraflow auth" first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID != "" {
				cfg.User.ID = userID
			}
			return runMCP()
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id the tools act for (overrides user.id)")

	return cmd
}

func runMCP() error {
	ctx := context.Background()
	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			logger.Warn("error during shutdown", logging.Err(err))
		}
	}()

	mcpSrv := newMCPServer(rt)
	logger.Info("serving tools over MCP stdio", logging.UserHash(rt.user().ID))
	return runStdioServer(mcpSrv)
}

// newMCPServer exposes the registry and the user resources for rt's user.
func newMCPServer(rt *runtime) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("auraflow", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	user := rt.user()
	rt.registry.RegisterMCP(mcpSrv, user.ID, user.Location())

	userResources := &resources.UserResources{User: user, History: rt.server.History()}
	if rt.tokens != nil {
		userResources.Authorized = rt.tokens.Has
	}
	resources.RegisterUserResources(mcpSrv, userResources)
	return mcpSrv
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	if err := <-serverDone; err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
