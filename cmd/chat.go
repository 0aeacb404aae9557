package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/auraflow/internal/config"
	"github.com/teemow/auraflow/internal/conversation"
	"github.com/teemow/auraflow/internal/logging"
)

type chatOptions struct {
	message   string
	mode      string
	model     string
	showTools bool
}

func newChatCmd() *cobra.Command {
	var opts chatOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Long: `Chat with the assistant as the configured user (user.id in the config).

Without --message an interactive session starts; type "exit" or press Ctrl-D
to leave. With --message a single turn runs and the reply is printed.

Use --mode mock to try it without a model endpoint or Google credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyChatOptions(cfg, opts)
			return runChat(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "Send a single message and exit")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Model backend: mock, inference or chat (overrides config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model id (default: selected from the catalog)")
	cmd.Flags().BoolVar(&opts.showTools, "show-tools", false, "Print the tools executed during each turn")

	return cmd
}

func applyChatOptions(c *config.Config, opts chatOptions) {
	if opts.mode != "" {
		c.LLM.Mode = opts.mode
	}
	if opts.model != "" {
		c.LLM.Model = opts.model
	}
}

func runChat(in io.Reader, out io.Writer, opts chatOptions) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			logger.Warn("error during shutdown", logging.Err(err))
		}
	}()

	if opts.message != "" {
		return chatTurn(ctx, rt, out, opts.message, opts.showTools)
	}

	fmt.Fprintf(out, "auraflow %s, talking to the %s backend. Type \"exit\" to quit.\n", version, rt.backend.Name())
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		// A failed turn has already been reported; keep the session going.
		_ = chatTurn(ctx, rt, out, line, opts.showTools)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func chatTurn(ctx context.Context, rt *runtime, out io.Writer, message string, showTools bool) error {
	reply, err := rt.server.HandleMessage(ctx, rt.user(), message, "")
	if showTools {
		printToolResults(out, reply.ToolResults)
	}
	fmt.Fprintln(out, reply.Response)
	if err != nil {
		logger.Debug("turn failed", logging.Err(err))
		return err
	}
	return nil
}

// printToolResults writes one line per executed tool.
func printToolResults(w io.Writer, executed []conversation.ExecutedTool) {
	for _, t := range executed {
		if t.Success {
			fmt.Fprintf(w, "  [round %d] %s: ok\n", t.Round, t.ToolName)
			continue
		}
		fmt.Fprintf(w, "  [round %d] %s: %s\n", t.Round, t.ToolName, t.Error)
	}
}
