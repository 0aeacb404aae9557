package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/auraflow/internal/logging"
	"github.com/teemow/auraflow/internal/model"
)

func newModelsCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the model catalog",
		Long: `List the models the configured backend offers. The model used when a
request names none is marked with an asterisk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "" {
				cfg.LLM.Mode = mode
			}
			return runModels(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Model backend: mock, inference or chat (overrides config)")

	return cmd
}

func runModels(ctx context.Context, out io.Writer) error {
	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			logger.Warn("error during shutdown", logging.Err(err))
		}
	}()

	models, err := rt.gateway.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	def, err := rt.gateway.DefaultModel(ctx)
	if err != nil {
		logger.Warn("no default model", logging.Err(err))
	}
	return printModels(out, models, def)
}

// printModels writes a table of models, marking def.
func printModels(w io.Writer, models []model.ModelInfo, def string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tOWNED BY\tCHAT")
	for _, m := range models {
		marker := ""
		if m.ID == def {
			marker = "*"
		}
		chat := "no"
		if model.IsChatCapable(m.ID) {
			chat = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, m.ID, m.OwnedBy, chat)
	}
	return tw.Flush()
}
