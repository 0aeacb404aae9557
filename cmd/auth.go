package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/auraflow/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		userID string
		code   string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Calendar and Tasks access",
		Long: `Run the OAuth consent flow for a user and store the resulting token in
google.token_dir. Open the printed URL, grant access, then paste the
authorization code (or pass it with --code).

Requires google.client_id and google.client_secret (or GOOGLE_CLIENT_ID and
GOOGLE_CLIENT_SECRET).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				userID = cfg.User.ID
			}
			return runAuth(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), userID, code)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id to authorize (default: user.id)")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code, skipping the prompt")

	return cmd
}

func runAuth(ctx context.Context, in io.Reader, out io.Writer, userID, code string) error {
	if !cfg.Google.Enabled() {
		return fmt.Errorf("google oauth client is not configured: set google.client_id and google.client_secret")
	}
	conf := google.NewOAuthConfig(cfg.Google, nil)
	store := google.NewFileTokenStore(cfg.Google.TokenDir)

	if code == "" {
		fmt.Fprintf(out, "Open this URL and grant access:\n\n  %s\n\nAuthorization code: ", google.AuthURL(conf, uuid.NewString()))
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}
		code = strings.TrimSpace(line)
	}
	if code == "" {
		return fmt.Errorf("no authorization code given")
	}

	if err := google.Exchange(ctx, conf, store, userID, code); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token stored for %s in %s\n", userID, cfg.Google.TokenDir)
	return nil
}
