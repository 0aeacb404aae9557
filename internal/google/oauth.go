package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/auraflow/internal/config"
)

// NewOAuthConfig builds the OAuth client config for cfg. endpoint overrides
// Google's token endpoint and is only set by tests.
func NewOAuthConfig(cfg config.GoogleConfig, endpoint *oauth2.Endpoint) *oauth2.Config {
	ep := google.Endpoint
	if endpoint != nil {
		ep = *endpoint
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     ep,
		Scopes:       DefaultOAuthScopes,
	}
}

// AuthURL returns the consent URL. Offline access is requested so a refresh
// token is issued, and consent is forced so Google re-issues it on re-auth.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and stores it for userID.
func Exchange(ctx context.Context, conf *oauth2.Config, store TokenStore, userID, code string) error {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := store.Save(userID, tok); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}
