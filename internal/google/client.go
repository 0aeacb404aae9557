package google

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/auraflow/internal/instrumentation"
	"github.com/teemow/auraflow/internal/logging"
	"github.com/teemow/auraflow/internal/toolerr"
)

// ClientFactory hands out OAuth-authenticated HTTP clients per user.
type ClientFactory struct {
	conf    *oauth2.Config
	store   TokenStore
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewClientFactory creates a factory. metrics and logger may be nil.
func NewClientFactory(conf *oauth2.Config, store TokenStore, metrics *instrumentation.Metrics, logger *slog.Logger) *ClientFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientFactory{
		conf:    conf,
		store:   store,
		metrics: metrics,
		logger:  logging.WithComponent(logger, "google"),
	}
}

// HTTPClient returns a client that injects and refreshes userID's token.
// A missing token is an AuthExpired error.
func (f *ClientFactory) HTTPClient(ctx context.Context, userID string) (*http.Client, error) {
	tok, err := f.store.Load(userID)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return nil, toolerr.Wrap(toolerr.KindAuthExpired, "google.token", err)
		}
		return nil, toolerr.Wrap(toolerr.KindGeneric, "google.token", err)
	}

	src := &persistingTokenSource{
		ctx:     context.WithoutCancel(ctx),
		base:    f.conf.TokenSource(context.WithoutCancel(ctx), tok),
		userID:  userID,
		last:    tok.AccessToken,
		store:   f.store,
		metrics: f.metrics,
		logger:  f.logger,
	}
	return oauth2.NewClient(context.WithoutCancel(ctx), src), nil
}

// HasToken reports whether userID has stored credentials.
func (f *ClientFactory) HasToken(userID string) bool {
	return f.store.Has(userID)
}

// persistingTokenSource saves refreshed tokens and records refresh outcomes.
type persistingTokenSource struct {
	ctx     context.Context
	base    oauth2.TokenSource
	userID  string
	store   TokenStore
	metrics *instrumentation.Metrics
	logger  *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultFailure)
		s.logger.Warn("token refresh failed", logging.UserHash(s.userID), logging.Err(err))
		return nil, Classify("google.token_refresh", err)
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		s.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultSuccess)
		if saveErr := s.store.Save(s.userID, tok); saveErr != nil {
			s.logger.Warn("failed to persist refreshed token", logging.UserHash(s.userID), logging.Err(saveErr))
		} else {
			s.logger.Debug("token refreshed", logging.UserHash(s.userID), slog.String("token", logging.SanitizeToken(tok.AccessToken)))
		}
	}
	return tok, nil
}

// HTTPClientSource yields an authenticated client for a user.
type HTTPClientSource interface {
	HTTPClient(ctx context.Context, userID string) (*http.Client, error)
}

// HTTPClientFunc adapts a function to HTTPClientSource.
type HTTPClientFunc func(ctx context.Context, userID string) (*http.Client, error)

// HTTPClient calls f.
func (f HTTPClientFunc) HTTPClient(ctx context.Context, userID string) (*http.Client, error) {
	return f(ctx, userID)
}
