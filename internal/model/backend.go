package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teemow/auraflow/internal/config"
	"github.com/teemow/auraflow/internal/logging"
)

// Backend is one way of talking to a model.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// maxLoggedBody bounds wire payloads written at TRACE level.
const maxLoggedBody = 4096

// HTTPOptions are shared by the HTTP backends.
type HTTPOptions struct {
	BaseURL string
	APIKey  string
	// Headers are added to every request.
	Headers map[string]string
	// Models is the static catalog of the inference backend.
	Models []string
	Client *http.Client
	Logger *slog.Logger
}

func (o HTTPOptions) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return &http.Client{Timeout: 2 * time.Minute}
}

func (o HTTPOptions) logger(backend string) *slog.Logger {
	l := o.Logger
	if l == nil {
		l = slog.Default()
	}
	return logging.WithComponent(l, "model").With(logging.Backend(backend))
}

// NewBackend builds the backend cfg.Mode selects.
func NewBackend(cfg config.LLMConfig, logger *slog.Logger) (Backend, error) {
	opts := HTTPOptions{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Headers: cfg.ExtraHeaders,
		Models:  cfg.Models,
		Logger:  logger,
	}
	if cfg.Model != "" && len(opts.Models) == 0 {
		opts.Models = []string{cfg.Model}
	}
	switch cfg.Mode {
	case config.ModeMock, "":
		return NewMockBackend(), nil
	case config.ModeInference:
		return NewInferenceBackend(opts)
	case config.ModeChat:
		return NewChatBackend(opts)
	default:
		return nil, fmt.Errorf("unknown model mode %q", cfg.Mode)
	}
}

// httpTransport holds what the HTTP backends share: endpoint, credentials
// and wire logging.
type httpTransport struct {
	name    string
	baseURL string
	apiKey  string
	headers map[string]string
	client  *http.Client
	logger  *slog.Logger
}

func newHTTPTransport(name string, o HTTPOptions) (*httpTransport, error) {
	base := strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required for the %s backend", name)
	}
	return &httpTransport{
		name:    name,
		baseURL: base,
		apiKey:  o.APIKey,
		headers: o.Headers,
		client:  o.client(),
		logger:  o.logger(name),
	}, nil
}

// do sends a request and returns the body of a 2xx response. Transport
// failures and other statuses become UnavailableError.
func (t *httpTransport) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", t.name, err)
		}
		t.logger.Log(ctx, logging.LevelTrace, "model request",
			slog.String("url", t.baseURL+path),
			slog.String("body", logging.Truncate(string(raw), maxLoggedBody)))
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", t.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &UnavailableError{Backend: t.name, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnavailableError{Backend: t.name, Err: fmt.Errorf("read response: %w", err)}
	}
	t.logger.Log(ctx, logging.LevelTrace, "model response",
		slog.Int("status", resp.StatusCode),
		slog.String("body", logging.Truncate(string(raw), maxLoggedBody)))

	// Some proxies answer unknown routes with 200 and a plain "Not Found".
	if strings.TrimSpace(string(raw)) == "Not Found" {
		return nil, &ResponseInvalidError{Backend: t.name, Reason: "endpoint answered Not Found", Body: "Not Found"}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UnavailableError{
			Backend: t.name,
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, logging.Truncate(strings.TrimSpace(string(raw)), 512)),
		}
	}
	return raw, nil
}

func (t *httpTransport) invalid(reason string, raw []byte) *ResponseInvalidError {
	return &ResponseInvalidError{Backend: t.name, Reason: reason, Body: logging.Truncate(string(raw), 512)}
}
