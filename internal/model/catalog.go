package model

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/teemow/auraflow/internal/instrumentation"
)

// DefaultPreferences orders model families when picking a default. The
// first preference with a matching chat-capable id wins.
var DefaultPreferences = []string{
	"llama", "qwen", "mistral", "mixtral", "gemma", "phi",
	"deepseek", "gpt-oss", "gpt-4o-mini", "gpt",
}

// nonChatMarkers identify catalog ids that cannot serve chat completions.
var nonChatMarkers = []string{"embed", "whisper", "tts", "dall-e", "moderation", "rerank"}

// catalogFetchTimeout bounds one shared fetch of the model list.
const catalogFetchTimeout = 30 * time.Second

// FetchFunc loads the model list from a backend.
type FetchFunc func(ctx context.Context) ([]ModelInfo, error)

// Catalog caches a backend's model list. It fetches lazily, at most once
// until Refresh or Invalidate, and collapses concurrent fetches into one.
type Catalog struct {
	fetch       FetchFunc
	preferences []string
	backend     string
	metrics     *instrumentation.Metrics

	group   singleflight.Group
	fetches atomic.Int64

	mu     sync.RWMutex
	models []ModelInfo
	loaded bool
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithPreferences replaces DefaultPreferences.
func WithPreferences(prefs []string) CatalogOption {
	return func(c *Catalog) {
		if len(prefs) > 0 {
			c.preferences = append([]string(nil), prefs...)
		}
	}
}

// WithCatalogMetrics records refreshes under backend.
func WithCatalogMetrics(m *instrumentation.Metrics, backend string) CatalogOption {
	return func(c *Catalog) {
		c.metrics = m
		c.backend = backend
	}
}

// NewCatalog creates an empty catalog backed by fetch.
func NewCatalog(fetch FetchFunc, opts ...CatalogOption) *Catalog {
	c := &Catalog{fetch: fetch, preferences: DefaultPreferences}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewBackendCatalog creates a catalog listing b's models.
func NewBackendCatalog(b Backend, opts ...CatalogOption) *Catalog {
	return NewCatalog(b.ListModels, opts...)
}

func (c *Catalog) cached() ([]ModelInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, false
	}
	out := make([]ModelInfo, len(c.models))
	copy(out, c.models)
	return out, true
}

// Models returns the cached list, fetching it on first use.
func (c *Catalog) Models(ctx context.Context) ([]ModelInfo, error) {
	if models, ok := c.cached(); ok {
		return models, nil
	}
	return c.load(ctx, false)
}

// Refresh refetches the list unconditionally.
func (c *Catalog) Refresh(ctx context.Context) ([]ModelInfo, error) {
	return c.load(ctx, true)
}

// Invalidate drops the cached list; the next Models call fetches again.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.models = nil
	c.loaded = false
	c.mu.Unlock()
}

// Fetches returns how many times the backend was asked for its models.
func (c *Catalog) Fetches() int64 {
	return c.fetches.Load()
}

func (c *Catalog) load(ctx context.Context, force bool) ([]ModelInfo, error) {
	// The fetch is shared, so it must not inherit any one caller's cancellation.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("models", func() (any, error) {
		if !force {
			if models, ok := c.cached(); ok {
				return models, nil
			}
		}
		ctx, cancel := context.WithTimeout(fetchCtx, catalogFetchTimeout)
		defer cancel()

		c.fetches.Add(1)
		models, err := c.fetch(ctx)
		if err != nil {
			c.metrics.RecordCatalogRefresh(ctx, c.backend, instrumentation.StatusError)
			return nil, err
		}
		c.metrics.RecordCatalogRefresh(ctx, c.backend, instrumentation.StatusSuccess)

		c.mu.Lock()
		c.models = append([]ModelInfo(nil), models...)
		c.loaded = true
		c.mu.Unlock()
		return models, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		models := res.Val.([]ModelInfo)
		out := make([]ModelInfo, len(models))
		copy(out, models)
		return out, nil
	}
}

// DefaultModel returns the preferred chat-capable model id.
func (c *Catalog) DefaultModel(ctx context.Context) (string, error) {
	models, err := c.Models(ctx)
	if err != nil {
		return "", err
	}
	id, ok := SelectDefault(models, c.preferences)
	if !ok {
		return "", &ResponseInvalidError{Backend: c.backend, Reason: "model catalog has no chat-capable model"}
	}
	return id, nil
}

// IsChatCapable reports whether id looks like a chat model.
func IsChatCapable(id string) bool {
	lower := strings.ToLower(id)
	for _, marker := range nonChatMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return id != ""
}

// SelectDefault picks the first chat-capable id matching the earliest
// preference, falling back to the first chat-capable id.
func SelectDefault(models []ModelInfo, preferences []string) (string, bool) {
	var chat []string
	for _, m := range models {
		if IsChatCapable(m.ID) {
			chat = append(chat, m.ID)
		}
	}
	if len(chat) == 0 {
		return "", false
	}
	for _, pref := range preferences {
		pref = strings.ToLower(pref)
		for _, id := range chat {
			if strings.Contains(strings.ToLower(id), pref) {
				return id, true
			}
		}
	}
	return chat[0], true
}
