package google

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/teemow/auraflow/internal/toolerr"
)

// ServiceCache keeps one API service per user, built lazily from the user's
// authenticated HTTP client.
type ServiceCache[T any] struct {
	clients HTTPClientSource
	build   func(ctx context.Context, hc *http.Client) (T, error)

	mu    sync.RWMutex
	items map[string]T
}

// NewServiceCache creates a cache that builds services with build.
func NewServiceCache[T any](clients HTTPClientSource, build func(ctx context.Context, hc *http.Client) (T, error)) *ServiceCache[T] {
	return &ServiceCache[T]{
		clients: clients,
		build:   build,
		items:   make(map[string]T),
	}
}

// Get returns the cached service for userID, creating it on first use.
func (c *ServiceCache[T]) Get(ctx context.Context, userID string) (T, error) {
	c.mu.RLock()
	svc, ok := c.items[userID]
	c.mu.RUnlock()
	if ok {
		return svc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if svc, ok := c.items[userID]; ok {
		return svc, nil
	}

	var zero T
	hc, err := c.clients.HTTPClient(ctx, userID)
	if err != nil {
		return zero, Classify("google.client", err)
	}
	svc, err = c.build(ctx, hc)
	if err != nil {
		return zero, toolerr.Wrap(toolerr.KindGeneric, "google.client", fmt.Errorf("create service: %w", err))
	}
	c.items[userID] = svc
	return svc, nil
}

// Forget drops userID's service so the next Get reloads credentials.
func (c *ServiceCache[T]) Forget(userID string) {
	c.mu.Lock()
	delete(c.items, userID)
	c.mu.Unlock()
}

// Len returns the number of cached services.
func (c *ServiceCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
