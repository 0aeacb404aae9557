// Package history keeps each user's past chat exchanges so later turns can
// see what was said before.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/teemow/auraflow/internal/config"
)

// Exchange is one user message and the assistant's final reply.
type Exchange struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	UserMessage      string    `json:"userMessage"`
	AssistantMessage string    `json:"assistantMessage"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Store persists exchanges per user.
type Store interface {
	// Recent returns up to n of the user's latest exchanges, oldest first.
	Recent(ctx context.Context, userID string, n int) ([]Exchange, error)
	Append(ctx context.Context, e Exchange) error
	Close() error
}

// Open returns the store cfg.Driver selects.
func Open(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Driver {
	case "", config.HistoryMemory:
		return NewMemoryStore(cfg.MaxPerUser), nil
	case config.HistorySQLite:
		return OpenSQLite(cfg.DSN, cfg.MaxPerUser)
	case config.HistoryPostgres:
		return OpenPostgres(cfg.DSN, cfg.MaxPerUser)
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}
