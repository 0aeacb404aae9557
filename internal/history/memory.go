package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxPerUser bounds a MemoryStore when no limit is given.
const DefaultMaxPerUser = 50

// MemoryStore keeps the latest exchanges per user in memory.
type MemoryStore struct {
	max int

	mu     sync.RWMutex
	byUser map[string][]Exchange
}

// NewMemoryStore creates a store keeping at most max exchanges per user.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = DefaultMaxPerUser
	}
	return &MemoryStore{max: max, byUser: make(map[string][]Exchange)}
}

func (s *MemoryStore) Recent(_ context.Context, userID string, n int) ([]Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.byUser[userID]
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	out := make([]Exchange, n)
	copy(out, all[len(all)-n:])
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, e Exchange) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.byUser[e.UserID], e)
	if len(list) > s.max {
		list = append([]Exchange(nil), list[len(list)-s.max:]...)
	}
	s.byUser[e.UserID] = list
	return nil
}

func (s *MemoryStore) Close() error { return nil }
