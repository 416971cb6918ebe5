package memory

import (
	"context"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// LockStore is an in-memory implementation of storage.LockStore.
type LockStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LiquidityLock // keyed by "pairKey|owner"
}

// NewLockStore creates a new in-memory lock store.
func NewLockStore() *LockStore {
	return &LockStore{
		data: make(map[string]*domain.LiquidityLock),
	}
}

// Compile-time interface check.
var _ storage.LockStore = (*LockStore)(nil)

func lockKey(pairKey, owner string) string {
	return pairKey + "|" + owner
}

// Get retrieves a lock. Returns ErrNotFound if not exists.
func (s *LockStore) Get(_ context.Context, pairKey, owner string) (*domain.LiquidityLock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.data[lockKey(pairKey, owner)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return l.Clone(), nil
}

// Upsert inserts or replaces a lock record.
func (s *LockStore) Upsert(_ context.Context, l *domain.LiquidityLock) error {
	if l == nil || l.PairKey == "" || l.Owner == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[lockKey(l.PairKey, l.Owner)] = l.Clone()
	return nil
}
