package memory

import (
	"context"
	"sort"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// PoolStore is an in-memory implementation of storage.PoolStore.
type PoolStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LiquidityPool // keyed by pair key
}

// NewPoolStore creates a new in-memory pool store.
func NewPoolStore() *PoolStore {
	return &PoolStore{
		data: make(map[string]*domain.LiquidityPool),
	}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

// Insert adds a new pool. Returns ErrDuplicateKey if the pair exists.
func (s *PoolStore) Insert(_ context.Context, p *domain.LiquidityPool) error {
	if p == nil || p.PairKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PairKey]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[p.PairKey] = p.Clone()
	return nil
}

// Get retrieves a pool by pair key. Returns ErrNotFound if not exists.
func (s *PoolStore) Get(_ context.Context, pairKey string) (*domain.LiquidityPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[pairKey]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p.Clone(), nil
}

// Update replaces a pool record. Returns ErrNotFound if not exists.
func (s *PoolStore) Update(_ context.Context, p *domain.LiquidityPool) error {
	if p == nil || p.PairKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[p.PairKey]; !ok {
		return storage.ErrNotFound
	}
	s.data[p.PairKey] = p.Clone()
	return nil
}

// GetAll retrieves every pool, ordered by pair key ASC.
func (s *PoolStore) GetAll(_ context.Context) ([]*domain.LiquidityPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.LiquidityPool, 0, len(s.data))
	for _, p := range s.data {
		result = append(result, p.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PairKey < result[j].PairKey
	})
	return result, nil
}
