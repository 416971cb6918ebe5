package memory

import (
	"context"
	"math/big"
	"sync"

	"token-launchpad/internal/storage"
)

// LPBalanceStore is an in-memory implementation of storage.LPBalanceStore.
type LPBalanceStore struct {
	mu   sync.RWMutex
	data map[string]*big.Int // keyed by "pairKey|owner"
}

// NewLPBalanceStore creates a new in-memory LP balance store.
func NewLPBalanceStore() *LPBalanceStore {
	return &LPBalanceStore{
		data: make(map[string]*big.Int),
	}
}

// Compile-time interface check.
var _ storage.LPBalanceStore = (*LPBalanceStore)(nil)

func balanceKey(pairKey, owner string) string {
	return pairKey + "|" + owner
}

// Balance returns the owner's LP share balance, zero when absent.
func (s *LPBalanceStore) Balance(_ context.Context, pairKey, owner string) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.data[balanceKey(pairKey, owner)]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(b), nil
}

// SetBalance inserts or replaces the owner's LP share balance.
func (s *LPBalanceStore) SetBalance(_ context.Context, pairKey, owner string, amount *big.Int) error {
	if pairKey == "" || owner == "" || amount == nil || amount.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[balanceKey(pairKey, owner)] = new(big.Int).Set(amount)
	return nil
}
