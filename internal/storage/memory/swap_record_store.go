package memory

import (
	"context"
	"sort"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// SwapRecordStore is an in-memory implementation of storage.SwapRecordStore.
type SwapRecordStore struct {
	mu   sync.RWMutex
	data []*domain.SwapRecord
}

// NewSwapRecordStore creates a new in-memory swap record store.
func NewSwapRecordStore() *SwapRecordStore {
	return &SwapRecordStore{}
}

// Compile-time interface check.
var _ storage.SwapRecordStore = (*SwapRecordStore)(nil)

// Insert appends a swap record.
func (s *SwapRecordStore) Insert(_ context.Context, r *domain.SwapRecord) error {
	if r == nil || r.PairKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append(s.data, r.Clone())
	return nil
}

// GetByPair retrieves all swaps for a pair, ordered by timestamp ASC.
func (s *SwapRecordStore) GetByPair(_ context.Context, pairKey string) ([]*domain.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapRecord
	for _, r := range s.data {
		if r.PairKey == pairKey {
			result = append(result, r.Clone())
		}
	}
	sortSwapRecords(result)
	return result, nil
}

// GetByTimeRange retrieves swaps for a pair within [start, end] (inclusive).
func (s *SwapRecordStore) GetByTimeRange(_ context.Context, pairKey string, start, end int64) ([]*domain.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapRecord
	for _, r := range s.data {
		if r.PairKey == pairKey && r.Timestamp >= start && r.Timestamp <= end {
			result = append(result, r.Clone())
		}
	}
	sortSwapRecords(result)
	return result, nil
}

func sortSwapRecords(records []*domain.SwapRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
}
