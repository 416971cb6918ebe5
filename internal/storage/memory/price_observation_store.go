package memory

import (
	"context"
	"sort"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// PriceObservationStore is an in-memory implementation of
// storage.PriceObservationStore.
type PriceObservationStore struct {
	mu   sync.RWMutex
	data []*domain.PriceObservation
}

// NewPriceObservationStore creates a new in-memory observation store.
func NewPriceObservationStore() *PriceObservationStore {
	return &PriceObservationStore{}
}

// Compile-time interface check.
var _ storage.PriceObservationStore = (*PriceObservationStore)(nil)

// Insert appends an observation.
func (s *PriceObservationStore) Insert(_ context.Context, o *domain.PriceObservation) error {
	if o == nil || o.PairKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append(s.data, o.Clone())
	return nil
}

// GetByPair retrieves all observations for a pair, ordered by timestamp ASC.
func (s *PriceObservationStore) GetByPair(_ context.Context, pairKey string) ([]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceObservation
	for _, o := range s.data {
		if o.PairKey == pairKey {
			result = append(result, o.Clone())
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})
	return result, nil
}

// LatestBefore retrieves the most recent observation at or before ts.
// Returns ErrNotFound when none exists.
func (s *PriceObservationStore) LatestBefore(_ context.Context, pairKey string, ts int64) (*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.PriceObservation
	for _, o := range s.data {
		if o.PairKey != pairKey || o.Timestamp > ts {
			continue
		}
		if best == nil || o.Timestamp > best.Timestamp {
			best = o
		}
	}
	if best == nil {
		return nil, storage.ErrNotFound
	}
	return best.Clone(), nil
}
