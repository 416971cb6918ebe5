package memory

import (
	"context"
	"fmt"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// VestingStore is an in-memory implementation of storage.VestingStore.
type VestingStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VestingInfo
}

// NewVestingStore creates a new in-memory vesting store.
func NewVestingStore() *VestingStore {
	return &VestingStore{
		data: make(map[string]*domain.VestingInfo),
	}
}

// Compile-time interface check.
var _ storage.VestingStore = (*VestingStore)(nil)

func vestingKey(projectID uint64, contributor string) string {
	return fmt.Sprintf("%d|%s", projectID, contributor)
}

// Get retrieves a vesting record. Returns ErrNotFound if not exists.
func (s *VestingStore) Get(_ context.Context, projectID uint64, contributor string) (*domain.VestingInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[vestingKey(projectID, contributor)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v.Clone(), nil
}

// Upsert inserts or replaces a vesting record.
func (s *VestingStore) Upsert(_ context.Context, v *domain.VestingInfo) error {
	if v == nil || v.Contributor == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[vestingKey(v.ProjectID, v.Contributor)] = v.Clone()
	return nil
}
