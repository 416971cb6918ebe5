package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// ContributionStore is an in-memory implementation of storage.ContributionStore.
type ContributionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Contribution // keyed by composite key
}

// NewContributionStore creates a new in-memory contribution store.
func NewContributionStore() *ContributionStore {
	return &ContributionStore{
		data: make(map[string]*domain.Contribution),
	}
}

// Compile-time interface check.
var _ storage.ContributionStore = (*ContributionStore)(nil)

// contributionKey generates a unique key for a ledger entry.
func contributionKey(projectID uint64, contributor string) string {
	return fmt.Sprintf("%d|%s", projectID, contributor)
}

// Get retrieves one contributor's entry. Returns ErrNotFound if not exists.
func (s *ContributionStore) Get(_ context.Context, projectID uint64, contributor string) (*domain.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[contributionKey(projectID, contributor)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c.Clone(), nil
}

// Upsert inserts or replaces a contributor's entry.
func (s *ContributionStore) Upsert(_ context.Context, c *domain.Contribution) error {
	if c == nil || c.Contributor == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[contributionKey(c.ProjectID, c.Contributor)] = c.Clone()
	return nil
}

// GetByProject retrieves all entries for a project, ordered by first
// contribution time ASC.
func (s *ContributionStore) GetByProject(_ context.Context, projectID uint64) ([]*domain.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Contribution
	for _, c := range s.data {
		if c.ProjectID == projectID {
			result = append(result, c.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].FirstAt != result[j].FirstAt {
			return result[i].FirstAt < result[j].FirstAt
		}
		return result[i].Contributor < result[j].Contributor
	})

	return result, nil
}
