package memory

import (
	"context"
	"sort"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// ProjectStore is an in-memory implementation of storage.ProjectStore.
type ProjectStore struct {
	mu     sync.RWMutex
	data   map[uint64]*domain.Project
	nextID uint64
}

// NewProjectStore creates a new in-memory project store.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{
		data:   make(map[uint64]*domain.Project),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.ProjectStore = (*ProjectStore)(nil)

// Insert adds a new project and assigns its ID.
func (s *ProjectStore) Insert(_ context.Context, p *domain.Project) error {
	if p == nil || p.Owner == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID
	s.nextID++
	s.data[p.ID] = p.Clone()
	return nil
}

// GetByID retrieves a project. Returns ErrNotFound if not exists.
func (s *ProjectStore) GetByID(_ context.Context, id uint64) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p.Clone(), nil
}

// Update replaces a project record. Returns ErrNotFound if not exists.
func (s *ProjectStore) Update(_ context.Context, p *domain.Project) error {
	if p == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[p.ID]; !ok {
		return storage.ErrNotFound
	}
	s.data[p.ID] = p.Clone()
	return nil
}

// GetByOwner retrieves all projects created by an owner, ordered by ID ASC.
func (s *ProjectStore) GetByOwner(_ context.Context, owner string) ([]*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Project
	for _, p := range s.data {
		if p.Owner == owner {
			result = append(result, p.Clone())
		}
	}
	sortProjects(result)
	return result, nil
}

// GetByPhase retrieves all projects in a phase, ordered by ID ASC.
func (s *ProjectStore) GetByPhase(_ context.Context, phase domain.Phase) ([]*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Project
	for _, p := range s.data {
		if p.Phase == phase {
			result = append(result, p.Clone())
		}
	}
	sortProjects(result)
	return result, nil
}

func sortProjects(projects []*domain.Project) {
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ID < projects[j].ID
	})
}
