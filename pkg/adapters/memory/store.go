package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// Store implements ports.TaskResultStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.TaskResult
	mu   sync.RWMutex
}

var _ ports.TaskResultStore = (*Store)(nil)

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.TaskResult),
	}
}

// Save keeps a copy of the result so later caller mutations are not visible.
func (s *Store) Save(ctx context.Context, runID string, result *domain.TaskResult) error {
	copied := result.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = copied
	return nil
}

// Load returns a copy of the stored result.
func (s *Store) Load(ctx context.Context, runID string) (*domain.TaskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrTaskResultNotFound
	}
	return result.Clone(), nil
}

// Delete removes the result.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns stored run IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, 0, len(s.data))
	for id := range s.data {
		runs = append(runs, id)
	}
	sort.Strings(runs)
	return runs, nil
}
