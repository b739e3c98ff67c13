package middleware_test

import (
	"context"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware. It keeps
// the pointers it is given so tests can inspect exactly what was saved.
type MockStore struct {
	data map[string]*domain.TaskResult
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.TaskResult),
	}
}

func (s *MockStore) Save(ctx context.Context, runID string, result *domain.TaskResult) error {
	s.data[runID] = result
	return nil
}

func (s *MockStore) Load(ctx context.Context, runID string) (*domain.TaskResult, error) {
	result, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrTaskResultNotFound
	}
	return result, nil
}

func (s *MockStore) Delete(ctx context.Context, runID string) error {
	delete(s.data, runID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.TaskResultStore = (*MockStore)(nil)
