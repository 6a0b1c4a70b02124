package store

import (
	"fmt"
	"sort"
	"sync"

	"dev.rubentxu.mr-harness/internal/core/domain/run"
	"github.com/google/uuid"
)

// InMemoryRunStore guarda copias de los resultados en un mapa.
type InMemoryRunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]run.Result
}

func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{runs: make(map[uuid.UUID]run.Result)}
}

func (s *InMemoryRunStore) Save(result *run.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[result.ID] = *result
	return nil
}

func (s *InMemoryRunStore) Get(id uuid.UUID) (*run.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return &r, nil
}

func (s *InMemoryRunStore) List() ([]*run.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*run.Result, 0, len(s.runs))
	for _, r := range s.runs {
		r := r
		out = append(out, &r)
	}
	sortByStart(out)
	return out, nil
}

func (s *InMemoryRunStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("run %s not found", id)
	}
	delete(s.runs, id)
	return nil
}

func (s *InMemoryRunStore) Close() error {
	return nil
}

func sortByStart(runs []*run.Result) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
}
