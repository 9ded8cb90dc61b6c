// Package memory provides in-memory implementations of the engine's
// ports: the progress store and the full hosted backend (accounts,
// documents, files). They back tests and the interactive demo.
package memory

import (
	"context"
	"sync"

	"github.com/sangamhq/vivah/pkg/domain"
)

// Store implements ports.ProgressStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.State
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.State),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, wizardID string, state *domain.State) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[wizardID] = copied
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, wizardID string) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[wizardID]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	// Copy on read so the caller can't mutate store state by pointer.
	return state.Clone(), nil
}

// Clear removes the snapshot.
func (s *Store) Clear(ctx context.Context, wizardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, wizardID)
	return nil
}

// List returns the wizard IDs with a stored snapshot.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
