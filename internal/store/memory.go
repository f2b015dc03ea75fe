package store

import (
	"context"
	"sync"

	"github.com/i474232898/park-factors/internal/factors"
)

// MemoryStore is a concurrency-safe in-process store holding the current result.
type MemoryStore struct {
	mu      sync.RWMutex
	current *factors.Result
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the current result with a copy of r.
func (s *MemoryStore) Save(_ context.Context, r factors.Result) error {
	cp := r.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &cp
	return nil
}

// Load returns a copy of the current result.
func (s *MemoryStore) Load(_ context.Context) (factors.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return factors.Result{}, ErrNotFound
	}
	return s.current.Clone(), nil
}
