// Package memstore provides an in-memory store implementation for testing.
package memstore

import (
	"context"
	"sync"

	"github.com/discochess/chess960/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an in-memory store for testing.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
	writes  map[string]int
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		objects: make(map[string][]byte),
		writes:  make(map[string]int),
	}
}

// Set sets the content of an object (for test setup) without counting a write.
func (s *Store) Set(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = clone(data)
}

// Writes returns how many times the named object has been written.
func (s *Store) Writes(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes[name]
}

// Read returns a copy of the named object.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(data), nil
}

// Write stores a copy of data under name.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = clone(data)
	s.writes[name]++
	return nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

func clone(data []byte) []byte {
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied
}
