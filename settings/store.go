package settings

import (
	"context"
	"sync"
)

// Store is the external key-value persistence contract. Get returns the raw
// keys currently present (possibly none); Set merges a partial update into
// the stored snapshot. No multi-key atomicity is promised.
type Store interface {
	Get(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, partial map[string]string) error
}

// MemStore is an in-process Store used in tests and as a fallback when no
// external store is configured.
type MemStore struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string]string)}
}

// Get returns a copy of the stored keys.
func (s *MemStore) Get(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.m))
	for k, v := range s.m {
		out[k] = v
	}
	return out, nil
}

// Set merges partial into the stored snapshot.
func (s *MemStore) Set(ctx context.Context, partial map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range partial {
		s.m[k] = v
	}
	return nil
}
