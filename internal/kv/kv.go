// Package kv provides the key-value blob store that backs quad's
// persistence. Values are opaque strings; callers own serialization.
package kv

import (
	"sort"
	"strings"
	"sync"
)

// Store is the persistence collaborator boundary: get/set string blobs
// under fixed keys.
type Store interface {
	// Get returns the value for key. The boolean reports whether the key
	// exists; a missing key is not an error.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string) error
	// Keys returns all keys with the given prefix, sorted ascending.
	Keys(prefix string) ([]string, error)
	// Close releases any underlying resources.
	Close() error
}

// MemoryStore is a map-backed Store for tests and ephemeral runs.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Keys returns all keys with the given prefix, sorted ascending.
func (s *MemoryStore) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
