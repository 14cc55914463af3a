// ABOUTME: In-memory Store backend with write-failure injection
// ABOUTME: Used by tests and as a fallback when no durable backend is available
package storage

import (
	"sort"
	"sync"
)

// MemoryStore is a map-backed Store. It can simulate quota exhaustion either
// with a byte budget or with injected write failures.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string

	// QuotaBytes, when > 0, fails writes that would push total stored bytes
	// over the budget.
	QuotaBytes int

	// failuresLeft > 0 fails the next N writes; -1 fails all writes.
	failuresLeft int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// FailNextWrites makes the next n Set calls fail. Pass -1 to fail all writes
// until reset with FailNextWrites(0).
func (s *MemoryStore) FailNextWrites(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failuresLeft = n
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failuresLeft != 0 {
		if s.failuresLeft > 0 {
			s.failuresLeft--
		}
		return false
	}

	if s.QuotaBytes > 0 {
		used := 0
		for k, v := range s.data {
			if k == key {
				continue
			}
			used += len(k) + len(v)
		}
		if used+len(key)+len(value) > s.QuotaBytes {
			return false
		}
	}

	s.data[key] = value
	return true
}

func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *MemoryStore) KeysWithPrefix(prefix string) []string {
	return filterPrefix(s.Keys(), prefix)
}

func (s *MemoryStore) Close() error {
	return nil
}
