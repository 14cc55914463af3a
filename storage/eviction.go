// ABOUTME: Quota-recovery Store wrapper with a priority-ordered eviction pass
// ABOUTME: Clears analytical caches before retrying a failed write, sparing the queue
package storage

import (
	"log"
	"strings"
)

// EvictionOrder lists the cache-key prefixes cleared on quota exhaustion,
// least critical first.
var EvictionOrder = []string{
	CacheKeyPrefix,
	PrefsKeyPrefix,
	InsightsKeyPrefix,
	EventsKeyPrefix,
}

// NeverEvict lists prefixes the eviction pass must not touch: pending
// mutations, in-progress drafts, and migration markers.
var NeverEvict = []string{
	QueueKeyPrefix,
	DraftKeyPrefix,
	MigrationKeyPrefix,
}

// EvictingStore wraps a Store with the quota-recovery policy: a failed Set
// triggers one eviction pass and one retry; a second failure is reported to
// the caller as an ordinary false.
type EvictingStore struct {
	inner Store
}

// NewEvictingStore wraps inner with the eviction policy.
func NewEvictingStore(inner Store) *EvictingStore {
	return &EvictingStore{inner: inner}
}

func (s *EvictingStore) Get(key string) (string, bool) {
	return s.inner.Get(key)
}

func (s *EvictingStore) Set(key, value string) bool {
	if s.inner.Set(key, value) {
		return true
	}

	log.Printf("storage: write failed for %s, running eviction pass", key)
	s.evict(key)

	if s.inner.Set(key, value) {
		return true
	}
	log.Printf("storage: write for %s still failing after eviction, dropping", key)
	return false
}

// evict clears evictable keys in priority order, sparing the never-evict set
// and the key being written.
func (s *EvictingStore) evict(writingKey string) {
	for _, prefix := range EvictionOrder {
		for _, k := range s.inner.KeysWithPrefix(prefix) {
			if k == writingKey || protected(k) {
				continue
			}
			s.inner.Remove(k)
		}
	}
}

func protected(key string) bool {
	for _, p := range NeverEvict {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func (s *EvictingStore) Remove(key string) {
	s.inner.Remove(key)
}

func (s *EvictingStore) Keys() []string {
	return s.inner.Keys()
}

func (s *EvictingStore) KeysWithPrefix(prefix string) []string {
	return s.inner.KeysWithPrefix(prefix)
}

func (s *EvictingStore) Close() error {
	return s.inner.Close()
}
