// ABOUTME: Tests for the quota-recovery eviction wrapper
// ABOUTME: Covers eviction order, never-evict protection, and single retry
package storage

import (
	"strings"
	"testing"
)

func TestEvictionFreesQuotaAndRetries(t *testing.T) {
	inner := NewMemoryStore()
	inner.Set(QueueKey("u1"), "queue-data")
	inner.Set(CacheKeyPrefix+"patterns/u1", strings.Repeat("x", 200))
	inner.QuotaBytes = 300

	s := NewEvictingStore(inner)

	// Too big for the remaining quota until the cache entry goes.
	if !s.Set(EventsKey("u1"), strings.Repeat("e", 150)) {
		t.Fatal("expected write to succeed after eviction")
	}

	if _, ok := inner.Get(CacheKeyPrefix + "patterns/u1"); ok {
		t.Error("cache entry should have been evicted")
	}
	if _, ok := inner.Get(QueueKey("u1")); !ok {
		t.Error("mutation queue must never be evicted")
	}
}

func TestEvictionSparesDraftsAndMigrationMarkers(t *testing.T) {
	inner := NewMemoryStore()
	inner.Set(DraftKeyPrefix+"meal/u1", "draft")
	inner.Set(MigrationKey("u1"), "1")
	inner.Set(CacheKeyPrefix+"p", "cache")
	inner.FailNextWrites(1)

	s := NewEvictingStore(inner)
	if !s.Set(PrefsKeyPrefix+"u1", "v") {
		t.Fatal("expected retry to succeed")
	}

	if _, ok := inner.Get(DraftKeyPrefix + "meal/u1"); !ok {
		t.Error("draft state must never be evicted")
	}
	if _, ok := inner.Get(MigrationKey("u1")); !ok {
		t.Error("migration marker must never be evicted")
	}
	if _, ok := inner.Get(CacheKeyPrefix + "p"); ok {
		t.Error("cache entry should have been evicted")
	}
}

func TestEvictionGivesUpAfterOneRetry(t *testing.T) {
	inner := NewMemoryStore()
	inner.FailNextWrites(-1)

	s := NewEvictingStore(inner)
	if s.Set("kinetic/prefs/u1", "v") {
		t.Error("expected write to be reported failed, not retried forever")
	}
}
