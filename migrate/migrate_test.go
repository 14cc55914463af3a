// ABOUTME: Tests for the versioned owner migration
// ABOUTME: Covers legacy adoption, idempotency, and failure retry behavior
package migrate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/harperreed/kinetic/models"
	"github.com/harperreed/kinetic/queue"
	"github.com/harperreed/kinetic/storage"
)

func legacyQueue(t *testing.T, store storage.Store, entries []models.QueuedMutation) {
	t.Helper()
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatal(err)
	}
	store.Set(queue.LegacyQueueKey, string(data))
}

func TestRunAdoptsUntaggedEntries(t *testing.T) {
	store := storage.NewMemoryStore()
	legacyQueue(t, store, []models.QueuedMutation{
		{ID: "legacy-1", EnqueuedAt: time.Now()},
		{ID: "tagged", Owner: "someone-else", EnqueuedAt: time.Now()},
	})

	if !Run(store, "u1") {
		t.Fatal("migration should succeed")
	}

	entries := loadQueue(store, storage.QueueKey("u1"))
	if len(entries) != 1 || entries[0].ID != "legacy-1" {
		t.Fatalf("expected legacy-1 adopted, got %+v", entries)
	}
	if entries[0].Owner != "u1" {
		t.Error("adopted entry should carry the new owner tag")
	}

	// The tagged entry stays behind for its own owner.
	remaining := loadQueue(store, queue.LegacyQueueKey)
	if len(remaining) != 1 || remaining[0].ID != "tagged" {
		t.Errorf("expected tagged entry to remain, got %+v", remaining)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	legacyQueue(t, store, []models.QueuedMutation{{ID: "legacy-1"}})

	if !Run(store, "u1") || !Run(store, "u1") {
		t.Fatal("repeated runs should succeed")
	}

	entries := loadQueue(store, storage.QueueKey("u1"))
	if len(entries) != 1 {
		t.Errorf("re-running must not duplicate entries, got %d", len(entries))
	}

	if v := readVersion(store, "u1"); v != CurrentVersion {
		t.Errorf("expected version marker %d, got %d", CurrentVersion, v)
	}
}

func TestRunRetriesAfterFailedPersist(t *testing.T) {
	store := storage.NewMemoryStore()
	legacyQueue(t, store, []models.QueuedMutation{{ID: "legacy-1"}})

	store.FailNextWrites(1)
	if Run(store, "u1") {
		t.Fatal("failed persist should report migration incomplete")
	}
	if v := readVersion(store, "u1"); v != 0 {
		t.Error("version marker must not advance past a failed step")
	}

	// Next startup retries and completes.
	if !Run(store, "u1") {
		t.Fatal("retry should succeed")
	}
	if len(loadQueue(store, storage.QueueKey("u1"))) != 1 {
		t.Error("entries should be adopted on retry")
	}
}

func TestRunWithoutLegacyState(t *testing.T) {
	store := storage.NewMemoryStore()
	if !Run(store, "u1") {
		t.Fatal("migration with nothing to do should succeed")
	}
}

func TestCorruptLegacyStateIsDiscarded(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Set(queue.LegacyQueueKey, "}{")

	if !Run(store, "u1") {
		t.Fatal("corrupt legacy state should not block migration")
	}
	if _, ok := store.Get(queue.LegacyQueueKey); ok {
		t.Error("corrupt legacy state should be removed")
	}
}

func TestMergedOrderPutsLegacyFirst(t *testing.T) {
	store := storage.NewMemoryStore()

	existing := []models.QueuedMutation{{ID: "new-1", Owner: "u1"}}
	data, _ := json.Marshal(existing)
	store.Set(storage.QueueKey("u1"), string(data))

	legacyQueue(t, store, []models.QueuedMutation{{ID: "legacy-1"}})

	Run(store, "u1")

	entries := loadQueue(store, storage.QueueKey("u1"))
	if len(entries) != 2 || entries[0].ID != "legacy-1" || entries[1].ID != "new-1" {
		t.Errorf("expected legacy entries first, got %+v", entries)
	}
}
