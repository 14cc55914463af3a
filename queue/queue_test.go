// ABOUTME: Tests for the durable mutation queue
// ABOUTME: Covers dedup windows, persistence failure, and idempotent rewrites
package queue

import (
	"fmt"
	"testing"
	"time"

	"github.com/harperreed/kinetic/config"
	"github.com/harperreed/kinetic/models"
	"github.com/harperreed/kinetic/storage"
)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%03d", s.n)
}

func newTestQueue(t *testing.T) (*Queue, *storage.MemoryStore, *time.Time) {
	t.Helper()
	store := storage.NewMemoryStore()
	q := New(store, config.Default(), &seqIDs{})

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	q.SetClock(func() time.Time { return now })
	return q, store, &now
}

func meal(desc string, kcal int) models.MealPayload {
	return models.MealPayload{Description: desc, Calories: kcal, Date: "2026-08-30"}
}

func TestEnqueueDedupWithinWindow(t *testing.T) {
	q, _, now := newTestQueue(t)

	first := q.Enqueue(meal("chicken and rice", 450), "u1")
	if !first.Queued || first.Entry == nil {
		t.Fatal("first enqueue should be queued")
	}

	*now = now.Add(5 * time.Second)
	second := q.Enqueue(meal("chicken and rice", 450), "u1")
	if !second.Queued || !second.Deduped {
		t.Fatal("second enqueue within 5s should dedup")
	}
	if second.Entry.ID != first.Entry.ID {
		t.Errorf("dedup should return the same entry id, got %s vs %s", second.Entry.ID, first.Entry.ID)
	}
	if len(q.Entries("u1")) != 1 {
		t.Errorf("expected queue length 1, got %d", len(q.Entries("u1")))
	}

	// Past the window an identical payload queues again.
	*now = now.Add(65 * time.Second)
	third := q.Enqueue(meal("chicken and rice", 450), "u1")
	if !third.Queued || third.Deduped {
		t.Fatal("enqueue after 65s should create a new entry")
	}
	if len(q.Entries("u1")) != 2 {
		t.Errorf("expected queue length 2, got %d", len(q.Entries("u1")))
	}
}

func TestEnqueueDifferentFingerprints(t *testing.T) {
	q, _, _ := newTestQueue(t)

	q.Enqueue(meal("chicken and rice", 450), "u1")
	r := q.Enqueue(meal("chicken and rice", 500), "u1")
	if r.Deduped {
		t.Error("different calories should not dedup")
	}
	if len(q.Entries("u1")) != 2 {
		t.Errorf("expected 2 entries, got %d", len(q.Entries("u1")))
	}
}

func TestEnqueuePersistenceFailure(t *testing.T) {
	q, store, _ := newTestQueue(t)
	store.FailNextWrites(1)

	r := q.Enqueue(meal("oats", 300), "u1")
	if r.Queued {
		t.Error("failed persist should report queued=false")
	}
	if r.Entry != nil {
		t.Error("failed enqueue should not return an entry")
	}
	if len(q.Entries("u1")) != 0 {
		t.Error("abandoned enqueue must not leave a partial entry")
	}
}

func TestRemoveAndIncrementRetry(t *testing.T) {
	q, _, _ := newTestQueue(t)

	a := q.Enqueue(meal("a", 100), "u1")
	b := q.Enqueue(meal("b", 200), "u1")

	q.IncrementRetry(b.Entry.ID)
	q.IncrementRetry(b.Entry.ID)

	entries := q.Entries("u1")
	if entries[1].RetryCount != 2 {
		t.Errorf("expected retryCount 2, got %d", entries[1].RetryCount)
	}
	if entries[0].RetryCount != 0 {
		t.Error("other entries must be untouched")
	}

	q.Remove(a.Entry.ID)
	q.Remove(a.Entry.ID) // idempotent

	entries = q.Entries("u1")
	if len(entries) != 1 || entries[0].ID != b.Entry.ID {
		t.Errorf("expected only %s to remain", b.Entry.ID)
	}

	// Unknown ids are no-ops.
	q.Remove("id-999")
	q.IncrementRetry("id-999")
}

func TestOwnerNamespacing(t *testing.T) {
	q, _, _ := newTestQueue(t)

	q.Enqueue(meal("a", 100), "u1")
	q.Enqueue(meal("a", 100), "u2")
	q.Enqueue(meal("a", 100), "")

	if len(q.Entries("u1")) != 1 || len(q.Entries("u2")) != 1 || len(q.Entries("")) != 1 {
		t.Error("owners must not share queue state")
	}
	if len(q.All()) != 3 {
		t.Errorf("expected 3 entries across owners, got %d", len(q.All()))
	}
}

func TestCorruptQueueFallsBackToEmpty(t *testing.T) {
	q, store, _ := newTestQueue(t)
	store.Set(storage.QueueKey("u1"), "{not json")

	if len(q.Entries("u1")) != 0 {
		t.Error("corrupt state should load as empty")
	}

	r := q.Enqueue(meal("a", 100), "u1")
	if !r.Queued {
		t.Error("enqueue after corrupt state should succeed")
	}
}

func TestFIFOOrderPreserved(t *testing.T) {
	q, _, now := newTestQueue(t)

	for i := 0; i < 5; i++ {
		q.Enqueue(meal(fmt.Sprintf("meal-%d", i), 100+i), "u1")
		*now = now.Add(time.Second)
	}

	entries := q.Entries("u1")
	for i := 1; i < len(entries); i++ {
		if entries[i].EnqueuedAt.Before(entries[i-1].EnqueuedAt) {
			t.Fatal("entries out of enqueue order")
		}
	}
}
