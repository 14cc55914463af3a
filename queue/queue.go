// ABOUTME: Durable mutation queue with fingerprint dedup on insert
// ABOUTME: Persists the per-owner queue as a single JSON value
package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/harperreed/kinetic/config"
	"github.com/harperreed/kinetic/models"
	"github.com/harperreed/kinetic/storage"
)

// LegacyQueueKey held untagged queue entries before owner namespacing.
// Only the migration step reads it.
const LegacyQueueKey = "kinetic/queue"

// Result reports the outcome of an Enqueue.
type Result struct {
	// Queued is false only when persistence failed and the mutation was
	// abandoned.
	Queued bool

	// Deduped is true when an existing entry absorbed the enqueue.
	Deduped bool

	// Entry is the queued (or pre-existing) mutation, nil when Queued is false.
	Entry *models.QueuedMutation
}

// Queue is the durable mutation queue. The store is the source of truth;
// every operation loads, rewrites, and persists the owner's list.
type Queue struct {
	store storage.Store
	cfg   *config.Config
	ids   IDGenerator
	now   func() time.Time
}

// New creates a queue over store.
func New(store storage.Store, cfg *config.Config, ids IDGenerator) *Queue {
	return &Queue{store: store, cfg: cfg, ids: ids, now: time.Now}
}

// SetClock overrides the clock, for tests.
func (q *Queue) SetClock(now func() time.Time) {
	q.now = now
}

// Enqueue adds a mutation for owner, deduplicating against an identical
// payload enqueued within the dedup window. Persistence failure is reported
// via Queued=false; the in-memory attempt is abandoned rather than partially
// applied.
func (q *Queue) Enqueue(payload models.MealPayload, owner string) Result {
	key := storage.QueueKey(owner)
	entries := q.load(key)

	now := q.now()
	fp := payload.Fingerprint()
	for i := range entries {
		if entries[i].Payload.Fingerprint() == fp &&
			now.Sub(entries[i].EnqueuedAt) <= q.cfg.MutationDedupWindow {
			return Result{Queued: true, Deduped: true, Entry: &entries[i]}
		}
	}

	entry := models.QueuedMutation{
		ID:         q.ids.NewID(),
		Owner:      owner,
		Payload:    payload,
		EnqueuedAt: now,
		RetryCount: 0,
	}
	entries = append(entries, entry)

	if !q.persist(key, entries) {
		log.Printf("queue: failed to persist enqueue for owner %s, abandoning", storage.OwnerSegment(owner))
		return Result{Queued: false}
	}
	return Result{Queued: true, Entry: &entry}
}

// Remove deletes the entry with id from whichever owner's queue holds it.
// Idempotent; persistence failure is logged, not escalated.
func (q *Queue) Remove(id string) {
	q.rewrite(id, func(entries []models.QueuedMutation, i int) []models.QueuedMutation {
		return append(entries[:i], entries[i+1:]...)
	})
}

// IncrementRetry bumps the retry count of the entry with id. Idempotent per
// call; persistence failure is logged, not escalated.
func (q *Queue) IncrementRetry(id string) {
	q.rewrite(id, func(entries []models.QueuedMutation, i int) []models.QueuedMutation {
		entries[i].RetryCount++
		return entries
	})
}

// rewrite finds id across owner queues and applies fn to the containing list.
func (q *Queue) rewrite(id string, fn func([]models.QueuedMutation, int) []models.QueuedMutation) {
	for _, key := range q.store.KeysWithPrefix(storage.QueueKeyPrefix) {
		entries := q.load(key)
		for i := range entries {
			if entries[i].ID == id {
				entries = fn(entries, i)
				if !q.persist(key, entries) {
					log.Printf("queue: best-effort rewrite of %s failed to persist", key)
				}
				return
			}
		}
	}
}

// Entries returns owner's pending mutations in enqueue order.
func (q *Queue) Entries(owner string) []models.QueuedMutation {
	return q.load(storage.QueueKey(owner))
}

// All returns pending mutations across every owner namespace, for status
// reporting and migration.
func (q *Queue) All() []models.QueuedMutation {
	var all []models.QueuedMutation
	for _, key := range q.store.KeysWithPrefix(storage.QueueKeyPrefix) {
		all = append(all, q.load(key)...)
	}
	return all
}

// load reads and decodes a queue list; corrupt state falls back to empty.
func (q *Queue) load(key string) []models.QueuedMutation {
	raw, ok := q.store.Get(key)
	if !ok {
		return nil
	}

	var entries []models.QueuedMutation
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("queue: discarding corrupt state at %s: %v", key, err)
		return nil
	}
	return entries
}

func (q *Queue) persist(key string, entries []models.QueuedMutation) bool {
	if len(entries) == 0 {
		q.store.Remove(key)
		return true
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return false
	}
	return q.store.Set(key, string(data))
}
