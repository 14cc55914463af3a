// ABOUTME: Versioned per-owner startup migration
// ABOUTME: Adopts legacy untagged queue entries into the owner's namespace
package migrate

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/harperreed/kinetic/models"
	"github.com/harperreed/kinetic/queue"
	"github.com/harperreed/kinetic/storage"
)

// CurrentVersion is the migration version an up-to-date owner namespace
// carries.
const CurrentVersion = 1

// Run applies pending migration steps for owner and returns whether the
// namespace is fully migrated. Idempotent: a persisted version marker, not a
// boolean flag, records progress, so a crash mid-migration re-runs the step
// on the next startup.
func Run(store storage.Store, owner string) bool {
	version := readVersion(store, owner)
	if version >= CurrentVersion {
		return true
	}

	if version < 1 {
		if !adoptLegacyEntries(store, owner) {
			return false
		}
	}

	if !store.Set(storage.MigrationKey(owner), strconv.Itoa(CurrentVersion)) {
		log.Printf("migrate: failed to persist version marker for owner %s", storage.OwnerSegment(owner))
		return false
	}
	return true
}

// adoptLegacyEntries moves untagged mutations from the pre-namespacing queue
// into owner's queue. Legacy entries predate anything already in the
// namespace, so they merge ahead of the existing entries.
func adoptLegacyEntries(store storage.Store, owner string) bool {
	raw, ok := store.Get(queue.LegacyQueueKey)
	if !ok {
		return true
	}

	var legacy []models.QueuedMutation
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		// Corrupt legacy state cannot be adopted; discard it.
		log.Printf("migrate: discarding corrupt legacy queue: %v", err)
		store.Remove(queue.LegacyQueueKey)
		return true
	}

	var adopted, remaining []models.QueuedMutation
	for _, m := range legacy {
		if m.Owner == "" {
			m.Owner = owner
			adopted = append(adopted, m)
		} else {
			remaining = append(remaining, m)
		}
	}
	if len(adopted) == 0 {
		return true
	}

	key := storage.QueueKey(owner)
	existing := loadQueue(store, key)

	merged := append(adopted, existing...)
	data, err := json.Marshal(merged)
	if err != nil {
		return false
	}
	if !store.Set(key, string(data)) {
		log.Printf("migrate: failed to adopt %d legacy entries for owner %s", len(adopted), storage.OwnerSegment(owner))
		return false
	}

	if len(remaining) == 0 {
		store.Remove(queue.LegacyQueueKey)
	} else {
		data, err := json.Marshal(remaining)
		if err == nil {
			store.Set(queue.LegacyQueueKey, string(data))
		}
	}

	log.Printf("migrate: adopted %d legacy mutations into owner %s", len(adopted), storage.OwnerSegment(owner))
	return true
}

func loadQueue(store storage.Store, key string) []models.QueuedMutation {
	raw, ok := store.Get(key)
	if !ok {
		return nil
	}
	var entries []models.QueuedMutation
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}

func readVersion(store storage.Store, owner string) int {
	raw, ok := store.Get(storage.MigrationKey(owner))
	if !ok {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
