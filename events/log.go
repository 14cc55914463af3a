// ABOUTME: Owner-scoped append-only log of domain events
// ABOUTME: Bounded by count and age, with a halve-and-retry persistence fallback
package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/harperreed/kinetic/config"
	"github.com/harperreed/kinetic/models"
	"github.com/harperreed/kinetic/storage"
)

// Log stores coach events per owner. Events are immutable once appended;
// the log is pruned by age and count on every load and append.
type Log struct {
	store storage.Store
	cfg   *config.Config
	now   func() time.Time
}

// New creates a log over store.
func New(store storage.Store, cfg *config.Config) *Log {
	return &Log{store: store, cfg: cfg, now: time.Now}
}

// SetClock overrides the clock, for tests.
func (l *Log) SetClock(now func() time.Time) {
	l.now = now
}

// Append adds an event to owner's log and persists the trimmed result. On a
// failed write it retries once with the log halved to the most recent
// entries, then gives up silently. Returns whether the event was persisted.
func (l *Log) Append(event models.CoachEvent, owner string) bool {
	if !event.Valid() {
		log.Printf("events: dropping malformed event of type %q", event.Type)
		return false
	}

	key := storage.EventsKey(owner)
	entries := append(l.Load(owner), event)

	if len(entries) > l.cfg.EventMaxCount {
		entries = entries[len(entries)-l.cfg.EventMaxCount:]
	}

	if l.persist(key, entries) {
		return true
	}

	if len(entries) > l.cfg.EventRetryCount {
		entries = entries[len(entries)-l.cfg.EventRetryCount:]
	}
	if l.persist(key, entries) {
		return true
	}

	log.Printf("events: giving up persisting log for owner %s", storage.OwnerSegment(owner))
	return false
}

// Load returns owner's events, discarding corrupt state and entries older
// than the age bound. Never returns an error: any parse failure yields an
// empty log.
func (l *Log) Load(owner string) []models.CoachEvent {
	raw, ok := l.store.Get(storage.EventsKey(owner))
	if !ok {
		return nil
	}

	var entries []models.CoachEvent
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("events: discarding corrupt log for owner %s: %v", storage.OwnerSegment(owner), err)
		return nil
	}

	cutoff := l.now().Add(-l.cfg.EventMaxAge)
	fresh := entries[:0]
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			fresh = append(fresh, e)
		}
	}

	if len(fresh) > l.cfg.EventMaxCount {
		fresh = fresh[len(fresh)-l.cfg.EventMaxCount:]
	}
	return fresh
}

func (l *Log) persist(key string, entries []models.CoachEvent) bool {
	data, err := json.Marshal(entries)
	if err != nil {
		return false
	}
	return l.store.Set(key, string(data))
}
