// ABOUTME: Narrow key-value interface all core components persist through
// ABOUTME: Defines the Store contract and the shared key namespace
package storage

import "strings"

// Store is the persistence contract the core depends on. Set reports failure
// with a boolean rather than an error: a quota-exhausted or unavailable
// backend is an expected condition, not an exceptional one.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool)

	// Set writes key=value and reports whether the write was persisted.
	Set(key, value string) bool

	// Remove deletes key. Removing a missing key is a no-op.
	Remove(key string)

	// Keys returns all keys.
	Keys() []string

	// KeysWithPrefix returns all keys starting with prefix.
	KeysWithPrefix(prefix string) []string

	// Close releases the backend.
	Close() error
}

// Key namespace. Everything the core persists lives under one of these
// prefixes; the eviction policy reasons about them by prefix.
const (
	QueueKeyPrefix     = "kinetic/queue/"
	EventsKeyPrefix    = "kinetic/events/"
	InsightsKeyPrefix  = "kinetic/insights/"
	DraftKeyPrefix     = "kinetic/draft/"
	MigrationKeyPrefix = "kinetic/migration/"
	CacheKeyPrefix     = "kinetic/cache/"
	PrefsKeyPrefix     = "kinetic/prefs/"
)

// AnonymousOwner is the namespace segment for state with no authenticated
// owner. It is distinct from any real owner identifier.
const AnonymousOwner = "anonymous"

// OwnerSegment maps an opaque owner id to its namespace segment.
func OwnerSegment(owner string) string {
	if owner == "" {
		return AnonymousOwner
	}
	return owner
}

// QueueKey returns the mutation queue key for an owner.
func QueueKey(owner string) string {
	return QueueKeyPrefix + OwnerSegment(owner)
}

// EventsKey returns the event log key for an owner.
func EventsKey(owner string) string {
	return EventsKeyPrefix + OwnerSegment(owner)
}

// InsightsKey returns the insight set key for an owner.
func InsightsKey(owner string) string {
	return InsightsKeyPrefix + OwnerSegment(owner)
}

// MigrationKey returns the migration version marker key for an owner.
func MigrationKey(owner string) string {
	return MigrationKeyPrefix + OwnerSegment(owner)
}

// filterPrefix is the shared prefix-scan helper for backends without a
// native prefix iterator.
func filterPrefix(keys []string, prefix string) []string {
	var matched []string
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	return matched
}
