// ABOUTME: In-process change notification hub for storage updates
// ABOUTME: Fans out key changes to subscribers without blocking publishers
package tabsync

import "sync"

// Change describes a storage update seen by other tabs. Origin identifies
// the tab that made the write so subscribers can ignore their own echoes.
type Change struct {
	Key    string
	Value  string
	Origin string
}

// Notifier delivers storage changes between tabs.
type Notifier interface {
	Publish(c Change)
	Subscribe(key string) <-chan Change
}

// Hub is an in-process Notifier. Each subscriber gets a buffered channel;
// a subscriber that falls behind loses changes rather than blocking the
// publisher, matching last-write-wins semantics.
type Hub struct {
	mu   sync.RWMutex
	subs map[string][]chan Change
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]chan Change)}
}

// Subscribe returns a channel receiving changes for key.
func (h *Hub) Subscribe(key string) <-chan Change {
	ch := make(chan Change, 16)
	h.mu.Lock()
	h.subs[key] = append(h.subs[key], ch)
	h.mu.Unlock()
	return ch
}

// Publish delivers c to every subscriber of its key. Non-blocking: a full
// subscriber buffer drops the change.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[c.Key] {
		select {
		case ch <- c:
		default:
		}
	}
}
