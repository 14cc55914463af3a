// ABOUTME: Persisted value kept consistent across tabs of the same owner
// ABOUTME: Explicit two-state machine prevents external changes from echoing back
package tabsync

import (
	"context"
	"log"
	"sync"

	"github.com/harperreed/kinetic/storage"
)

// valueState is the echo-prevention state machine. A value sits in
// stateLocal except for the instant an external change is being applied;
// the transition back to stateLocal consumes the write-through that a local
// mutation would have triggered.
type valueState int

const (
	stateLocal valueState = iota
	stateAppliedExternally
)

// SyncedValue is a persisted value shared by all tabs of one owner. Local
// mutations write through to storage immediately and notify other tabs; a
// change that arrived from another tab is applied without re-triggering
// either, so two tabs cannot feed each other an endless echo.
type SyncedValue struct {
	key    string
	origin string
	store  storage.Store
	hub    Notifier

	mu    sync.Mutex
	value string
	state valueState
}

// NewSyncedValue creates the value for key. origin uniquely identifies this
// tab. If storage has a value for key it wins over initial; otherwise
// initial is written through.
func NewSyncedValue(store storage.Store, hub Notifier, key, origin, initial string) *SyncedValue {
	v := &SyncedValue{key: key, origin: origin, store: store, hub: hub, value: initial}
	if existing, ok := store.Get(key); ok {
		v.value = existing
	} else if !store.Set(key, initial) {
		log.Printf("tabsync: failed to persist initial value for %s", key)
	}
	return v
}

// Get returns the current value.
func (v *SyncedValue) Get() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set applies a local mutation: the value is persisted and other tabs are
// notified.
func (v *SyncedValue) Set(value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.apply(value)
}

// ApplyExternal applies a change that originated in another tab. Changes
// carrying this tab's own origin are ignored.
func (v *SyncedValue) ApplyExternal(c Change) {
	if c.Origin == v.origin || c.Key != v.key {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = stateAppliedExternally
	v.apply(c.Value)
}

// apply runs the write effect for the current state. In stateLocal the value
// writes through and notifies; in stateAppliedExternally both are consumed
// and the machine returns to stateLocal.
func (v *SyncedValue) apply(value string) {
	v.value = value

	if v.state == stateAppliedExternally {
		v.state = stateLocal
		return
	}

	if !v.store.Set(v.key, value) {
		log.Printf("tabsync: write-through failed for %s", v.key)
	}
	v.hub.Publish(Change{Key: v.key, Value: value, Origin: v.origin})
}

// Watch applies changes from other tabs until ctx is done. Run it in its
// own goroutine.
func (v *SyncedValue) Watch(ctx context.Context) {
	ch := v.hub.Subscribe(v.key)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-ch:
			v.ApplyExternal(c)
		}
	}
}
