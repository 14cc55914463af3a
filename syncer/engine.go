// ABOUTME: Sync engine draining the mutation queue against a commit callback
// ABOUTME: Applies bounded retry, atomic per-item removal, and a per-owner flush guard
package syncer

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/harperreed/kinetic/config"
	"github.com/harperreed/kinetic/models"
	"github.com/harperreed/kinetic/queue"
	"github.com/harperreed/kinetic/storage"
)

// CommitFunc durably applies one payload to the remote system. It must
// return true only once the write is accepted; a returned error is treated
// identically to false. Timeouts are the callback's responsibility.
type CommitFunc func(ctx context.Context, payload models.MealPayload) (bool, error)

// Reachability reports whether the network is currently usable.
type Reachability interface {
	Online() bool
}

// OnlineFunc adapts a plain function to Reachability.
type OnlineFunc func() bool

func (f OnlineFunc) Online() bool { return f() }

// AlwaysOnline is the default reachability for environments without a
// connectivity signal.
var AlwaysOnline = OnlineFunc(func() bool { return true })

// Engine drains the mutation queue when connectivity is available.
type Engine struct {
	queue *queue.Queue
	cfg   *config.Config
	net   Reachability

	// inflight holds a token per owner segment while a flush runs. The
	// token is taken by compare-and-swap so two overlapping flushes cannot
	// both read the same entry and double-commit it.
	inflight sync.Map
}

// New creates an engine over q. A nil net means always online.
func New(q *queue.Queue, cfg *config.Config, net Reachability) *Engine {
	if net == nil {
		net = AlwaysOnline
	}
	return &Engine{queue: q, cfg: cfg, net: net}
}

// Flush drains owner's pending mutations in enqueue order and returns the
// number committed. It is a no-op returning 0 when offline, or when a flush
// for the same owner is already in flight.
func (e *Engine) Flush(ctx context.Context, commit CommitFunc, owner string) int {
	if !e.net.Online() {
		return 0
	}

	seg := storage.OwnerSegment(owner)
	if _, held := e.inflight.LoadOrStore(seg, struct{}{}); held {
		log.Printf("syncer: flush already in flight for owner %s", seg)
		return 0
	}
	defer e.inflight.Delete(seg)

	return e.drain(ctx, commit, owner)
}

// FlushAll drains every owner namespace, for operational and migration use.
func (e *Engine) FlushAll(ctx context.Context, commit CommitFunc) int {
	if !e.net.Online() {
		return 0
	}

	owners := map[string]bool{}
	for _, m := range e.queue.All() {
		owners[m.Owner] = true
	}

	total := 0
	for owner := range owners {
		total += e.Flush(ctx, commit, owner)
	}
	return total
}

// drain processes entries sequentially. Each confirmed commit removes its
// entry immediately so a crash between items never double-commits.
func (e *Engine) drain(ctx context.Context, commit CommitFunc, owner string) int {
	synced := 0
	for _, entry := range e.queue.Entries(owner) {
		if ctx.Err() != nil {
			break
		}

		if !entry.CanRetry(e.cfg.MaxRetries) {
			// Bounded-retry policy: accept data loss over a retry storm.
			e.queue.Remove(entry.ID)
			log.Printf("syncer: dropping mutation %s (%s) after %d failed attempts",
				entry.ID, summarize(entry.Payload), entry.RetryCount)
			continue
		}

		ok, err := commit(ctx, entry.Payload)
		if err != nil || !ok {
			e.queue.IncrementRetry(entry.ID)
			continue
		}

		e.queue.Remove(entry.ID)
		synced++
	}
	return synced
}

func summarize(p models.MealPayload) string {
	desc := p.Description
	if len(desc) > 40 {
		desc = desc[:40] + "…"
	}
	return strings.TrimSpace(desc)
}
