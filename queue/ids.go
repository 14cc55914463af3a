// ABOUTME: Injected mutation id generation
// ABOUTME: ULID-based monotonic generator so ids sort in enqueue order
package queue

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator produces unique mutation ids. Injected so tests can supply a
// deterministic sequence instead of relying on hidden shared state.
type IDGenerator interface {
	NewID() string
}

// ULIDGenerator issues monotonic ULIDs. Ids from one generator sort
// lexicographically in generation order, which keeps persisted queues
// readable in FIFO order.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator creates a generator seeded from the current time.
func NewULIDGenerator() *ULIDGenerator {
	seed := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &ULIDGenerator{entropy: ulid.Monotonic(seed, 0)}
}

func (g *ULIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}
