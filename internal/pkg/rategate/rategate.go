package rategate

import (
	"context"
	"errors"
	"sync"
)

var ErrInvalidCapacity = errors.New("rate gate capacity must be greater than 0")

// Gate is a bounded-concurrency admission controller for outbound calls.
// Release hands a freed slot directly to the longest-waiting acquirer, so
// waiters are served strictly in arrival order instead of racing new callers.
type Gate struct {
	mu       sync.Mutex
	capacity int
	inFlight int
	waiters  []chan struct{}
}

// New creates a gate admitting at most capacity concurrent holders.
func New(capacity int) (*Gate, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Gate{capacity: capacity}, nil
}

// Acquire blocks until a slot is free or ctx is done. The gate itself never
// times out; overall deadlines belong to the caller.
func (g *Gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	if g.inFlight < g.capacity {
		g.inFlight++
		g.mu.Unlock()
		return nil
	}

	grant := make(chan struct{})
	g.waiters = append(g.waiters, grant)
	g.mu.Unlock()

	select {
	case <-grant:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		for i, w := range g.waiters {
			if w == grant {
				g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
				g.mu.Unlock()
				return ctx.Err()
			}
		}
		g.mu.Unlock()
		// The grant landed before the cancellation was observed; the slot
		// is ours, so give it back before reporting the cancellation.
		g.Release()
		return ctx.Err()
	}
}

// Release frees a slot. If waiters exist the slot passes directly to the
// head of the queue and the in-flight count does not change.
func (g *Gate) Release() {
	g.mu.Lock()
	if len(g.waiters) > 0 {
		grant := g.waiters[0]
		g.waiters = g.waiters[1:]
		g.mu.Unlock()
		close(grant)
		return
	}
	if g.inFlight > 0 {
		g.inFlight--
	}
	g.mu.Unlock()
}

// InFlight reports the number of currently admitted holders.
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Waiting reports the number of queued acquirers.
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}
