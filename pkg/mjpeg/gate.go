// ABOUTME: Pacing gate between the producer and the render sink
// ABOUTME: Counting handoff signal that keeps at most one frame in flight
package mjpeg

import (
	"context"
	"sync"
)

// Gate is a handoff signal: Release posts a signal, Acquire waits for one
// and consumes it. Releases are counted, so a release issued before the
// matching Acquire is never lost.
type Gate struct {
	mu      sync.Mutex
	pending int
	signal  chan struct{} // closed and replaced when pending goes 0 -> 1
}

// NewGate creates a gate with no pending signal.
func NewGate() *Gate {
	return &Gate{signal: make(chan struct{})}
}

// Release posts one signal.
func (g *Gate) Release() {
	g.mu.Lock()
	g.pending++
	if g.pending == 1 {
		close(g.signal)
	}
	g.mu.Unlock()
}

// Acquire blocks until a signal is pending and consumes it, or until ctx
// is done.
func (g *Gate) Acquire(ctx context.Context) error {
	for {
		g.mu.Lock()
		if g.pending > 0 {
			g.pending--
			if g.pending == 0 {
				g.signal = make(chan struct{})
			}
			g.mu.Unlock()
			return nil
		}
		wait := g.signal
		g.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Pending returns the number of unconsumed signals.
func (g *Gate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}
