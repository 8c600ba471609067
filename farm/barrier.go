package farm

import (
	"context"
	"sync"
)

// barrier is a reusable counting barrier: the last of `parties` arrivals
// releases everyone, then the barrier resets for the next generation.
type barrier struct {
	mu      sync.Mutex
	parties int
	arrived int
	release chan struct{}
}

func newBarrier(parties int) *barrier {
	return &barrier{
		parties: parties,
		release: make(chan struct{}),
	}
}

// wait blocks until all parties have arrived, the context is cancelled, or
// quit is closed. Each waiter captures the release channel of its own
// generation under the lock, so a reset by the last arriver cannot strand
// earlier waiters.
func (b *barrier) wait(ctx context.Context, quit <-chan struct{}) error {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.parties {
		close(b.release)
		b.arrived = 0
		b.release = make(chan struct{})
		b.mu.Unlock()
		return nil
	}
	release := b.release
	b.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-quit:
		return ErrAborted
	case <-ctx.Done():
		return &TransportError{Op: "barrier", Err: ctx.Err()}
	}
}
