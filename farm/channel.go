package farm

import (
	"context"
	"fmt"
	"sync"
)

// ChannelTransport is the in-process Transport implementation. It gives each
// worker a dedicated unit channel and funnels all completed batches through
// one shared result channel, which is what makes "receive from any" a single
// channel receive on the dispatcher side.
//
// Unit channels are buffered for one message. The dispatcher only ever sends
// to an idle worker, and a worker never has two outstanding units, so one
// slot is enough for a send to complete without a rendezvous.
type ChannelTransport[V any] struct {
	units   []chan WorkUnit
	results chan ResultBatch[V]
	barrier *barrier

	quit  chan struct{}
	once  sync.Once
	cause error // written once inside `once`, read only after quit is closed
}

// NewChannelTransport creates a transport connecting `workers` workers to
// one dispatcher. The rendezvous barrier spans workers+1 participants since
// the dispatcher takes part as well.
func NewChannelTransport[V any](workers int) *ChannelTransport[V] {
	if workers < 1 {
		workers = 1
	}

	units := make([]chan WorkUnit, workers)
	for i := range units {
		units[i] = make(chan WorkUnit, 1)
	}

	return &ChannelTransport[V]{
		units:   units,
		results: make(chan ResultBatch[V], workers),
		barrier: newBarrier(workers + 1),
		quit:    make(chan struct{}),
	}
}

// WorkerIDs returns the identities of all workers attached to the transport.
func (t *ChannelTransport[V]) WorkerIDs() []WorkerID {
	ids := make([]WorkerID, len(t.units))
	for i := range ids {
		ids[i] = WorkerID(i)
	}
	return ids
}

// Send delivers a WorkUnit to the named worker.
func (t *ChannelTransport[V]) Send(ctx context.Context, to WorkerID, unit WorkUnit) error {
	if int(to) < 0 || int(to) >= len(t.units) {
		return &TransportError{Op: "send", Err: fmt.Errorf("unknown worker %d", to)}
	}

	select {
	case t.units[to] <- unit:
		return nil
	case <-t.quit:
		return ErrAborted
	case <-ctx.Done():
		return &TransportError{Op: "send", Err: ctx.Err()}
	}
}

// Recv blocks until the next WorkUnit addressed to id arrives.
func (t *ChannelTransport[V]) Recv(ctx context.Context, id WorkerID) (WorkUnit, error) {
	if int(id) < 0 || int(id) >= len(t.units) {
		return WorkUnit{}, &TransportError{Op: "recv", Err: fmt.Errorf("unknown worker %d", id)}
	}

	select {
	case unit := <-t.units[id]:
		return unit, nil
	case <-t.quit:
		return WorkUnit{}, ErrAborted
	case <-ctx.Done():
		return WorkUnit{}, &TransportError{Op: "recv", Err: ctx.Err()}
	}
}

// Report delivers a completed ResultBatch back to the dispatcher.
func (t *ChannelTransport[V]) Report(ctx context.Context, batch ResultBatch[V]) error {
	select {
	case t.results <- batch:
		return nil
	case <-t.quit:
		return ErrAborted
	case <-ctx.Done():
		return &TransportError{Op: "report", Err: ctx.Err()}
	}
}

// Collect blocks until a ResultBatch from any worker arrives.
func (t *ChannelTransport[V]) Collect(ctx context.Context) (ResultBatch[V], error) {
	select {
	case batch := <-t.results:
		return batch, nil
	case <-t.quit:
		return ResultBatch[V]{}, ErrAborted
	case <-ctx.Done():
		return ResultBatch[V]{}, &TransportError{Op: "collect", Err: ctx.Err()}
	}
}

// Barrier blocks until all workers and the dispatcher have arrived.
func (t *ChannelTransport[V]) Barrier(ctx context.Context) error {
	return t.barrier.wait(ctx, t.quit)
}

// Abort broadcasts a fatal condition to every participant. The first cause
// wins; later calls are no-ops.
func (t *ChannelTransport[V]) Abort(cause error) {
	t.once.Do(func() {
		if cause == nil {
			cause = ErrAborted
		}
		t.cause = cause
		close(t.quit)
	})
}

// Done returns a channel that is closed once Abort has been called.
func (t *ChannelTransport[V]) Done() <-chan struct{} { return t.quit }

// Err returns the abort cause, or nil if the transport is healthy.
func (t *ChannelTransport[V]) Err() error {
	select {
	case <-t.quit:
		return t.cause
	default:
		return nil
	}
}
