package farm

// Static split mode: instead of the greedy dispatch loop, carve the target
// into one equal share per worker up front and gather the shares as they
// come in. Conceptually simpler than the dynamic protocol and useful as a
// baseline, but it needs the target to divide evenly, so the run total is
// rounded up and the surplus is trimmed before it reaches the sink.

import (
	"context"
	"fmt"
)

// RunStatic distributes the target evenly across the worker pool in a
// single round: every worker receives exactly one WorkUnit carrying an
// equal share. If target is not a multiple of the worker count the total is
// enlarged to the next multiple; the returned Accounting reflects the
// enlarged totals, while the sink receives exactly `target` values.
//
// Termination and rendezvous follow the same protocol as Run.
func (f *Farm[V]) RunStatic(ctx context.Context, target int, newGen GeneratorFactory[V], s Sink[V]) (Accounting, error) {
	if newGen == nil {
		return Accounting{Target: target}, fmt.Errorf("farm: generator factory must not be nil")
	}
	if err := validateRun(target, f.conf.batchSize, f.conf.workers); err != nil {
		return Accounting{Target: target}, err
	}

	total := target
	if rem := target % f.conf.workers; rem != 0 {
		total += f.conf.workers - rem
	}
	share := total / f.conf.workers

	if s == nil {
		s = Discard[V]()
	}
	capped := &cappedSink[V]{sink: s, remaining: target}

	transport := NewChannelTransport[V](f.conf.workers)
	if share == 0 {
		// target == 0: nothing to carve up, straight to termination.
		return f.run(ctx, transport, 0, f.conf.batchSize, newGen, capped)
	}
	return f.run(ctx, transport, total, share, newGen, capped)
}

// cappedSink forwards at most `remaining` values and silently drops the
// surplus from the rounded-up final share.
type cappedSink[V any] struct {
	sink      Sink[V]
	remaining int
}

func (c *cappedSink[V]) Append(values []V) error {
	if c.remaining <= 0 {
		return nil
	}
	if len(values) > c.remaining {
		values = values[:c.remaining]
	}
	if err := c.sink.Append(values); err != nil {
		return err
	}
	c.remaining -= len(values)
	return nil
}
