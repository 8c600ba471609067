package farm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/farmout/internal/cpu"
)

// Farm wires a dispatcher, an in-process transport and a pool of workers
// into one runnable unit. The zero-dependency way to use this package:
// build a Farm, hand it a generator factory and a sink, call Run.
//
// Type parameters:
//   - V: The type of the generated values
type Farm[V any] struct {
	conf *config
}

// New creates a Farm with the given options.
//
// Example:
//
//	f := farm.New[float64](
//	    farm.WithWorkers(8),
//	    farm.WithBatchSize(10000),
//	    farm.WithMean(5),
//	)
//	acct, err := f.Run(ctx, 1_000_064, rng.Factory(42), sink)
func New[V any](opts ...Option) *Farm[V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Farm[V]{conf: cfg}
}

// Run farms `target` values out to the worker pool using the dynamic
// greedy-dispatch protocol and blocks until the run has finished, including
// the termination rendezvous.
//
// Parameters:
//   - ctx: Context for cancellation control
//   - target: Total number of values wanted (>= 0)
//   - newGen: Factory producing one generator per worker
//   - s: Destination for completed batches (nil discards them)
//
// Returns:
//   - Accounting: Final requested/delivered totals, possibly partial on error
//   - error: First fatal condition from any participant
func (f *Farm[V]) Run(ctx context.Context, target int, newGen GeneratorFactory[V], s Sink[V]) (Accounting, error) {
	if newGen == nil {
		return Accounting{Target: target}, fmt.Errorf("farm: generator factory must not be nil")
	}
	if err := validateRun(target, f.conf.batchSize, f.conf.workers); err != nil {
		return Accounting{Target: target}, err
	}

	transport := NewChannelTransport[V](f.conf.workers)
	return f.run(ctx, transport, target, f.conf.batchSize, newGen, s)
}

// run launches the workers and the dispatcher under one errgroup. The first
// error cancels the shared context, and every transport primitive selects on
// it, so a failing participant takes the whole run down instead of deadlocking
// it.
func (f *Farm[V]) run(
	ctx context.Context,
	transport *ChannelTransport[V],
	target, batchSize int,
	newGen GeneratorFactory[V],
	s Sink[V],
) (Accounting, error) {
	g, ctx := errgroup.WithContext(ctx)

	for _, id := range transport.WorkerIDs() {
		w := NewWorker(id, Transport[V](transport), newGen(id))
		g.Go(func() error {
			if f.conf.pinWorkers {
				defer cpu.Pin(int(w.ID()))()
			}
			return w.Run(ctx)
		})
	}

	var acct Accounting
	g.Go(func() error {
		d := &Dispatcher[V]{
			transport:  transport,
			sink:       s,
			mean:       f.conf.mean,
			limiter:    f.conf.limiter,
			onDispatch: f.conf.onDispatch,
			onReceive:  f.conf.onReceive,
		}
		if d.sink == nil {
			d.sink = Discard[V]()
		}

		a, err := d.Run(ctx, target, batchSize, transport.WorkerIDs())
		acct = a
		return err
	})

	if err := g.Wait(); err != nil {
		// Prefer the root cause recorded on the transport: the group
		// may surface a secondary ErrAborted from a bystander worker
		// first.
		if cause := transport.Err(); cause != nil {
			return acct, cause
		}
		return acct, err
	}
	return acct, nil
}
