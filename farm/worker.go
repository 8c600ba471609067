package farm

import (
	"context"
	"fmt"
)

// Generator materializes exactly `count` values drawn from a random process
// parameterized by `mean`. The values themselves are unconstrained; only the
// count is. Generators are not required to be safe for concurrent use: each
// worker owns its own.
//
// Type parameters:
//   - V: The type of the generated values
type Generator[V any] func(ctx context.Context, mean float64, count int) ([]V, error)

// GeneratorFactory builds the generator for one worker. Factories typically
// derive a per-worker seed from the id so concurrent workers draw from
// independent streams.
type GeneratorFactory[V any] func(id WorkerID) Generator[V]

// Worker is one unit of execution in the pool. It repeatedly accepts a
// WorkUnit, materializes the requested values, and reports them back, until
// it receives the termination sentinel.
type Worker[V any] struct {
	id        WorkerID
	transport Transport[V]
	generate  Generator[V]
}

// NewWorker creates a worker bound to a transport and a generator.
func NewWorker[V any](id WorkerID, t Transport[V], gen Generator[V]) *Worker[V] {
	return &Worker[V]{
		id:        id,
		transport: t,
		generate:  gen,
	}
}

// ID returns the worker's identity on its transport.
func (w *Worker[V]) ID() WorkerID { return w.id }

// Run executes the worker loop: receive a unit, produce exactly the
// requested number of values, report the batch. A termination sentinel exits
// the loop without a reply. After the loop the worker still owes the
// rendezvous, whichever way it got here.
//
// A generator failure is fatal: the worker broadcasts an abort so the
// dispatcher and its siblings stop instead of waiting on a batch that will
// never arrive.
func (w *Worker[V]) Run(ctx context.Context) error {
	for {
		unit, err := w.transport.Recv(ctx, w.id)
		if err != nil {
			return err
		}
		if unit.Terminate() {
			break
		}

		values, err := w.generate(ctx, unit.Mean, unit.Count)
		if err != nil {
			genErr := &GenerationError{Worker: w.id, Err: err}
			w.transport.Abort(genErr)
			return genErr
		}
		if len(values) != unit.Count {
			perr := &ProtocolError{
				Worker: w.id,
				Reason: fmt.Sprintf("generator produced %d values for a unit of %d", len(values), unit.Count),
			}
			w.transport.Abort(perr)
			return perr
		}

		if err := w.transport.Report(ctx, ResultBatch[V]{Producer: w.id, Values: values}); err != nil {
			return err
		}
	}

	return w.transport.Barrier(ctx)
}
