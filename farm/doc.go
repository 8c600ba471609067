// Package farm implements a dynamic master/worker task-farming protocol:
// a dispatcher hands bounded WorkUnits to a fixed pool of workers, collects
// ResultBatches in whatever order they complete, tracks progress against a
// target total, and terminates every worker through an explicit sentinel
// plus rendezvous, without deadlock.
//
// The primary type is Farm[V], which wires a Dispatcher, an in-process
// ChannelTransport and a pool of Workers into one runnable unit. The
// participants communicate exclusively through the Transport interface;
// there is no shared mutable state between them.
//
// # Basic Usage
//
//	f := farm.New[float64](
//	    farm.WithWorkers(8),
//	    farm.WithBatchSize(10000),
//	    farm.WithMean(5),
//	)
//	acct, err := f.Run(ctx, 1_000_064, rng.Factory(42), sink)
//
// Each worker draws from its own generator, so factories can seed one
// independent stream per worker id.
//
// # Dispatch Protocol
//
// The dispatcher alternates two phases until the target is met and nothing
// is in flight:
//
//   - Fill: while a worker is idle and work remains, send it a WorkUnit of
//     min(batchSize, remaining) values and mark it busy.
//   - Drain: block until any worker reports a batch, free that worker,
//     append the batch to the sink, and update the accounting.
//
// Completion requires both the delivered total and an empty in-flight set:
// early completions by fast workers never cut off a batch that is still
// being produced. Only then does every worker get exactly one termination
// sentinel, followed by a barrier across all participants.
//
// # Failure Semantics
//
// Any transport failure, generator failure or protocol violation aborts the
// whole run: the failing participant broadcasts the cause through the
// transport, every blocked primitive returns ErrAborted, and Run surfaces
// the root cause. Values already appended to the sink are retained.
//
// # Static Split
//
// RunStatic trades the greedy loop for a single equal split across the
// pool, rounding the total up to a multiple of the worker count and
// trimming the surplus before it reaches the sink. It exists as a baseline;
// the dynamic protocol is the point of the package.
package farm
