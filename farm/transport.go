package farm

import "context"

// Transport is the message fabric between the dispatcher and its workers.
// It is constructed explicitly and handed to both sides; there is no ambient
// process-wide communicator.
//
// Implementations must make every blocking primitive abort-aware: after
// Abort has been called, pending and future calls return ErrAborted instead
// of blocking, so no participant can hang on an unreceived message.
//
// Type parameters:
//   - V: The type of the generated values carried in result batches
type Transport[V any] interface {
	// Send delivers a WorkUnit to the named worker.
	Send(ctx context.Context, to WorkerID, unit WorkUnit) error

	// Recv blocks until the next WorkUnit addressed to id arrives.
	Recv(ctx context.Context, id WorkerID) (WorkUnit, error)

	// Report delivers a completed ResultBatch back to the dispatcher.
	Report(ctx context.Context, batch ResultBatch[V]) error

	// Collect blocks until a ResultBatch from any worker arrives. The
	// producer's identity travels inside the batch.
	Collect(ctx context.Context) (ResultBatch[V], error)

	// Barrier blocks until every participant (all workers plus the
	// dispatcher) has arrived. It is reusable across generations.
	Barrier(ctx context.Context) error

	// Abort broadcasts a fatal condition to every participant and
	// unblocks all pending operations. The first cause wins; later calls
	// are no-ops.
	Abort(cause error)

	// Done returns a channel that is closed once Abort has been called.
	Done() <-chan struct{}

	// Err returns the abort cause, or nil if the transport is healthy.
	Err() error
}
