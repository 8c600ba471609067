package farm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Accounting tracks a run's progress against its target.
//
// Invariants: Requested never exceeds Target, and Delivered grows strictly
// by the length of each received batch. The run is complete exactly when
// Delivered has reached Target.
type Accounting struct {
	Target    int
	Requested int
	Delivered int
}

// Complete reports whether the run has delivered its target.
func (a Accounting) Complete() bool { return a.Delivered >= a.Target }

// Dispatcher owns the worker pool bookkeeping: which workers are idle, how
// much work has been requested and delivered, and the termination protocol.
// It is the only goroutine that touches the sink.
//
// Type parameters:
//   - V: The type of the generated values
type Dispatcher[V any] struct {
	transport  Transport[V]
	sink       Sink[V]
	mean       float64
	limiter    *rate.Limiter
	onDispatch func(WorkerID, WorkUnit)
	onReceive  func(WorkerID, int)
}

// NewDispatcher creates a dispatcher bound to a transport and a sink. A nil
// sink discards every batch. Relevant options: WithMean, WithRateLimit,
// WithDispatchHook, WithReceiveHook.
func NewDispatcher[V any](t Transport[V], s Sink[V], opts ...Option) *Dispatcher[V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if s == nil {
		s = Discard[V]()
	}

	return &Dispatcher[V]{
		transport:  t,
		sink:       s,
		mean:       cfg.mean,
		limiter:    cfg.limiter,
		onDispatch: cfg.onDispatch,
		onReceive:  cfg.onReceive,
	}
}

// Run distributes `target` values of work across the given workers in
// batches of at most batchSize, greedily feeding whichever worker is idle
// and collecting batches in whatever order they complete. Once the target is
// met and no unit is in flight, it sends every worker exactly one
// termination sentinel and meets them at the rendezvous barrier.
//
// Parameters:
//   - ctx: Context for cancellation control
//   - target: Total number of values wanted (>= 0)
//   - batchSize: Upper bound per WorkUnit (>= 1)
//   - workers: Identities of the participating workers (at least one)
//
// Returns:
//   - Accounting: Final requested/delivered totals, possibly partial on error
//   - error: First fatal condition, after an abort has been broadcast
func (d *Dispatcher[V]) Run(ctx context.Context, target, batchSize int, workers []WorkerID) (Accounting, error) {
	acct := Accounting{Target: target}
	if err := validateRun(target, batchSize, len(workers)); err != nil {
		return acct, err
	}

	idle := make([]WorkerID, len(workers))
	copy(idle, workers)
	busy := make(map[WorkerID]bool, len(workers))

	for acct.Delivered < target || len(busy) > 0 {
		// Fill phase: feed every idle worker while work remains. The
		// loop only runs while Requested < target, so count >= 1 and
		// a unit sent here can never be mistaken for the termination
		// sentinel.
		for len(idle) > 0 && acct.Requested < target {
			if d.limiter != nil {
				if err := d.limiter.Wait(ctx); err != nil {
					return acct, d.fail(&TransportError{Op: "send", Err: err})
				}
			}

			count := min(batchSize, target-acct.Requested)
			id := idle[len(idle)-1]
			idle = idle[:len(idle)-1]

			unit := WorkUnit{Mean: d.mean, Count: count}
			if err := d.transport.Send(ctx, id, unit); err != nil {
				return acct, d.fail(err)
			}

			busy[id] = true
			acct.Requested += count
			debugLog("dispatched unit: worker=%d count=%d requested=%d", id, count, acct.Requested)
			if d.onDispatch != nil {
				d.onDispatch(id, unit)
			}
		}

		if len(busy) == 0 {
			if acct.Delivered < target {
				// Requested has reached target yet the sum of
				// received batches falls short: some worker
				// under-delivered.
				return acct, d.fail(&ProtocolError{
					Worker: -1,
					Reason: "requested work exhausted before target was met",
				})
			}
			break
		}

		// Drain phase: wait for a batch from any worker. Completion
		// is never declared while a unit is in flight, so a worker
		// can't be left blocking on an unreceived send.
		batch, err := d.transport.Collect(ctx)
		if err != nil {
			return acct, d.fail(err)
		}
		if !busy[batch.Producer] {
			return acct, d.fail(&ProtocolError{
				Worker: batch.Producer,
				Reason: "result from a worker with no outstanding unit",
			})
		}
		delete(busy, batch.Producer)
		idle = append(idle, batch.Producer)

		if err := d.sink.Append(batch.Values); err != nil {
			return acct, d.fail(fmt.Errorf("farm: sink append: %w", err))
		}
		acct.Delivered += len(batch.Values)
		debugLog("received batch: worker=%d len=%d delivered=%d", batch.Producer, len(batch.Values), acct.Delivered)
		if d.onReceive != nil {
			d.onReceive(batch.Producer, len(batch.Values))
		}
	}

	// Termination phase: every worker is idle by now, and each one
	// receives exactly one sentinel. Nothing to track: the fill phase
	// cannot have terminated anyone, and this loop walks the idle set
	// once.
	for _, id := range idle {
		if err := d.transport.Send(ctx, id, terminationUnit()); err != nil {
			return acct, d.fail(err)
		}
	}

	// Rendezvous: wait for every worker to confirm it left its loop.
	debugLog("termination sent to %d workers, entering rendezvous", len(idle))
	if err := d.transport.Barrier(ctx); err != nil {
		return acct, err
	}
	return acct, nil
}

// fail broadcasts the abort before surfacing the error, so workers blocked
// on the transport are released rather than left waiting on a dispatcher
// that is about to return.
func (d *Dispatcher[V]) fail(err error) error {
	d.transport.Abort(err)
	return err
}

func validateRun(target, batchSize, workers int) error {
	if target < 0 {
		return fmt.Errorf("farm: target must be >= 0, got %d", target)
	}
	if batchSize < 1 {
		return fmt.Errorf("farm: batch size must be >= 1, got %d", batchSize)
	}
	if workers < 1 {
		return fmt.Errorf("farm: at least one worker required, got %d", workers)
	}
	return nil
}
