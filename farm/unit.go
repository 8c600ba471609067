package farm

// WorkerID identifies a single worker within one run. IDs are assigned by
// the transport, starting at 0, and stay stable for the lifetime of the run.
type WorkerID int

// WorkUnit describes one bounded slice of work: the distribution parameter
// and how many values the receiving worker must produce. A unit is immutable
// once sent and is addressed to exactly one worker.
//
// A unit with Count == 0 is the reserved termination sentinel. It is never
// built directly; use terminationUnit so the sentinel stays an explicit
// variant rather than an accidental zero value.
type WorkUnit struct {
	Mean  float64
	Count int
}

// Terminate reports whether the unit is the termination sentinel. A worker
// receiving it exits its loop without sending a reply.
func (u WorkUnit) Terminate() bool { return u.Count == 0 }

// terminationUnit returns the sentinel that tells a worker to exit.
func terminationUnit() WorkUnit { return WorkUnit{} }

// ResultBatch is the bounded output a worker produced for one WorkUnit,
// tagged with the identity of the worker that produced it. A batch is
// created by exactly one worker and consumed exactly once by the dispatcher.
//
// Type parameters:
//   - V: The type of the generated values
type ResultBatch[V any] struct {
	Producer WorkerID
	Values   []V
}
