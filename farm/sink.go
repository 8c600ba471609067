package farm

// Sink is the external consumer of completed result batches. The dispatcher
// appends batches in arrival order, which is non-deterministic across runs.
//
// Exactly one goroutine (the dispatcher) touches the sink during a run, so
// implementations need no internal locking. A sink failure is fatal to the
// run; whatever was appended before the failure is retained as a diagnostic
// artifact, not rolled back.
type Sink[V any] interface {
	Append(values []V) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc[V any] func(values []V) error

func (f SinkFunc[V]) Append(values []V) error { return f(values) }

// Discard returns a Sink that drops every batch.
func Discard[V any]() Sink[V] {
	return SinkFunc[V](func([]V) error { return nil })
}
