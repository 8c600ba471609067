package farm

import (
	"errors"
	"fmt"
)

var (
	// ErrAborted is returned by transport primitives that were unblocked
	// by an abort broadcast. The original cause is available from the
	// transport's Err method.
	ErrAborted = errors.New("farm: run aborted")
)

// TransportError wraps the failure of a transport primitive (send, receive,
// collect, barrier). Any transport failure is fatal to the whole run: the
// dispatcher broadcasts an abort and returns, keeping whatever the sink has
// already written.
type TransportError struct {
	Op  string // "send", "recv", "report", "collect" or "barrier"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("farm: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a broken dispatch invariant, such as a result
// arriving from a worker with no outstanding unit. It always indicates a
// defective implementation rather than a transient fault, so it is fatal
// and never retried.
//
// Worker is -1 when the violation is not attributable to a single worker.
type ProtocolError struct {
	Worker WorkerID
	Reason string
}

func (e *ProtocolError) Error() string {
	if e.Worker < 0 {
		return fmt.Sprintf("farm: protocol violation: %s", e.Reason)
	}
	return fmt.Sprintf("farm: protocol violation: worker %d: %s", e.Worker, e.Reason)
}

// GenerationError reports that a worker's generator function failed. The
// worker broadcasts an abort before returning it, so on the dispatcher side
// it surfaces with transport-failure semantics.
type GenerationError struct {
	Worker WorkerID
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("farm: worker %d: generation failed: %v", e.Worker, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
