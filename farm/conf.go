package farm

import (
	"runtime"

	"golang.org/x/time/rate"
)

// Option is a functional option for configuring a Farm or a Dispatcher.
type Option func(*config)

type config struct {
	workers    int
	batchSize  int
	mean       float64
	limiter    *rate.Limiter
	pinWorkers bool
	onDispatch func(WorkerID, WorkUnit)
	onReceive  func(WorkerID, int)
}

func defaultConfig() *config {
	return &config{
		workers:   runtime.GOMAXPROCS(0),
		batchSize: 10000,
	}
}

// WithWorkers sets the number of workers in the pool.
// If not specified, defaults to runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithBatchSize bounds the number of values requested per WorkUnit. The last
// unit of a run may carry less. Defaults to 10000.
func WithBatchSize(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.batchSize = n
		}
	}
}

// WithMean sets the distribution parameter carried in every dispatched
// WorkUnit. Defaults to 0.
func WithMean(mean float64) Option {
	return func(cfg *config) {
		cfg.mean = mean
	}
}

// WithRateLimit caps how many WorkUnits per second the dispatcher hands out.
// Useful to keep a run from saturating a shared sink or, with a remote
// transport, a shared link. If not specified, dispatch is not throttled.
//
// Example:
//
//	WithRateLimit(100, 10) // 100 units/sec with burst of 10
func WithRateLimit(unitsPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if unitsPerSecond > 0 && burst > 0 {
			cfg.limiter = rate.NewLimiter(rate.Limit(unitsPerSecond), burst)
		}
	}
}

// WithWorkerPinning locks each worker goroutine to an OS thread and pins it
// to a CPU core. Worth trying for generation-heavy runs; a no-op on
// platforms without affinity support.
func WithWorkerPinning() Option {
	return func(cfg *config) {
		cfg.pinWorkers = true
	}
}

// WithDispatchHook registers a hook invoked after every WorkUnit handed to a
// worker. Called from the dispatcher goroutine only.
func WithDispatchHook(fn func(id WorkerID, unit WorkUnit)) Option {
	return func(cfg *config) {
		cfg.onDispatch = fn
	}
}

// WithReceiveHook registers a hook invoked after every ResultBatch accepted
// from a worker, with the producer identity and the batch length. Called
// from the dispatcher goroutine only.
func WithReceiveHook(fn func(producer WorkerID, n int)) Option {
	return func(cfg *config) {
		cfg.onReceive = fn
	}
}
