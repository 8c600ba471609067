// Command farmout generates random samples from a normal distribution by
// farming batches of work out to a pool of workers, then writes the values
// to a file or a SQLite database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"github.com/utkarsh5026/farmout/farm"
	"github.com/utkarsh5026/farmout/internal/rng"
	"github.com/utkarsh5026/farmout/sink"
)

var (
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
)

type options struct {
	target    int
	batchSize int
	mean      float64
	workers   int
	mode      string
	out       string
	store     string
	seed      int64
	pin       bool
	quiet     bool
}

func parseFlags() (*options, error) {
	opts := &options{}

	flag.IntVar(&opts.target, "n", 1_000_064, "total number of values to generate")
	flag.IntVar(&opts.batchSize, "batch", 10_000, "maximum values per dispatched work unit")
	flag.Float64Var(&opts.mean, "mean", float64(time.Now().Day()), "mean of the normal distribution")
	flag.IntVar(&opts.workers, "workers", 4, "number of workers in the pool (seq mode ignores this)")
	flag.StringVar(&opts.mode, "mode", "dynamic", "work distribution: dynamic, static or seq")
	flag.StringVar(&opts.out, "out", "", "output path (default random_<n>_nums.txt or samples.db)")
	flag.StringVar(&opts.store, "store", "text", "output store: text or sqlite")
	flag.Int64Var(&opts.seed, "seed", 0, "base RNG seed (0 = derive from time)")
	flag.BoolVar(&opts.pin, "pin", false, "pin workers to CPU cores")
	flag.BoolVar(&opts.quiet, "quiet", false, "suppress progress output")
	flag.Parse()

	if opts.target < 0 {
		return nil, fmt.Errorf("-n must be >= 0, got %d", opts.target)
	}
	if opts.batchSize < 1 {
		return nil, fmt.Errorf("-batch must be >= 1, got %d", opts.batchSize)
	}
	if opts.workers < 1 {
		return nil, fmt.Errorf("-workers must be >= 1, got %d", opts.workers)
	}
	switch opts.mode {
	case "dynamic", "static", "seq":
	default:
		return nil, fmt.Errorf("-mode must be dynamic, static or seq, got %q", opts.mode)
	}
	switch opts.store {
	case "text", "sqlite":
	default:
		return nil, fmt.Errorf("-store must be text or sqlite, got %q", opts.store)
	}
	if opts.seed == 0 {
		opts.seed = time.Now().UnixNano()
	}
	if opts.out == "" {
		if opts.store == "sqlite" {
			opts.out = "samples.db"
		} else {
			opts.out = fmt.Sprintf("random_%d_nums.txt", opts.target)
		}
	}

	return opts, nil
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		red.Fprintf(os.Stderr, "farmout: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		red.Fprintf(os.Stderr, "farmout: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	runID := uuid.NewString()

	s, closeSink, err := openSink(opts, runID)
	if err != nil {
		return err
	}

	if !opts.quiet {
		bold.Printf("Picking %d numbers from a normal distribution about %g\n", opts.target, opts.mean)
		fmt.Printf("run %s: mode=%s workers=%d batch=%d -> %s\n",
			runID, opts.mode, opts.workers, opts.batchSize, opts.out)
	}

	var bar *progressbar.ProgressBar
	if !opts.quiet {
		bar = progressbar.NewOptions(opts.target,
			progressbar.OptionSetDescription("Generating"),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
		)
	}

	stats := newRunStats()
	start := time.Now()

	var acct farm.Accounting
	switch opts.mode {
	case "seq":
		acct, err = runSequential(ctx, opts, s, bar)
	default:
		acct, err = runFarmed(ctx, opts, s, bar, stats)
	}
	elapsed := time.Since(start)

	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	// Keep the partial output either way; on failure it is a diagnostic
	// artifact rather than a committed result.
	if cerr := closeSink(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if !opts.quiet {
		green.Printf("Got %d numbers in %v.\n", acct.Delivered, elapsed.Round(time.Millisecond))
		stats.render(acct, elapsed, opts.mode)
		fmt.Printf("Done. Output in %s.\n", opts.out)
	}
	return nil
}

func openSink(opts *options, runID string) (farm.Sink[float64], func() error, error) {
	if opts.store == "sqlite" {
		db, err := sink.OpenSQLite(opts.out, runID)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}

	w, err := sink.Create(opts.out)
	if err != nil {
		return nil, nil, err
	}
	return w, w.Close, nil
}

func runFarmed(
	ctx context.Context,
	opts *options,
	s farm.Sink[float64],
	bar *progressbar.ProgressBar,
	stats *runStats,
) (farm.Accounting, error) {
	farmOpts := []farm.Option{
		farm.WithWorkers(opts.workers),
		farm.WithBatchSize(opts.batchSize),
		farm.WithMean(opts.mean),
		farm.WithReceiveHook(func(producer farm.WorkerID, n int) {
			stats.record(producer, n)
			if bar != nil {
				_ = bar.Add(n)
			}
		}),
	}
	if opts.pin {
		farmOpts = append(farmOpts, farm.WithWorkerPinning())
	}

	f := farm.New[float64](farmOpts...)
	if opts.mode == "static" {
		return f.RunStatic(ctx, opts.target, rng.Factory(opts.seed), s)
	}
	return f.Run(ctx, opts.target, rng.Factory(opts.seed), s)
}

// runSequential is the single-process fallback: no transport, no workers,
// one batch loop straight into the sink.
func runSequential(
	ctx context.Context,
	opts *options,
	s farm.Sink[float64],
	bar *progressbar.ProgressBar,
) (farm.Accounting, error) {
	gen := rng.Normal(opts.seed)
	acct := farm.Accounting{Target: opts.target}

	for acct.Delivered < opts.target {
		count := min(opts.batchSize, opts.target-acct.Delivered)
		values, err := gen(ctx, opts.mean, count)
		if err != nil {
			return acct, err
		}
		if err := s.Append(values); err != nil {
			return acct, err
		}
		acct.Requested += count
		acct.Delivered += len(values)
		if bar != nil {
			_ = bar.Add(len(values))
		}
	}
	return acct, nil
}

// runStats accumulates per-worker batch counts. Hooks run on the dispatcher
// goroutine only, so plain maps are fine.
type runStats struct {
	batches map[farm.WorkerID]int
	values  map[farm.WorkerID]int
}

func newRunStats() *runStats {
	return &runStats{
		batches: make(map[farm.WorkerID]int),
		values:  make(map[farm.WorkerID]int),
	}
}

func (r *runStats) record(id farm.WorkerID, n int) {
	r.batches[id]++
	r.values[id] += n
}

func (r *runStats) render(acct farm.Accounting, elapsed time.Duration, mode string) {
	if len(r.batches) == 0 {
		return
	}

	ids := make([]farm.WorkerID, 0, len(r.batches))
	for id := range r.batches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Worker", "Batches", "Values")
	for _, id := range ids {
		_ = table.Append(
			fmt.Sprintf("W%d", id),
			fmt.Sprintf("%d", r.batches[id]),
			fmt.Sprintf("%d", r.values[id]),
		)
	}
	_ = table.Append("total", fmt.Sprintf("%d", totalOf(r.batches)), fmt.Sprintf("%d", acct.Delivered))
	if err := table.Render(); err != nil {
		red.Fprintln(os.Stderr, "error rendering summary table")
	}

	perSec := float64(acct.Delivered) / elapsed.Seconds()
	fmt.Printf("mode=%s requested=%d delivered=%d (%.0f values/sec)\n",
		mode, acct.Requested, acct.Delivered, perSec)
}

func totalOf(m map[farm.WorkerID]int) int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}
