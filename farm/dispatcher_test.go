package farm

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
)

// recordingSink collects batches in arrival order.
type recordingSink struct {
	batches [][]float64
	failOn  int // 1-based append index to fail at, 0 = never
}

func (s *recordingSink) Append(values []float64) error {
	if s.failOn > 0 && len(s.batches)+1 >= s.failOn {
		return errors.New("disk full")
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	s.batches = append(s.batches, cp)
	return nil
}

func (s *recordingSink) total() int {
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

// meanGen produces count copies of the unit's mean. Stateless, so it can be
// shared by every worker in a test pool.
func meanGen(ctx context.Context, mean float64, count int) ([]float64, error) {
	out := make([]float64, count)
	for i := range out {
		out[i] = mean
	}
	return out, nil
}

// startWorkers runs one Worker goroutine per transport slot and returns a
// WaitGroup that joins them all.
func startWorkers(tr *ChannelTransport[float64], gen Generator[float64]) *sync.WaitGroup {
	var wg sync.WaitGroup
	for _, id := range tr.WorkerIDs() {
		w := NewWorker(id, Transport[float64](tr), gen)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Run(context.Background())
		}()
	}
	return &wg
}

func TestDispatcher_TwoWorkersSplitBatches(t *testing.T) {
	// target=25, batch=10, 2 workers: two full units then one of 5.
	tr := NewChannelTransport[float64](2)
	wg := startWorkers(tr, meanGen)

	s := &recordingSink{}
	d := NewDispatcher[float64](Transport[float64](tr), s, WithMean(3))

	acct, err := d.Run(context.Background(), 25, 10, tr.WorkerIDs())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	wg.Wait()

	if acct.Requested != 25 || acct.Delivered != 25 {
		t.Errorf("expected requested=delivered=25, got %+v", acct)
	}
	if !acct.Complete() {
		t.Error("accounting should report completion")
	}
	if s.total() != 25 {
		t.Errorf("expected 25 values in sink, got %d", s.total())
	}

	lens := make([]int, 0, len(s.batches))
	for _, b := range s.batches {
		lens = append(lens, len(b))
	}
	sort.Ints(lens)
	want := []int{5, 10, 10}
	if len(lens) != len(want) {
		t.Fatalf("expected 3 batches, got %d", len(lens))
	}
	for i := range want {
		if lens[i] != want[i] {
			t.Errorf("batch sizes: expected %v, got %v", want, lens)
			break
		}
	}

	for _, b := range s.batches {
		for _, v := range b {
			if v != 3 {
				t.Fatalf("expected all values to carry the mean 3, got %v", v)
			}
		}
	}
}

func TestDispatcher_TargetZeroGoesStraightToTermination(t *testing.T) {
	tr := NewChannelTransport[float64](3)
	wg := startWorkers(tr, meanGen)

	dispatched := 0
	s := &recordingSink{}
	d := NewDispatcher[float64](Transport[float64](tr), s,
		WithDispatchHook(func(WorkerID, WorkUnit) { dispatched++ }),
	)

	acct, err := d.Run(context.Background(), 0, 10, tr.WorkerIDs())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	wg.Wait()

	if dispatched != 0 {
		t.Errorf("expected no work units dispatched, got %d", dispatched)
	}
	if acct.Requested != 0 || acct.Delivered != 0 {
		t.Errorf("expected zero accounting, got %+v", acct)
	}
	if len(s.batches) != 0 {
		t.Errorf("expected empty sink, got %d batches", len(s.batches))
	}
}

func TestDispatcher_SingleWorkerPartialBatch(t *testing.T) {
	// target=7, batch=10: one unit of 7, one batch of 7, then termination.
	tr := NewChannelTransport[float64](1)
	wg := startWorkers(tr, meanGen)

	s := &recordingSink{}
	d := NewDispatcher[float64](Transport[float64](tr), s)

	acct, err := d.Run(context.Background(), 7, 10, tr.WorkerIDs())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	wg.Wait()

	if len(s.batches) != 1 || len(s.batches[0]) != 7 {
		t.Fatalf("expected a single batch of 7, got %v", s.batches)
	}
	if acct.Requested != 7 || acct.Delivered != 7 {
		t.Errorf("expected requested=delivered=7, got %+v", acct)
	}
}

func TestDispatcher_ValidatesArguments(t *testing.T) {
	tr := NewChannelTransport[float64](1)
	d := NewDispatcher[float64](Transport[float64](tr), nil)
	ctx := context.Background()

	if _, err := d.Run(ctx, -1, 10, tr.WorkerIDs()); err == nil {
		t.Error("expected error for negative target")
	}
	if _, err := d.Run(ctx, 10, 0, tr.WorkerIDs()); err == nil {
		t.Error("expected error for zero batch size")
	}
	if _, err := d.Run(ctx, 10, 10, nil); err == nil {
		t.Error("expected error for empty worker set")
	}
}

func TestDispatcher_RejectsBatchFromIdleWorker(t *testing.T) {
	tr := NewChannelTransport[float64](2)
	ctx := context.Background()

	// Both workers claim the other produced their batch, so whichever
	// unit lands first comes back tagged with an idle producer.
	var wg sync.WaitGroup
	for _, id := range tr.WorkerIDs() {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			unit, err := tr.Recv(ctx, id)
			if err != nil || unit.Terminate() {
				return
			}
			values, _ := meanGen(ctx, unit.Mean, unit.Count)
			_ = tr.Report(ctx, ResultBatch[float64]{Producer: 1 - id, Values: values})
			_, _ = tr.Recv(ctx, id) // park until the abort lands
		}()
	}

	d := NewDispatcher[float64](Transport[float64](tr), &recordingSink{})
	_, err := d.Run(ctx, 10, 10, tr.WorkerIDs())

	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if tr.Err() == nil {
		t.Error("protocol violation should abort the transport")
	}
	wg.Wait()
}

func TestDispatcher_UnderDeliveryIsProtocolViolation(t *testing.T) {
	tr := NewChannelTransport[float64](1)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		unit, err := tr.Recv(ctx, 0)
		if err != nil {
			return
		}
		short := make([]float64, unit.Count-1)
		_ = tr.Report(ctx, ResultBatch[float64]{Producer: 0, Values: short})
		_, _ = tr.Recv(ctx, 0) // park until the abort lands
	}()

	d := NewDispatcher[float64](Transport[float64](tr), &recordingSink{})
	_, err := d.Run(ctx, 10, 10, tr.WorkerIDs())

	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if !strings.Contains(perr.Reason, "exhausted") {
		t.Errorf("unexpected reason: %q", perr.Reason)
	}
	<-done
}

func TestDispatcher_SinkFailureAbortsRun(t *testing.T) {
	tr := NewChannelTransport[float64](1)
	wg := startWorkers(tr, meanGen)

	s := &recordingSink{failOn: 1}
	d := NewDispatcher[float64](Transport[float64](tr), s)

	_, err := d.Run(context.Background(), 5, 5, tr.WorkerIDs())
	if err == nil {
		t.Fatal("expected error from failing sink")
	}
	if !strings.Contains(err.Error(), "sink append") {
		t.Errorf("expected sink append error, got %v", err)
	}
	if tr.Err() == nil {
		t.Error("sink failure should abort the transport")
	}
	wg.Wait() // workers must be released, not left blocking
}

func TestDispatcher_RateLimitedRunCompletes(t *testing.T) {
	tr := NewChannelTransport[float64](2)
	wg := startWorkers(tr, meanGen)

	s := &recordingSink{}
	d := NewDispatcher[float64](Transport[float64](tr), s, WithRateLimit(10000, 100))

	acct, err := d.Run(context.Background(), 50, 5, tr.WorkerIDs())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	wg.Wait()

	if acct.Delivered != 50 || s.total() != 50 {
		t.Errorf("expected 50 delivered, got acct=%+v sink=%d", acct, s.total())
	}
}
