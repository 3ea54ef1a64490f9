package batch

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/eve"
)

func TestRunIsReproducible(t *testing.T) {
	cfg := bb84.Config{KeyLength: 64, Eavesdropper: &eve.Config{InterceptRate: 0.2}}
	serial, err := Run(context.Background(), Options{Runs: 12, Config: cfg, Seed: 5, Concurrency: 1})
	if err != nil {
		t.Fatalf("serial batch: %v", err)
	}
	parallel, err := Run(context.Background(), Options{Runs: 12, Config: cfg, Seed: 5, Concurrency: 8})
	if err != nil {
		t.Fatalf("parallel batch: %v", err)
	}
	for i := range serial.Runs {
		s, p := serial.Runs[i], parallel.Runs[i]
		if s.Index != i || p.Index != i || s.Seed != int64(5+i) {
			t.Fatalf("run %d mislabelled: %+v, %+v", i, s, p)
		}
		if s.Err != nil || p.Err != nil {
			t.Fatalf("run %d failed: %v, %v", i, s.Err, p.Err)
		}
		if s.Result.Key.String() != p.Result.Key.String() || s.Result.QBER != p.Result.QBER {
			t.Errorf("run %d differs between serial and parallel batches", i)
		}
		single, err := bb84.Execute(bb84.Config{KeyLength: 64, Eavesdropper: cfg.Eavesdropper, Seed: int64(5 + i)})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if single.Key.String() != s.Result.Key.String() {
			t.Errorf("run %d differs from a lone session with seed %d", i, 5+i)
		}
	}
	if serial.Comparison.Runs != 12 || serial.Trend.Count != 12 {
		t.Errorf("aggregates cover %d/%d runs, want 12", serial.Comparison.Runs, serial.Trend.Count)
	}
}

func TestRunRecordsFailures(t *testing.T) {
	// Three qubits leave a one bit key about half the time.
	cfg := bb84.Config{KeyLength: 1, TransmissionMultiplier: 3, MaxAttempts: 1}
	var seen atomic.Int32
	o, err := Run(context.Background(), Options{
		Runs:   40,
		Config: cfg,
		Seed:   1,
		OnRun:  func(RunResult) { seen.Add(1) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if int(seen.Load()) != 40 {
		t.Errorf("OnRun saw %d runs, want 40", seen.Load())
	}
	if o.Successful+o.Failed != 40 || o.Successful == 0 || o.Failed == 0 {
		t.Fatalf("successful, failed == %d, %d, want a mix summing to 40", o.Successful, o.Failed)
	}
	if o.Shortfalls() != o.Failed {
		t.Errorf("Shortfalls() == %d, want %d", o.Shortfalls(), o.Failed)
	}
	for _, r := range o.Runs {
		if (r.Err == nil) == (r.Result == nil) {
			t.Fatalf("run %d has result %v and error %v", r.Index, r.Result, r.Err)
		}
		if r.Err != nil && !errors.Is(r.Err, bb84.ErrInsufficientMaterial) {
			t.Errorf("run %d failed with %v", r.Index, r.Err)
		}
	}
	if o.Comparison.Runs != o.Successful {
		t.Errorf("Comparison covers %d runs, want %d", o.Comparison.Runs, o.Successful)
	}
	if best := o.Runs[o.Comparison.Best]; best.Err != nil {
		t.Errorf("best run %d failed", best.Index)
	}
	if len(o.Errors()) != 1 {
		t.Errorf("Errors() == %v, want a single kind of failure", o.Errors())
	}
}

func TestRunAverageQBER(t *testing.T) {
	o, err := Run(context.Background(), Options{
		Runs:   50,
		Config: bb84.Config{KeyLength: 256, TransmissionMultiplier: 4, Eavesdropper: &eve.Config{InterceptRate: 0.5}},
		Seed:   2024,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if o.Failed != 0 {
		t.Fatalf("%d runs failed: %v", o.Failed, o.Errors())
	}
	// Each run checks ~51 bits, so the mean of 50 has sd ~0.65.
	if q := o.Comparison.MeanQBER; q < 9 || q > 16 {
		t.Errorf("mean QBER == %.2f, want ~12.5", q)
	}
	if math.Abs(o.Trend.Mean-o.Comparison.MeanQBER) > 1e-9 {
		t.Errorf("Trend mean %v disagrees with Comparison mean %v", o.Trend.Mean, o.Comparison.MeanQBER)
	}
}

func TestRunRejectsBadOptions(t *testing.T) {
	tcs := []struct {
		name string
		opts Options
		eCfg bool
	}{
		{"no runs", Options{Runs: 0, Config: bb84.Config{KeyLength: 8}}, false},
		{"bad config", Options{Runs: 3, Config: bb84.Config{KeyLength: -1}}, true},
	}
	for _, tc := range tcs {
		o, err := Run(context.Background(), tc.opts)
		if err == nil || o != nil {
			t.Errorf("%s: Run == %v, %v, want error", tc.name, o, err)
		}
		if errors.Is(err, bb84.ErrInvalidConfig) != tc.eCfg {
			t.Errorf("%s: error == %v, want ErrInvalidConfig: %v", tc.name, err, tc.eCfg)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o, err := Run(ctx, Options{Runs: 5, Config: bb84.Config{KeyLength: 8}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error == %v, want context.Canceled", err)
	}
	if o.Failed != 5 || o.Successful != 0 {
		t.Errorf("successful, failed == %d, %d, want 0, 5", o.Successful, o.Failed)
	}
	if o.Comparison.Best != -1 {
		t.Errorf("Comparison.Best == %d with no successes", o.Comparison.Best)
	}
}

func TestRunStopsQueuedRunsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var seen atomic.Int32
	o, err := Run(ctx, Options{
		Runs:        10,
		Config:      bb84.Config{KeyLength: 8},
		Concurrency: 1,
		OnRun: func(RunResult) {
			seen.Add(1)
			cancel()
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error == %v, want context.Canceled", err)
	}
	if got := seen.Load(); got != 1 {
		t.Errorf("%d runs executed after cancellation, want only the first", got-1)
	}
	if o.Runs[0].Err != nil {
		t.Errorf("first run failed: %v", o.Runs[0].Err)
	}
	for _, r := range o.Runs[1:] {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("run %d error == %v, want context.Canceled", r.Index, r.Err)
		}
	}
}
