// Package batch runs many independent BB84 sessions in parallel and
// aggregates their results.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/analysis"
	"golang.org/x/sync/errgroup"
)

// Options configures a batch.
type Options struct {
	// Runs is the number of sessions. Must be positive.
	Runs int

	// Config is shared by every run. Its Rand and Seed are ignored: run i
	// draws from its own source seeded with Seed+i, so a batch is
	// reproducible from Seed alone.
	Config bb84.Config
	Seed   int64

	// Concurrency bounds the number of sessions in flight. Defaults to
	// GOMAXPROCS.
	Concurrency int

	// OnRun, if non-nil, observes each run as it completes. It may be called
	// from several goroutines at once and in any order.
	OnRun func(RunResult)
}

// A RunResult is the outcome of one session in a batch. Exactly one of
// Result and Err is non-nil.
type RunResult struct {
	Index  int
	Seed   int64
	Result *bb84.Result
	Err    error
}

// An Outcome aggregates a batch. Comparison and Trend cover successful runs
// only, and Comparison's Best and Worst index into Runs.
type Outcome struct {
	Runs       []RunResult
	Successful int
	Failed     int
	Comparison analysis.Comparison
	Trend      analysis.TrendSummary
}

// Run executes opts.Runs sessions. A failed session is recorded in its
// RunResult and does not disturb the others. If ctx is cancelled, no further
// sessions start; those never started fail with ctx's error, which Run also
// returns alongside the partial Outcome.
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	if opts.Runs < 1 {
		return nil, fmt.Errorf("batch needs at least one run, got %d", opts.Runs)
	}
	cfg := opts.Config
	cfg.Rand = nil
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	runs := make([]RunResult, opts.Runs)
	var g errgroup.Group
	g.SetLimit(limit)
	for i := range runs {
		seed := opts.Seed + int64(i)
		if err := ctx.Err(); err != nil {
			runs[i] = RunResult{Index: i, Seed: seed, Err: err}
			continue
		}
		g.Go(func() error {
			// The run may have waited on the limit past cancellation.
			if err := ctx.Err(); err != nil {
				runs[i] = RunResult{Index: i, Seed: seed, Err: err}
				return nil
			}
			c := cfg
			c.Rand = rand.New(rand.NewSource(seed))
			res, err := bb84.Execute(c)
			runs[i] = RunResult{Index: i, Seed: seed, Result: res, Err: err}
			if opts.OnRun != nil {
				opts.OnRun(runs[i])
			}
			// Failures stay with their run.
			return nil
		})
	}
	_ = g.Wait()

	return summarize(runs), ctx.Err()
}

func summarize(runs []RunResult) *Outcome {
	o := &Outcome{Runs: runs}
	var (
		reports []analysis.Report
		qbers   []float64
		index   []int
	)
	for _, r := range runs {
		if r.Err != nil {
			o.Failed++
			continue
		}
		o.Successful++
		reports = append(reports, r.Result.Report)
		qbers = append(qbers, r.Result.QBER)
		index = append(index, r.Index)
	}
	o.Comparison = analysis.Compare(reports)
	if o.Comparison.Best >= 0 {
		o.Comparison.Best = index[o.Comparison.Best]
		o.Comparison.Worst = index[o.Comparison.Worst]
	}
	o.Trend = analysis.Trend(qbers)
	return o
}

// Errors returns the distinct failures of a batch, keyed by message, with a
// count of each.
func (o *Outcome) Errors() map[string]int {
	m := map[string]int{}
	for _, r := range o.Runs {
		if r.Err != nil {
			m[r.Err.Error()]++
		}
	}
	return m
}

// Shortfalls counts failed runs that produced too few bits, as opposed to
// those that never ran.
func (o *Outcome) Shortfalls() int {
	n := 0
	for _, r := range o.Runs {
		if errors.Is(r.Err, bb84.ErrInsufficientMaterial) {
			n++
		}
	}
	return n
}
