package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/analysis"
	"github.com/alan-christopher/qkdsim/bb84/batch"
	"github.com/alan-christopher/qkdsim/bb84/bitmap"
	flag "github.com/spf13/pflag"
)

func runOnce(args []string) error {
	f := newSessionFlags("run")
	format := f.fs.StringP("format", "f", string(bitmap.FormatHex), "Key rendering: binary, hex or base64.")
	group := f.fs.Int("group", 8, "Characters per key group; 0 disables grouping.")
	asJSON := f.fs.Bool("json", false, "Print the analysis report as JSON instead of a summary.")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := f.load()
	if err != nil {
		return err
	}
	c := f.engineConfig(cfg)
	logger.Debug("running session", "params", f.describe(c))
	res, err := bb84.Execute(c)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(res.Report)
	}
	key, err := bitmap.Grouped(res.Key, bitmap.Format(*format), *group)
	if err != nil {
		return err
	}
	fmt.Println(renderResult(f.describe(c), res, key))
	return nil
}

func runBatch(args []string) error {
	f := newSessionFlags("batch")
	runs := f.fs.IntP("runs", "n", 10, "Number of sessions.")
	workers := f.fs.Int("concurrency", 0, "Sessions in flight; overrides the config file.")
	asJSON := f.fs.Bool("json", false, "Print the comparison and trend as JSON.")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := f.load()
	if err != nil {
		return err
	}
	if *runs > cfg.Batch.MaxRuns {
		return fmt.Errorf("at most %d runs per batch, got %d", cfg.Batch.MaxRuns, *runs)
	}
	c := f.engineConfig(cfg)
	concurrency := cfg.Batch.Concurrency
	if f.fs.Changed("concurrency") {
		concurrency = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	out, err := batch.Run(ctx, batch.Options{
		Runs:        *runs,
		Config:      c,
		Seed:        c.Seed,
		Concurrency: concurrency,
	})
	if out == nil {
		return err
	}
	for msg, n := range out.Errors() {
		logger.Warn("runs failed", "count", n, "err", msg)
	}
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(struct {
			Comparison analysis.Comparison   `json:"comparison"`
			Trend      analysis.TrendSummary `json:"trend"`
		}{out.Comparison, out.Trend})
	}
	fmt.Println(renderBatch(f.describe(c), out))
	return nil
}

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	rates := fs.Float64Slice("rates", []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		"Intercept rates to analyze.")
	asJSON := fs.Bool("json", false, "Print the analysis as JSON.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	points, err := analysis.Sweep(*rates)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(points)
	}
	fmt.Println(renderSweep(points))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
