package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/flowtext/config"
	"github.com/pthm-cable/flowtext/game"
)

// options holds the tuner's command line.
type options struct {
	configPath string
	outputDir  string
	maxTicks   int
	seeds      int
	maxEvals   int
	population int
	sweep      game.Sweep
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	flag.IntVar(&opts.maxTicks, "max-ticks", 3000, "Tick cap per sweep")
	flag.IntVar(&opts.seeds, "seeds", 3, "Number of noise seeds per evaluation")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.IntVar(&opts.sweep.Passes, "sweep-passes", 2, "Pointer strokes per sweep")
	flag.IntVar(&opts.sweep.Frames, "sweep-frames", 60, "Frames per stroke")
	flag.IntVar(&opts.sweep.Rest, "sweep-rest", 20, "Frames with the pointer away between strokes")
	flag.Parse()
	opts.sweep.Y = 0.5

	// Per-tick game logs would drown the progress output.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(opts); err != nil {
		slog.Error("optimize failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.outputDir == "" {
		return errors.New("--output is required")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	baseCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// Short windows so the sweep is resolved in the stats stream.
	baseCfg.Telemetry.StatsWindow = 10

	params := NewParamVector(baseCfg.Tunables)
	seeds := make([]int64, opts.seeds)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, opts.maxTicks, seeds, baseCfg, opts.sweep)

	evalLog, err := newEvalLog(filepath.Join(opts.outputDir, "optimize_log.csv"), params)
	if err != nil {
		return err
	}
	defer evalLog.Close()

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + int(3.0*math.Log(float64(params.Dim())))
	}

	best := math.Inf(1)
	var bestParams []float64
	evals := 0
	start := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(values)
			evals++
			if fitness < best {
				best = fitness
				bestParams = values
			}

			settle, response := evaluator.Last()
			if err := evalLog.Record(evals, fitness, settle, response, values); err != nil {
				slog.Warn("failed to write evaluation log", "error", err)
			}

			elapsed := time.Since(start)
			eta := time.Duration(opts.maxEvals-evals) * (elapsed / time.Duration(evals))
			fmt.Printf("Eval %d/%d: fitness=%.2f settle=%.2fs response=%.2f (best=%.2f) | elapsed: %s, ETA: %s\n",
				evals, opts.maxEvals, fitness, settle, response, best,
				formatDuration(elapsed), formatDuration(eta))
			return fitness
		},
	}

	fmt.Printf("Starting CMA-ES over %d tunables, population=%d, max_evals=%d\n", params.Dim(), popSize, opts.maxEvals)
	fmt.Printf("Seeds per evaluation: %d, sweep frames: %d, tick cap: %d\n", len(seeds), opts.sweep.Len(), opts.maxTicks)

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()),
		&optimize.Settings{FuncEvaluations: opts.maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize})
	if err != nil {
		slog.Warn("optimization ended early", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return errors.New("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evals, formatDuration(time.Since(start)))
	fmt.Printf("Best fitness: %.3f\n", best)
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, bestParams[i])
	}

	// Reload so the written file carries the user's settings, not the tuner's overrides.
	bestCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	if err := params.ApplyToConfig(bestCfg, bestParams); err != nil {
		return fmt.Errorf("apply best parameters: %w", err)
	}
	out := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(out); err != nil {
		return fmt.Errorf("write best config: %w", err)
	}
	fmt.Printf("\nBest config saved to: %s\n", out)
	return nil
}

// formatDuration formats a duration as 1h02m03s, or 2m03s below an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
