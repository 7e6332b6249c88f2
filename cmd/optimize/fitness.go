package main

import (
	"context"
	"math"
	"sync"

	"github.com/pthm-cable/flowtext/config"
	"github.com/pthm-cable/flowtext/game"
	"github.com/pthm-cable/flowtext/glyph"
	"github.com/pthm-cable/flowtext/telemetry"
)

// Fitness weights.
const (
	// Fraction of mouse_range the text should be pushed aside during a sweep.
	responseTarget = 0.5
	// Seconds charged for a sweep that leaves the text with no displacement.
	responseWeight = 10.0
	// Seconds charged per unit of speed p90 left in the last window before the pause.
	jitterWeight = 2.0
)

// FitnessEvaluator runs headless sweeps and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config
	sweep      game.Sweep

	mu          sync.Mutex
	lastSettle  float64 // mean settle seconds from the most recent Evaluate call
	lastRespond float64 // mean response score from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config, sweep game.Sweep) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
		sweep:      sweep,
	}
}

// Last returns the settle time and response score from the most recent evaluation.
func (fe *FitnessEvaluator) Last() (settleSec, response float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSettle, fe.lastRespond
}

// runResult holds the results from a single sweep.
type runResult struct {
	headless    game.HeadlessResult
	windowStats []telemetry.WindowStats
	cfg         *config.Config
}

// seedResult holds the scored result from one seed.
type seedResult struct {
	fitness  float64
	settle   float64
	response float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			r, err := fe.runSimulation(x, s)
			if err != nil {
				results[idx] = seedResult{fitness: math.Inf(1)}
				return
			}
			results[idx] = fe.score(r)
		}(i, seed)
	}
	wg.Wait()

	var total, settle, response float64
	for _, r := range results {
		total += r.fitness
		settle += r.settle
		response += r.response
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastSettle = settle / n
	fe.lastRespond = response / n
	fe.mu.Unlock()

	return total / n
}

// runSimulation plays the sweep once with the given noise and explode seed.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	cfg := fe.copyConfig()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return nil, err
	}
	cfg.Noise.Seed = seed

	tf := glyph.NewTinyFont()
	tf.Margin = int(float64(cfg.Text.Margin) / cfg.Text.Ratio)
	tf.Ratio = cfg.Text.Ratio

	result := &runResult{cfg: cfg}
	g, err := game.NewGameWithOptions(game.Options{
		Config:     cfg,
		Rasterizer: tf,
		Seed:       seed,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Unload()

	result.headless, err = g.RunHeadless(context.Background(), fe.sweep, fe.maxTicks, false)
	return result, err
}

// copyConfig returns a copy of the base config. Config holds no pointers, so
// a value copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// score turns a run into fitness: seconds to settle after the sweep, plus a
// penalty when the sweep barely moved the text and one for residual motion.
func (fe *FitnessEvaluator) score(r *runResult) seedResult {
	frameSec := r.cfg.Derived.FrameSec

	settle := float64(fe.maxTicks) * frameSec * 2
	if r.headless.Settled {
		settle = float64(r.headless.SettleTicks) * frameSec
	}

	response := responseScore(r.windowStats, r.headless.ScriptTicks, r.cfg.Tunables.MouseRange)
	fitness := settle + responseWeight*(1-response)

	if n := len(r.windowStats); n > 0 {
		fitness += jitterWeight * r.windowStats[n-1].SpeedP90
	}
	return seedResult{fitness: fitness, settle: settle, response: response}
}

// responseScore is the peak anchor-distance p90 during the sweep as a
// fraction of the target displacement, capped at 1.
func responseScore(windows []telemetry.WindowStats, scriptTicks int32, mouseRange float64) float64 {
	target := responseTarget * mouseRange
	if target <= 0 {
		return 1
	}
	var peak float64
	for _, w := range windows {
		if w.WindowStartTick >= scriptTicks {
			break
		}
		peak = math.Max(peak, w.AnchorDistP90)
	}
	return math.Min(peak/target, 1)
}
