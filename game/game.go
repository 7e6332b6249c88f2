// Package game owns the particle pool and drives sampling, integration and
// idle scheduling for one text field.
package game

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowtext/components"
	"github.com/pthm-cable/flowtext/config"
	"github.com/pthm-cable/flowtext/glyph"
	"github.com/pthm-cable/flowtext/systems"
	"github.com/pthm-cable/flowtext/telemetry"
)

// Options configures a new Game.
type Options struct {
	Config     *config.Config   // nil = config.Cfg()
	Rasterizer glyph.Rasterizer // nil = glyph.NewTinyFont()
	Field      systems.Field    // nil = built from Config.Noise
	Seed       int64            // Explode RNG seed

	LogStats    bool
	SnapshotDir string
	OutputDir   string
	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete field state.
type Game struct {
	cfg        *config.Config
	params     *config.Params
	pointer    *Pointer
	sched      *Scheduler
	raster     glyph.Rasterizer
	field      systems.Field
	integrator *systems.Integrator
	rng        *rand.Rand
	seed       int64

	mu sync.Mutex // guards everything below

	pool           []components.Particle
	text           string
	canvasW        int
	canvasH        int
	autoscale      *autoscaler
	textSize       float64
	sampledDensity float64
	sampledRadius  float64
	paramsGen      uint64
	tick           int32
	closed         bool

	pendingWakes atomic.Int64

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	snapshotDir      string
	logStats         bool
	statsCallback    func(telemetry.WindowStats)
}

// NewGameWithOptions creates a game and samples the configured initial text.
// The scheduler starts running.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	field := opts.Field
	if field == nil {
		var err error
		if field, err = systems.NewField(cfg.Noise); err != nil {
			return nil, fmt.Errorf("noise field: %w", err)
		}
	}

	raster := opts.Rasterizer
	if raster == nil {
		tf := glyph.NewTinyFont()
		tf.Margin = int(float64(cfg.Text.Margin) / cfg.Text.Ratio)
		tf.Ratio = cfg.Text.Ratio
		raster = tf
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("output: %w", err)
	}

	params := config.NewParams(cfg.Tunables)
	g := &Game{
		cfg:        cfg,
		params:     params,
		pointer:    NewPointer(params),
		sched:      NewScheduler(),
		raster:     raster,
		field:      field,
		integrator: systems.NewIntegrator(cfg.Physics.ParallelThreshold, cfg.Physics.Workers),
		rng:        rand.New(rand.NewSource(opts.Seed)),
		seed:       opts.Seed,

		text:      cfg.Text.Initial,
		canvasW:   cfg.Screen.Width,
		canvasH:   cfg.Screen.Height,
		autoscale: newAutoscaler(cfg.Autoscale.Mode, cfg.Text.Size),
		paramsGen: params.Generation(),

		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.FrameSec),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize),
		outputManager:    om,
		snapshotDir:      opts.SnapshotDir,
		logStats:         opts.LogStats,
		statsCallback:    opts.StatsCallback,
	}

	g.mu.Lock()
	g.resampleLocked(params.Snapshot())
	g.mu.Unlock()
	g.sched.Start()

	return g, nil
}

// Params returns the live tunables.
func (g *Game) Params() *config.Params { return g.params }

// Scheduler returns the tick scheduler.
func (g *Game) Scheduler() *Scheduler { return g.sched }

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config { return g.cfg }

// wake restarts the scheduler after a stimulus.
func (g *Game) wake() {
	if g.sched.Start() {
		g.pendingWakes.Add(1)
	}
}

// MovePointer places the pointer at canvas coordinates (x, y).
func (g *Game) MovePointer(x, y float64) {
	g.pointer.Set(x, y)
	g.wake()
}

// LeavePointer marks the pointer as off the canvas.
func (g *Game) LeavePointer() {
	g.pointer.Leave()
	g.wake()
}

// Pointer returns the pointer position used for integration and whether it is present.
func (g *Game) Pointer() (r2.Vec, bool) {
	return g.pointer.Get()
}

// SetText replaces the displayed text and resamples.
func (g *Game) SetText(text string) {
	g.mu.Lock()
	g.text = text
	g.resampleLocked(g.params.Snapshot())
	g.mu.Unlock()
	g.wake()
}

// Text returns the current text.
func (g *Game) Text() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.text
}

// Resize changes the canvas size and resamples.
func (g *Game) Resize(w, h int) {
	g.mu.Lock()
	if w == g.canvasW && h == g.canvasH {
		g.mu.Unlock()
		return
	}
	g.canvasW, g.canvasH = w, h
	g.resampleLocked(g.params.Snapshot())
	g.mu.Unlock()
	g.wake()
}

// CanvasSize returns the canvas size in model units.
func (g *Game) CanvasSize() (w, h int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canvasW, g.canvasH
}

// SetTunable validates and applies a tunable update from an untyped source.
// Density and radius changes resample on the next tick.
func (g *Game) SetTunable(name, raw string) error {
	if _, err := g.params.SetString(name, raw); err != nil {
		return err
	}
	g.wake()
	return nil
}

// SetTunableValue applies a typed tunable update, as from a slider.
func (g *Game) SetTunableValue(name string, v float64) error {
	if _, err := g.params.Set(name, v); err != nil {
		return err
	}
	g.wake()
	return nil
}

// Explode scatters every particle to a random canvas position at rest.
func (g *Game) Explode() {
	g.mu.Lock()
	w, h := float64(g.canvasW), float64(g.canvasH)
	for i := range g.pool {
		p := &g.pool[i]
		p.Position = r2.Vec{X: g.rng.Float64() * w, Y: g.rng.Float64() * h}
		p.Velocity = r2.Vec{}
		p.Regime = components.AnchorReturn
	}
	g.collector.RecordEvent(telemetry.NewExplodeEvent(g.tick, len(g.pool)))
	g.mu.Unlock()
	g.wake()
}

// CopyPool appends the current particles to dst[:0] and returns it.
func (g *Game) CopyPool(dst []components.Particle) []components.Particle {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append(dst[:0], g.pool...)
}

// Len returns the number of particles.
func (g *Game) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pool)
}

// Tick returns the number of integration ticks run.
func (g *Game) Tick() int32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tick
}

// Perf returns the perf collector for HUD display.
func (g *Game) Perf() *telemetry.PerfCollector {
	return g.perfCollector
}

// resampleLocked rasterizes the text, samples anchors and reconciles the pool.
func (g *Game) resampleLocked(tun config.Tunables) {
	ratio := g.cfg.Text.Ratio
	devW := int(math.Round(float64(g.canvasW) / ratio))
	devH := int(math.Round(float64(g.canvasH) / ratio))

	mask, err := g.raster.Rasterize(g.text, g.cfg.Text.Size/ratio, devW, devH)
	if err != nil {
		slog.Warn("rasterize failed, using empty occupancy", "text", g.text, "error", err)
		mask = glyph.EmptyMask(0, 0)
	}
	rendered := mask.TextSize * mask.Ratio

	k := g.autoscale.Factor(rendered)
	density := tun.Density * k
	radius := tun.Radius * k

	anchors := systems.Sample(mask, systems.SampleParams{
		Density:   density,
		Ratio:     mask.Ratio,
		NoiseMult: tun.NoiseMult,
	}, g.field)
	g.pool = systems.Reconcile(g.pool, anchors, tun.Mass, radius)

	g.textSize = rendered
	g.sampledDensity = tun.Density
	g.sampledRadius = tun.Radius
	g.collector.RecordEvent(telemetry.NewResampleEvent(g.tick, len(g.pool), g.text))

	slog.Debug("resampled",
		"text", g.text,
		"particles", len(g.pool),
		"text_size", rendered,
		"density", density,
		"radius", radius,
	)
}

// Step runs one tick: resample if density or radius changed, integrate,
// then stop the scheduler if the field has come to rest.
func (g *Game) Step() systems.StepStats {
	epoch := g.sched.Epoch()
	gen := g.params.Generation()
	tun := g.params.Snapshot()
	pointer, present := g.pointer.Get()

	g.perfCollector.StartTick()
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.sched.Stop()
		return systems.StepStats{}
	}

	for n := g.pendingWakes.Swap(0); n > 0; n-- {
		g.collector.RecordEvent(telemetry.NewWakeEvent(g.tick))
	}

	g.perfCollector.StartPhase(telemetry.PhaseResample)
	if tun.Density != g.sampledDensity || tun.Radius != g.sampledRadius {
		g.resampleLocked(tun)
	} else if gen != g.paramsGen {
		for i := range g.pool {
			g.pool[i].Mass = tun.Mass
		}
	}
	g.paramsGen = gen

	g.perfCollector.StartPhase(telemetry.PhaseIntegrate)
	stats := g.integrator.Step(g.pool, pointer, tun)
	g.tick++
	if stats.Resets > 0 {
		slog.Warn("non-finite particle state reset to anchor", "tick", g.tick, "count", stats.Resets)
		g.collector.RecordEvent(telemetry.NewNaNResetEvent(g.tick, stats.Resets))
	}

	g.perfCollector.StartPhase(telemetry.PhaseIdleCheck)
	paused := systems.MayPause(g.pool, !present, tun.IdleEpsilon) && g.sched.StopIfQuiet(epoch)
	if paused {
		g.collector.RecordEvent(telemetry.NewIdlePauseEvent(g.tick))
		slog.Debug("field idle, pausing", "tick", g.tick)
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordTick(stats)
	g.flushTelemetry(paused)

	g.mu.Unlock()
	g.perfCollector.EndTick()

	return stats
}

// Unload stops workers and closes output files. It waits for an in-flight
// Step, and later Steps do nothing. Calling it again is a no-op.
func (g *Game) Unload() {
	g.sched.Stop()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.integrator.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

// TextSize returns the glyph size the current text was rendered at.
func (g *Game) TextSize() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.textSize
}
