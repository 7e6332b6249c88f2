package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flowtext/config"
	"github.com/pthm-cable/flowtext/game"
	"github.com/pthm-cable/flowtext/renderer"
	"github.com/pthm-cable/flowtext/telemetry"
)

// overrides collects repeated -set name=value flags.
type overrides []string

func (o *overrides) String() string     { return strings.Join(*o, ",") }
func (o *overrides) Set(v string) error { *o = append(*o, v); return nil }

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	text := flag.String("text", "", "Initial text (empty = use config)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	debug := flag.Bool("debug", false, "Log at debug level")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed for explode (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	restore := flag.String("restore", "", "Snapshot file to resume from")
	font := flag.String("font", "raylib", "Text rasterizer in graphical mode: raylib or tinyfont")
	passes := flag.Int("sweep-passes", 3, "Headless: pointer strokes across the canvas")
	frames := flag.Int("sweep-frames", 90, "Headless: frames per stroke")
	rest := flag.Int("sweep-rest", 30, "Headless: frames with the pointer away between strokes")
	sweepY := flag.Float64("sweep-y", 0.5, "Headless: stroke height as a fraction of the canvas")
	realtime := flag.Bool("realtime", false, "Headless: pace ticks at the target FPS")
	var sets overrides
	flag.Var(&sets, "set", "Override a tunable, name=value (repeatable)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *text != "" {
		cfg.Text.Initial = *text
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Config:      cfg,
		Seed:        rngSeed,
		LogStats:    *logStats,
		SnapshotDir: *snapshotDir,
		OutputDir:   *outputDir,
	}

	if *headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		g := newGame(opts, sets, *restore)
		defer g.Unload()

		sweep := game.Sweep{Passes: *passes, Frames: *frames, Rest: *rest, Y: *sweepY}
		slog.Info("starting headless run",
			"seed", rngSeed,
			"text", g.Text(),
			"particles", g.Len(),
			"sweep_frames", sweep.Len(),
			"max_ticks", *maxTicks,
		)

		res, err := g.RunHeadless(ctx, sweep, *maxTicks, *realtime)
		if err != nil {
			slog.Warn("headless run interrupted", "error", err, "tick", g.Tick())
		}
		slog.Info("headless run finished",
			"ticks", res.Ticks,
			"settled", res.Settled,
			"settle_ticks", res.SettleTicks,
		)
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Flowing Text")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	if *font == "raylib" {
		opts.Rasterizer = renderer.NewRaylibRasterizer(int(float64(cfg.Text.Margin)/cfg.Text.Ratio), cfg.Text.Ratio)
	}

	g := newGame(opts, sets, *restore)
	defer g.Unload()

	w := newWindow(g, *snapshotDir)
	for !rl.WindowShouldClose() {
		w.Update()
		w.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}

// newGame builds the game, applies -set overrides and an optional snapshot.
// Any failure is fatal.
func newGame(opts game.Options, sets []string, restorePath string) *game.Game {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}

	if _, err := g.Params().ApplyOverrides(sets); err != nil {
		slog.Error("invalid -set override", "error", err)
		os.Exit(1)
	}

	if restorePath != "" {
		snap, err := telemetry.LoadSnapshot(restorePath)
		if err == nil {
			err = g.Restore(snap)
		}
		if err != nil {
			slog.Error("failed to restore snapshot", "path", restorePath, "error", err)
			os.Exit(1)
		}
	}
	return g
}
