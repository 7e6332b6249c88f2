// Command flowterm runs the flowing text field in a terminal. Each cell shows
// how many particles it holds; the mouse repels them.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/flowtext/config"
	"github.com/pthm-cable/flowtext/game"
)

// overrides collects repeated -set name=value flags.
type overrides []string

func (o *overrides) String() string     { return strings.Join(*o, ",") }
func (o *overrides) Set(v string) error { *o = append(*o, v); return nil }

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	text := flag.String("text", "", "Initial text (empty = use config)")
	seed := flag.Int64("seed", 0, "RNG seed for explode (0 = time-based)")
	logFile := flag.String("log-file", "", "Write JSON logs to this file (empty = discard)")
	debug := flag.Bool("debug", false, "Log at debug level")
	var sets overrides
	flag.Var(&sets, "set", "Override a tunable, name=value (repeatable)")
	flag.Parse()

	if err := run(*configPath, *text, *seed, *logFile, *debug, sets); err != nil {
		fmt.Fprintln(os.Stderr, "flowterm:", err)
		os.Exit(1)
	}
}

func run(configPath, text string, seed int64, logFile string, debug bool, sets []string) error {
	// The terminal belongs to the screen, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})))

	if err := config.Init(configPath); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := config.Cfg()
	if text != "" {
		cfg.Text.Initial = text
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g, err := game.NewGameWithOptions(game.Options{Config: cfg, Seed: seed})
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	defer g.Unload()
	if _, err := g.Params().ApplyOverrides(sets); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.EnableFocus()
	screen.HideCursor()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("flowterm started", "text", cfg.Text.Initial, "particles", g.Len())
	return newView(screen, g).run(ctx)
}
