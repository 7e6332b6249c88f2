package game

import (
	"context"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowtext/systems"
)

// Run ticks the game at the configured frame rate until ctx is done. It
// blocks without ticking while the scheduler is stopped. onTick, if set, is
// called after every tick.
func (g *Game) Run(ctx context.Context, onTick func(systems.StepStats)) error {
	ticker := time.NewTicker(time.Duration(g.cfg.Derived.FrameSec * float64(time.Second)))
	defer ticker.Stop()

	for {
		if err := g.sched.Wait(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		stats := g.Step()
		if onTick != nil {
			onTick(stats)
		}
	}
}

// Sweep scripts the pointer for headless runs: Passes left-to-right strokes
// across the canvas at height Y (a fraction of the canvas height), each
// Frames long and followed by Rest frames with the pointer off the canvas.
type Sweep struct {
	Passes int
	Frames int
	Rest   int
	Y      float64
}

// Len returns the number of scripted frames.
func (s Sweep) Len() int {
	if s.Passes <= 0 || s.Frames <= 0 {
		return 0
	}
	return s.Passes * (s.Frames + max(s.Rest, 0))
}

// At returns the pointer position for frame on a w x h canvas and whether
// the pointer is on the canvas.
func (s Sweep) At(frame int, w, h float64) (r2.Vec, bool) {
	if frame < 0 || frame >= s.Len() {
		return r2.Vec{}, false
	}
	i := frame % (s.Frames + max(s.Rest, 0))
	if i >= s.Frames {
		return r2.Vec{}, false
	}
	t := 0.0
	if s.Frames > 1 {
		t = float64(i) / float64(s.Frames-1)
	}
	return r2.Vec{X: t * w, Y: s.Y * h}, true
}

// HeadlessResult summarises a headless run.
type HeadlessResult struct {
	Ticks       int32 // Ticks run in total
	ScriptTicks int32 // Ticks run while the sweep was playing
	Settled     bool  // The scheduler paused after the sweep ended
	SettleTicks int32 // Ticks from the end of the sweep to the pause
}

// RunHeadless plays sweep against the game, then keeps ticking until the
// field pauses or maxTicks (0 = unlimited) is reached. With realtime set it
// paces ticks at the configured frame rate.
func (g *Game) RunHeadless(ctx context.Context, sweep Sweep, maxTicks int, realtime bool) (HeadlessResult, error) {
	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(time.Duration(g.cfg.Derived.FrameSec * float64(time.Second)))
		defer ticker.Stop()
	}

	var res HeadlessResult
	start := g.Tick()
	wasPresent := false
	script := sweep.Len()

	for frame := 0; ; frame++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if frame < script {
			w, h := g.CanvasSize()
			pos, present := sweep.At(frame, float64(w), float64(h))
			switch {
			case present:
				g.MovePointer(pos.X, pos.Y)
			case wasPresent:
				g.LeavePointer()
			}
			wasPresent = present
		} else if frame == script && wasPresent {
			g.LeavePointer()
			wasPresent = false
		}

		if g.sched.IsRunning() {
			g.Step()
		} else if frame >= script {
			res.Settled = true
			break
		}

		res.Ticks = g.Tick() - start
		if frame < script {
			res.ScriptTicks = res.Ticks
		}
		if maxTicks > 0 && int(res.Ticks) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-ticker.C:
			}
		}
	}

	res.Ticks = g.Tick() - start
	if res.Settled {
		res.SettleTicks = res.Ticks - res.ScriptTicks
	}
	return res, nil
}
