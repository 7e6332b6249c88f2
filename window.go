package main

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowtext/camera"
	"github.com/pthm-cable/flowtext/components"
	"github.com/pthm-cable/flowtext/game"
	"github.com/pthm-cable/flowtext/renderer"
	"github.com/pthm-cable/flowtext/ui"
)

const controlsLegend = "[E] explode  [T] tunables  [P] perf  [S] snapshot  [F11] fullscreen"

// window drives one game from the raylib event loop.
type window struct {
	g           *game.Game
	vp          *camera.Viewport
	field       *renderer.FieldRenderer
	hud         *ui.HUD
	perfPanel   *ui.PerfPanel
	tunables    *ui.TunablesPanel
	entry       *ui.TextEntry
	snapshotDir string

	showPerf bool

	// Last pointer state sent to the game; repeats are not forwarded so an
	// idle pointer lets the field pause.
	lastPointer r2.Vec
	lastPresent bool

	pool []components.Particle
}

func newWindow(g *game.Game, snapshotDir string) *window {
	cw, ch := g.CanvasSize()
	sw, sh := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
	if snapshotDir == "" {
		snapshotDir = "snapshots"
	}
	return &window{
		g:           g,
		vp:          camera.New(sw, sh, float32(cw), float32(ch)),
		field:       renderer.NewFieldRenderer(g.Config().Screen.TargetFPS),
		hud:         ui.NewHUD(),
		perfPanel:   ui.NewPerfPanel(int32(sw)-250, 10, 240),
		tunables:    ui.NewTunablesPanel(int32(sw)-250, 10, 240),
		entry:       &ui.TextEntry{Text: g.Text()},
		snapshotDir: snapshotDir,
	}
}

// Update handles input and runs a tick when the scheduler is running.
func (w *window) Update() {
	w.handleResize()
	w.handleKeys()
	w.handlePointer()

	if w.g.Scheduler().IsRunning() {
		w.g.Step()
	}
	w.g.Perf().RecordFrame()
}

// handleResize keeps the canvas as wide as the window. Canvas height stays
// fixed; the viewport letterboxes it vertically.
func (w *window) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	sw, sh := rl.GetScreenWidth(), rl.GetScreenHeight()
	_, ch := w.g.CanvasSize()
	w.g.Resize(sw, ch)
	w.vp.SetCanvas(float32(sw), float32(ch))
	w.vp.Resize(float32(sw), float32(sh))
	w.perfPanel.SetPosition(int32(sw)-250, 10)
	w.tunables.SetPosition(int32(sw)-250, 10)
	slog.Debug("window resized", "width", sw, "height", sh)
}

func (w *window) handleKeys() {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if w.entry.Editing() {
		return
	}

	if rl.IsKeyPressed(rl.KeyE) {
		w.g.Explode()
	}
	if rl.IsKeyPressed(rl.KeyT) {
		w.tunables.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		w.showPerf = !w.showPerf
	}
	if rl.IsKeyPressed(rl.KeyS) {
		path, err := w.g.SaveSnapshotTo(w.snapshotDir)
		if err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path)
		}
	}
}

// handlePointer forwards the mouse to the game in canvas coordinates. The
// pointer counts as absent outside the canvas, over the tunables panel, or
// when the window loses focus.
func (w *window) handlePointer() {
	mouse := rl.GetMousePosition()
	cx, cy, inside := w.vp.ScreenToCanvas(mouse.X, mouse.Y)
	present := inside && rl.IsWindowFocused() && rl.IsCursorOnScreen()
	if w.tunables.IsVisible() && rl.CheckCollisionPointRec(mouse, w.tunables.Bounds()) {
		present = false
	}

	pos := r2.Vec{X: float64(cx), Y: float64(cy)}
	switch {
	case present && (!w.lastPresent || pos != w.lastPointer):
		w.g.MovePointer(pos.X, pos.Y)
	case !present && w.lastPresent:
		w.g.LeavePointer()
	}
	w.lastPointer, w.lastPresent = pos, present
}

// Draw renders the field and UI.
func (w *window) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(renderer.Background)

	w.pool = w.g.CopyPool(w.pool)
	pointer, present := w.g.Pointer()
	tun := w.g.Params().Snapshot()
	w.field.Draw(w.pool, w.vp, pointer, present, tun.MouseRange)
	w.field.DrawCanvasBounds(w.vp)

	controlled := 0
	for i := range w.pool {
		if w.pool[i].Regime == components.MouseControlled {
			controlled++
		}
	}
	w.hud.Draw(ui.HUDData{
		Text:       w.g.Text(),
		Particles:  len(w.pool),
		Controlled: controlled,
		Tick:       w.g.Tick(),
		FPS:        rl.GetFPS(),
		Running:    w.g.Scheduler().IsRunning(),
		TextSize:   w.g.TextSize(),
	})

	sh := int32(rl.GetScreenHeight())
	res := w.entry.Draw(10, float32(sh)-60)
	if res.Submit {
		w.g.SetText(w.entry.Text)
	}
	if res.Explode {
		w.g.Explode()
	}

	for _, c := range w.tunables.Draw(tun) {
		if err := w.g.SetTunableValue(c.Name, c.Value); err != nil {
			slog.Warn("tunable rejected", "name", c.Name, "value", c.Value, "error", err)
		}
	}
	if w.showPerf && !w.tunables.IsVisible() {
		w.perfPanel.Draw(w.g.Perf().Stats())
	}

	w.hud.DrawControls(sh, controlsLegend)
	rl.EndDrawing()
}
