package game

import (
	"context"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/flowtext/components"
	"github.com/pthm-cable/flowtext/config"
	"github.com/pthm-cable/flowtext/glyph"
	"github.com/pthm-cable/flowtext/systems"
	"github.com/pthm-cable/flowtext/telemetry"
)

func init() {
	config.MustInit("")
}

// rectRaster inks a fixed rectangle for any non-empty text and reports the
// requested size as the rendered size.
type rectRaster struct {
	rect image.Rectangle
	err  error
}

func (r rectRaster) Rasterize(text string, size float64, width, height int) (*glyph.Mask, error) {
	if r.err != nil {
		return nil, r.err
	}
	bits := make([]bool, width*height)
	if text != "" {
		ink := r.rect.Intersect(image.Rect(0, 0, width, height))
		for y := ink.Min.Y; y < ink.Max.Y; y++ {
			for x := ink.Min.X; x < ink.Max.X; x++ {
				bits[y*width+x] = true
			}
		}
	}
	m := glyph.NewMaskFromBits(width, height, bits)
	m.TextSize = size
	return m, nil
}

var testRect = image.Rect(100, 100, 300, 200)

func newTestGame(t *testing.T, mutate func(o *Options)) *Game {
	t.Helper()
	opts := Options{
		Config:     config.Default(),
		Rasterizer: rectRaster{rect: testRect},
		Field:      systems.FlatField(0),
		Seed:       7,
	}
	if mutate != nil {
		mutate(&opts)
	}
	g, err := NewGameWithOptions(opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

// expectedAnchors samples the test rectangle the way the game should.
func expectedAnchors(t *testing.T, g *Game, density float64) int {
	t.Helper()
	w, h := g.CanvasSize()
	mask, err := rectRaster{rect: testRect}.Rasterize("x", 0, w, h)
	if err != nil {
		t.Fatal(err)
	}
	return len(systems.Sample(mask, systems.SampleParams{Density: density, Ratio: 1}, systems.FlatField(0)))
}

// settle steps until the scheduler pauses or limit ticks have run.
func settle(g *Game, limit int) int {
	for i := 0; i < limit; i++ {
		if !g.Scheduler().IsRunning() {
			return i
		}
		g.Step()
	}
	return limit
}

func TestNewGameSamplesText(t *testing.T) {
	g := newTestGame(t, nil)

	want := expectedAnchors(t, g, g.Params().Snapshot().Density)
	if want == 0 {
		t.Fatal("test rectangle produced no anchors")
	}
	if got := g.Len(); got != want {
		t.Errorf("Len = %d, want %d", got, want)
	}
	if !g.Scheduler().IsRunning() {
		t.Error("scheduler should run after construction")
	}

	tun := g.Params().Snapshot()
	for i, p := range g.CopyPool(nil) {
		if p.Position != p.Anchor {
			t.Errorf("particle %d not resting on its anchor", i)
		}
		if p.Mass != tun.Mass || p.Radius != tun.Radius {
			t.Errorf("particle %d mass/radius = %v/%v, want %v/%v", i, p.Mass, p.Radius, tun.Mass, tun.Radius)
		}
	}
}

func TestRestingFieldPausesOnFirstTick(t *testing.T) {
	g := newTestGame(t, nil)

	g.Step()
	if g.Scheduler().IsRunning() {
		t.Error("a resting field with no pointer should pause")
	}
	if g.Tick() != 1 {
		t.Errorf("Tick = %d, want 1", g.Tick())
	}
}

func TestPointerDisturbsAndWakes(t *testing.T) {
	g := newTestGame(t, nil)
	g.Step()

	g.MovePointer(200, 150)
	if !g.Scheduler().IsRunning() {
		t.Fatal("MovePointer should wake the scheduler")
	}

	stats := g.Step()
	if stats.MouseControlled == 0 {
		t.Error("expected particles under pointer control")
	}

	// Pointer stays present, so the field never pauses.
	for i := 0; i < 50; i++ {
		g.Step()
	}
	if !g.Scheduler().IsRunning() {
		t.Error("field should not pause while the pointer is present")
	}

	g.LeavePointer()
	if n := settle(g, 5000); n == 5000 {
		t.Fatal("field did not settle after the pointer left")
	}
	for i, p := range g.CopyPool(nil) {
		if d := p.AnchorDistance(); d > 2 {
			t.Errorf("particle %d settled %.2f from its anchor", i, d)
		}
	}
}

func TestExplodeScattersAndSettles(t *testing.T) {
	g := newTestGame(t, nil)
	g.Step()

	g.Explode()
	if !g.Scheduler().IsRunning() {
		t.Fatal("Explode should wake the scheduler")
	}

	w, h := g.CanvasSize()
	moved := 0
	for i, p := range g.CopyPool(nil) {
		if p.Position.X < 0 || p.Position.X > float64(w) || p.Position.Y < 0 || p.Position.Y > float64(h) {
			t.Errorf("particle %d exploded off canvas: %v", i, p.Position)
		}
		if p.Velocity.X != 0 || p.Velocity.Y != 0 {
			t.Errorf("particle %d should be at rest after explode", i)
		}
		if p.Regime != components.AnchorReturn {
			t.Errorf("particle %d regime = %v, want anchor_return", i, p.Regime)
		}
		if p.Position != p.Anchor {
			moved++
		}
	}
	if moved == 0 {
		t.Error("explode moved no particles")
	}

	if n := settle(g, 5000); n == 5000 {
		t.Fatal("field did not settle after explode")
	}
}

func TestExplodeIsSeeded(t *testing.T) {
	a := newTestGame(t, nil)
	b := newTestGame(t, nil)
	a.Explode()
	b.Explode()

	pa, pb := a.CopyPool(nil), b.CopyPool(nil)
	for i := range pa {
		if pa[i].Position != pb[i].Position {
			t.Fatalf("particle %d: same seed gave %v and %v", i, pa[i].Position, pb[i].Position)
		}
	}
}

func TestDensityChangeResamplesNextTick(t *testing.T) {
	g := newTestGame(t, nil)
	before := g.Len()

	if err := g.SetTunable("density", "20"); err != nil {
		t.Fatal(err)
	}
	if g.Len() != before {
		t.Error("density change should not resample before the next tick")
	}

	g.Step()
	if want := expectedAnchors(t, g, 20); g.Len() != want {
		t.Errorf("Len after resample = %d, want %d", g.Len(), want)
	}
	if g.Len() <= before {
		t.Errorf("finer density should add particles: %d -> %d", before, g.Len())
	}
}

func TestRadiusChangeResamples(t *testing.T) {
	g := newTestGame(t, nil)
	if err := g.SetTunableValue("radius", 3); err != nil {
		t.Fatal(err)
	}
	g.Step()
	for i, p := range g.CopyPool(nil) {
		if p.Radius != 3 {
			t.Fatalf("particle %d radius = %v, want 3", i, p.Radius)
		}
	}
}

func TestMassChangeAppliesNextTick(t *testing.T) {
	g := newTestGame(t, nil)
	g.Step()

	if err := g.SetTunable("mass", "9"); err != nil {
		t.Fatal(err)
	}
	g.Step()
	for i, p := range g.CopyPool(nil) {
		if p.Mass != 9 {
			t.Fatalf("particle %d mass = %v, want 9", i, p.Mass)
		}
	}
}

func TestSetTunableRejectsInvalid(t *testing.T) {
	g := newTestGame(t, nil)
	before := g.Params().Snapshot()

	testCases := []struct {
		name, raw string
	}{
		{"density", "0"},
		{"mouse_range", "-5"},
		{"mass", "NaN"},
		{"mouse_force", "lots"},
		{"no_such_tunable", "1"},
	}
	for _, tc := range testCases {
		if err := g.SetTunable(tc.name, tc.raw); !errors.Is(err, config.ErrInvalidTunable) {
			t.Errorf("SetTunable(%s, %s) = %v, want ErrInvalidTunable", tc.name, tc.raw, err)
		}
	}
	if g.Params().Snapshot() != before {
		t.Error("rejected updates changed the tunables")
	}
}

func TestSetTextResamples(t *testing.T) {
	g := newTestGame(t, nil)

	g.SetText("")
	if g.Len() != 0 {
		t.Errorf("empty text should leave no particles, got %d", g.Len())
	}
	if g.Text() != "" {
		t.Errorf("Text = %q", g.Text())
	}

	g.SetText("back")
	if g.Len() == 0 {
		t.Error("text should produce particles again")
	}
}

func TestResizeResamples(t *testing.T) {
	g := newTestGame(t, nil)

	// Shrink so the right half of the rectangle is clipped.
	g.Resize(200, 450)
	if w, h := g.CanvasSize(); w != 200 || h != 450 {
		t.Fatalf("CanvasSize = %dx%d", w, h)
	}
	if want := expectedAnchors(t, g, g.Params().Snapshot().Density); g.Len() != want {
		t.Errorf("Len after resize = %d, want %d", g.Len(), want)
	}
}

func TestRasterizeFailureLeavesEmptyField(t *testing.T) {
	g := newTestGame(t, func(o *Options) {
		o.Rasterizer = rectRaster{err: glyph.ErrNoSurface}
	})
	if g.Len() != 0 {
		t.Errorf("Len = %d, want 0", g.Len())
	}
	g.Step()
	if g.Scheduler().IsRunning() {
		t.Error("empty field should pause")
	}
}

func TestAutoscaleShrinksDensityAndRadius(t *testing.T) {
	cfg := config.Default()
	cfg.Text.Size = 150
	g := newTestGame(t, func(o *Options) {
		o.Config = cfg
		o.Rasterizer = halfRaster{rectRaster{rect: testRect}}
	})

	tun := g.Params().Snapshot()
	if want := expectedAnchors(t, g, tun.Density*0.5); g.Len() != want {
		t.Errorf("Len = %d, want %d at half density", g.Len(), want)
	}
	for _, p := range g.CopyPool(nil) {
		if p.Radius != tun.Radius*0.5 {
			t.Fatalf("radius = %v, want %v", p.Radius, tun.Radius*0.5)
		}
	}
	if g.TextSize() != 75 {
		t.Errorf("TextSize = %v, want 75", g.TextSize())
	}
}

// halfRaster reports text rendered at half the requested size.
type halfRaster struct{ rectRaster }

func (r halfRaster) Rasterize(text string, size float64, width, height int) (*glyph.Mask, error) {
	m, err := r.rectRaster.Rasterize(text, size, width, height)
	if m != nil {
		m.TextSize = size / 2
	}
	return m, err
}

func TestSnapshotRestore(t *testing.T) {
	src := newTestGame(t, nil)
	src.Explode()
	for i := 0; i < 10; i++ {
		src.Step()
	}
	src.MovePointer(150, 150)

	dir := t.TempDir()
	path, err := src.SaveSnapshotTo(dir)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestGame(t, nil)
	dst.SetText("other")
	if err := dst.Restore(snap); err != nil {
		t.Fatal(err)
	}

	if dst.Tick() != src.Tick() {
		t.Errorf("Tick = %d, want %d", dst.Tick(), src.Tick())
	}
	if dst.Text() != src.Text() {
		t.Errorf("Text = %q, want %q", dst.Text(), src.Text())
	}
	if pos, present := dst.Pointer(); !present || pos.X != 150 || pos.Y != 150 {
		t.Errorf("Pointer = %v, %v", pos, present)
	}

	a, b := src.CopyPool(nil), dst.CopyPool(nil)
	if len(a) != len(b) {
		t.Fatalf("pool size = %d, want %d", len(b), len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("particle %d = %+v, want %+v", i, b[i], a[i])
		}
	}

	// Restored tunables must not trigger a resample.
	dst.Step()
	if dst.Len() != len(a) {
		t.Errorf("pool resampled after restore")
	}
}

func TestRestoreRejectsInvalidSnapshot(t *testing.T) {
	src := newTestGame(t, nil)
	good := src.Snapshot()
	good.Tunables.MouseForce *= 2

	tests := []struct {
		name   string
		mutate func(s *telemetry.Snapshot)
	}{
		{"zero mass particle", func(s *telemetry.Snapshot) { s.Particles[0].Mass = 0 }},
		{"negative mass particle", func(s *telemetry.Snapshot) { s.Particles[len(s.Particles)-1].Mass = -1 }},
		{"empty canvas", func(s *telemetry.Snapshot) { s.CanvasWidth, s.CanvasHeight = 0, 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := newTestGame(t, nil)
			dst.SetText("other")
			settle(dst, 2000)
			before := dst.Snapshot()

			snap := *good
			snap.Text = "restored"
			snap.Pointer = &telemetry.PointState{X: 150, Y: 150}
			snap.Particles = append([]telemetry.ParticleState(nil), good.Particles...)
			tt.mutate(&snap)

			if err := dst.Restore(&snap); err == nil {
				t.Fatal("Restore accepted an invalid snapshot")
			}
			if dst.Text() != "other" {
				t.Errorf("Text = %q, want unchanged", dst.Text())
			}
			if dst.Params().Snapshot() != before.Tunables {
				t.Error("tunables changed by a rejected restore")
			}
			if _, present := dst.Pointer(); present {
				t.Error("pointer set by a rejected restore")
			}
			if w, h := dst.CanvasSize(); w != before.CanvasWidth || h != before.CanvasHeight {
				t.Errorf("canvas = %dx%d, want %dx%d", w, h, before.CanvasWidth, before.CanvasHeight)
			}
			if dst.Len() != len(before.Particles) {
				t.Errorf("Len = %d, want %d", dst.Len(), len(before.Particles))
			}
			if dst.Scheduler().IsRunning() {
				t.Error("rejected restore woke the field")
			}
		})
	}
}

func TestStatsCallbackOnPause(t *testing.T) {
	var windows []telemetry.WindowStats
	g := newTestGame(t, func(o *Options) {
		o.StatsCallback = func(s telemetry.WindowStats) { windows = append(windows, s) }
	})

	g.Explode()
	settle(g, 5000)

	if len(windows) == 0 {
		t.Fatal("expected a stats window when the field paused")
	}
	last := windows[len(windows)-1]
	if last.IdlePauses != 1 {
		t.Errorf("last window IdlePauses = %d, want 1", last.IdlePauses)
	}
	if last.Particles != g.Len() {
		t.Errorf("last window Particles = %d, want %d", last.Particles, g.Len())
	}

	var explodes, resamples int
	for _, w := range windows {
		explodes += w.Explodes
		resamples += w.Resamples
	}
	if explodes != 1 {
		t.Errorf("explodes = %d, want 1", explodes)
	}
	if resamples != 1 {
		t.Errorf("resamples = %d, want 1", resamples)
	}
}

func TestOutputFiles(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGameWithOptions(Options{
		Config:     config.Default(),
		Rasterizer: rectRaster{rect: testRect},
		Field:      systems.FlatField(0),
		OutputDir:  dir,
	})
	if err != nil {
		t.Fatal(err)
	}
	g.Explode()
	settle(g, 5000)
	g.Unload()

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "bookmarks.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if name != "bookmarks.csv" && info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestSweep(t *testing.T) {
	s := Sweep{Passes: 2, Frames: 5, Rest: 3, Y: 0.5}
	if s.Len() != 16 {
		t.Fatalf("Len = %d, want 16", s.Len())
	}

	pos, present := s.At(0, 100, 40)
	if !present || pos.X != 0 || pos.Y != 20 {
		t.Errorf("frame 0 = %v, %v", pos, present)
	}
	pos, present = s.At(4, 100, 40)
	if !present || pos.X != 100 {
		t.Errorf("frame 4 = %v, %v; want x=100", pos, present)
	}
	if _, present = s.At(5, 100, 40); present {
		t.Error("frame 5 should be resting")
	}
	if pos, present = s.At(8, 100, 40); !present || pos.X != 0 {
		t.Errorf("frame 8 should start the second pass, got %v, %v", pos, present)
	}
	if _, present = s.At(16, 100, 40); present {
		t.Error("frames past the script are absent")
	}

	if (Sweep{}).Len() != 0 {
		t.Error("zero sweep should be empty")
	}
}

func TestRunHeadlessSettles(t *testing.T) {
	g := newTestGame(t, nil)
	sweep := Sweep{Passes: 1, Frames: 60, Rest: 10, Y: 0.33}

	res, err := g.RunHeadless(context.Background(), sweep, 10000, false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Settled {
		t.Fatalf("run did not settle: %+v", res)
	}
	if res.ScriptTicks == 0 {
		t.Error("no ticks ran during the sweep")
	}
	if res.Ticks != res.ScriptTicks+res.SettleTicks {
		t.Errorf("Ticks = %d, want %d + %d", res.Ticks, res.ScriptTicks, res.SettleTicks)
	}
	if _, present := g.Pointer(); present {
		t.Error("pointer should be absent after the sweep")
	}
}

func TestRunHeadlessMaxTicks(t *testing.T) {
	g := newTestGame(t, nil)
	g.MovePointer(200, 150)

	res, err := g.RunHeadless(context.Background(), Sweep{Passes: 10, Frames: 100}, 25, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Ticks != 25 || res.Settled {
		t.Errorf("res = %+v, want 25 ticks unsettled", res)
	}
}

func TestRunBlocksWhileIdle(t *testing.T) {
	g := newTestGame(t, nil)

	ticks := 0
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := g.Run(ctx, func(systems.StepStats) { ticks++ })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run = %v, want deadline exceeded", err)
	}
	// The resting field pauses on its first tick and nothing wakes it.
	if ticks != 1 {
		t.Errorf("ticks = %d, want 1", ticks)
	}
}

func TestPoolStaysFinite(t *testing.T) {
	g := newTestGame(t, nil)
	g.MovePointer(200, 150)
	for i := 0; i < 20; i++ {
		g.Step()
	}
	for i, p := range g.CopyPool(nil) {
		if !p.Finite() {
			t.Fatalf("particle %d is not finite", i)
		}
		if math.IsNaN(p.AnchorDistance()) {
			t.Fatalf("particle %d anchor distance is NaN", i)
		}
	}
}

func TestUnloadWhileRunning(t *testing.T) {
	g := newTestGame(t, func(o *Options) {
		o.Config.Physics.ParallelThreshold = 1
	})
	g.MovePointer(200, 150)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, nil) }()

	deadline := time.Now().Add(2 * time.Second)
	for g.Tick() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// Unload before the runner has seen the cancellation.
	g.Unload()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	tick := g.Tick()
	if stats := g.Step(); stats != (systems.StepStats{}) {
		t.Errorf("Step after Unload = %+v, want zero", stats)
	}
	if g.Tick() != tick {
		t.Errorf("Tick advanced after Unload: %d -> %d", tick, g.Tick())
	}
	if g.Scheduler().IsRunning() {
		t.Error("scheduler should stay stopped after Unload")
	}
	g.Unload()
}
