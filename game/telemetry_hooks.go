package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/flowtext/telemetry"
)

// flushTelemetry flushes the stats window when it is full, or early when the
// field has just paused so the settled window is not held back until the next wake.
func (g *Game) flushTelemetry(paused bool) {
	if !paused && !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.pool)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// saveSnapshot creates and saves a snapshot to disk.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(g.createSnapshot(bookmark), g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}

// createSnapshot builds a snapshot from the current state. Caller holds g.mu.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:      telemetry.SnapshotVersion,
		Seed:         g.seed,
		CanvasWidth:  g.canvasW,
		CanvasHeight: g.canvasH,
		Text:         g.text,
		Tunables:     g.params.Snapshot(),
		Tick:         g.tick,
		Particles:    telemetry.CaptureParticles(g.pool),
		Bookmark:     bookmark,
	}
	if pos, present := g.pointer.Get(); present {
		snapshot.Pointer = &telemetry.PointState{X: pos.X, Y: pos.Y}
	}
	return snapshot
}

// Snapshot captures the current field state.
func (g *Game) Snapshot() *telemetry.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createSnapshot(nil)
}

// SaveSnapshotTo writes the current state to dir and returns the file path.
func (g *Game) SaveSnapshotTo(dir string) (string, error) {
	return telemetry.SaveSnapshot(g.Snapshot(), dir)
}

// Restore replaces the field with a saved snapshot. The pool is taken as
// saved rather than resampled, so particles resume mid-flight. An invalid
// snapshot is rejected before any state changes.
func (g *Game) Restore(s *telemetry.Snapshot) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if _, err := g.params.Replace(s.Tunables); err != nil {
		return fmt.Errorf("restore tunables: %w", err)
	}
	if s.Pointer != nil {
		g.pointer.Set(s.Pointer.X, s.Pointer.Y)
	} else {
		g.pointer.Leave()
	}

	tun := g.params.Snapshot()
	g.mu.Lock()
	g.text = s.Text
	g.canvasW, g.canvasH = s.CanvasWidth, s.CanvasHeight
	g.tick = s.Tick
	g.pool = telemetry.RestoreParticles(s.Particles)
	g.sampledDensity = tun.Density
	g.sampledRadius = tun.Radius
	g.paramsGen = g.params.Generation()
	g.mu.Unlock()

	slog.Info("snapshot restored", "tick", s.Tick, "particles", len(s.Particles), "text", s.Text)
	g.wake()
	return nil
}
