package telemetry

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowtext/components"
	"github.com/pthm-cable/flowtext/systems"
)

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	frameSec            float64

	// Current window tracking
	windowStartTick int32

	// Counters for current window
	ticksRun       int
	resamples      int
	idlePauses     int
	wakes          int
	explodes       int
	nanResets      int
	peakControlled int
}

// NewCollector creates a new stats collector.
// windowTicks: integration ticks per stats window
// frameSec: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowTicks int, frameSec float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: int32(windowTicks),
		frameSec:            frameSec,
	}
}

// RecordTick records the outcome of one integration tick.
func (c *Collector) RecordTick(s systems.StepStats) {
	c.ticksRun++
	c.nanResets += s.Resets
	if s.MouseControlled > c.peakControlled {
		c.peakControlled = s.MouseControlled
	}
}

// RecordEvent records a discrete event.
func (c *Collector) RecordEvent(e Event) {
	switch e.Type {
	case EventResample:
		c.resamples++
	case EventIdlePause:
		c.idlePauses++
	case EventWake:
		c.wakes++
	case EventExplode:
		c.explodes++
	case EventNaNReset:
		// Counted per tick by RecordTick.
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the pool at currentTick and resets
// counters for the next window.
func (c *Collector) Flush(currentTick int32, pool []components.Particle) WindowStats {
	speeds := make([]float64, len(pool))
	dists := make([]float64, len(pool))
	controlled := 0
	for i := range pool {
		p := &pool[i]
		speeds[i] = r2.Norm(p.Velocity)
		dists[i] = p.AnchorDistance()
		if p.Regime == components.MouseControlled {
			controlled++
		}
	}

	speedMean, speedP50, speedP90 := ComputeDistribution(speeds)
	distMean, distP50, distP90 := ComputeDistribution(dists)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.frameSec,

		Particles:       len(pool),
		MouseControlled: controlled,
		PeakControlled:  c.peakControlled,

		TicksRun:   c.ticksRun,
		Resamples:  c.resamples,
		IdlePauses: c.idlePauses,
		Wakes:      c.wakes,
		Explodes:   c.explodes,
		NaNResets:  c.nanResets,

		SpeedMean: speedMean,
		SpeedP50:  speedP50,
		SpeedP90:  speedP90,

		AnchorDistMean: distMean,
		AnchorDistP50:  distP50,
		AnchorDistP90:  distP90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.ticksRun = 0
	c.resamples = 0
	c.idlePauses = 0
	c.wakes = 0
	c.explodes = 0
	c.nanResets = 0
	c.peakControlled = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
