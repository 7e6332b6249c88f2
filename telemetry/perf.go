package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

// Phase identifies one part of a field step.
type Phase uint8

// Step phases in execution order.
const (
	PhaseResample Phase = iota
	PhaseIntegrate
	PhaseIdleCheck
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{"resample", "integrate", "idle_check", "telemetry"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// Phases lists every phase in step order.
var Phases = []Phase{PhaseResample, PhaseIntegrate, PhaseIdleCheck, PhaseTelemetry}

// PhaseTimes holds one duration per phase.
type PhaseTimes [numPhases]time.Duration

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       PhaseTimes
}

// PerfCollector tracks step timings over a rolling window of ticks, and how
// many recent frames ran a tick at all. It is safe for one stepping goroutine
// and any number of readers.
type PerfCollector struct {
	mu sync.Mutex

	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	current    PhaseTimes
	tickStart  time.Time
	phaseStart time.Time
	inPhase    bool
	phase      Phase

	// Frame timing (graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
	ticksInFrame  int
	frameActive   []bool
	frameIndex    int
	frameCount    int
}

// NewPerfCollector creates a collector averaging over windowSize ticks and frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:  windowSize,
		samples:     make([]PerfSample, windowSize),
		frameActive: make([]bool, windowSize),
	}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tickStart = time.Now()
	p.current = PhaseTimes{}
	p.inPhase = false
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.endPhaseLocked(now)
	p.phaseStart = now
	p.phase = phase
	p.inPhase = phase < numPhases
}

func (p *PerfCollector) endPhaseLocked(now time.Time) {
	if p.inPhase {
		p.current[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.endPhaseLocked(now)

	p.samples[p.writeIndex] = PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.current,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.ticksInFrame++
}

// RecordFrame marks the end of a rendered frame. Frames during which no tick
// ran count as idle.
func (p *PerfCollector) RecordFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now

	p.frameActive[p.frameIndex] = p.ticksInFrame > 0
	p.frameIndex = (p.frameIndex + 1) % p.windowSize
	if p.frameCount < p.windowSize {
		p.frameCount++
	}
	p.ticksInFrame = 0
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Tick timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Average duration and share of tick time per phase
	PhaseAvg PhaseTimes
	PhasePct [numPhases]float64

	// Throughput
	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
	// Percentage of recent frames that ran a tick; 0 while the field is paused.
	ActiveFramePct float64
}

// Pct returns the share of tick time spent in phase.
func (s PerfStats) Pct(phase Phase) float64 {
	if phase >= numPhases {
		return 0
	}
	return s.PhasePct[phase]
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var s PerfStats
	s.FrameDuration = p.frameDuration
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.frameCount > 0 {
		active := 0
		for _, a := range p.frameActive[:p.frameCount] {
			if a {
				active++
			}
		}
		s.ActiveFramePct = float64(active) / float64(p.frameCount) * 100
	}

	if p.sampleCount == 0 {
		return s
	}

	var total time.Duration
	var sums PhaseTimes
	for i, sample := range p.samples[:p.sampleCount] {
		total += sample.TickDuration
		if i == 0 || sample.TickDuration < s.MinTickDuration {
			s.MinTickDuration = sample.TickDuration
		}
		s.MaxTickDuration = max(s.MaxTickDuration, sample.TickDuration)
		for ph, d := range sample.Phases {
			sums[ph] += d
		}
	}

	n := time.Duration(p.sampleCount)
	s.AvgTickDuration = total / n
	for ph := range sums {
		s.PhaseAvg[ph] = sums[ph] / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS), "active_frame_pct", int(s.ActiveFramePct))
	}

	for _, phase := range Phases {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, phase.String()+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs,
			slog.Float64("fps", s.FPS),
			slog.Float64("active_frame_pct", s.ActiveFramePct),
		)
	}

	for _, phase := range Phases {
		attrs = append(attrs, slog.Float64(phase.String()+"_pct", s.PhasePct[phase]))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd      int32   `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	MinTickUS      int64   `csv:"min_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	FPS            float64 `csv:"fps"`
	ActiveFramePct float64 `csv:"active_frame_pct"`
	ResamplePct    float64 `csv:"resample_pct"`
	IntegratePct   float64 `csv:"integrate_pct"`
	IdleCheckPct   float64 `csv:"idle_check_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTickDuration.Microseconds(),
		MinTickUS:      s.MinTickDuration.Microseconds(),
		MaxTickUS:      s.MaxTickDuration.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		FPS:            s.FPS,
		ActiveFramePct: s.ActiveFramePct,
		ResamplePct:    s.PhasePct[PhaseResample],
		IntegratePct:   s.PhasePct[PhaseIntegrate],
		IdleCheckPct:   s.PhasePct[PhaseIdleCheck],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}
