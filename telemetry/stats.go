package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a tick window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Pool state at window end
	Particles       int `csv:"particles"`
	MouseControlled int `csv:"mouse_controlled"`
	PeakControlled  int `csv:"peak_controlled"` // Highest per-tick count during the window

	// Scheduler and input activity during window
	TicksRun   int `csv:"ticks_run"`
	Resamples  int `csv:"resamples"`
	IdlePauses int `csv:"idle_pauses"`
	Wakes      int `csv:"wakes"`
	Explodes   int `csv:"explodes"`
	NaNResets  int `csv:"nan_resets"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Distance from anchor (sampled at window end)
	AnchorDistMean float64 `csv:"anchor_dist_mean"`
	AnchorDistP50  float64 `csv:"anchor_dist_p50"`
	AnchorDistP90  float64 `csv:"anchor_dist_p90"`
}

// Percentile returns the p-th quantile of a sorted slice using linear interpolation.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// ComputeDistribution calculates mean, median and 90th percentile.
func ComputeDistribution(values []float64) (mean, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p50, p90
}

// Active reports whether anything moved the field during the window.
func (s WindowStats) Active() bool {
	return s.PeakControlled > 0 || s.Resamples > 0 || s.Explodes > 0 || s.Wakes > 0
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Int("mouse_controlled", s.MouseControlled),
		slog.Int("peak_controlled", s.PeakControlled),
		slog.Int("ticks_run", s.TicksRun),
		slog.Int("resamples", s.Resamples),
		slog.Int("idle_pauses", s.IdlePauses),
		slog.Int("wakes", s.Wakes),
		slog.Int("explodes", s.Explodes),
		slog.Int("nan_resets", s.NaNResets),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("anchor_dist_mean", s.AnchorDistMean),
		slog.Float64("anchor_dist_p50", s.AnchorDistP50),
		slog.Float64("anchor_dist_p90", s.AnchorDistP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"mouse_controlled", s.MouseControlled,
		"peak_controlled", s.PeakControlled,
		"ticks_run", s.TicksRun,
		"resamples", s.Resamples,
		"idle_pauses", s.IdlePauses,
		"wakes", s.Wakes,
		"explodes", s.Explodes,
		"nan_resets", s.NaNResets,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
		"anchor_dist_mean", s.AnchorDistMean,
		"anchor_dist_p90", s.AnchorDistP90,
	)
}
