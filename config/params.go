package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// ErrInvalidTunable is returned when a tunable update is rejected.
var ErrInvalidTunable = errors.New("invalid tunable")

// TunableSpec describes one live parameter: its key, valid range, slider range
// and whether changing it requires re-sampling the text.
type TunableSpec struct {
	Name      string // YAML key
	Label     string
	Min       float64 // Smallest accepted value
	MinOpen   bool    // Min itself is rejected
	SliderMin float64
	SliderMax float64
	Resample  bool

	field func(t *Tunables) *float64
}

// TunableSpecs lists every live parameter in display order.
var TunableSpecs = []TunableSpec{
	{Name: "mouse_force", Label: "Mouse force", Min: 0, SliderMin: 0, SliderMax: 200,
		field: func(t *Tunables) *float64 { return &t.MouseForce }},
	{Name: "mouse_range", Label: "Mouse range", Min: 0, MinOpen: true, SliderMin: 10, SliderMax: 400,
		field: func(t *Tunables) *float64 { return &t.MouseRange }},
	{Name: "mouse_dampen", Label: "Mouse dampen", Min: 0, MinOpen: true, SliderMin: 1, SliderMax: 100,
		field: func(t *Tunables) *float64 { return &t.MouseDampen }},
	{Name: "anchor_smooth_mult", Label: "Anchor spring", Min: 0, SliderMin: 0, SliderMax: 1,
		field: func(t *Tunables) *float64 { return &t.AnchorSmoothMult }},
	{Name: "max_switch_accel", Label: "Max return accel", Min: 0, SliderMin: 0, SliderMax: 5,
		field: func(t *Tunables) *float64 { return &t.MaxSwitchAccel }},
	{Name: "noise_mult", Label: "Noise", Min: 0, SliderMin: 0, SliderMax: 1,
		field: func(t *Tunables) *float64 { return &t.NoiseMult }},
	{Name: "density", Label: "Density", Min: 0, MinOpen: true, SliderMin: 4, SliderMax: 100, Resample: true,
		field: func(t *Tunables) *float64 { return &t.Density }},
	{Name: "radius", Label: "Radius", Min: 0, SliderMin: 1, SliderMax: 30, Resample: true,
		field: func(t *Tunables) *float64 { return &t.Radius }},
	{Name: "mass", Label: "Mass", Min: 0, MinOpen: true, SliderMin: 0.5, SliderMax: 50,
		field: func(t *Tunables) *float64 { return &t.Mass }},
	{Name: "idle_epsilon", Label: "Idle epsilon", Min: 0, MinOpen: true, SliderMin: 0.01, SliderMax: 1,
		field: func(t *Tunables) *float64 { return &t.IdleEpsilon }},
}

// LookupTunable finds a spec by YAML key.
func LookupTunable(name string) (TunableSpec, bool) {
	for _, spec := range TunableSpecs {
		if spec.Name == name {
			return spec, true
		}
	}
	return TunableSpec{}, false
}

// Get reads the spec's field from t.
func (s TunableSpec) Get(t Tunables) float64 {
	return *s.field(&t)
}

// Check reports whether v is an acceptable value for this parameter.
func (s TunableSpec) Check(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidTunable, s.Name, v)
	}
	if v < s.Min || (s.MinOpen && v == s.Min) {
		op := ">="
		if s.MinOpen {
			op = ">"
		}
		return fmt.Errorf("%w: %s must be %s %v, got %v", ErrInvalidTunable, s.Name, op, s.Min, v)
	}
	return nil
}

// Validate checks every field of t.
func (t Tunables) Validate() error {
	for _, spec := range TunableSpecs {
		if err := spec.Check(spec.Get(t)); err != nil {
			return err
		}
	}
	return nil
}

// Params is the shared, mutex-guarded holder for live tunables. Input handlers
// write through Set/SetString while the integrator reads value snapshots.
type Params struct {
	mu  sync.RWMutex
	t   Tunables
	gen uint64
}

// NewParams creates a holder seeded with t. t must already be valid.
func NewParams(t Tunables) *Params {
	return &Params{t: t}
}

// Snapshot returns a copy of the current tunables.
func (p *Params) Snapshot() Tunables {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.t
}

// Generation increments on every accepted update.
func (p *Params) Generation() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gen
}

// Set validates and stores a single tunable. On error the previous value is kept.
// The returned bool reports whether the change requires a resample.
func (p *Params) Set(name string, v float64) (bool, error) {
	spec, ok := LookupTunable(name)
	if !ok {
		return false, fmt.Errorf("%w: unknown tunable %q", ErrInvalidTunable, name)
	}
	if err := spec.Check(v); err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	f := spec.field(&p.t)
	if *f == v {
		return false, nil
	}
	*f = v
	p.gen++
	return spec.Resample, nil
}

// SetString parses raw as a float and applies it with Set. This is the entry
// point for untyped sources such as CLI flags or query strings.
func (p *Params) SetString(name, raw string) (bool, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidTunable, name, err)
	}
	return p.Set(name, v)
}

// Replace validates and swaps in a whole tunable set.
func (p *Params) Replace(t Tunables) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	resample := false
	for _, spec := range TunableSpecs {
		if spec.Resample && spec.Get(p.t) != spec.Get(t) {
			resample = true
		}
	}
	p.t = t
	p.gen++
	return resample, nil
}

// ApplyOverrides parses "name=value" pairs, for example from a -set flag.
// Every pair is attempted; the first error is returned.
func (p *Params) ApplyOverrides(pairs []string) (bool, error) {
	var firstErr error
	resample := false
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: override %q is not name=value", ErrInvalidTunable, pair)
			}
			continue
		}
		r, err := p.SetString(strings.TrimSpace(name), raw)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		resample = resample || r
	}
	return resample, firstErr
}
