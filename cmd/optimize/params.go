// Package main provides CMA-ES optimization for flowing text tunables.
package main

import (
	"fmt"

	"github.com/pthm-cable/flowtext/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Tunable key
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters, with
// defaults taken from base.
func NewParamVector(base config.Tunables) *ParamVector {
	pv := &ParamVector{
		Specs: []ParamSpec{
			{Name: "anchor_smooth_mult", Min: 0.01, Max: 0.5},
			{Name: "max_switch_accel", Min: 0.05, Max: 3.0},
			{Name: "mouse_dampen", Min: 1, Max: 60},
			{Name: "mouse_force", Min: 5, Max: 150},
		},
	}
	for i := range pv.Specs {
		s := &pv.Specs[i]
		ts, _ := config.LookupTunable(s.Name)
		s.Default = min(max(ts.Get(base), s.Min), s.Max)
	}
	return pv
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.Tunables.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)
	p := config.NewParams(cfg.Tunables)
	for i, spec := range pv.Specs {
		if _, err := p.Set(spec.Name, clamped[i]); err != nil {
			return fmt.Errorf("apply %s: %w", spec.Name, err)
		}
	}
	cfg.Tunables = p.Snapshot()
	return nil
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		ts, _ := config.LookupTunable(spec.Name)
		v[i] = ts.Get(cfg.Tunables)
	}
	return v
}
