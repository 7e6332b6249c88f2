package game

import (
	"testing"

	"github.com/pthm-cable/flowtext/config"
)

func TestAutoscaleModes(t *testing.T) {
	testCases := []struct {
		name     string
		mode     string
		rendered []float64
		want     []float64
	}{
		{"off ignores size", config.AutoscaleOff, []float64{150, 75}, []float64{1, 1}},
		{"freeze keeps first", config.AutoscaleFreeze, []float64{150, 300, 75}, []float64{0.5, 0.5, 0.5}},
		{"freeze waits for text", config.AutoscaleFreeze, []float64{0, 150, 300}, []float64{1, 0.5, 0.5}},
		{"always recomputes", config.AutoscaleAlways, []float64{150, 300, 0, 75}, []float64{0.5, 1, 1, 0.25}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := newAutoscaler(tc.mode, 300)
			for i, r := range tc.rendered {
				if got := a.Factor(r); got != tc.want[i] {
					t.Errorf("step %d: Factor(%v) = %v, want %v", i, r, got, tc.want[i])
				}
			}
		})
	}
}

func TestAutoscaleZeroReference(t *testing.T) {
	a := newAutoscaler(config.AutoscaleAlways, 0)
	if got := a.Factor(120); got != 1 {
		t.Errorf("Factor with zero reference = %v, want 1", got)
	}
}
