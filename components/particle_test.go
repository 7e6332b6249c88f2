package components

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewParticleRestsOnAnchor(t *testing.T) {
	p := NewParticle(r2.Vec{X: 3, Y: 4}, 5, 7)
	if p.Position != p.Anchor {
		t.Errorf("position %v != anchor %v", p.Position, p.Anchor)
	}
	if p.Velocity != (r2.Vec{}) {
		t.Errorf("velocity = %v, want zero", p.Velocity)
	}
	if p.Regime != AnchorReturn {
		t.Errorf("regime = %v, want %v", p.Regime, AnchorReturn)
	}
	if p.Mass != 5 || p.Radius != 7 {
		t.Errorf("mass/radius = %v/%v, want 5/7", p.Mass, p.Radius)
	}
}

func TestFiniteAndReset(t *testing.T) {
	tests := []struct {
		name string
		pos  r2.Vec
		vel  r2.Vec
		want bool
	}{
		{"finite", r2.Vec{X: 1, Y: 2}, r2.Vec{X: 0.1}, true},
		{"nan position", r2.Vec{X: math.NaN()}, r2.Vec{}, false},
		{"inf velocity", r2.Vec{}, r2.Vec{Y: math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Particle{Anchor: r2.Vec{X: 10, Y: 10}, Position: tt.pos, Velocity: tt.vel, Regime: MouseControlled}
			if got := p.Finite(); got != tt.want {
				t.Fatalf("Finite() = %v, want %v", got, tt.want)
			}
			p.ResetToAnchor()
			if !p.Finite() || p.Position != p.Anchor || p.Regime != AnchorReturn {
				t.Errorf("reset left particle in %+v", p)
			}
		})
	}
}

func TestAnchorDistance(t *testing.T) {
	p := Particle{Anchor: r2.Vec{}, Position: r2.Vec{X: 3, Y: 4}}
	if d := p.AnchorDistance(); math.Abs(d-5) > 1e-12 {
		t.Errorf("AnchorDistance = %v, want 5", d)
	}
}

func TestRegimeString(t *testing.T) {
	if AnchorReturn.String() != "anchor_return" || MouseControlled.String() != "mouse_controlled" {
		t.Error("unexpected regime names")
	}
	if Regime(9).String() != "unknown" {
		t.Error("unknown regime should stringify as unknown")
	}
}
