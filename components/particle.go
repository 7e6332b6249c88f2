// Package components defines the particle state shared by the simulation systems.
package components

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Regime identifies which force law governed a particle on its last tick.
type Regime uint8

const (
	AnchorReturn    Regime = iota // Spring back toward the anchor
	MouseControlled               // Pushed away from the pointer
)

// String returns the regime name for logs and snapshots.
func (r Regime) String() string {
	switch r {
	case AnchorReturn:
		return "anchor_return"
	case MouseControlled:
		return "mouse_controlled"
	default:
		return "unknown"
	}
}

// Particle is one point-mass of the text field.
type Particle struct {
	Anchor   r2.Vec // Rest position, reassigned on resample
	Position r2.Vec
	Velocity r2.Vec
	Mass     float64
	Radius   float64
	Regime   Regime
}

// NewParticle creates a particle resting on its anchor.
func NewParticle(anchor r2.Vec, mass, radius float64) Particle {
	return Particle{
		Anchor:   anchor,
		Position: anchor,
		Mass:     mass,
		Radius:   radius,
		Regime:   AnchorReturn,
	}
}

// Finite reports whether position and velocity are free of NaN and Inf.
func (p *Particle) Finite() bool {
	return finite(p.Position.X) && finite(p.Position.Y) &&
		finite(p.Velocity.X) && finite(p.Velocity.Y)
}

// ResetToAnchor puts the particle back on its anchor at rest.
func (p *Particle) ResetToAnchor() {
	p.Position = p.Anchor
	p.Velocity = r2.Vec{}
	p.Regime = AnchorReturn
}

// AnchorDistance returns how far the particle is from its anchor.
func (p *Particle) AnchorDistance() float64 {
	return r2.Norm(r2.Sub(p.Position, p.Anchor))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
