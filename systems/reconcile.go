package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowtext/components"
)

// Reconcile maps anchors onto pool by index and returns the resized pool.
//
// Existing particles keep their position and get a new anchor, zero velocity,
// AnchorReturn and the current mass and radius. Missing particles are appended
// on their anchor. Surplus particles are dropped from the tail, so the result
// always has exactly len(anchors) entries.
func Reconcile(pool []components.Particle, anchors []r2.Vec, mass, radius float64) []components.Particle {
	n := len(pool)
	if n > len(anchors) {
		n = len(anchors)
	}
	for i := 0; i < n; i++ {
		p := &pool[i]
		p.Anchor = anchors[i]
		p.Velocity = r2.Vec{}
		p.Regime = components.AnchorReturn
		p.Mass = mass
		p.Radius = radius
	}
	for i := len(pool); i < len(anchors); i++ {
		pool = append(pool, components.NewParticle(anchors[i], mass, radius))
	}
	// Zero the dropped tail.
	for i := len(anchors); i < len(pool); i++ {
		pool[i] = components.Particle{}
	}
	return pool[:len(anchors)]
}
