package systems

import (
	"math"

	"github.com/pthm-cable/flowtext/components"
)

// MayPause reports whether the tick loop can be suspended: the pointer is
// absent and every particle is returning to its anchor at less than epsilon
// speed on both axes. An empty pool may pause.
func MayPause(pool []components.Particle, pointerAbsent bool, epsilon float64) bool {
	if !pointerAbsent {
		return false
	}
	for i := range pool {
		p := &pool[i]
		if p.Regime != components.AnchorReturn {
			return false
		}
		if math.Abs(p.Velocity.X) >= epsilon || math.Abs(p.Velocity.Y) >= epsilon {
			return false
		}
	}
	return true
}
