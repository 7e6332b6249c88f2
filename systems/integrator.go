package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowtext/components"
	"github.com/pthm-cable/flowtext/config"
)

// minMouseForce is the force below which the pointer releases a particle.
const minMouseForce = 0.1

// StepStats summarizes one integration tick.
type StepStats struct {
	MouseControlled int // Particles under pointer control after the tick
	Resets          int // Particles reset to their anchor after a non-finite update
}

func (s *StepStats) add(o StepStats) {
	s.MouseControlled += o.MouseControlled
	s.Resets += o.Resets
}

// IntegrateParticle advances one particle by a single tick.
// It returns false if the update went non-finite and the particle was reset.
func IntegrateParticle(p *components.Particle, pointer r2.Vec, t *config.Tunables) bool {
	away := r2.Sub(p.Position, pointer)
	dist := r2.Norm(away)

	force := 0.0
	if dist > 0 && dist < t.MouseRange {
		force = t.MouseForce / dist
	}

	if dist > t.MouseRange || force < minMouseForce {
		target := r2.Scale(-t.AnchorSmoothMult, r2.Sub(p.Position, p.Anchor))
		dv := r2.Sub(target, p.Velocity)
		if n := r2.Norm(dv); n > t.MaxSwitchAccel {
			p.Velocity = r2.Add(p.Velocity, r2.Scale(t.MaxSwitchAccel/n, dv))
		} else {
			p.Velocity = target
		}
		p.Regime = components.AnchorReturn
	} else {
		p.Velocity = r2.Add(p.Velocity, r2.Scale(force/(p.Mass*dist), away))
		if p.Regime != components.MouseControlled {
			p.Velocity = r2.Scale(1/t.MouseDampen, p.Velocity)
		}
		p.Regime = components.MouseControlled
	}

	p.Position = r2.Add(p.Position, p.Velocity)

	if !p.Finite() {
		p.ResetToAnchor()
		return false
	}
	return true
}

// integrateRange runs IntegrateParticle over pool[start:end].
func integrateRange(pool []components.Particle, start, end int, pointer r2.Vec, t *config.Tunables) StepStats {
	var s StepStats
	for i := start; i < end; i++ {
		p := &pool[i]
		if !IntegrateParticle(p, pointer, t) {
			s.Resets++
		}
		if p.Regime == components.MouseControlled {
			s.MouseControlled++
		}
	}
	return s
}

// Integrate advances every particle in pool by one tick on the calling goroutine.
func Integrate(pool []components.Particle, pointer r2.Vec, t config.Tunables) StepStats {
	return integrateRange(pool, 0, len(pool), pointer, &t)
}

// Integrator advances the pool, fanning large pools out to a persistent
// worker pool. Each particle only reads its own state and the per-tick
// pointer and tunables, so the result matches Integrate exactly.
type Integrator struct {
	threshold int
	workers   *workerPool
}

// NewIntegrator creates an integrator. Pools with at least threshold particles
// run in parallel; threshold <= 0 disables parallelism. workers <= 0 uses GOMAXPROCS.
func NewIntegrator(threshold, workers int) *Integrator {
	in := &Integrator{threshold: threshold}
	if threshold > 0 {
		in.workers = newWorkerPool(workers)
	}
	return in
}

// Step advances every particle in pool by one tick.
func (in *Integrator) Step(pool []components.Particle, pointer r2.Vec, t config.Tunables) StepStats {
	n := len(pool)
	if in.workers == nil || n < in.threshold {
		return integrateRange(pool, 0, n, pointer, &t)
	}
	return in.workers.run(n, func(start, end int) StepStats {
		return integrateRange(pool, start, end, pointer, &t)
	})
}

// Close stops the worker goroutines. The integrator falls back to
// single-threaded stepping afterwards.
func (in *Integrator) Close() {
	if in.workers != nil {
		in.workers.stop()
		in.workers = nil
	}
}
