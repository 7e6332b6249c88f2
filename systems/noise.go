package systems

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/flowtext/config"
)

// Field is a deterministic, smooth 2D scalar field with values in [-1, 1].
type Field interface {
	Sample(gx, gy float64) float64
}

// NewField builds the noise backend named by cfg.Kind.
func NewField(cfg config.NoiseConfig) (Field, error) {
	scale := cfg.Scale
	if scale == 0 {
		scale = 1
	}
	switch cfg.Kind {
	case config.NoiseSimplex, "":
		return NewSimplexField(cfg.Seed, scale), nil
	case config.NoisePerlin:
		return NewPerlinField(cfg.Seed, scale), nil
	default:
		return nil, fmt.Errorf("unknown noise kind %q", cfg.Kind)
	}
}

// SimplexField samples OpenSimplex noise.
type SimplexField struct {
	noise opensimplex.Noise
	scale float64
}

// NewSimplexField creates a simplex field. scale multiplies grid coordinates
// before evaluation.
func NewSimplexField(seed int64, scale float64) *SimplexField {
	return &SimplexField{noise: opensimplex.New(seed), scale: scale}
}

// Sample implements Field.
func (f *SimplexField) Sample(gx, gy float64) float64 {
	return clampUnit(f.noise.Eval2(gx*f.scale, gy*f.scale))
}

// Perlin octave settings: weight falloff, frequency step, octave count.
const (
	perlinAlpha   = 2
	perlinBeta    = 2
	perlinOctaves = 3
)

// PerlinField samples classic Perlin noise.
type PerlinField struct {
	p     *perlin.Perlin
	scale float64
}

// NewPerlinField creates a Perlin field. scale multiplies grid coordinates
// before evaluation.
func NewPerlinField(seed int64, scale float64) *PerlinField {
	return &PerlinField{p: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed), scale: scale}
}

// Sample implements Field.
func (f *PerlinField) Sample(gx, gy float64) float64 {
	return clampUnit(f.p.Noise2D(gx*f.scale, gy*f.scale))
}

// FlatField is a constant field, useful when noise displacement is unwanted.
type FlatField float64

// Sample implements Field.
func (f FlatField) Sample(_, _ float64) float64 {
	return clampUnit(float64(f))
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
