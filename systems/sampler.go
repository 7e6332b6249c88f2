package systems

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowtext/glyph"
)

// SampleParams controls how a mask is turned into anchors.
type SampleParams struct {
	Density   float64 // Cell size in model units
	Ratio     float64 // Model units per device pixel
	NoiseMult float64 // Displacement as a fraction of the cell size
}

// Resolution returns the cell size in device pixels, clamped to
// [1, math.MaxInt32]. The bound is applied before the int conversion.
func (p SampleParams) Resolution() int {
	f := math.Floor(p.Density * p.ratio())
	if !(f >= 1) {
		return 1
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func (p SampleParams) ratio() float64 {
	if p.Ratio <= 0 {
		return 1
	}
	return p.Ratio
}

// Sample walks q in resolution-sized cells, column by column, and emits one
// noise-displaced anchor for every cell that contains ink. The order of the
// result is the index contract used by Reconcile.
func Sample(q glyph.InkQuerier, p SampleParams, field Field) []r2.Vec {
	b := q.Bounds()
	if b.Empty() {
		return nil
	}
	res := p.Resolution()
	ratio := p.ratio()
	fres := float64(res)

	var anchors []r2.Vec
	for x := b.Min.X; x < b.Max.X; x += res {
		for y := b.Min.Y; y < b.Max.Y; y += res {
			if !q.HasInk(image.Rect(x, y, x+res, y+res)) {
				continue
			}
			fx, fy := float64(x), float64(y)
			base := r2.Vec{X: math.Floor(fx * ratio), Y: math.Floor(fy * ratio)}

			skew := (field.Sample(fx/fres*ratio, fy/fres*ratio) + 1) * math.Pi
			d := r2.Vec{
				X: math.Cos(skew)*fres*p.NoiseMult + fres/2,
				Y: math.Sin(skew)*fres*p.NoiseMult + fres/2,
			}
			anchors = append(anchors, r2.Add(base, d))
		}
	}
	return anchors
}
