package renderer

import (
	"github.com/charmbracelet/harmonica"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowtext/camera"
	"github.com/pthm-cable/flowtext/components"
)

var (
	Background   = rl.White
	ParticleFill = rl.Color{R: 30, G: 30, B: 200, A: 255}
	ParticleEdge = rl.Color{R: 10, G: 10, B: 110, A: 255}
	RangeFill    = rl.Color{R: 255, G: 200, B: 200, A: 255}
	RangeEdge    = rl.Red
	PointerDot   = rl.Red
)

// PointerDotRadius is the radius of the pointer marker in canvas units.
const PointerDotRadius = 10

// FieldRenderer draws the particle pool and the pointer indicator.
type FieldRenderer struct {
	// The range ring eases toward the live mouse range so slider drags animate.
	ring      harmonica.Spring
	ringR     float64
	ringVel   float64
	ringReady bool
}

// NewFieldRenderer creates a renderer whose range ring settles at fps.
func NewFieldRenderer(fps int) *FieldRenderer {
	if fps <= 0 {
		fps = 60
	}
	return &FieldRenderer{ring: harmonica.NewSpring(harmonica.FPS(fps), 8, 0.9)}
}

// RingRadius advances the range ring one frame toward target and returns the drawn radius.
func (r *FieldRenderer) RingRadius(target float64) float64 {
	if !r.ringReady {
		r.ringR, r.ringVel, r.ringReady = target, 0, true
		return r.ringR
	}
	r.ringR, r.ringVel = r.ring.Update(r.ringR, r.ringVel, target)
	return r.ringR
}

// Draw renders the pointer indicator under the particles. The indicator is
// skipped while the pointer is off the canvas.
func (r *FieldRenderer) Draw(pool []components.Particle, vp *camera.Viewport, pointer r2.Vec, present bool, mouseRange float64) {
	ringR := float32(r.RingRadius(mouseRange))
	if present {
		px, py := vp.CanvasToScreen(float32(pointer.X), float32(pointer.Y))
		pos := rl.Vector2{X: px, Y: py}
		rl.DrawCircleV(pos, ringR*vp.ScaleX, RangeFill)
		rl.DrawCircleLinesV(pos, ringR*vp.ScaleX, RangeEdge)
		rl.DrawCircleV(pos, PointerDotRadius*vp.ScaleX, PointerDot)
	}

	for i := range pool {
		p := &pool[i]
		x, y := float32(p.Position.X), float32(p.Position.Y)
		rad := float32(p.Radius)
		if !vp.IsVisible(x, y, rad) {
			continue
		}
		sx, sy := vp.CanvasToScreen(x, y)
		pos := rl.Vector2{X: sx, Y: sy}
		sr := rad * vp.ScaleX
		if sr < 0.5 {
			sr = 0.5
		}
		rl.DrawCircleV(pos, sr, ParticleFill)
		rl.DrawCircleLinesV(pos, sr, ParticleEdge)
	}
}

// DrawCanvasBounds outlines the canvas inside a letterboxed window.
func (r *FieldRenderer) DrawCanvasBounds(vp *camera.Viewport) {
	x, y, w, h := vp.CanvasRect()
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x, Y: y, Width: w, Height: h}, 1, rl.LightGray)
}
