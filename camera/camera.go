// Package camera maps between window (screen) coordinates and the simulation canvas.
package camera

// Viewport places the canvas inside a screen. In letterbox mode the canvas keeps
// its aspect ratio and is centred; in stretch mode each axis is scaled
// independently, which suits character-cell terminals.
type Viewport struct {
	// Screen dimensions
	ScreenW, ScreenH float32

	// Canvas dimensions (simulation space)
	CanvasW, CanvasH float32

	// Screen pixels per canvas unit
	ScaleX, ScaleY float32

	// Screen position of the canvas origin
	OffsetX, OffsetY float32

	// MaxScale caps magnification in letterbox mode (0 = no cap)
	MaxScale float32

	stretch bool
}

// New creates a letterboxing viewport. The canvas is never magnified beyond 1:1.
func New(screenW, screenH, canvasW, canvasH float32) *Viewport {
	v := &Viewport{CanvasW: canvasW, CanvasH: canvasH, MaxScale: 1}
	v.Resize(screenW, screenH)
	return v
}

// NewStretched creates a viewport that fills the screen on both axes.
func NewStretched(screenW, screenH, canvasW, canvasH float32) *Viewport {
	v := &Viewport{CanvasW: canvasW, CanvasH: canvasH, stretch: true}
	v.Resize(screenW, screenH)
	return v
}

// Resize updates screen dimensions and recomputes scale and offset.
func (v *Viewport) Resize(screenW, screenH float32) {
	v.ScreenW = screenW
	v.ScreenH = screenH
	v.fit()
}

// SetCanvas updates the canvas dimensions, e.g. after the canvas follows a window resize.
func (v *Viewport) SetCanvas(canvasW, canvasH float32) {
	v.CanvasW = canvasW
	v.CanvasH = canvasH
	v.fit()
}

func (v *Viewport) fit() {
	if v.CanvasW <= 0 || v.CanvasH <= 0 || v.ScreenW <= 0 || v.ScreenH <= 0 {
		v.ScaleX, v.ScaleY = 1, 1
		v.OffsetX, v.OffsetY = 0, 0
		return
	}

	sx := v.ScreenW / v.CanvasW
	sy := v.ScreenH / v.CanvasH
	if !v.stretch {
		s := min(sx, sy)
		if v.MaxScale > 0 && s > v.MaxScale {
			s = v.MaxScale
		}
		sx, sy = s, s
	}
	v.ScaleX, v.ScaleY = sx, sy
	v.OffsetX = (v.ScreenW - v.CanvasW*sx) / 2
	v.OffsetY = (v.ScreenH - v.CanvasH*sy) / 2
}

// CanvasToScreen converts canvas coordinates to screen coordinates.
func (v *Viewport) CanvasToScreen(cx, cy float32) (sx, sy float32) {
	return v.OffsetX + cx*v.ScaleX, v.OffsetY + cy*v.ScaleY
}

// ScreenToCanvas converts screen coordinates to canvas coordinates and reports
// whether the point lies on the canvas.
func (v *Viewport) ScreenToCanvas(sx, sy float32) (cx, cy float32, inside bool) {
	cx = (sx - v.OffsetX) / v.ScaleX
	cy = (sy - v.OffsetY) / v.ScaleY
	return cx, cy, v.Contains(cx, cy)
}

// Contains reports whether a canvas point lies within the canvas bounds.
func (v *Viewport) Contains(cx, cy float32) bool {
	return cx >= 0 && cy >= 0 && cx < v.CanvasW && cy < v.CanvasH
}

// IsVisible returns true if a circle at (cx, cy) with the given canvas radius
// could be visible on screen (conservative check for culling).
func (v *Viewport) IsVisible(cx, cy, radius float32) bool {
	sx, sy := v.CanvasToScreen(cx, cy)
	rx := radius * v.ScaleX
	ry := radius * v.ScaleY
	return sx+rx >= 0 && sy+ry >= 0 && sx-rx <= v.ScreenW && sy-ry <= v.ScreenH
}

// CanvasRect returns the screen rectangle covered by the canvas.
func (v *Viewport) CanvasRect() (x, y, w, h float32) {
	return v.OffsetX, v.OffsetY, v.CanvasW * v.ScaleX, v.CanvasH * v.ScaleY
}
