package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flowtext/glyph"
)

var _ glyph.Rasterizer = (*RaylibRasterizer)(nil)

// RaylibRasterizer renders text with a raylib font into an offscreen texture
// and reads it back as a mask. It must be used on the thread that owns the
// window, after InitWindow.
type RaylibRasterizer struct {
	Font    rl.Font
	Spacing float32 // Extra spacing between glyphs, as a fraction of the font size
	Margin  int     // Horizontal padding kept free on both sides
	Ratio   float64 // Model units per device pixel
}

// NewRaylibRasterizer uses raylib's default font.
func NewRaylibRasterizer(margin int, ratio float64) *RaylibRasterizer {
	return &RaylibRasterizer{
		Font:    rl.GetFontDefault(),
		Spacing: 0.1,
		Margin:  margin,
		Ratio:   ratio,
	}
}

// Rasterize implements glyph.Rasterizer.
func (r *RaylibRasterizer) Rasterize(text string, size float64, width, height int) (*glyph.Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, glyph.ErrNoSurface
	}

	fontSize := r.fit(text, float32(size), float32(width-2*r.Margin), float32(height))
	spacing := fontSize * r.Spacing
	dim := rl.MeasureTextEx(r.Font, text, fontSize, spacing)

	target := rl.LoadRenderTexture(int32(width), int32(height))
	defer rl.UnloadRenderTexture(target)

	ink := glyph.InkColor
	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Black)
	pos := rl.Vector2{X: (float32(width) - dim.X) / 2, Y: (float32(height) - dim.Y) / 2}
	rl.DrawTextEx(r.Font, text, pos, fontSize, spacing, rl.Color{R: ink.R, G: ink.G, B: ink.B, A: ink.A})
	rl.EndTextureMode()

	img := rl.LoadImageFromTexture(target.Texture)
	defer rl.UnloadImage(img)
	// Render textures are stored bottom-up.
	rl.ImageFlipVertical(img)

	mask := glyph.NewMask(img.ToImage(), ink)
	mask.TextSize = float64(fontSize)
	mask.Ratio = r.Ratio
	if mask.Ratio <= 0 {
		mask.Ratio = 1
	}
	return mask, nil
}

// fit shrinks size until text fits inside availW x availH.
func (r *RaylibRasterizer) fit(text string, size, availW, availH float32) float32 {
	if size > availH {
		size = availH
	}
	if text == "" || availW <= 0 {
		return max(size, 1)
	}
	dim := rl.MeasureTextEx(r.Font, text, size, size*r.Spacing)
	if dim.X > availW {
		size *= availW / dim.X
	}
	return max(size, 1)
}
