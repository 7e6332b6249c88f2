// Package glyph turns text into occupancy masks for the particle sampler.
//
// A Rasterizer paints text in the sentinel InkColor; NewMask then keeps only the
// pixels that match that colour exactly, so anti-aliased edges and background
// never count as ink.
package glyph

import (
	"image"
	"image/color"
)

// InkColor is the sentinel colour rasterizers paint glyphs with.
var InkColor = color.RGBA{R: 254, G: 255, B: 255, A: 255}

// InkQuerier answers "is there any ink in this rectangle" over a device-pixel grid.
type InkQuerier interface {
	Bounds() image.Rectangle
	HasInk(r image.Rectangle) bool
}

// Mask is a binary occupancy grid with constant-time rectangle queries.
type Mask struct {
	w, h int
	// sum holds a (w+1)*(h+1) summed-area table of ink pixels.
	sum []int32

	// TextSize is the glyph size the text was actually rendered at, after fitting.
	TextSize float64
	// Ratio converts device pixels to model units.
	Ratio float64
}

// EmptyMask returns a mask of the given size with no ink.
func EmptyMask(w, h int) *Mask {
	return NewMaskFromBits(w, h, nil)
}

// NewMask builds a mask from img, marking pixels whose colour equals ink exactly.
func NewMask(img image.Image, ink color.RGBA) *Mask {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	bits := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			bits[y*w+x] = c.R == ink.R && c.G == ink.G && c.B == ink.B
		}
	}
	return NewMaskFromBits(w, h, bits)
}

// NewMaskFromBits builds a mask from a row-major ink slice. A nil slice means no ink.
func NewMaskFromBits(w, h int, bits []bool) *Mask {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	m := &Mask{w: w, h: h, sum: make([]int32, (w+1)*(h+1)), Ratio: 1}
	stride := w + 1
	for y := 0; y < h; y++ {
		var row int32
		for x := 0; x < w; x++ {
			if bits != nil && bits[y*w+x] {
				row++
			}
			m.sum[(y+1)*stride+x+1] = m.sum[y*stride+x+1] + row
		}
	}
	return m
}

// Bounds returns the mask extent in device pixels.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.w, m.h)
}

// Width returns the mask width in device pixels.
func (m *Mask) Width() int { return m.w }

// Height returns the mask height in device pixels.
func (m *Mask) Height() int { return m.h }

// Count returns the number of ink pixels inside r, clipped to the mask.
func (m *Mask) Count(r image.Rectangle) int {
	r = r.Intersect(m.Bounds())
	if r.Empty() {
		return 0
	}
	stride := m.w + 1
	a := m.sum[r.Min.Y*stride+r.Min.X]
	b := m.sum[r.Min.Y*stride+r.Max.X]
	c := m.sum[r.Max.Y*stride+r.Min.X]
	d := m.sum[r.Max.Y*stride+r.Max.X]
	return int(d - b - c + a)
}

// HasInk reports whether any pixel in r is ink.
func (m *Mask) HasInk(r image.Rectangle) bool {
	return m.Count(r) > 0
}

// Ink reports whether the single pixel (x, y) is ink.
func (m *Mask) Ink(x, y int) bool {
	return m.Count(image.Rect(x, y, x+1, y+1)) > 0
}

// Total returns the number of ink pixels in the whole mask.
func (m *Mask) Total() int {
	return m.Count(m.Bounds())
}
