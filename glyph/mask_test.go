package glyph

import (
	"image"
	"image/color"
	"testing"
)

func TestNewMaskMatchesInkExactly(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.SetRGBA(0, 0, InkColor)
	img.SetRGBA(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255}) // white, not ink
	img.SetRGBA(2, 1, color.RGBA{R: 253, G: 255, B: 255, A: 255}) // anti-aliased edge
	img.SetRGBA(3, 1, InkColor)

	m := NewMask(img, InkColor)
	if got := m.Total(); got != 2 {
		t.Fatalf("Total() = %d, want 2", got)
	}
	if !m.Ink(0, 0) || !m.Ink(3, 1) {
		t.Error("sentinel pixels not marked as ink")
	}
	if m.Ink(1, 0) || m.Ink(2, 1) {
		t.Error("near-sentinel pixels marked as ink")
	}
}

func TestMaskCountRectangles(t *testing.T) {
	// 5x4 grid:
	// #....
	// .##..
	// .##..
	// ....#
	w, h := 5, 4
	bits := make([]bool, w*h)
	for _, p := range [][2]int{{0, 0}, {1, 1}, {2, 1}, {1, 2}, {2, 2}, {4, 3}} {
		bits[p[1]*w+p[0]] = true
	}
	m := NewMaskFromBits(w, h, bits)

	tests := []struct {
		name string
		r    image.Rectangle
		want int
	}{
		{"whole", image.Rect(0, 0, 5, 4), 6},
		{"block", image.Rect(1, 1, 3, 3), 4},
		{"top-left cell", image.Rect(0, 0, 1, 1), 1},
		{"empty area", image.Rect(3, 0, 5, 3), 0},
		{"clipped past edge", image.Rect(3, 2, 50, 50), 1},
		{"fully outside", image.Rect(10, 10, 20, 20), 0},
		{"negative origin", image.Rect(-5, -5, 1, 1), 1},
		{"degenerate", image.Rect(2, 2, 2, 2), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Count(tt.r); got != tt.want {
				t.Errorf("Count(%v) = %d, want %d", tt.r, got, tt.want)
			}
			if got := m.HasInk(tt.r); got != (tt.want > 0) {
				t.Errorf("HasInk(%v) = %v", tt.r, got)
			}
		})
	}
}

func TestEmptyMask(t *testing.T) {
	m := EmptyMask(10, 3)
	if m.Width() != 10 || m.Height() != 3 {
		t.Errorf("size = %dx%d, want 10x3", m.Width(), m.Height())
	}
	if m.Total() != 0 {
		t.Errorf("Total() = %d, want 0", m.Total())
	}
	if m.Ratio != 1 {
		t.Errorf("Ratio = %v, want 1", m.Ratio)
	}

	z := EmptyMask(-1, 0)
	if !z.Bounds().Empty() || z.HasInk(image.Rect(0, 0, 1, 1)) {
		t.Error("degenerate mask should be empty")
	}
}
