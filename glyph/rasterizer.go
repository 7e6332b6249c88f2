package glyph

import (
	"errors"
	"image"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freesans"
)

// ErrNoSurface is returned when there is no drawable area to rasterize into.
var ErrNoSurface = errors.New("glyph: no rendering surface")

// Rasterizer renders text into a width x height device-pixel mask, shrinking
// the text if needed so it fits horizontally.
type Rasterizer interface {
	Rasterize(text string, size float64, width, height int) (*Mask, error)
}

// TinyFont rasterizes with a tinyfont bitmap font, scaled up by whole pixels.
// It needs no graphics context, so headless and terminal runs can use it.
type TinyFont struct {
	Font   tinyfont.Fonter
	Margin int     // Horizontal padding kept free on both sides
	Ratio  float64 // Model units per device pixel, copied onto the mask
}

// NewTinyFont returns a rasterizer using FreeSans Bold 24pt.
func NewTinyFont() *TinyFont {
	return &TinyFont{Font: &freesans.Bold24pt7b, Ratio: 1}
}

// Rasterize implements Rasterizer.
func (t *TinyFont) Rasterize(text string, size float64, width, height int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrNoSurface
	}

	lineH := int(t.Font.GetYAdvance())
	if lineH <= 0 {
		return nil, errors.New("glyph: font has no line height")
	}
	_, outbox := tinyfont.LineWidth(t.Font, text)
	nativeW := int(outbox)

	scale := fitScale(size, lineH, nativeW, width-2*t.Margin, height)

	mask := EmptyMask(width, height)
	if nativeW > 0 {
		canvas := newInkCanvas(nativeW, lineH)
		baseline := int16(lineH * 3 / 4)
		tinyfont.WriteLine(canvas, t.Font, 0, baseline, text, InkColor)
		mask = upscale(canvas.img, InkColor, scale, width, height)
	}

	mask.TextSize = float64(scale * lineH)
	mask.Ratio = t.ratio()
	return mask, nil
}

func (t *TinyFont) ratio() float64 {
	if t.Ratio <= 0 {
		return 1
	}
	return t.Ratio
}

// fitScale picks the largest whole-pixel scale not above size/lineH that keeps
// the text inside availW x availH. It never returns less than 1.
func fitScale(size float64, lineH, nativeW, availW, availH int) int {
	scale := int(size / float64(lineH))
	if scale < 1 {
		scale = 1
	}
	for scale > 1 && (nativeW*scale > availW || lineH*scale > availH) {
		scale--
	}
	return scale
}

// upscale centres src, magnified by scale, on a width x height mask.
func upscale(src *image.RGBA, ink color.RGBA, scale, width, height int) *Mask {
	sb := src.Bounds()
	ox := (width - sb.Dx()*scale) / 2
	oy := (height - sb.Dy()*scale) / 2

	bits := make([]bool, width*height)
	for sy := 0; sy < sb.Dy(); sy++ {
		for sx := 0; sx < sb.Dx(); sx++ {
			if src.RGBAAt(sb.Min.X+sx, sb.Min.Y+sy) != ink {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				y := oy + sy*scale + dy
				if y < 0 || y >= height {
					continue
				}
				for dx := 0; dx < scale; dx++ {
					x := ox + sx*scale + dx
					if x < 0 || x >= width {
						continue
					}
					bits[y*width+x] = true
				}
			}
		}
	}
	return NewMaskFromBits(width, height, bits)
}

// inkCanvas is an in-memory drivers.Displayer for tinyfont to draw on.
type inkCanvas struct {
	img *image.RGBA
}

var _ drivers.Displayer = (*inkCanvas)(nil)

func newInkCanvas(w, h int) *inkCanvas {
	return &inkCanvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (c *inkCanvas) Size() (x, y int16) {
	b := c.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (c *inkCanvas) SetPixel(x, y int16, col color.RGBA) {
	c.img.SetRGBA(int(x), int(y), col)
}

func (c *inkCanvas) Display() error {
	return nil
}
