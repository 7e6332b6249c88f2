// Package ui draws the heads-up display and the live tunables panel.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds UI colours and metrics. Panels float over the white canvas, so
// the palette is light with dark text.
type Theme struct {
	// Panels
	PanelBg     rl.Color
	PanelBorder rl.Color
	Heading     rl.Color
	Label       rl.Color
	Value       rl.Color

	// Bars
	BarBg   rl.Color
	BarFill rl.Color
	BarWarn rl.Color

	// HUD text drawn straight onto the canvas
	Title   rl.Color
	Muted   rl.Color
	Running rl.Color

	Padding     int32
	LineHeight  int32
	LabelWidth  int32
	BarHeight   int32
	FontSize    int32
	HeadingSize int32
	TitleSize   int32
}

// DefaultTheme returns the light theme used by every panel.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:     rl.Color{R: 245, G: 245, B: 250, A: 235},
		PanelBorder: rl.Color{R: 10, G: 10, B: 110, A: 255},
		Heading:     rl.Color{R: 10, G: 10, B: 110, A: 255},
		Label:       rl.DarkGray,
		Value:       rl.Black,
		BarBg:       rl.Color{R: 220, G: 220, B: 230, A: 255},
		BarFill:     rl.Color{R: 30, G: 30, B: 200, A: 255},
		BarWarn:     rl.Red,
		Title:       rl.DarkGray,
		Muted:       rl.Gray,
		Running:     rl.DarkGreen,
		Padding:     10,
		LineHeight:  16,
		LabelWidth:  90,
		BarHeight:   10,
		FontSize:    12,
		HeadingSize: 14,
		TitleSize:   20,
	}
}
