package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flowtext/config"
)

// TunableChange is one slider edit made during a frame.
type TunableChange struct {
	Name  string
	Value float64
}

// TunablesPanel renders one slider per live parameter.
type TunablesPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewTunablesPanel creates a hidden panel.
func NewTunablesPanel(x, y, width int32) *TunablesPanel {
	return &TunablesPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *TunablesPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Toggle switches panel visibility.
func (p *TunablesPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// IsVisible returns whether the panel is shown.
func (p *TunablesPanel) IsVisible() bool {
	return p.visible
}

// Bounds returns the panel rectangle, for keeping pointer input off the field.
func (p *TunablesPanel) Bounds() rl.Rectangle {
	return rl.Rectangle{X: float32(p.x), Y: float32(p.y), Width: float32(p.width), Height: float32(p.height())}
}

func (p *TunablesPanel) height() int32 {
	return int32(len(config.TunableSpecs))*(p.renderer.Theme.LineHeight+20) + p.renderer.Theme.Padding*3 + p.renderer.Theme.LineHeight
}

// Draw renders the sliders for t and returns the edits made this frame.
func (p *TunablesPanel) Draw(t config.Tunables) []TunableChange {
	if !p.visible {
		return nil
	}

	r := p.renderer
	pad := r.Theme.Padding
	r.DrawPanel(p.x, p.y, p.width, p.height())

	x := float32(p.x + pad)
	y := r.DrawSectionHeader(p.x+pad, p.y+pad, "Tunables") + 4
	sliderW := float32(p.width-pad*2) - 60

	var changes []TunableChange
	for _, spec := range config.TunableSpecs {
		cur := spec.Get(t)
		rl.DrawText(spec.Label, int32(x), y, r.Theme.FontSize, r.Theme.Label)
		y += r.Theme.LineHeight

		bounds := rl.Rectangle{X: x, Y: float32(y), Width: sliderW, Height: 14}
		v := gui.SliderBar(bounds, "", "", float32(cur), float32(spec.SliderMin), float32(spec.SliderMax))
		rl.DrawText(fmt.Sprintf("%.3g", cur), int32(x+sliderW+6), y, r.Theme.FontSize, r.Theme.Value)
		y += 20

		// raygui clamps to the slider range, so only take values the user dragged to.
		dragged := rl.IsMouseButtonDown(rl.MouseButtonLeft) && rl.CheckCollisionPointRec(rl.GetMousePosition(), bounds)
		if dragged && v != float32(cur) && spec.Check(float64(v)) == nil {
			changes = append(changes, TunableChange{Name: spec.Name, Value: float64(v)})
		}
	}
	return changes
}

// TextEntry is the text box with Set and Explode buttons.
type TextEntry struct {
	Text    string
	editing bool
}

// TextEntryResult reports what the user did with the entry this frame.
type TextEntryResult struct {
	Submit  bool
	Explode bool
}

// Draw renders the entry at (x, y) and returns the user's actions.
func (e *TextEntry) Draw(x, y float32) TextEntryResult {
	var res TextEntryResult
	if gui.TextBox(rl.Rectangle{X: x, Y: y, Width: 220, Height: 26}, &e.Text, 64, e.editing) {
		if e.editing && rl.IsKeyPressed(rl.KeyEnter) {
			res.Submit = true
		}
		e.editing = !e.editing
	}
	if gui.Button(rl.Rectangle{X: x + 228, Y: y, Width: 60, Height: 26}, "Set") {
		res.Submit = true
	}
	if gui.Button(rl.Rectangle{X: x + 296, Y: y, Width: 80, Height: 26}, "Explode") {
		res.Explode = true
	}
	return res
}

// Editing reports whether the text box has keyboard focus.
func (e *TextEntry) Editing() bool {
	return e.editing
}
