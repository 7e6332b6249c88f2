package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flowtext/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Text       string
	Particles  int
	Controlled int
	Tick       int32
	FPS        int32
	Running    bool
	TextSize   float64
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD in the top-left corner.
func (h *HUD) Draw(data HUDData) {
	th := h.renderer.Theme
	x, y := th.Padding, th.Padding
	rl.DrawText(fmt.Sprintf("%q", data.Text), x, y, th.TitleSize, th.Title)
	y += th.TitleSize + 5

	rl.DrawText(
		fmt.Sprintf("Particles: %d | Controlled: %d | Size: %.0f", data.Particles, data.Controlled, data.TextSize),
		x, y, th.FontSize+4, th.Muted,
	)
	y += th.LineHeight + 4
	rl.DrawText(fmt.Sprintf("Tick: %d | FPS: %d", data.Tick, data.FPS), x, y, th.FontSize+4, th.Muted)
	y += th.LineHeight + 4

	status, color := "Idle", th.Muted
	if data.Running {
		status, color = "Running", th.Running
	}
	rl.DrawText(status, x, y, th.FontSize+4, color)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	th := h.renderer.Theme
	rl.DrawText(controls, th.Padding, screenHeight-th.FontSize-th.Padding-3, th.FontSize+2, th.Muted)
}

// PerfPanel renders per-phase step timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	pad := r.Theme.Padding
	height := r.Theme.LineHeight*int32(len(telemetry.Phases)+4) + pad*2
	r.DrawPanel(p.x, p.y, p.width, height)

	x, y := p.x+pad, p.y+pad
	y = r.DrawSectionHeader(x, y, "Step Performance")
	y = r.DrawLabelValue(x, y, "Tick", stats.AvgTickDuration.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "Ticks/s", fmt.Sprintf("%.0f", stats.TicksPerSecond))
	y = r.DrawLabelValue(x, y, "Active", fmt.Sprintf("%.0f%%", stats.ActiveFramePct))
	for _, phase := range telemetry.Phases {
		y = r.DrawBar(x, y, phase.String(), float32(stats.Pct(phase)/100), 0.5, p.width-pad*2)
	}
}
