package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/flowtext/camera"
	"github.com/pthm-cable/flowtext/components"
	"github.com/pthm-cable/flowtext/game"
	"github.com/pthm-cable/flowtext/systems"
)

// densityRamp maps the number of particles in a cell to a glyph.
var densityRamp = []rune{' ', '.', ':', 'o', 'O', '@'}

var (
	particleStyle = tcell.StyleDefault.Foreground(tcell.NewRGBColor(30, 30, 200))
	pointerStyle  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	statusStyle   = tcell.StyleDefault.Reverse(true)
	editStyle     = tcell.StyleDefault.Foreground(tcell.ColorYellow).Reverse(true)
)

// view draws the field into a terminal and turns terminal input into
// pointer and text commands. The bottom row is a status line.
type view struct {
	screen tcell.Screen
	g      *game.Game
	vp     *camera.Viewport

	pool   []components.Particle
	counts []int

	// Last cell forwarded as the pointer.
	cellX, cellY int
	present      bool

	editing bool
	input   []rune
}

func newView(screen tcell.Screen, g *game.Game) *view {
	w, h := g.CanvasSize()
	cols, rows := screen.Size()
	return &view{
		screen: screen,
		g:      g,
		vp:     camera.NewStretched(float32(cols), float32(max(rows-1, 1)), float32(w), float32(h)),
	}
}

// handleEvent applies one terminal event. It returns false when the user quits.
func (v *view) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		cols, rows := ev.Size()
		v.vp.Resize(float32(cols), float32(max(rows-1, 1)))
		v.screen.Sync()
	case *tcell.EventFocus:
		if !ev.Focused {
			v.leave()
		}
	case *tcell.EventMouse:
		v.handleMouse(ev)
	case *tcell.EventKey:
		if v.editing {
			v.handleEditKey(ev)
			return true
		}
		return v.handleKey(ev)
	}
	return true
}

func (v *view) handleMouse(ev *tcell.EventMouse) {
	col, row := ev.Position()
	// Cell centres keep the mapping symmetric across the canvas.
	cx, cy, inside := v.vp.ScreenToCanvas(float32(col)+0.5, float32(row)+0.5)
	if !inside {
		v.leave()
		return
	}
	if v.present && col == v.cellX && row == v.cellY {
		return
	}
	v.cellX, v.cellY, v.present = col, row, true
	v.g.MovePointer(float64(cx), float64(cy))
}

func (v *view) leave() {
	if !v.present {
		return
	}
	v.present = false
	v.g.LeavePointer()
}

func (v *view) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'e':
			v.g.Explode()
		case 'i', '/':
			v.editing = true
			v.input = []rune(v.g.Text())
		}
	}
	return true
}

func (v *view) handleEditKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		v.editing = false
	case tcell.KeyEnter:
		v.editing = false
		v.g.SetText(string(v.input))
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(v.input) > 0 {
			v.input = v.input[:len(v.input)-1]
		}
	case tcell.KeyCtrlU:
		v.input = v.input[:0]
	case tcell.KeyRune:
		v.input = append(v.input, ev.Rune())
	}
}

// draw renders the current pool and the status line, then shows the screen.
func (v *view) draw() {
	v.screen.Clear()
	cols, rows := v.screen.Size()
	fieldRows := max(rows-1, 0)

	v.pool = v.g.CopyPool(v.pool)
	n := cols * fieldRows
	if cap(v.counts) < n {
		v.counts = make([]int, n)
	}
	v.counts = v.counts[:n]
	clear(v.counts)

	for i := range v.pool {
		p := &v.pool[i]
		sx, sy := v.vp.CanvasToScreen(float32(p.Position.X), float32(p.Position.Y))
		col, row := int(sx), int(sy)
		if sx < 0 || sy < 0 || col >= cols || row >= fieldRows {
			continue
		}
		v.counts[row*cols+col]++
	}
	for i, c := range v.counts {
		if c == 0 {
			continue
		}
		v.screen.SetContent(i%cols, i/cols, densityRamp[min(c, len(densityRamp)-1)], nil, particleStyle)
	}

	if pos, ok := v.g.Pointer(); ok {
		sx, sy := v.vp.CanvasToScreen(float32(pos.X), float32(pos.Y))
		if sx >= 0 && sy >= 0 && int(sx) < cols && int(sy) < fieldRows {
			v.screen.SetContent(int(sx), int(sy), '+', nil, pointerStyle)
		}
	}

	if rows > 0 {
		v.drawStatus(cols, rows-1)
	}
	v.screen.Show()
}

func (v *view) drawStatus(cols, row int) {
	var line string
	style := statusStyle
	if v.editing {
		line = "text> " + string(v.input) + "_"
		style = editStyle
	} else {
		state := "idle"
		if v.g.Scheduler().IsRunning() {
			state = "running"
		}
		line = fmt.Sprintf(" %q  particles %d  tick %d  %s  [e] explode [i] edit [q] quit",
			v.g.Text(), v.g.Len(), v.g.Tick(), state)
	}
	col := 0
	for _, r := range line {
		if col >= cols {
			break
		}
		v.screen.SetContent(col, row, r, nil, style)
		col++
	}
	for ; col < cols; col++ {
		v.screen.SetContent(col, row, ' ', nil, style)
	}
}

// run drives the field and the terminal until ctx is done or the user quits.
// Events and ticks are drawn from one goroutine; stepping happens on another.
func (v *view) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticks := make(chan struct{}, 1)
	runDone := make(chan struct{})
	var runErr error
	go func() {
		defer close(runDone)
		runErr = v.g.Run(ctx, func(systems.StepStats) {
			select {
			case ticks <- struct{}{}:
			default:
			}
		})
	}()
	// The caller unloads the game once run returns, so the stepping
	// goroutine must be gone by then.
	defer func() {
		cancel()
		<-runDone
	}()

	v.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-runDone:
			if ctx.Err() != nil {
				return nil
			}
			return runErr
		case ev := <-events:
			if !v.handleEvent(ev) {
				return nil
			}
			v.draw()
		case <-ticks:
			v.draw()
		}
	}
}
