package game

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowtext/config"
)

// Pointer holds the pointer position in canvas space. It is written by input
// handlers and read once per tick by the integrator.
type Pointer struct {
	mu      sync.Mutex
	pos     r2.Vec
	present bool
	params  *config.Params
}

// NewPointer creates an absent pointer. params supplies the live mouse range
// used for the absent sentinel.
func NewPointer(params *config.Params) *Pointer {
	return &Pointer{params: params}
}

// Set moves the pointer onto the canvas.
func (p *Pointer) Set(x, y float64) {
	p.mu.Lock()
	p.pos = r2.Vec{X: x, Y: y}
	p.present = true
	p.mu.Unlock()
}

// Leave marks the pointer as off the canvas.
func (p *Pointer) Leave() {
	p.mu.Lock()
	p.present = false
	p.mu.Unlock()
}

// Get returns the position to integrate against and whether the pointer is
// present. An absent pointer sits at (-2*range, -2*range) for the current range.
func (p *Pointer) Get() (r2.Vec, bool) {
	p.mu.Lock()
	pos, present := p.pos, p.present
	p.mu.Unlock()
	if present {
		return pos, true
	}
	return AbsentPosition(p.params.Snapshot().MouseRange), false
}

// AbsentPosition is the sentinel position for a pointer that is off the canvas.
func AbsentPosition(mouseRange float64) r2.Vec {
	return r2.Vec{X: -2 * mouseRange, Y: -2 * mouseRange}
}
