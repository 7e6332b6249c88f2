package game

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowtext/config"
)

func TestPointerAbsentSentinelFollowsRange(t *testing.T) {
	params := config.NewParams(config.Default().Tunables)
	p := NewPointer(params)

	pos, present := p.Get()
	if present {
		t.Fatal("new pointer should be absent")
	}
	r := params.Snapshot().MouseRange
	if want := (r2.Vec{X: -2 * r, Y: -2 * r}); pos != want {
		t.Errorf("absent position = %v, want %v", pos, want)
	}

	if _, err := params.Set("mouse_range", 300); err != nil {
		t.Fatal(err)
	}
	pos, _ = p.Get()
	if want := (r2.Vec{X: -600, Y: -600}); pos != want {
		t.Errorf("absent position after range change = %v, want %v", pos, want)
	}
}

func TestPointerSetAndLeave(t *testing.T) {
	params := config.NewParams(config.Default().Tunables)
	p := NewPointer(params)

	p.Set(10, 20)
	pos, present := p.Get()
	if !present || pos != (r2.Vec{X: 10, Y: 20}) {
		t.Errorf("Get = %v, %v; want (10,20), true", pos, present)
	}

	p.Leave()
	pos, present = p.Get()
	if present {
		t.Error("pointer should be absent after Leave")
	}
	r := params.Snapshot().MouseRange
	if pos != AbsentPosition(r) {
		t.Errorf("absent position = %v, want %v", pos, AbsentPosition(r))
	}
}
