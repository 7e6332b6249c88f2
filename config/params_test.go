package config

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestParamsSetValidates(t *testing.T) {
	p := NewParams(Default().Tunables)

	tests := []struct {
		name    string
		key     string
		value   float64
		wantErr bool
	}{
		{"valid force", "mouse_force", 60, false},
		{"nan", "mouse_force", math.NaN(), true},
		{"inf", "anchor_smooth_mult", math.Inf(1), true},
		{"zero mass", "mass", 0, true},
		{"zero dampen", "mouse_dampen", 0, true},
		{"negative accel", "max_switch_accel", -1, true},
		{"zero accel", "max_switch_accel", 0, false},
		{"unknown", "gravity", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := p.Snapshot()
			_, err := p.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%s, %v) err = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidTunable) {
					t.Errorf("error %v does not wrap ErrInvalidTunable", err)
				}
				if p.Snapshot() != before {
					t.Errorf("rejected update changed tunables")
				}
			}
		})
	}
}

func TestParamsSetStringRejectsGarbage(t *testing.T) {
	p := NewParams(Default().Tunables)
	for _, raw := range []string{"abc", "", "NaN", "1e400x"} {
		if _, err := p.SetString("mouse_range", raw); err == nil {
			t.Errorf("SetString(%q) accepted", raw)
		}
	}
	if got := p.Snapshot().MouseRange; got != 120 {
		t.Errorf("mouse_range = %v after rejected updates, want 120", got)
	}

	if _, err := p.SetString("mouse_range", " 90 "); err != nil {
		t.Fatalf("SetString valid: %v", err)
	}
	if got := p.Snapshot().MouseRange; got != 90 {
		t.Errorf("mouse_range = %v, want 90", got)
	}
}

func TestParamsResampleFlag(t *testing.T) {
	p := NewParams(Default().Tunables)

	resample, err := p.Set("density", 30)
	if err != nil || !resample {
		t.Errorf("density change: resample=%v err=%v, want true nil", resample, err)
	}
	resample, err = p.Set("mouse_force", 10)
	if err != nil || resample {
		t.Errorf("mouse_force change: resample=%v err=%v, want false nil", resample, err)
	}
	gen := p.Generation()
	resample, _ = p.Set("mouse_force", 10)
	if resample || p.Generation() != gen {
		t.Errorf("no-op update should not bump generation or request resample")
	}
}

func TestParamsApplyOverrides(t *testing.T) {
	p := NewParams(Default().Tunables)
	resample, err := p.ApplyOverrides([]string{"radius=9", "mouse_force=12", "bogus", "mass=x"})
	if err == nil {
		t.Error("expected error for malformed overrides")
	}
	if !resample {
		t.Error("radius override should request resample")
	}
	snap := p.Snapshot()
	if snap.Radius != 9 || snap.MouseForce != 12 || snap.Mass != 5 {
		t.Errorf("unexpected tunables after overrides: %+v", snap)
	}
}

func TestParamsReplace(t *testing.T) {
	p := NewParams(Default().Tunables)
	next := p.Snapshot()
	next.Mass = -1
	if _, err := p.Replace(next); err == nil {
		t.Fatal("Replace accepted invalid mass")
	}
	next.Mass = 5
	next.Density = 20
	resample, err := p.Replace(next)
	if err != nil || !resample {
		t.Errorf("Replace: resample=%v err=%v", resample, err)
	}
}

func TestParamsConcurrentAccess(t *testing.T) {
	p := NewParams(Default().Tunables)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				p.Set("mouse_force", float64(i*1000+j))
				_ = p.Snapshot()
			}
		}(i)
	}
	wg.Wait()
	if err := p.Snapshot().Validate(); err != nil {
		t.Errorf("tunables invalid after concurrent writes: %v", err)
	}
}
