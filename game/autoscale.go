package game

import "github.com/pthm-cable/flowtext/config"

// autoscaler turns the rendered text size into a multiplier for density and radius.
type autoscaler struct {
	mode      string
	reference float64 // text size the tunables are calibrated for

	frozen bool
	factor float64
}

func newAutoscaler(mode string, reference float64) *autoscaler {
	return &autoscaler{mode: mode, reference: reference, factor: 1}
}

// Factor returns the multiplier to apply for text rendered at size rendered.
func (a *autoscaler) Factor(rendered float64) float64 {
	switch a.mode {
	case config.AutoscaleOff:
		return 1
	case config.AutoscaleFreeze:
		if a.frozen {
			return a.factor
		}
	}

	if rendered <= 0 || a.reference <= 0 {
		return a.factor
	}
	a.factor = rendered / a.reference
	if a.mode == config.AutoscaleFreeze {
		a.frozen = true
	}
	return a.factor
}
