package boundary

import (
	"fmt"
	"math"
)

// PrecipChanger ramps mean storm depth linearly from its starting value to
// a target over rampDuration, then holds. Models that scale erosion with
// discharge fold the change into their erodibility via
// ErodibilityAdjustmentFactor, f(t) = (p(t)/p0)^m.
type PrecipChanger struct {
	startDepth   float64
	stopDepth    float64
	rampDuration float64
	m            float64

	elapsed float64
}

func NewPrecipChanger(startDepth, stopDepth, rampDuration, m float64) (*PrecipChanger, error) {
	if startDepth <= 0 || stopDepth <= 0 {
		return nil, fmt.Errorf("mean storm depth must be positive, got start=%g stop=%g", startDepth, stopDepth)
	}
	if rampDuration <= 0 {
		return nil, fmt.Errorf("precip ramp duration must be positive, got %g", rampDuration)
	}
	return &PrecipChanger{
		startDepth:   startDepth,
		stopDepth:    stopDepth,
		rampDuration: rampDuration,
		m:            m,
	}, nil
}

func (p *PrecipChanger) Name() string { return "precip_changer" }

func (p *PrecipChanger) RunOneStep(dt float64) error {
	p.elapsed += dt
	return nil
}

// MeanStormDepth reports the current mean storm depth.
func (p *PrecipChanger) MeanStormDepth() float64 {
	frac := p.elapsed / p.rampDuration
	if frac > 1 {
		frac = 1
	}
	return p.startDepth + frac*(p.stopDepth-p.startDepth)
}

// ErodibilityAdjustmentFactor is the multiplier models apply to their
// water erodibility under the current climate.
func (p *PrecipChanger) ErodibilityAdjustmentFactor() float64 {
	return math.Pow(p.MeanStormDepth()/p.startDepth, p.m)
}
