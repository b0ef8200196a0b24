package terra

import (
	"fmt"

	"github.com/terralab/landform/internal/grid"
)

// Clock controls the time dimension of a model run. All values are in
// model years.
type Clock struct {
	Start float64
	Stop  float64
	Step  float64
}

func NewClock(start, stop, step float64) (*Clock, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: clock step %g", ErrParameterBounds, step)
	}
	if stop < start {
		return nil, fmt.Errorf("%w: clock stop %g before start %g", ErrParameterBounds, stop, start)
	}
	return &Clock{Start: start, Stop: stop, Step: step}, nil
}

// NSteps reports how many full steps fit between Start and Stop.
func (c *Clock) NSteps() int {
	return int((c.Stop - c.Start) / c.Step)
}

// Process mutates grid fields over one increment of model time.
type Process interface {
	Name() string
	RunOneStep(dt float64) error
}

// BoundaryHandler adjusts boundary conditions once per model step, after
// the erosion and transport processes have run.
type BoundaryHandler interface {
	Name() string
	RunOneStep(dt float64) error
}

// ErodibilityAdjuster is implemented by boundary handlers whose changing
// climate modulates the water erodibility coefficient.
type ErodibilityAdjuster interface {
	ErodibilityAdjustmentFactor() float64
}

// OutputWriter emits an artifact for the current model time and reports
// the paths it created so the model can clean them up later.
type OutputWriter interface {
	Name() string
	WriteOutput(t float64, g *grid.Raster) ([]string, error)
}

// Metric observes the grid once per step and reduces it to a scalar.
type Metric interface {
	Name() string
	Observe(g *grid.Raster, t float64)
	Value() float64
	Reset()
}
