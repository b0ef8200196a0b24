package model

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/terralab/landform/internal/flow"
	"github.com/terralab/landform/internal/grid"
	"github.com/terralab/landform/internal/terra"
)

// Model is one erosion model program: the shared ErosionModel machinery
// plus a model-specific RunOneStep.
type Model interface {
	Name() string
	RunOneStep(dt float64) error
	Base() *ErosionModel
}

// ErosionModel carries the pieces every model program shares: the clock,
// the grid, flow routing, boundary handlers, metrics, and output writers.
// Derived models embed it and advance their own processes in RunOneStep.
type ErosionModel struct {
	Clock  *terra.Clock
	Grid   *grid.Raster
	Router *flow.Router

	// Depressions is nil unless the model was built with a depression
	// finder; eroders then skip flooded nodes.
	Depressions  *flow.DepressionFinder
	ErodeFlooded bool

	handlers map[string]terra.BoundaryHandler
	writers  []terra.OutputWriter
	metrics  []terra.Metric

	log *logrus.Entry

	time    float64
	step    int
	written []string
}

func NewErosionModel(clock *terra.Clock, g *grid.Raster, runoffRate float64, log *logrus.Logger) (*ErosionModel, error) {
	if !g.HasField(grid.FieldElevation) {
		return nil, fmt.Errorf("%w: %s", terra.ErrMissingField, grid.FieldElevation)
	}
	router, err := flow.NewRouter(g, runoffRate)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}

	// remember the starting surface; threshold models measure cumulative
	// incision against it
	z, _ := g.Field(grid.FieldElevation)
	z0 := g.AddZeros(grid.FieldInitElevation)
	copy(z0, z)

	return &ErosionModel{
		Clock:    clock,
		Grid:     g,
		Router:   router,
		handlers: make(map[string]terra.BoundaryHandler),
		log:      log.WithField("component", "model"),
		time:     clock.Start,
	}, nil
}

// EnableDepressionFinder attaches a depression finder so flooded nodes are
// flagged each step.
func (em *ErosionModel) EnableDepressionFinder() {
	em.Depressions = flow.NewDepressionFinder(em.Grid)
}

// VerifyFields fails with ErrMissingField naming the first absent field.
func (em *ErosionModel) VerifyFields(names ...string) error {
	for _, name := range names {
		if !em.Grid.HasField(name) {
			return fmt.Errorf("%w: %s", terra.ErrMissingField, name)
		}
	}
	return nil
}

func (em *ErosionModel) AddBoundaryHandler(h terra.BoundaryHandler) {
	em.handlers[h.Name()] = h
}

// BoundaryHandler looks up an attached handler by name.
func (em *ErosionModel) BoundaryHandler(name string) (terra.BoundaryHandler, bool) {
	h, ok := em.handlers[name]
	return h, ok
}

func (em *ErosionModel) AddOutputWriter(w terra.OutputWriter) {
	em.writers = append(em.writers, w)
}

func (em *ErosionModel) AddMetric(m terra.Metric) {
	em.metrics = append(em.metrics, m)
}

// Time reports current model time in years.
func (em *ErosionModel) Time() float64 { return em.time }

// StepCount reports the number of completed steps.
func (em *ErosionModel) StepCount() int { return em.step }

func (em *ErosionModel) Base() *ErosionModel { return em }

// CreateAndMoveWater routes flow, flags depressions, and accumulates
// drainage area and discharge. Every RunOneStep starts here.
func (em *ErosionModel) CreateAndMoveWater(dt float64) error {
	if err := em.Router.RunOneStep(dt); err != nil {
		return err
	}
	if em.Depressions != nil {
		return em.Depressions.RunOneStep(dt)
	}
	return nil
}

// ErodibilityAdjustment multiplies the adjustment factors of every
// attached climate handler. 1 when none are attached.
func (em *ErosionModel) ErodibilityAdjustment() float64 {
	f := 1.0
	for _, h := range em.handlers {
		if adj, ok := h.(terra.ErodibilityAdjuster); ok {
			f *= adj.ErodibilityAdjustmentFactor()
		}
	}
	return f
}

// FinalizeStep runs every boundary handler for dt, observes metrics, and
// advances model time. Every RunOneStep ends here.
func (em *ErosionModel) FinalizeStep(dt float64) error {
	for _, h := range em.handlers {
		if err := h.RunOneStep(dt); err != nil {
			return fmt.Errorf("boundary handler %s: %w", h.Name(), err)
		}
	}
	em.time += dt
	em.step++
	for _, m := range em.metrics {
		m.Observe(em.Grid, em.time)
	}
	return nil
}

// WriteOutput fires every output writer for the current model time and
// records the files they create.
func (em *ErosionModel) WriteOutput() error {
	for _, w := range em.writers {
		paths, err := w.WriteOutput(em.time, em.Grid)
		if err != nil {
			return fmt.Errorf("output writer %s: %w", w.Name(), err)
		}
		em.written = append(em.written, paths...)
	}
	return nil
}

// OutputFiles lists every file written so far.
func (em *ErosionModel) OutputFiles() []string {
	out := make([]string, len(em.written))
	copy(out, em.written)
	return out
}

// MetricValues snapshots the current value of each attached metric.
func (em *ErosionModel) MetricValues() map[string]float64 {
	vals := make(map[string]float64, len(em.metrics))
	for _, m := range em.metrics {
		vals[m.Name()] = m.Value()
	}
	return vals
}

func (em *ErosionModel) checkStable() error {
	if err := em.Grid.CheckFinite(grid.FieldElevation); err != nil {
		return fmt.Errorf("%w: %v", terra.ErrUnstable, err)
	}
	return nil
}

// Result summarizes a completed (or interrupted) run.
type Result struct {
	Steps     int
	FinalTime float64
	Times     []float64
	Series    map[string][]float64
	Metrics   map[string]float64
}

// Run advances m from the clock start to the clock stop, writing scheduled
// output along the way. Cancellation via ctx returns the partial result
// with the context error.
func Run(ctx context.Context, m Model, outputInterval float64) (*Result, error) {
	em := m.Base()
	res := &Result{Series: make(map[string][]float64)}

	nextOutput := em.Clock.Start
	logEvery := em.Clock.NSteps() / 10
	if logEvery < 1 {
		logEvery = 1
	}

	for em.time < em.Clock.Stop {
		select {
		case <-ctx.Done():
			res.Steps = em.step
			res.FinalTime = em.time
			res.Metrics = em.MetricValues()
			return res, ctx.Err()
		default:
		}

		dt := em.Clock.Step
		if em.time+dt > em.Clock.Stop {
			dt = em.Clock.Stop - em.time
		}

		if outputInterval > 0 && em.time >= nextOutput {
			if err := em.WriteOutput(); err != nil {
				return res, err
			}
			nextOutput += outputInterval
		}

		if err := m.RunOneStep(dt); err != nil {
			return res, &terra.StepError{Step: em.step, Time: em.time, Wrapped: err}
		}
		if err := em.checkStable(); err != nil {
			return res, &terra.StepError{Step: em.step, Time: em.time, Wrapped: err}
		}

		res.Times = append(res.Times, em.time)
		for name, v := range em.MetricValues() {
			res.Series[name] = append(res.Series[name], v)
		}

		if em.step%logEvery == 0 {
			lo, hi, _ := em.Grid.MinMax(grid.FieldElevation)
			em.log.WithFields(logrus.Fields{
				"model":  m.Name(),
				"step":   em.step,
				"time":   em.time,
				"relief": hi - lo,
			}).Info("advancing")
		}
	}

	// closing output at the final surface
	if outputInterval > 0 {
		if err := em.WriteOutput(); err != nil {
			return res, err
		}
	}

	res.Steps = em.step
	res.FinalTime = em.time
	res.Metrics = em.MetricValues()
	return res, nil
}
