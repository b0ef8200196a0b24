package process

import (
	"fmt"
	"math"

	"github.com/terralab/landform/internal/grid"
)

// ExponentialWeatherer produces soil from bedrock at a rate that decays
// with soil depth: P = P0 * exp(-H/Hs). It only writes the
// soil_production__rate field; the depth-dependent diffuser consumes it.
type ExponentialWeatherer struct {
	g *grid.Raster

	MaxRate    float64 // P0
	DecayDepth float64 // Hs
}

func NewExponentialWeatherer(g *grid.Raster, maxRate, decayDepth float64) (*ExponentialWeatherer, error) {
	if maxRate < 0 {
		return nil, fmt.Errorf("soil production rate must be non-negative, got %g", maxRate)
	}
	if decayDepth <= 0 {
		return nil, fmt.Errorf("soil production decay depth must be positive, got %g", decayDepth)
	}
	g.AddZeros(grid.FieldSoilProduction)
	return &ExponentialWeatherer{g: g, MaxRate: maxRate, DecayDepth: decayDepth}, nil
}

func (w *ExponentialWeatherer) Name() string { return "exponential_weatherer" }

// CalcSoilProdRate refreshes the production-rate field from current depths.
func (w *ExponentialWeatherer) CalcSoilProdRate() error {
	soil, err := w.g.Field(grid.FieldSoilDepth)
	if err != nil {
		return err
	}
	rate, _ := w.g.Field(grid.FieldSoilProduction)
	for _, i := range w.g.CoreNodes() {
		rate[i] = w.MaxRate * math.Exp(-soil[i]/w.DecayDepth)
	}
	return nil
}

func (w *ExponentialWeatherer) RunOneStep(dt float64) error {
	return w.CalcSoilProdRate()
}
