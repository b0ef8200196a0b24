package process

import (
	"fmt"
	"math"

	"github.com/terralab/landform/internal/grid"
)

// DepthDependentDiffuser moves soil with a flux that saturates as the soil
// column thickens:
//
//	q = -D * (1 - exp(-H/H*)) * grad(eta)
//
// Thin soils transport little, thick soils approach linear diffusion with
// diffusivity D. Production from the weatherer converts bedrock to soil
// before transport; soil depth never drops below zero and the topographic
// surface is rebuilt as bedrock + soil every step.
type DepthDependentDiffuser struct {
	g *grid.Raster

	D          float64 // regolith transport parameter
	DecayDepth float64 // H*
}

func NewDepthDependentDiffuser(g *grid.Raster, diffusivity, decayDepth float64) (*DepthDependentDiffuser, error) {
	if diffusivity < 0 {
		return nil, fmt.Errorf("diffusivity must be non-negative, got %g", diffusivity)
	}
	if decayDepth <= 0 {
		return nil, fmt.Errorf("soil transport decay depth must be positive, got %g", decayDepth)
	}
	return &DepthDependentDiffuser{g: g, D: diffusivity, DecayDepth: decayDepth}, nil
}

func (dd *DepthDependentDiffuser) Name() string { return "depth_dependent_diffuser" }

func (dd *DepthDependentDiffuser) RunOneStep(dt float64) error {
	g := dd.g
	z, err := g.Field(grid.FieldElevation)
	if err != nil {
		return err
	}
	soil, err := g.Field(grid.FieldSoilDepth)
	if err != nil {
		return err
	}
	rock, err := g.Field(grid.FieldBedrock)
	if err != nil {
		return err
	}
	prod, err := g.Field(grid.FieldSoilProduction)
	if err != nil {
		return err
	}

	// weathering first: bedrock down, soil up
	for _, i := range g.CoreNodes() {
		soil[i] += prod[i] * dt
		rock[i] -= prod[i] * dt
	}

	if dd.D > 0 {
		dx2 := g.Spacing * g.Spacing
		stable := 0.9 * dx2 / (4 * dd.D)
		remaining := dt
		dH := make([]float64, g.NumNodes())
		for remaining > 0 {
			sub := remaining
			if sub > stable {
				sub = stable
			}
			dd.transport(z, soil, dH, sub)
			remaining -= sub
		}
	}

	for _, i := range g.CoreNodes() {
		if soil[i] < 0 {
			// transport overdraw comes out of bedrock
			rock[i] += soil[i]
			soil[i] = 0
		}
		z[i] = rock[i] + soil[i]
	}
	return nil
}

// transport applies one stable substep of soil flux divergence to soil and
// the topographic surface.
func (dd *DepthDependentDiffuser) transport(z, soil, dH []float64, dt float64) {
	g := dd.g
	dx2 := g.Spacing * g.Spacing

	for _, i := range g.CoreNodes() {
		div := 0.0
		for _, nb := range g.OrthoNeighbors(i) {
			if nb < 0 || g.Status[nb] == grid.ClosedBoundary {
				continue
			}
			// flux on the link, positive toward node i; the donor's soil
			// depth limits the transport efficiency
			donor := i
			if z[nb] > z[i] {
				donor = nb
			}
			eff := 1 - math.Exp(-soil[donor]/dd.DecayDepth)
			div += dd.D * eff * (z[nb] - z[i]) / dx2
		}
		dH[i] = div * dt
	}
	for _, i := range g.CoreNodes() {
		soil[i] += dH[i]
		z[i] += dH[i]
	}
}
