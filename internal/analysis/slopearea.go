package analysis

import (
	"fmt"
	"math"

	"github.com/terralab/landform/internal/grid"
)

// SlopeArea holds the log-log regression of local slope against drainage
// area for channel nodes: S = Ks * A^(-Theta). Theta is the concavity
// index, Ks the steepness index.
type SlopeArea struct {
	Theta   float64
	Ks      float64
	R2      float64
	Samples int
}

// FitSlopeArea regresses slope against drainage area over core nodes whose
// area exceeds minArea (channels, not hillslopes).
func FitSlopeArea(g *grid.Raster, minArea float64) (*SlopeArea, error) {
	area, err := g.Field(grid.FieldDrainageArea)
	if err != nil {
		return nil, err
	}
	slope, err := g.Field(grid.FieldSteepestSlope)
	if err != nil {
		return nil, err
	}

	var xs, ys []float64
	for _, i := range g.CoreNodes() {
		if area[i] <= minArea || slope[i] <= 0 {
			continue
		}
		xs = append(xs, math.Log10(area[i]))
		ys = append(ys, math.Log10(slope[i]))
	}
	if len(xs) < 3 {
		return nil, fmt.Errorf("slope-area fit needs at least 3 channel nodes, got %d", len(xs))
	}

	slopeFit, intercept, r2 := linearFit(xs, ys)
	return &SlopeArea{
		Theta:   -slopeFit,
		Ks:      math.Pow(10, intercept),
		R2:      r2,
		Samples: len(xs),
	}, nil
}

func linearFit(xs, ys []float64) (slope, intercept, r2 float64) {
	n := float64(len(xs))
	var sx, sy, sxx, sxy, syy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
		syy += ys[i] * ys[i]
	}
	denom := n*sxx - sx*sx
	if denom == 0 {
		return 0, sy / n, 0
	}
	slope = (n*sxy - sx*sy) / denom
	intercept = (sy - slope*sx) / n

	ssTot := syy - sy*sy/n
	if ssTot > 0 {
		ssRes := 0.0
		for i := range xs {
			d := ys[i] - (slope*xs[i] + intercept)
			ssRes += d * d
		}
		r2 = 1 - ssRes/ssTot
	}
	return slope, intercept, r2
}

// HypsometricCurve bins the cumulative area-above-elevation relation into
// nbins points of (relative height, relative area). Point k gives the
// fraction of core area standing above relative height k/(nbins-1).
func HypsometricCurve(g *grid.Raster, nbins int) ([]float64, error) {
	if nbins < 2 {
		return nil, fmt.Errorf("hypsometric curve needs at least 2 bins")
	}
	z, err := g.Field(grid.FieldElevation)
	if err != nil {
		return nil, err
	}
	lo, hi, _ := g.MinMax(grid.FieldElevation)
	span := hi - lo
	if span <= 0 {
		return nil, fmt.Errorf("flat surface has no hypsometry")
	}

	core := g.CoreNodes()
	curve := make([]float64, nbins)
	for k := 0; k < nbins; k++ {
		level := lo + span*float64(k)/float64(nbins-1)
		above := 0
		for _, i := range core {
			if z[i] >= level {
				above++
			}
		}
		curve[k] = float64(above) / float64(len(core))
	}
	return curve, nil
}
