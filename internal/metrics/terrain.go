package metrics

import (
	"math"

	"github.com/terralab/landform/internal/grid"
	"github.com/terralab/landform/internal/terra"
)

// MeanElevation averages the surface over core nodes.
type MeanElevation struct {
	value float64
}

func NewMeanElevation() *MeanElevation { return &MeanElevation{} }

func (m *MeanElevation) Name() string { return "mean_elevation" }

func (m *MeanElevation) Observe(g *grid.Raster, t float64) {
	z, err := g.Field(grid.FieldElevation)
	if err != nil {
		return
	}
	sum, n := 0.0, 0
	for i, v := range z {
		if g.IsCore(i) {
			sum += v
			n++
		}
	}
	if n > 0 {
		m.value = sum / float64(n)
	}
}

func (m *MeanElevation) Value() float64 { return m.value }
func (m *MeanElevation) Reset()         { m.value = 0 }

// Relief is the elevation span of the core nodes.
type Relief struct {
	value float64
}

func NewRelief() *Relief { return &Relief{} }

func (m *Relief) Name() string { return "relief" }

func (m *Relief) Observe(g *grid.Raster, t float64) {
	lo, hi, err := g.MinMax(grid.FieldElevation)
	if err != nil || math.IsInf(lo, 1) {
		return
	}
	m.value = hi - lo
}

func (m *Relief) Value() float64 { return m.value }
func (m *Relief) Reset()         { m.value = 0 }

// HypsometricIntegral is (mean - min) / (max - min) over core nodes, a
// dimensionless stage indicator: ~0.5 for youthful dissected terrain,
// lower for old, planed-down surfaces.
type HypsometricIntegral struct {
	value float64
}

func NewHypsometricIntegral() *HypsometricIntegral { return &HypsometricIntegral{} }

func (m *HypsometricIntegral) Name() string { return "hypsometric_integral" }

func (m *HypsometricIntegral) Observe(g *grid.Raster, t float64) {
	z, err := g.Field(grid.FieldElevation)
	if err != nil {
		return
	}
	lo, hi, _ := g.MinMax(grid.FieldElevation)
	span := hi - lo
	if span <= 0 {
		return
	}
	sum, n := 0.0, 0
	for i, v := range z {
		if g.IsCore(i) {
			sum += v
			n++
		}
	}
	if n > 0 {
		m.value = (sum/float64(n) - lo) / span
	}
}

func (m *HypsometricIntegral) Value() float64 { return m.value }
func (m *HypsometricIntegral) Reset()         { m.value = 0 }

// DenudationDepth is the mean lowering of core nodes since the initial
// surface. Positive for net erosion.
type DenudationDepth struct {
	value float64
}

func NewDenudationDepth() *DenudationDepth { return &DenudationDepth{} }

func (m *DenudationDepth) Name() string { return "denudation_depth" }

func (m *DenudationDepth) Observe(g *grid.Raster, t float64) {
	z, err := g.Field(grid.FieldElevation)
	if err != nil {
		return
	}
	z0, err := g.Field(grid.FieldInitElevation)
	if err != nil {
		return
	}
	sum, n := 0.0, 0
	for i := range z {
		if g.IsCore(i) {
			sum += z0[i] - z[i]
			n++
		}
	}
	if n > 0 {
		m.value = sum / float64(n)
	}
}

func (m *DenudationDepth) Value() float64 { return m.value }
func (m *DenudationDepth) Reset()         { m.value = 0 }

// SoilVolume totals the soil column over core nodes, in cell-area units.
// Zero when the model carries no soil layer.
type SoilVolume struct {
	value float64
}

func NewSoilVolume() *SoilVolume { return &SoilVolume{} }

func (m *SoilVolume) Name() string { return "soil_volume" }

func (m *SoilVolume) Observe(g *grid.Raster, t float64) {
	soil, err := g.Field(grid.FieldSoilDepth)
	if err != nil {
		return
	}
	sum := 0.0
	for i, v := range soil {
		if g.IsCore(i) {
			sum += v
		}
	}
	m.value = sum * g.CellArea()
}

func (m *SoilVolume) Value() float64 { return m.value }
func (m *SoilVolume) Reset()         { m.value = 0 }

// Defaults returns the metric set attached to every model run.
func Defaults(hasSoil bool) []terra.Metric {
	out := []terra.Metric{
		NewMeanElevation(),
		NewRelief(),
		NewHypsometricIntegral(),
		NewDenudationDepth(),
	}
	if hasSoil {
		out = append(out, NewSoilVolume())
	}
	return out
}
