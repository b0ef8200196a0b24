package model

import (
	"math"

	"github.com/terralab/landform/internal/config"
	"github.com/terralab/landform/internal/grid"
	"github.com/terralab/landform/internal/process"
)

// BasicSa tracks an explicit soil layer over bedrock: exponential
// weathering produces soil, depth-dependent diffusion moves it, and stream
// power cuts the composite surface. Bedrock can never poke above the
// topography; water incision into bedrock simply drags it down.
type BasicSa struct {
	*ErosionModel

	eroder    *process.StreamPower
	weatherer *process.ExponentialWeatherer
	diffuser  *process.DepthDependentDiffuser
}

func NewBasicSa(base *ErosionModel, p config.ParamsConfig) (*BasicSa, error) {
	if err := base.VerifyFields(grid.FieldElevation, grid.FieldSoilDepth); err != nil {
		return nil, err
	}
	initBedrock(base.Grid)

	eroder, err := process.NewStreamPower(base.Grid, base.Router, p.WaterErodibility, p.MSp, p.NSp)
	if err != nil {
		return nil, err
	}
	eroder.ErodeFlooded = p.ErodeFlooded

	weatherer, err := process.NewExponentialWeatherer(base.Grid, p.SoilProductionMaxRate, p.SoilProductionDecayDepth)
	if err != nil {
		return nil, err
	}

	diffuser, err := process.NewDepthDependentDiffuser(base.Grid, p.RegolithTransport, p.SoilTransportDecayDepth)
	if err != nil {
		return nil, err
	}

	return &BasicSa{
		ErosionModel: base,
		eroder:       eroder,
		weatherer:    weatherer,
		diffuser:     diffuser,
	}, nil
}

// initBedrock derives the bedrock surface from topography minus soil,
// unless the grid already carries one.
func initBedrock(g *grid.Raster) {
	if g.HasField(grid.FieldBedrock) {
		return
	}
	z, _ := g.Field(grid.FieldElevation)
	soil, _ := g.Field(grid.FieldSoilDepth)
	rock := g.AddZeros(grid.FieldBedrock)
	for i := range rock {
		rock[i] = z[i] - soil[i]
	}
}

func (m *BasicSa) Name() string { return "basic_sa" }

func (m *BasicSa) RunOneStep(dt float64) error {
	if err := m.CreateAndMoveWater(dt); err != nil {
		return err
	}
	m.eroder.KAdjust = m.ErodibilityAdjustment()
	if err := m.eroder.RunOneStep(dt); err != nil {
		return err
	}
	m.clampBedrock()
	if err := m.weatherer.CalcSoilProdRate(); err != nil {
		return err
	}
	if err := m.diffuser.RunOneStep(dt); err != nil {
		return err
	}
	return m.FinalizeStep(dt)
}

// clampBedrock re-syncs bedrock and soil after water erosion: where
// incision cut below the old bedrock surface the rock is lowered to match,
// and soil depth becomes whatever column remains.
func (m *BasicSa) clampBedrock() {
	z, _ := m.Grid.Field(grid.FieldElevation)
	rock, _ := m.Grid.Field(grid.FieldBedrock)
	soil, _ := m.Grid.Field(grid.FieldSoilDepth)
	for i := range rock {
		rock[i] = math.Min(rock[i], z[i])
		soil[i] = z[i] - rock[i]
	}
}

// BasicSaVs combines the soil column of BasicSa with the effective
// drainage area of BasicVs.
type BasicSaVs struct {
	*BasicSa

	kdx      float64
	recharge float64
}

func NewBasicSaVs(base *ErosionModel, p config.ParamsConfig) (*BasicSaVs, error) {
	sa, err := NewBasicSa(base, p)
	if err != nil {
		return nil, err
	}
	return &BasicSaVs{
		BasicSa:  sa,
		kdx:      p.HydraulicConductivity * base.Grid.Spacing,
		recharge: p.RechargeRate,
	}, nil
}

func (m *BasicSaVs) Name() string { return "basic_savs" }

func (m *BasicSaVs) RunOneStep(dt float64) error {
	if err := m.CreateAndMoveWater(dt); err != nil {
		return err
	}
	if err := m.calcEffectiveDrainageArea(); err != nil {
		return err
	}
	m.zeroFloodedDischarge()
	m.eroder.KAdjust = m.ErodibilityAdjustment()
	if err := m.eroder.RunOneStep(dt); err != nil {
		return err
	}
	m.clampBedrock()
	if err := m.weatherer.CalcSoilProdRate(); err != nil {
		return err
	}
	if err := m.diffuser.RunOneStep(dt); err != nil {
		return err
	}
	return m.FinalizeStep(dt)
}

func (m *BasicSaVs) calcEffectiveDrainageArea() error {
	g := m.Grid
	area, err := g.Field(grid.FieldDrainageArea)
	if err != nil {
		return err
	}
	slope, err := g.Field(grid.FieldSteepestSlope)
	if err != nil {
		return err
	}
	soil, err := g.Field(grid.FieldSoilDepth)
	if err != nil {
		return err
	}
	q, _ := g.Field(grid.FieldDischarge)

	for _, i := range g.CoreNodes() {
		if area[i] <= 0 {
			q[i] = 0
			continue
		}
		sat := m.kdx * soil[i] / m.recharge
		q[i] = area[i] * math.Exp(-sat*slope[i]/area[i])
	}
	return nil
}
