package model

import (
	"math"

	"github.com/terralab/landform/internal/config"
	"github.com/terralab/landform/internal/grid"
	"github.com/terralab/landform/internal/process"
)

// Basic is the simplest model program: detachment-limited stream power
// plus linear hillslope diffusion on a single lithology.
type Basic struct {
	*ErosionModel

	eroder   *process.StreamPower
	diffuser *process.LinearDiffuser
}

func NewBasic(base *ErosionModel, p config.ParamsConfig) (*Basic, error) {
	eroder, err := process.NewStreamPower(base.Grid, base.Router, p.WaterErodibility, p.MSp, p.NSp)
	if err != nil {
		return nil, err
	}
	eroder.ErodeFlooded = p.ErodeFlooded

	diffuser, err := process.NewLinearDiffuser(base.Grid, p.RegolithTransport)
	if err != nil {
		return nil, err
	}
	diffuser.Implicit = p.ImplicitDiffusion

	return &Basic{ErosionModel: base, eroder: eroder, diffuser: diffuser}, nil
}

func (m *Basic) Name() string { return "basic" }

func (m *Basic) RunOneStep(dt float64) error {
	if err := m.CreateAndMoveWater(dt); err != nil {
		return err
	}
	m.eroder.KAdjust = m.ErodibilityAdjustment()
	if err := m.eroder.RunOneStep(dt); err != nil {
		return err
	}
	if err := m.diffuser.RunOneStep(dt); err != nil {
		return err
	}
	return m.FinalizeStep(dt)
}

// BasicVs scales discharge by effective drainage area, shrinking runoff
// where soils are conductive enough to pass storm water as subsurface
// flow: A_eff = A * exp(-alpha * S / A), alpha = Ksat * H * dx / R.
type BasicVs struct {
	*ErosionModel

	eroder   *process.StreamPower
	diffuser *process.LinearDiffuser

	kdx      float64 // Ksat * dx
	recharge float64
}

func NewBasicVs(base *ErosionModel, p config.ParamsConfig) (*BasicVs, error) {
	if err := base.VerifyFields(grid.FieldElevation, grid.FieldSoilDepth); err != nil {
		return nil, err
	}
	m := &BasicVs{
		ErosionModel: base,
		kdx:          p.HydraulicConductivity * base.Grid.Spacing,
		recharge:     p.RechargeRate,
	}

	eroder, err := process.NewStreamPower(base.Grid, base.Router, p.WaterErodibility, p.MSp, p.NSp)
	if err != nil {
		return nil, err
	}
	eroder.ErodeFlooded = p.ErodeFlooded
	m.eroder = eroder

	diffuser, err := process.NewLinearDiffuser(base.Grid, p.RegolithTransport)
	if err != nil {
		return nil, err
	}
	diffuser.Implicit = p.ImplicitDiffusion
	m.diffuser = diffuser
	return m, nil
}

func (m *BasicVs) Name() string { return "basic_vs" }

// calcEffectiveDrainageArea rewrites the discharge field from drainage
// area, slope, and soil depth.
func (m *BasicVs) calcEffectiveDrainageArea() error {
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

func (m *BasicVs) RunOneStep(dt float64) error {
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
	if err := m.diffuser.RunOneStep(dt); err != nil {
		return err
	}
	return m.FinalizeStep(dt)
}

func (em *ErosionModel) zeroFloodedDischarge() {
	if em.Depressions == nil || em.ErodeFlooded {
		return
	}
	q, err := em.Grid.Field(grid.FieldDischarge)
	if err != nil {
		return
	}
	for _, node := range em.Depressions.FloodedNodes() {
		q[node] = 0
	}
}
