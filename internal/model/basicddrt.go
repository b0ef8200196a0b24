package model

import (
	"fmt"
	"math"

	"github.com/terralab/landform/internal/config"
	"github.com/terralab/landform/internal/grid"
	"github.com/terralab/landform/internal/process"
)

// BasicDdRt erodes two lithologies, rock under till, separated by a
// contact surface read from an ESRI ASCII grid. Erodibility blends
// smoothly across the contact, and the smoothed stream-power threshold
// grows with cumulative incision depth, so canyons get progressively
// harder to deepen.
type BasicDdRt struct {
	*ErosionModel

	eroder   *process.ThresholdStreamPower
	diffuser *process.LinearDiffuser

	rockErodibility float64
	tillErodibility float64
	contactWidth    float64

	baseThreshold  float64
	threshPerDepth float64
}

func NewBasicDdRt(base *ErosionModel, p config.ParamsConfig) (*BasicDdRt, error) {
	if p.ContactFile == "" {
		return nil, fmt.Errorf("basic_ddrt requires lithology_contact_file")
	}
	if p.ContactZoneWidth <= 0 {
		return nil, fmt.Errorf("contact zone width must be positive, got %g", p.ContactZoneWidth)
	}
	if err := grid.ReadEsriAscii(p.ContactFile, base.Grid, grid.FieldRockContact); err != nil {
		return nil, err
	}

	base.Grid.AddZeros(grid.FieldErodibility)
	base.Grid.AddConstant(grid.FieldThreshold, p.ErosionThreshold)
	base.Grid.AddZeros(grid.FieldCumulativeEro)

	m := &BasicDdRt{
		ErosionModel:    base,
		rockErodibility: p.WaterErodibilityRock,
		tillErodibility: p.WaterErodibilityTill,
		contactWidth:    p.ContactZoneWidth,
		baseThreshold:   p.ErosionThreshold,
		threshPerDepth:  p.ThreshChangePerDepth,
	}
	m.updateErodibility()

	eroder, err := process.NewThresholdStreamPower(base.Grid, base.Router, p.WaterErodibilityTill, p.MSp)
	if err != nil {
		return nil, err
	}
	eroder.KField = grid.FieldErodibility
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

func (m *BasicDdRt) Name() string { return "basic_ddrt" }

// updateErodibility blends rock and till erodibilities with a logistic
// weight on elevation above the contact surface.
func (m *BasicDdRt) updateErodibility() {
	z, _ := m.Grid.Field(grid.FieldElevation)
	contact, _ := m.Grid.Field(grid.FieldRockContact)
	erody, _ := m.Grid.Field(grid.FieldErodibility)

	adjust := m.ErodibilityAdjustment()
	for i := range erody {
		wt := 1.0 / (1.0 + math.Exp(-(z[i]-contact[i])/m.contactWidth))
		erody[i] = adjust * (wt*m.tillErodibility + (1-wt)*m.rockErodibility)
	}
}

// updateThreshold raises the erosion threshold where the surface has cut
// below its initial elevation. Growth keeps the threshold at or above its
// base value.
func (m *BasicDdRt) updateThreshold() {
	z, _ := m.Grid.Field(grid.FieldElevation)
	z0, _ := m.Grid.Field(grid.FieldInitElevation)
	cum, _ := m.Grid.Field(grid.FieldCumulativeEro)
	thresh, _ := m.Grid.Field(grid.FieldThreshold)

	for i := range thresh {
		cum[i] = z[i] - z0[i]
		t := m.baseThreshold - m.threshPerDepth*cum[i]
		if t < m.baseThreshold {
			t = m.baseThreshold
		}
		thresh[i] = t
	}
}

func (m *BasicDdRt) RunOneStep(dt float64) error {
	if err := m.CreateAndMoveWater(dt); err != nil {
		return err
	}
	m.updateErodibility()
	m.updateThreshold()
	if err := m.eroder.RunOneStep(dt); err != nil {
		return err
	}
	if err := m.diffuser.RunOneStep(dt); err != nil {
		return err
	}
	return m.FinalizeStep(dt)
}
