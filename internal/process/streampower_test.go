package process

import (
	"math"
	"testing"

	"github.com/terralab/landform/internal/flow"
	"github.com/terralab/landform/internal/grid"
)

// peakGrid has one core node raised above flat open boundaries.
func peakGrid(t *testing.T, height float64) (*grid.Raster, *flow.Router) {
	t.Helper()
	g, err := grid.NewRaster(3, 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	z := g.AddZeros(grid.FieldElevation)
	z[g.Index(1, 1)] = height

	r, err := flow.NewRouter(g, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RunOneStep(1); err != nil {
		t.Fatal(err)
	}
	return g, r
}

func TestStreamPower_LinearExactUpdate(t *testing.T) {
	g, r := peakGrid(t, 1.0)
	sp, err := NewStreamPower(g, r, 1e-4, 0.5, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	dt := 10.0
	if err := sp.RunOneStep(dt); err != nil {
		t.Fatal(err)
	}

	// one core node at z0=1 draining to a zero-elevation boundary over one
	// orthogonal link: z' = z0 / (1 + K*q^m*dt/dx)
	q := 1.0 * g.CellArea()
	f := 1e-4 * math.Pow(q, 0.5) * dt / g.Spacing
	want := 1.0 / (1 + f)

	z, _ := g.Field(grid.FieldElevation)
	got := z[g.Index(1, 1)]
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %.12f, got %.12f", want, got)
	}
	if got >= 1.0 {
		t.Error("eroder should lower the peak")
	}
}

func TestStreamPower_NewtonMatchesResidual(t *testing.T) {
	g, r := peakGrid(t, 1.0)
	sp, err := NewStreamPower(g, r, 1e-3, 0.5, 2.0)
	if err != nil {
		t.Fatal(err)
	}

	dt := 100.0
	if err := sp.RunOneStep(dt); err != nil {
		t.Fatal(err)
	}

	// the solution must satisfy z' - z0 + fact*((z'-zr)/d)^n = 0
	z, _ := g.Field(grid.FieldElevation)
	zp := z[g.Index(1, 1)]
	q := 1.0 * g.CellArea()
	fact := 1e-3 * math.Pow(q, 0.5) * dt
	resid := zp - 1.0 + fact*math.Pow(zp/g.Spacing, 2.0)
	if math.Abs(resid) > 1e-8 {
		t.Errorf("newton residual %.3e too large, z'=%.9f", resid, zp)
	}
	if zp < 0 || zp >= 1 {
		t.Errorf("solution %.9f outside (0,1)", zp)
	}
}

func TestStreamPower_NeverCutsBelowReceiver(t *testing.T) {
	g, r := peakGrid(t, 0.001)
	sp, _ := NewStreamPower(g, r, 10, 0.5, 2.0)

	if err := sp.RunOneStep(1e6); err != nil {
		t.Fatal(err)
	}
	z, _ := g.Field(grid.FieldElevation)
	if z[g.Index(1, 1)] < 0 {
		t.Errorf("node eroded below its receiver: %g", z[g.Index(1, 1)])
	}
}

func TestStreamPower_SkipsFloodedNodes(t *testing.T) {
	g, r := peakGrid(t, 1.0)
	flood := g.AddZeros(grid.FieldFloodStatus)
	flood[g.Index(1, 1)] = grid.FloodFlooded

	sp, _ := NewStreamPower(g, r, 1e-4, 0.5, 1.0)
	if err := sp.RunOneStep(10); err != nil {
		t.Fatal(err)
	}
	z, _ := g.Field(grid.FieldElevation)
	if z[g.Index(1, 1)] != 1.0 {
		t.Error("flooded node must not erode")
	}

	sp.ErodeFlooded = true
	if err := sp.RunOneStep(10); err != nil {
		t.Fatal(err)
	}
	if z[g.Index(1, 1)] >= 1.0 {
		t.Error("ErodeFlooded should let the node erode")
	}
}

func TestStreamPower_ErodibilityField(t *testing.T) {
	g, r := peakGrid(t, 1.0)
	g.AddConstant(grid.FieldErodibility, 0)

	sp, _ := NewStreamPower(g, r, 1e-4, 0.5, 1.0)
	sp.KField = grid.FieldErodibility
	if err := sp.RunOneStep(10); err != nil {
		t.Fatal(err)
	}
	z, _ := g.Field(grid.FieldElevation)
	if z[g.Index(1, 1)] != 1.0 {
		t.Error("zero per-node erodibility must suppress erosion")
	}
}

func TestNewStreamPower_BadParams(t *testing.T) {
	g, r := peakGrid(t, 1.0)
	if _, err := NewStreamPower(g, r, -1, 0.5, 1); err == nil {
		t.Error("expected error for negative erodibility")
	}
	if _, err := NewStreamPower(g, r, 1e-4, 0.5, 0); err == nil {
		t.Error("expected error for zero slope exponent")
	}
}

func TestThresholdStreamPower_ZeroThresholdMatchesLinear(t *testing.T) {
	ga, ra := peakGrid(t, 1.0)
	gb, rb := peakGrid(t, 1.0)
	gb.AddZeros(grid.FieldThreshold)

	plain, _ := NewStreamPower(ga, ra, 1e-4, 0.5, 1.0)
	thresh, err := NewThresholdStreamPower(gb, rb, 1e-4, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	if err := plain.RunOneStep(10); err != nil {
		t.Fatal(err)
	}
	if err := thresh.RunOneStep(10); err != nil {
		t.Fatal(err)
	}

	za, _ := ga.Field(grid.FieldElevation)
	zb, _ := gb.Field(grid.FieldElevation)
	i := ga.Index(1, 1)
	if math.Abs(za[i]-zb[i]) > 1e-12 {
		t.Errorf("zero threshold should reduce to plain stream power: %.12f vs %.12f", za[i], zb[i])
	}
}

func TestThresholdStreamPower_ThresholdSuppressesErosion(t *testing.T) {
	gSmall, rSmall := peakGrid(t, 1.0)
	gSmall.AddConstant(grid.FieldThreshold, 1e-9)
	gBig, rBig := peakGrid(t, 1.0)
	gBig.AddConstant(grid.FieldThreshold, 100)

	small, _ := NewThresholdStreamPower(gSmall, rSmall, 1e-4, 0.5)
	big, _ := NewThresholdStreamPower(gBig, rBig, 1e-4, 0.5)

	if err := small.RunOneStep(10); err != nil {
		t.Fatal(err)
	}
	if err := big.RunOneStep(10); err != nil {
		t.Fatal(err)
	}

	zs, _ := gSmall.Field(grid.FieldElevation)
	zb, _ := gBig.Field(grid.FieldElevation)
	i := gSmall.Index(1, 1)
	eroSmall := 1.0 - zs[i]
	eroBig := 1.0 - zb[i]
	if eroBig >= eroSmall {
		t.Errorf("a large threshold should suppress erosion: %.3e vs %.3e", eroBig, eroSmall)
	}
	if eroBig < 0 {
		t.Error("threshold eroder must never raise the surface")
	}
}

func TestThresholdStreamPower_RequiresThresholdField(t *testing.T) {
	g, r := peakGrid(t, 1.0)
	if _, err := NewThresholdStreamPower(g, r, 1e-4, 0.5); err == nil {
		t.Error("expected error without the threshold field")
	}
}
