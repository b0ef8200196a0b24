package process

import (
	"math"
	"testing"

	"github.com/terralab/landform/internal/grid"
)

// bumpGrid puts a single raised node in the middle of a flat surface.
func bumpGrid(t *testing.T, rows, cols int) *grid.Raster {
	t.Helper()
	g, err := grid.NewRaster(rows, cols, 10)
	if err != nil {
		t.Fatal(err)
	}
	z := g.AddZeros(grid.FieldElevation)
	z[g.Index(rows/2, cols/2)] = 10
	return g
}

func coreSum(g *grid.Raster, name string) float64 {
	f, _ := g.Field(name)
	sum := 0.0
	for _, i := range g.CoreNodes() {
		sum += f[i]
	}
	return sum
}

func TestLinearDiffuser_ConservesVolumeOnClosedGrid(t *testing.T) {
	g := bumpGrid(t, 7, 7)
	g.CloseBoundaries()

	ld, err := NewLinearDiffuser(g, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	before := coreSum(g, grid.FieldElevation)
	for i := 0; i < 20; i++ {
		if err := ld.RunOneStep(100); err != nil {
			t.Fatal(err)
		}
	}
	after := coreSum(g, grid.FieldElevation)

	if math.Abs(after-before) > 1e-9 {
		t.Errorf("closed grid must conserve volume: %.12f vs %.12f", before, after)
	}
}

func TestLinearDiffuser_SmoothsPeak(t *testing.T) {
	g := bumpGrid(t, 7, 7)
	center := g.Index(3, 3)

	ld, _ := NewLinearDiffuser(g, 0.5)
	if err := ld.RunOneStep(500); err != nil {
		t.Fatal(err)
	}

	z, _ := g.Field(grid.FieldElevation)
	if z[center] >= 10 {
		t.Error("diffusion should lower the peak")
	}
	neighbor := g.Index(3, 2)
	if z[neighbor] <= 0 {
		t.Error("diffusion should raise the peak's neighbors")
	}
	// symmetric initial condition stays symmetric
	if math.Abs(z[g.Index(3, 2)]-z[g.Index(3, 4)]) > 1e-12 {
		t.Error("spread should be symmetric east-west")
	}
	if math.Abs(z[g.Index(2, 3)]-z[g.Index(4, 3)]) > 1e-12 {
		t.Error("spread should be symmetric north-south")
	}
}

func TestLinearDiffuser_HoldsOpenBoundaries(t *testing.T) {
	g := bumpGrid(t, 7, 7)

	ld, _ := NewLinearDiffuser(g, 0.5)
	if err := ld.RunOneStep(1000); err != nil {
		t.Fatal(err)
	}

	z, _ := g.Field(grid.FieldElevation)
	for _, i := range g.OpenBoundaryNodes() {
		if z[i] != 0 {
			t.Fatalf("open boundary node %d moved to %g", i, z[i])
		}
	}
}

func TestLinearDiffuser_ImplicitMatchesExplicit(t *testing.T) {
	ge := bumpGrid(t, 7, 7)
	gi := bumpGrid(t, 7, 7)

	expl, _ := NewLinearDiffuser(ge, 0.1)
	impl, _ := NewLinearDiffuser(gi, 0.1)
	impl.Implicit = true

	// small steps keep the schemes within first-order agreement
	for i := 0; i < 10; i++ {
		if err := expl.RunOneStep(1); err != nil {
			t.Fatal(err)
		}
		if err := impl.RunOneStep(1); err != nil {
			t.Fatal(err)
		}
	}

	ze, _ := ge.Field(grid.FieldElevation)
	zi, _ := gi.Field(grid.FieldElevation)
	for _, i := range ge.CoreNodes() {
		if math.Abs(ze[i]-zi[i]) > 1e-3 {
			t.Fatalf("node %d: explicit %.6f vs implicit %.6f", i, ze[i], zi[i])
		}
	}
}

func TestLinearDiffuser_ZeroDiffusivityIsNoOp(t *testing.T) {
	g := bumpGrid(t, 5, 5)
	ld, _ := NewLinearDiffuser(g, 0)
	if err := ld.RunOneStep(1000); err != nil {
		t.Fatal(err)
	}
	z, _ := g.Field(grid.FieldElevation)
	if z[g.Index(2, 2)] != 10 {
		t.Error("zero diffusivity must leave the surface unchanged")
	}
}

func TestNewLinearDiffuser_Negative(t *testing.T) {
	g := bumpGrid(t, 5, 5)
	if _, err := NewLinearDiffuser(g, -1); err == nil {
		t.Error("expected error for negative diffusivity")
	}
}
