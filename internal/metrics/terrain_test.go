package metrics

import (
	"math"
	"testing"

	"github.com/terralab/landform/internal/grid"
)

func metricGrid(t *testing.T) *grid.Raster {
	t.Helper()
	g, err := grid.NewRaster(4, 4, 10)
	if err != nil {
		t.Fatal(err)
	}
	z := g.AddZeros(grid.FieldElevation)
	// core nodes are (1,1) (1,2) (2,1) (2,2)
	z[g.Index(1, 1)] = 1
	z[g.Index(1, 2)] = 2
	z[g.Index(2, 1)] = 3
	z[g.Index(2, 2)] = 6
	return g
}

func TestMeanElevation(t *testing.T) {
	g := metricGrid(t)
	m := NewMeanElevation()
	m.Observe(g, 0)
	if m.Value() != 3 {
		t.Errorf("expected mean 3, got %g", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("reset should zero the value")
	}
}

func TestRelief(t *testing.T) {
	g := metricGrid(t)
	m := NewRelief()
	m.Observe(g, 0)
	if m.Value() != 5 {
		t.Errorf("expected relief 5, got %g", m.Value())
	}
}

func TestHypsometricIntegral(t *testing.T) {
	g := metricGrid(t)
	m := NewHypsometricIntegral()
	m.Observe(g, 0)
	// (mean - min) / (max - min) = (3-1)/5
	want := 2.0 / 5.0
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("expected %g, got %g", want, m.Value())
	}
}

func TestDenudationDepth(t *testing.T) {
	g := metricGrid(t)
	z, _ := g.Field(grid.FieldElevation)
	z0 := g.AddZeros(grid.FieldInitElevation)
	copy(z0, z)
	for i := range z {
		z[i] -= 0.5
	}

	m := NewDenudationDepth()
	m.Observe(g, 0)
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected denudation 0.5, got %g", m.Value())
	}
}

func TestSoilVolume(t *testing.T) {
	g := metricGrid(t)
	g.AddConstant(grid.FieldSoilDepth, 2)

	m := NewSoilVolume()
	m.Observe(g, 0)
	// 4 core nodes * 2 m * 100 m^2
	if m.Value() != 800 {
		t.Errorf("expected soil volume 800, got %g", m.Value())
	}
}

func TestDefaults(t *testing.T) {
	if n := len(Defaults(false)); n != 4 {
		t.Errorf("expected 4 metrics without soil, got %d", n)
	}
	if n := len(Defaults(true)); n != 5 {
		t.Errorf("expected 5 metrics with soil, got %d", n)
	}
}
