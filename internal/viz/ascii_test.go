package viz

import (
	"strings"
	"testing"

	"github.com/terralab/landform/internal/grid"
)

func TestElevationMap(t *testing.T) {
	g, err := grid.NewRaster(4, 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	z := g.AddZeros(grid.FieldElevation)
	z[g.Index(2, 2)] = 10

	out, err := ElevationMap(g, grid.FieldElevation)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if len([]rune(line)) != 5 {
			t.Errorf("line %d has %d runes, want 5", i, len([]rune(line)))
		}
	}
	// north at the top: grid row 2 is output line 1
	if []rune(lines[1])[2] != '@' {
		t.Errorf("peak should shade '@', got %q", lines[1])
	}
	if []rune(lines[1])[1] != ' ' {
		t.Errorf("floor should shade blank, got %q", lines[1])
	}
}

func TestElevationMap_ClosedBoundary(t *testing.T) {
	g, _ := grid.NewRaster(4, 4, 10)
	g.AddZeros(grid.FieldElevation)
	g.SetWatershedBoundary(g.Index(0, 1))

	out, err := ElevationMap(g, grid.FieldElevation)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "~") {
		t.Error("closed boundary cells should render as '~'")
	}
}

func TestElevationMap_MissingField(t *testing.T) {
	g, _ := grid.NewRaster(4, 4, 10)
	if _, err := ElevationMap(g, grid.FieldElevation); err == nil {
		t.Error("expected error for a missing field")
	}
}

func TestSeriesPlot(t *testing.T) {
	out := SeriesPlot("relief", []float64{1, 2, 3, 2, 1}, 30, 5)
	if !strings.Contains(out, "relief") {
		t.Error("plot should carry its caption")
	}
	if out := SeriesPlot("relief", []float64{1}, 30, 5); !strings.Contains(out, "not enough") {
		t.Errorf("single sample should short-circuit, got %q", out)
	}
}

func TestComparePlot(t *testing.T) {
	out := ComparePlot("basic, basic_vs", [][]float64{{1, 2, 3}, {3, 2, 1}}, 30, 5)
	if !strings.Contains(out, "basic, basic_vs") {
		t.Error("overlay should carry its caption")
	}
}
