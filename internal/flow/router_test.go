package flow

import (
	"testing"

	"github.com/terralab/landform/internal/grid"
)

// tiltedGrid slopes down to the south: z = row index.
func tiltedGrid(t *testing.T, rows, cols int, spacing float64) *grid.Raster {
	t.Helper()
	g, err := grid.NewRaster(rows, cols, spacing)
	if err != nil {
		t.Fatal(err)
	}
	z := g.AddZeros(grid.FieldElevation)
	for i := range z {
		r, _ := g.RowCol(i)
		z[i] = float64(r)
	}
	return g
}

func TestRouter_SteepestDescent(t *testing.T) {
	g := tiltedGrid(t, 5, 5, 10)
	r, err := NewRouter(g, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RunOneStep(500); err != nil {
		t.Fatal(err)
	}

	// on a southward tilt the orthogonal drop beats both diagonals
	recv := r.Receivers()
	for _, i := range g.CoreNodes() {
		row, col := g.RowCol(i)
		want := g.Index(row-1, col)
		if recv[i] != want {
			t.Errorf("node (%d,%d) should drain south to %d, got %d", row, col, want, recv[i])
		}
	}
	for _, i := range g.OpenBoundaryNodes() {
		if recv[i] != i {
			t.Errorf("boundary node %d should receive itself", i)
		}
	}
}

func TestRouter_StackOrdering(t *testing.T) {
	g := tiltedGrid(t, 6, 6, 10)
	r, _ := NewRouter(g, 1.0)
	if err := r.RunOneStep(500); err != nil {
		t.Fatal(err)
	}

	pos := make(map[int]int, g.NumNodes())
	for k, node := range r.Stack() {
		pos[node] = k
	}
	if len(pos) != g.NumNodes() {
		t.Fatalf("stack visits %d of %d nodes", len(pos), g.NumNodes())
	}
	for node, rcv := range r.Receivers() {
		if rcv == node {
			continue
		}
		if pos[rcv] >= pos[node] {
			t.Errorf("receiver %d must come before donor %d in the stack", rcv, node)
		}
	}
}

func TestRouter_DrainageArea(t *testing.T) {
	g := tiltedGrid(t, 5, 5, 10)
	r, _ := NewRouter(g, 1.0)
	if err := r.RunOneStep(500); err != nil {
		t.Fatal(err)
	}

	area, _ := g.Field(grid.FieldDrainageArea)
	cell := g.CellArea()

	// each interior column is a 3-node chain draining to the south edge
	for c := 1; c < 4; c++ {
		bottom := g.Index(1, c)
		if area[bottom] != 3*cell {
			t.Errorf("column %d bottom area %f, want %f", c, area[bottom], 3*cell)
		}
		top := g.Index(3, c)
		if area[top] != cell {
			t.Errorf("column %d top area %f, want %f", c, area[top], cell)
		}
		outlet := g.Index(0, c)
		if area[outlet] != 3*cell {
			t.Errorf("outlet %d area %f, want %f", outlet, area[outlet], 3*cell)
		}
	}
}

func TestRouter_Discharge(t *testing.T) {
	g := tiltedGrid(t, 5, 5, 10)
	r, _ := NewRouter(g, 2.5)
	if err := r.RunOneStep(500); err != nil {
		t.Fatal(err)
	}

	area, _ := g.Field(grid.FieldDrainageArea)
	q, _ := g.Field(grid.FieldDischarge)
	for i := range q {
		if q[i] != 2.5*area[i] {
			t.Fatalf("node %d discharge %f, want %f", i, q[i], 2.5*area[i])
		}
	}
}

func TestNewRouter_BadRunoff(t *testing.T) {
	g := tiltedGrid(t, 5, 5, 10)
	if _, err := NewRouter(g, 0); err == nil {
		t.Error("expected error for zero runoff rate")
	}
}
