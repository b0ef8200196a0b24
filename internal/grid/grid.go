package grid

import (
	"fmt"
	"math"
	"math/rand"
)

// Canonical at-node field names shared across packages.
const (
	FieldElevation      = "topographic__elevation"
	FieldInitElevation  = "initial_topographic__elevation"
	FieldBedrock        = "bedrock__elevation"
	FieldSoilDepth      = "soil__depth"
	FieldSoilProduction = "soil_production__rate"
	FieldDrainageArea   = "drainage_area"
	FieldReceiver       = "flow__receiver_node"
	FieldSteepestSlope  = "topographic__steepest_slope"
	FieldDischarge      = "surface_water__discharge"
	FieldFloodStatus    = "flood_status_code"
	FieldRainfallFlux   = "rainfall__flux"
	FieldErodibility    = "substrate__erodability"
	FieldThreshold      = "erosion__threshold"
	FieldCumulativeEro  = "cumulative_erosion__depth"
	FieldRockContact    = "rock_till_contact__elevation"
)

// Flood status codes written by the depression finder.
const (
	FloodNone    = 0.0
	FloodPit     = 1.0
	FloodFlooded = 3.0
)

type NodeStatus uint8

const (
	CoreNode NodeStatus = iota
	FixedValueBoundary
	ClosedBoundary
)

// Raster is a uniform rectangular model grid with named at-node fields.
// Node i sits at row i/Cols, column i%Cols; row 0 is the grid's south edge.
type Raster struct {
	Rows    int
	Cols    int
	Spacing float64

	Status []NodeStatus

	fields map[string][]float64
}

func NewRaster(rows, cols int, spacing float64) (*Raster, error) {
	if rows < 3 || cols < 3 {
		return nil, fmt.Errorf("grid %dx%d too small", rows, cols)
	}
	if spacing <= 0 {
		return nil, fmt.Errorf("grid spacing must be positive, got %g", spacing)
	}
	g := &Raster{
		Rows:    rows,
		Cols:    cols,
		Spacing: spacing,
		Status:  make([]NodeStatus, rows*cols),
		fields:  make(map[string][]float64),
	}
	// Perimeter nodes open by default, like a block of terrain draining
	// off every edge.
	for i := range g.Status {
		if g.IsPerimeter(i) {
			g.Status[i] = FixedValueBoundary
		}
	}
	return g, nil
}

func (g *Raster) NumNodes() int { return g.Rows * g.Cols }

// CellArea is the area of a single grid cell.
func (g *Raster) CellArea() float64 { return g.Spacing * g.Spacing }

func (g *Raster) Index(row, col int) int { return row*g.Cols + col }

func (g *Raster) RowCol(node int) (int, int) { return node / g.Cols, node % g.Cols }

func (g *Raster) IsPerimeter(node int) bool {
	r, c := g.RowCol(node)
	return r == 0 || r == g.Rows-1 || c == 0 || c == g.Cols-1
}

func (g *Raster) IsCore(node int) bool { return g.Status[node] == CoreNode }

// CoreNodes returns the indices of all core (interior, non-boundary) nodes.
func (g *Raster) CoreNodes() []int {
	nodes := make([]int, 0, (g.Rows-2)*(g.Cols-2))
	for i, s := range g.Status {
		if s == CoreNode {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// OpenBoundaryNodes returns all fixed-value boundary nodes.
func (g *Raster) OpenBoundaryNodes() []int {
	nodes := make([]int, 0)
	for i, s := range g.Status {
		if s == FixedValueBoundary {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// SetWatershedBoundary closes every perimeter node except the outlet,
// which stays a fixed-value boundary.
func (g *Raster) SetWatershedBoundary(outlet int) error {
	if outlet < 0 || outlet >= g.NumNodes() {
		return fmt.Errorf("outlet node %d out of range", outlet)
	}
	for i := range g.Status {
		if g.IsPerimeter(i) {
			g.Status[i] = ClosedBoundary
		}
	}
	g.Status[outlet] = FixedValueBoundary
	return nil
}

// CloseBoundaries closes all perimeter nodes. Useful for conservation tests.
func (g *Raster) CloseBoundaries() {
	for i := range g.Status {
		if g.IsPerimeter(i) {
			g.Status[i] = ClosedBoundary
		}
	}
}

// Neighbors appends the D8 neighbors of node to buf along with the link
// distance to each, and returns the filled slices. buf and dist may be nil.
func (g *Raster) Neighbors(node int, buf []int, dist []float64) ([]int, []float64) {
	buf = buf[:0]
	dist = dist[:0]
	r, c := g.RowCol(node)
	diag := g.Spacing * math.Sqrt2
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			nr, nc := r+dr, c+dc
			if nr < 0 || nr >= g.Rows || nc < 0 || nc >= g.Cols {
				continue
			}
			buf = append(buf, g.Index(nr, nc))
			if dr != 0 && dc != 0 {
				dist = append(dist, diag)
			} else {
				dist = append(dist, g.Spacing)
			}
		}
	}
	return buf, dist
}

// OrthoNeighbors returns the 4-connected neighbors of node, or -1 where the
// grid edge cuts a direction off. Order: south, west, east, north.
func (g *Raster) OrthoNeighbors(node int) [4]int {
	r, c := g.RowCol(node)
	out := [4]int{-1, -1, -1, -1}
	if r > 0 {
		out[0] = g.Index(r-1, c)
	}
	if c > 0 {
		out[1] = g.Index(r, c-1)
	}
	if c < g.Cols-1 {
		out[2] = g.Index(r, c+1)
	}
	if r < g.Rows-1 {
		out[3] = g.Index(r+1, c)
	}
	return out
}

// AddZeros creates field name filled with zeros. Creating a field that
// already exists returns the existing values untouched.
func (g *Raster) AddZeros(name string) []float64 {
	if f, ok := g.fields[name]; ok {
		return f
	}
	f := make([]float64, g.NumNodes())
	g.fields[name] = f
	return f
}

// AddConstant creates field name filled with value v, overwriting any
// existing values.
func (g *Raster) AddConstant(name string, v float64) []float64 {
	f := g.AddZeros(name)
	for i := range f {
		f[i] = v
	}
	return f
}

// Field returns the named field or an error if it was never created.
func (g *Raster) Field(name string) ([]float64, error) {
	f, ok := g.fields[name]
	if !ok {
		return nil, fmt.Errorf("grid has no field %q", name)
	}
	return f, nil
}

func (g *Raster) HasField(name string) bool {
	_, ok := g.fields[name]
	return ok
}

// FieldNames lists every at-node field on the grid.
func (g *Raster) FieldNames() []string {
	names := make([]string, 0, len(g.fields))
	for name := range g.fields {
		names = append(names, name)
	}
	return names
}

// SetField installs values as field name. The slice is used directly, not
// copied; its length must match the node count.
func (g *Raster) SetField(name string, values []float64) error {
	if len(values) != g.NumNodes() {
		return fmt.Errorf("field %q has %d values, grid has %d nodes", name, len(values), g.NumNodes())
	}
	g.fields[name] = values
	return nil
}

// FillRandom seeds field name with uniform noise in [0, amplitude). The
// usual way to start a low-relief surface.
func (g *Raster) FillRandom(name string, seed int64, amplitude float64) []float64 {
	f := g.AddZeros(name)
	rng := rand.New(rand.NewSource(seed))
	for i := range f {
		f[i] = rng.Float64() * amplitude
	}
	return f
}

// MinMax reports the extremes of a field over core nodes only.
func (g *Raster) MinMax(name string) (float64, float64, error) {
	f, err := g.Field(name)
	if err != nil {
		return 0, 0, err
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range f {
		if g.Status[i] != CoreNode {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, nil
}

// CheckFinite reports an error naming the first node holding NaN or Inf.
func (g *Raster) CheckFinite(name string) error {
	f, err := g.Field(name)
	if err != nil {
		return err
	}
	for i, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("field %q not finite at node %d", name, i)
		}
	}
	return nil
}
