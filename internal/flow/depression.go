package flow

import (
	"container/heap"

	"github.com/terralab/landform/internal/grid"
)

// DepressionFinder flags nodes sitting below the priority-flood fill level
// of the topography. Eroders skip flagged nodes: water ponds there instead
// of cutting.
type DepressionFinder struct {
	g         *grid.Raster
	fillLevel []float64
}

func NewDepressionFinder(g *grid.Raster) *DepressionFinder {
	g.AddZeros(grid.FieldFloodStatus)
	return &DepressionFinder{
		g:         g,
		fillLevel: make([]float64, g.NumNodes()),
	}
}

func (d *DepressionFinder) Name() string { return "depression_finder" }

// FillLevel returns the water-surface elevation of the last map pass.
// Equal to the topography everywhere outside depressions.
func (d *DepressionFinder) FillLevel() []float64 { return d.fillLevel }

type floodItem struct {
	node  int
	level float64
}

type floodQueue []floodItem

func (q floodQueue) Len() int            { return len(q) }
func (q floodQueue) Less(i, j int) bool  { return q[i].level < q[j].level }
func (q floodQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *floodQueue) Push(x interface{}) { *q = append(*q, x.(floodItem)) }
func (q *floodQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// RunOneStep floods inward from the open boundaries (Barnes priority-flood)
// and writes flood status codes.
func (d *DepressionFinder) RunOneStep(dt float64) error {
	g := d.g
	z, err := g.Field(grid.FieldElevation)
	if err != nil {
		return err
	}
	status, _ := g.Field(grid.FieldFloodStatus)

	n := g.NumNodes()
	visited := make([]bool, n)
	pq := make(floodQueue, 0, n)

	for i := 0; i < n; i++ {
		status[i] = grid.FloodNone
		d.fillLevel[i] = z[i]
		if g.Status[i] == grid.FixedValueBoundary {
			visited[i] = true
			heap.Push(&pq, floodItem{node: i, level: z[i]})
		}
		if g.Status[i] == grid.ClosedBoundary {
			visited[i] = true
		}
	}

	var nbrs []int
	for pq.Len() > 0 {
		cur := heap.Pop(&pq).(floodItem)
		nbrs, _ = g.Neighbors(cur.node, nbrs, nil)
		for _, nb := range nbrs {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			level := z[nb]
			if cur.level > level {
				level = cur.level
				status[nb] = grid.FloodFlooded
			}
			d.fillLevel[nb] = level
			heap.Push(&pq, floodItem{node: nb, level: level})
		}
	}
	return nil
}

// FloodedNodes lists the nodes flagged in the last pass.
func (d *DepressionFinder) FloodedNodes() []int {
	status, err := d.g.Field(grid.FieldFloodStatus)
	if err != nil {
		return nil
	}
	nodes := make([]int, 0)
	for i, s := range status {
		if s == grid.FloodFlooded {
			nodes = append(nodes, i)
		}
	}
	return nodes
}
