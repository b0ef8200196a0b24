package flow

import (
	"fmt"

	"github.com/terralab/landform/internal/grid"
)

// Router directs flow by D8 steepest descent, orders nodes from baselevel
// upstream, and accumulates drainage area and surface-water discharge.
type Router struct {
	g *grid.Raster

	// RunoffRate converts drainage area to discharge, in depth per year.
	RunoffRate float64

	receivers []int
	stack     []int
	donors    [][]int
}

func NewRouter(g *grid.Raster, runoffRate float64) (*Router, error) {
	if runoffRate <= 0 {
		return nil, fmt.Errorf("runoff rate must be positive, got %g", runoffRate)
	}
	n := g.NumNodes()
	r := &Router{
		g:          g,
		RunoffRate: runoffRate,
		receivers:  make([]int, n),
		stack:      make([]int, 0, n),
		donors:     make([][]int, n),
	}
	g.AddZeros(grid.FieldDrainageArea)
	g.AddZeros(grid.FieldReceiver)
	g.AddZeros(grid.FieldSteepestSlope)
	g.AddZeros(grid.FieldDischarge)
	g.AddConstant(grid.FieldRainfallFlux, runoffRate)
	return r, nil
}

func (r *Router) Name() string { return "flow_router" }

// Receivers returns the receiver node of every node after the last
// RunOneStep. Baselevel nodes and pits receive themselves.
func (r *Router) Receivers() []int { return r.receivers }

// Stack returns nodes ordered from baselevel upstream. Traversing the
// stack forward visits a receiver before any of its donors.
func (r *Router) Stack() []int { return r.stack }

// RunOneStep recomputes receivers, node ordering, drainage area, and
// discharge from the current topography.
func (r *Router) RunOneStep(dt float64) error {
	g := r.g
	z, err := g.Field(grid.FieldElevation)
	if err != nil {
		return err
	}
	recvField, _ := g.Field(grid.FieldReceiver)
	slope, _ := g.Field(grid.FieldSteepestSlope)

	var nbrs []int
	var dist []float64
	for i := 0; i < g.NumNodes(); i++ {
		r.receivers[i] = i
		slope[i] = 0
		if !g.IsCore(i) {
			recvField[i] = float64(i)
			continue
		}
		best := i
		bestSlope := 0.0
		nbrs, dist = g.Neighbors(i, nbrs, dist)
		for k, n := range nbrs {
			if g.Status[n] == grid.ClosedBoundary {
				continue
			}
			s := (z[i] - z[n]) / dist[k]
			if s > bestSlope {
				bestSlope = s
				best = n
			}
		}
		r.receivers[i] = best
		recvField[i] = float64(best)
		slope[i] = bestSlope
	}

	r.buildStack()
	r.accumulate()
	return nil
}

// buildStack orders nodes from baselevel nodes (self-receivers) outward to
// their donors, depth first.
func (r *Router) buildStack() {
	n := r.g.NumNodes()
	for i := 0; i < n; i++ {
		r.donors[i] = r.donors[i][:0]
	}
	for i := 0; i < n; i++ {
		if rcv := r.receivers[i]; rcv != i {
			r.donors[rcv] = append(r.donors[rcv], i)
		}
	}

	r.stack = r.stack[:0]
	for i := 0; i < n; i++ {
		if r.receivers[i] != i {
			continue
		}
		r.stack = append(r.stack, i)
		// expand donors iteratively; stack doubles as the work list
		for j := len(r.stack) - 1; j < len(r.stack); j++ {
			r.stack = append(r.stack, r.donors[r.stack[j]]...)
		}
	}
}

// accumulate sums cell areas from the upstream end of the stack down, then
// converts area to discharge with the uniform runoff rate.
func (r *Router) accumulate() {
	g := r.g
	area, _ := g.Field(grid.FieldDrainageArea)
	q, _ := g.Field(grid.FieldDischarge)

	cell := g.CellArea()
	for i := range area {
		if g.IsCore(i) {
			area[i] = cell
		} else {
			area[i] = 0
		}
	}
	for k := len(r.stack) - 1; k >= 0; k-- {
		node := r.stack[k]
		if rcv := r.receivers[node]; rcv != node {
			area[rcv] += area[node]
		}
	}
	for i := range q {
		q[i] = r.RunoffRate * area[i]
	}
}
