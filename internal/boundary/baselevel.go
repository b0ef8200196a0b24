package boundary

import (
	"fmt"

	"github.com/terralab/landform/internal/grid"
)

// SingleNodeBaselevel drops one outlet node through time, either at a
// constant rate or following a two-column elevation-change history file.
// Exactly one of the two must be configured. When the grid carries a
// bedrock field it is lowered in lockstep with the surface.
type SingleNodeBaselevel struct {
	g      *grid.Raster
	outlet int

	rate    float64
	useRate bool
	history *loweringHistory
	scale   float64

	elapsed float64
}

// SingleNodeBaselevelConfig selects the lowering mode. ModelEndElevation,
// when non-nil, rescales a file-driven history so the outlet lands on that
// elevation at ModelEndTime.
type SingleNodeBaselevelConfig struct {
	LoweringRate      *float64
	LoweringFilePath  string
	ModelEndElevation *float64
	ModelEndTime      float64
}

func NewSingleNodeBaselevel(g *grid.Raster, outlet int, cfg SingleNodeBaselevelConfig) (*SingleNodeBaselevel, error) {
	if outlet < 0 || outlet >= g.NumNodes() {
		return nil, fmt.Errorf("outlet node %d out of range", outlet)
	}
	hasRate := cfg.LoweringRate != nil
	hasFile := cfg.LoweringFilePath != ""
	if hasRate == hasFile {
		return nil, fmt.Errorf("baselevel handler needs exactly one of lowering_rate and lowering_file")
	}

	h := &SingleNodeBaselevel{g: g, outlet: outlet, scale: 1}
	if hasRate {
		h.rate = *cfg.LoweringRate
		h.useRate = true
		return h, nil
	}

	hist, err := readLoweringHistory(cfg.LoweringFilePath)
	if err != nil {
		return nil, err
	}
	h.history = hist
	if cfg.ModelEndElevation != nil {
		endChange := hist.at(cfg.ModelEndTime)
		if endChange == 0 {
			return nil, fmt.Errorf("cannot scale lowering history: zero change at model end time %g", cfg.ModelEndTime)
		}
		h.scale = *cfg.ModelEndElevation / endChange
	}
	return h, nil
}

func (h *SingleNodeBaselevel) Name() string { return "single_node_baselevel" }

func (h *SingleNodeBaselevel) RunOneStep(dt float64) error {
	var drop float64
	if h.useRate {
		drop = -h.rate * dt
	} else {
		drop = h.scale * (h.history.at(h.elapsed+dt) - h.history.at(h.elapsed))
	}
	h.elapsed += dt

	z, err := h.g.Field(grid.FieldElevation)
	if err != nil {
		return err
	}
	z[h.outlet] += drop
	if h.g.HasField(grid.FieldBedrock) {
		rock, _ := h.g.Field(grid.FieldBedrock)
		rock[h.outlet] += drop
	}
	return nil
}

// NotCoreBaselevel drops every boundary node at a constant rate, the usual
// way to keep relief growing on an open-edged block.
type NotCoreBaselevel struct {
	g    *grid.Raster
	rate float64
}

func NewNotCoreBaselevel(g *grid.Raster, rate float64) (*NotCoreBaselevel, error) {
	if rate < 0 {
		return nil, fmt.Errorf("lowering rate must be non-negative, got %g", rate)
	}
	return &NotCoreBaselevel{g: g, rate: rate}, nil
}

func (h *NotCoreBaselevel) Name() string { return "not_core_baselevel" }

func (h *NotCoreBaselevel) RunOneStep(dt float64) error {
	z, err := h.g.Field(grid.FieldElevation)
	if err != nil {
		return err
	}
	var rock []float64
	if h.g.HasField(grid.FieldBedrock) {
		rock, _ = h.g.Field(grid.FieldBedrock)
	}
	for i := range z {
		if h.g.IsCore(i) {
			continue
		}
		z[i] -= h.rate * dt
		if rock != nil {
			rock[i] -= h.rate * dt
		}
	}
	return nil
}
