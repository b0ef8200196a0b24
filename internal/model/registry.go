package model

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/terralab/landform/internal/boundary"
	"github.com/terralab/landform/internal/config"
	"github.com/terralab/landform/internal/grid"
	"github.com/terralab/landform/internal/terra"
)

type builder func(base *ErosionModel, p config.ParamsConfig) (Model, error)

var builders = map[string]builder{
	"basic": func(b *ErosionModel, p config.ParamsConfig) (Model, error) { return NewBasic(b, p) },
	"basic_vs": func(b *ErosionModel, p config.ParamsConfig) (Model, error) {
		return NewBasicVs(b, p)
	},
	"basic_sa": func(b *ErosionModel, p config.ParamsConfig) (Model, error) {
		return NewBasicSa(b, p)
	},
	"basic_savs": func(b *ErosionModel, p config.ParamsConfig) (Model, error) {
		return NewBasicSaVs(b, p)
	},
	"basic_ddrt": func(b *ErosionModel, p config.ParamsConfig) (Model, error) {
		return NewBasicDdRt(b, p)
	},
}

// ListModels names every registered model program, sorted.
func ListModels() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// soilModels name the programs that require an initial soil column.
var soilModels = map[string]bool{
	"basic_vs":   true,
	"basic_sa":   true,
	"basic_savs": true,
}

// NewFromConfig assembles a ready-to-run model: grid, clock, initial
// surface, flow routing, the named model program, and its boundary
// handlers.
func NewFromConfig(cfg *config.Config, log *logrus.Logger) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	build, ok := builders[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %s (have %v)", terra.ErrUnknownModel, cfg.Model, ListModels())
	}

	clock, err := terra.NewClock(cfg.Clock.Start, cfg.Clock.Stop, cfg.Clock.Step)
	if err != nil {
		return nil, err
	}

	g, err := grid.NewRaster(cfg.Grid.Rows, cfg.Grid.Cols, cfg.Grid.Spacing)
	if err != nil {
		return nil, err
	}
	if cfg.Grid.DEM != "" {
		if err := grid.ReadEsriAscii(cfg.Grid.DEM, g, grid.FieldElevation); err != nil {
			return nil, err
		}
	} else {
		g.FillRandom(grid.FieldElevation, cfg.Grid.Seed, cfg.Grid.InitialRelief)
	}
	if cfg.Grid.Watershed {
		if err := g.SetWatershedBoundary(cfg.Grid.OutletNode); err != nil {
			return nil, err
		}
	}
	if soilModels[cfg.Model] {
		g.AddConstant(grid.FieldSoilDepth, cfg.Params.InitialSoilDepth)
	}

	base, err := NewErosionModel(clock, g, cfg.Params.RunoffRate, log)
	if err != nil {
		return nil, err
	}
	if cfg.Params.DepressionFinder {
		base.EnableDepressionFinder()
	}
	base.ErodeFlooded = cfg.Params.ErodeFlooded

	for _, hc := range cfg.Boundary {
		h, err := newHandler(g, clock, hc)
		if err != nil {
			return nil, err
		}
		base.AddBoundaryHandler(h)
	}

	return build(base, cfg.Params)
}

func newHandler(g *grid.Raster, clock *terra.Clock, hc config.HandlerConfig) (terra.BoundaryHandler, error) {
	switch hc.Handler {
	case "single_node_baselevel":
		return boundary.NewSingleNodeBaselevel(g, hc.Params.OutletNode, boundary.SingleNodeBaselevelConfig{
			LoweringRate:      hc.Params.LoweringRate,
			LoweringFilePath:  hc.Params.LoweringFile,
			ModelEndElevation: hc.Params.ModelEndElevation,
			ModelEndTime:      clock.Stop,
		})
	case "not_core_baselevel":
		return boundary.NewNotCoreBaselevel(g, hc.Params.Rate)
	case "precip_changer":
		return boundary.NewPrecipChanger(
			hc.Params.StartStormDepth,
			hc.Params.StopStormDepth,
			hc.Params.RampDuration,
			hc.Params.PrecipExponent,
		)
	default:
		return nil, fmt.Errorf("%w: %s", terra.ErrUnknownHandler, hc.Handler)
	}
}
