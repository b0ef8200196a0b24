package config

// Presets are ready-made run configurations keyed by model, then name.
// Values not set here fall back to DefaultConfig at lookup time.
var Presets = map[string]map[string]*Config{
	"basic": {
		"hillslopes": {
			Model: "basic",
			Clock: ClockConfig{Stop: 50000, Step: 250},
			Grid:  GridConfig{Rows: 40, Cols: 60, Spacing: 30, Seed: 42, InitialRelief: 1},
			Params: ParamsConfig{
				MSp: 0.5, NSp: 1, WaterErodibility: 0.00005,
				RegolithTransport: 0.5, RunoffRate: 1,
			},
		},
		"canyons": {
			Model: "basic",
			Clock: ClockConfig{Stop: 200000, Step: 500},
			Grid:  GridConfig{Rows: 60, Cols: 90, Spacing: 30, Seed: 7, InitialRelief: 1},
			Params: ParamsConfig{
				MSp: 0.5, NSp: 1, WaterErodibility: 0.0003,
				RegolithTransport: 0.01, RunoffRate: 1,
			},
			Boundary: []HandlerConfig{{
				Handler: "not_core_baselevel",
				Params:  HandlerParams{Rate: 0.0005},
			}},
		},
		"lakes": {
			Model: "basic",
			Clock: ClockConfig{Stop: 100000, Step: 500},
			Grid:  GridConfig{Rows: 50, Cols: 50, Spacing: 30, Seed: 3, InitialRelief: 2},
			Params: ParamsConfig{
				MSp: 0.5, NSp: 1, WaterErodibility: 0.0001,
				RegolithTransport: 0.05, RunoffRate: 1,
				DepressionFinder: true,
			},
		},
	},
	"basic_sa": {
		"soil_mantled": {
			Model: "basic_sa",
			Clock: ClockConfig{Stop: 100000, Step: 500},
			Grid:  GridConfig{Rows: 40, Cols: 60, Spacing: 30, Seed: 42, InitialRelief: 1},
			Params: ParamsConfig{
				MSp: 0.5, NSp: 1, WaterErodibility: 0.0001,
				RegolithTransport: 0.1, RunoffRate: 1,
				SoilProductionMaxRate: 0.001, SoilProductionDecayDepth: 0.5,
				SoilTransportDecayDepth: 0.5, InitialSoilDepth: 1,
			},
		},
	},
	"basic_vs": {
		"damp_valleys": {
			Model: "basic_vs",
			Clock: ClockConfig{Stop: 100000, Step: 500},
			Grid:  GridConfig{Rows: 40, Cols: 60, Spacing: 30, Seed: 42, InitialRelief: 1},
			Params: ParamsConfig{
				MSp: 0.5, NSp: 1, WaterErodibility: 0.0002,
				RegolithTransport: 0.1, RunoffRate: 1,
				HydraulicConductivity: 0.5, RechargeRate: 1,
				InitialSoilDepth: 1,
			},
		},
	},
}

func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	merged := DefaultConfig()
	merged.Model = cfg.Model
	merged.Clock = fillClock(cfg.Clock)
	merged.Grid = fillGrid(cfg.Grid)
	merged.Params = fillParams(cfg.Params, merged.Params)
	merged.Boundary = cfg.Boundary
	if cfg.Output.Interval > 0 {
		merged.Output = cfg.Output
	}
	return merged
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}

func fillClock(c ClockConfig) ClockConfig {
	if c.Step == 0 {
		c.Step = DefaultClockStep
	}
	if c.Stop == 0 {
		c.Stop = DefaultClockStop
	}
	return c
}

func fillGrid(g GridConfig) GridConfig {
	if g.Rows == 0 {
		g.Rows = DefaultRows
	}
	if g.Cols == 0 {
		g.Cols = DefaultCols
	}
	if g.Spacing == 0 {
		g.Spacing = DefaultSpacing
	}
	return g
}

func fillParams(p, def ParamsConfig) ParamsConfig {
	if p.RunoffRate == 0 {
		p.RunoffRate = def.RunoffRate
	}
	if p.NSp == 0 {
		p.NSp = def.NSp
	}
	if p.SoilProductionDecayDepth == 0 {
		p.SoilProductionDecayDepth = def.SoilProductionDecayDepth
	}
	if p.SoilTransportDecayDepth == 0 {
		p.SoilTransportDecayDepth = def.SoilTransportDecayDepth
	}
	if p.RechargeRate == 0 {
		p.RechargeRate = def.RechargeRate
	}
	return p
}
