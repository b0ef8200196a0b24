package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRows          = 40
	DefaultCols          = 60
	DefaultSpacing       = 30.0
	DefaultClockStop     = 100000.0
	DefaultClockStep     = 500.0
	DefaultMSp           = 0.5
	DefaultNSp           = 1.0
	DefaultErodibility   = 0.0001
	DefaultTransport     = 0.1
	DefaultRunoffRate    = 1.0
	DefaultSoilProdRate  = 0.001
	DefaultSoilProdDecay = 0.5
	DefaultSoilTransport = 0.5
	DefaultConductivity  = 0.1
	DefaultInitialSoil   = 1.0
	DefaultInitialRelief = 1.0
	DefaultOutputEvery   = 5000.0
)

// Config is the full parameter mapping for a model run: named scalars plus
// nested sub-configurations, including the boundary-handler selector with
// its own parameter block.
type Config struct {
	Model    string          `yaml:"model"`
	Clock    ClockConfig     `yaml:"clock"`
	Grid     GridConfig      `yaml:"grid"`
	Params   ParamsConfig    `yaml:"params"`
	Boundary []HandlerConfig `yaml:"boundary"`
	Output   OutputConfig    `yaml:"output"`
}

type ClockConfig struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Step  float64 `yaml:"step"`
}

type GridConfig struct {
	Rows    int     `yaml:"rows"`
	Cols    int     `yaml:"cols"`
	Spacing float64 `yaml:"spacing"`

	// Initial surface: either seeded random noise of the given relief, or
	// a DEM read from an ESRI ASCII file.
	Seed          int64   `yaml:"seed"`
	InitialRelief float64 `yaml:"initial_relief"`
	DEM           string  `yaml:"dem"`

	// Watershed mode closes the perimeter except for the outlet node.
	Watershed  bool `yaml:"watershed"`
	OutletNode int  `yaml:"outlet_node"`
}

type ParamsConfig struct {
	MSp               float64 `yaml:"m_sp"`
	NSp               float64 `yaml:"n_sp"`
	WaterErodibility  float64 `yaml:"water_erodibility"`
	RegolithTransport float64 `yaml:"regolith_transport_parameter"`
	RunoffRate        float64 `yaml:"runoff_rate"`

	// soil models
	SoilProductionMaxRate    float64 `yaml:"soil_production__maximum_rate"`
	SoilProductionDecayDepth float64 `yaml:"soil_production__decay_depth"`
	SoilTransportDecayDepth  float64 `yaml:"soil_transport_decay_depth"`
	InitialSoilDepth         float64 `yaml:"initial_soil_depth"`

	// variable source-area models
	HydraulicConductivity float64 `yaml:"hydraulic_conductivity"`
	RechargeRate          float64 `yaml:"recharge_rate"`

	// rock/till models
	WaterErodibilityRock float64 `yaml:"water_erodibility~rock"`
	WaterErodibilityTill float64 `yaml:"water_erodibility~till"`
	ContactZoneWidth     float64 `yaml:"contact_zone__width"`
	ContactFile          string  `yaml:"lithology_contact_file"`

	// threshold models
	ErosionThreshold     float64 `yaml:"erosion__threshold"`
	ThreshChangePerDepth float64 `yaml:"thresh_change_per_depth"`

	DepressionFinder  bool `yaml:"depression_finder"`
	ErodeFlooded      bool `yaml:"erode_flooded_nodes"`
	ImplicitDiffusion bool `yaml:"implicit_diffusion"`
}

// HandlerConfig selects one boundary handler by name along with that
// handler's own parameter block.
type HandlerConfig struct {
	Handler string        `yaml:"handler"`
	Params  HandlerParams `yaml:"params"`
}

type HandlerParams struct {
	// single_node_baselevel
	OutletNode        int      `yaml:"outlet_node"`
	LoweringRate      *float64 `yaml:"lowering_rate"`
	LoweringFile      string   `yaml:"lowering_file"`
	ModelEndElevation *float64 `yaml:"model_end_elevation"`

	// not_core_baselevel
	Rate float64 `yaml:"rate"`

	// precip_changer
	StartStormDepth float64 `yaml:"mean_storm_depth"`
	StopStormDepth  float64 `yaml:"final_storm_depth"`
	RampDuration    float64 `yaml:"ramp_duration"`
	PrecipExponent  float64 `yaml:"precip_exponent"`
}

type OutputConfig struct {
	Dir      string  `yaml:"dir"`
	Prefix   string  `yaml:"prefix"`
	Interval float64 `yaml:"interval"`

	// Frames records a paletted image of the surface at every output time
	// for later GIF assembly.
	Frames     bool `yaml:"frames"`
	FrameScale int  `yaml:"frame_scale"`
}

func DefaultConfig() *Config {
	return &Config{
		Model: "basic",
		Clock: ClockConfig{Start: 0, Stop: DefaultClockStop, Step: DefaultClockStep},
		Grid: GridConfig{
			Rows:          DefaultRows,
			Cols:          DefaultCols,
			Spacing:       DefaultSpacing,
			Seed:          42,
			InitialRelief: DefaultInitialRelief,
		},
		Params: ParamsConfig{
			MSp:                      DefaultMSp,
			NSp:                      DefaultNSp,
			WaterErodibility:         DefaultErodibility,
			RegolithTransport:        DefaultTransport,
			RunoffRate:               DefaultRunoffRate,
			SoilProductionMaxRate:    DefaultSoilProdRate,
			SoilProductionDecayDepth: DefaultSoilProdDecay,
			SoilTransportDecayDepth:  DefaultSoilTransport,
			InitialSoilDepth:         DefaultInitialSoil,
			HydraulicConductivity:    DefaultConductivity,
			RechargeRate:             DefaultRunoffRate,
		},
		Output: OutputConfig{
			Dir:        "output",
			Prefix:     "landform",
			Interval:   DefaultOutputEvery,
			FrameScale: 4,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the cross-field constraints the model constructors rely on.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("config: model name required")
	}
	if c.Clock.Step <= 0 {
		return fmt.Errorf("config: clock step must be positive, got %g", c.Clock.Step)
	}
	if c.Clock.Stop < c.Clock.Start {
		return fmt.Errorf("config: clock stop %g before start %g", c.Clock.Stop, c.Clock.Start)
	}
	if c.Grid.Rows < 3 || c.Grid.Cols < 3 {
		return fmt.Errorf("config: grid %dx%d too small", c.Grid.Rows, c.Grid.Cols)
	}
	if c.Grid.Spacing <= 0 {
		return fmt.Errorf("config: grid spacing must be positive, got %g", c.Grid.Spacing)
	}
	if c.Params.RunoffRate <= 0 {
		return fmt.Errorf("config: runoff rate must be positive, got %g", c.Params.RunoffRate)
	}
	if c.Output.Interval < 0 {
		return fmt.Errorf("config: output interval must be non-negative, got %g", c.Output.Interval)
	}
	for _, h := range c.Boundary {
		if h.Handler == "" {
			return fmt.Errorf("config: boundary entry missing handler selector")
		}
	}
	return nil
}
