package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "basic" {
		t.Errorf("expected model basic, got %s", cfg.Model)
	}
	if cfg.Clock.Step <= 0 {
		t.Error("clock step should be positive")
	}
	if cfg.Grid.Rows < 3 || cfg.Grid.Cols < 3 {
		t.Error("default grid too small")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero step", func(c *Config) { c.Clock.Step = 0 }},
		{"stop before start", func(c *Config) { c.Clock.Start = 100; c.Clock.Stop = 50 }},
		{"tiny grid", func(c *Config) { c.Grid.Rows = 2 }},
		{"zero spacing", func(c *Config) { c.Grid.Spacing = 0 }},
		{"zero runoff", func(c *Config) { c.Params.RunoffRate = 0 }},
		{"negative output interval", func(c *Config) { c.Output.Interval = -1 }},
		{"nameless handler", func(c *Config) { c.Boundary = []HandlerConfig{{}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("basic", "canyons")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Clock.Stop != 200000 {
		t.Errorf("expected stop 200000, got %g", cfg.Clock.Stop)
	}
	if len(cfg.Boundary) != 1 || cfg.Boundary[0].Handler != "not_core_baselevel" {
		t.Error("canyons preset should carry a baselevel handler")
	}
	// unset values fall back to defaults
	if cfg.Params.NSp != DefaultNSp {
		t.Errorf("preset should inherit n_sp default, got %g", cfg.Params.NSp)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset should validate: %v", err)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("basic", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "hillslopes") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	if len(ListPresets("basic")) == 0 {
		t.Error("expected presets for basic")
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = "basic_vs"
	cfg.Clock.Stop = 12345
	cfg.Params.HydraulicConductivity = 0.25
	rate := 0.005
	cfg.Boundary = []HandlerConfig{{
		Handler: "single_node_baselevel",
		Params:  HandlerParams{OutletNode: 3, LoweringRate: &rate},
	}}

	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Model != "basic_vs" {
		t.Errorf("model changed to %s", loaded.Model)
	}
	if loaded.Clock.Stop != 12345 {
		t.Errorf("clock stop changed to %g", loaded.Clock.Stop)
	}
	if loaded.Params.HydraulicConductivity != 0.25 {
		t.Errorf("conductivity changed to %g", loaded.Params.HydraulicConductivity)
	}
	if len(loaded.Boundary) != 1 {
		t.Fatal("boundary handler lost in round trip")
	}
	hp := loaded.Boundary[0].Params
	if hp.OutletNode != 3 || hp.LoweringRate == nil || *hp.LoweringRate != 0.005 {
		t.Error("handler params lost in round trip")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
