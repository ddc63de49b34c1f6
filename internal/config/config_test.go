package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if cfg.Limits.Solver.MaxIterations != 100 || cfg.Limits.OverheatRatio != 0.5 {
		t.Errorf("unexpected limits %+v", cfg.Limits)
	}
	if !cfg.Settings.ThermalEnabled || cfg.Settings.AmbientTemperature != 25 {
		t.Errorf("unexpected settings %+v", cfg.Settings)
	}
}

func TestGetPreset(t *testing.T) {
	cfg, err := GetPreset("divider")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Circuit.Components) != 4 || cfg.Circuit.Components[2].Properties["resistance"] != 3000 {
		t.Errorf("unexpected divider %+v", cfg.Circuit)
	}

	cfg.Name = "changed"
	again, _ := GetPreset("divider")
	if again.Name != "divider" {
		t.Error("preset shared between calls")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if _, err := GetPreset("nonexistent"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(presets) {
		t.Fatalf("expected %d presets, got %d", len(presets), len(names))
	}
	for _, name := range names {
		cfg, _ := GetPreset(name)
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coil.yaml")
	cfg, _ := GetPreset("coil")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "coil" || len(loaded.Circuit.Wires) != 4 || len(loaded.Events) != 1 {
		t.Errorf("round trip lost data: %+v", loaded)
	}
	if len(loaded.Field.Sources) != 1 || loaded.Field.Sources[0].Radius != 500 {
		t.Errorf("field sources lost: %+v", loaded.Field)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"duplicate name", func(c *Config) { c.Circuit.Components[1].Name = "V1" }},
		{"bad ref", func(c *Config) { c.Circuit.Wires[0].From = "V1" }},
		{"unknown ref", func(c *Config) { c.Circuit.Wires[0].To = "R9.a" }},
		{"unknown event target", func(c *Config) { c.Events = []Event{{At: 1, Component: "X"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := GetPreset("divider")
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSplitRef(t *testing.T) {
	tests := []struct {
		ref        string
		name, port string
		ok         bool
	}{
		{"R1.a", "R1", "a", true},
		{"K1.coil+", "K1", "coil+", true},
		{"my.part.b", "my.part", "b", true},
		{"R1", "", "", false},
		{".a", "", "", false},
		{"R1.", "", "", false},
	}
	for _, tt := range tests {
		name, port, err := SplitRef(tt.ref)
		if (err == nil) != tt.ok || name != tt.name || port != tt.port {
			t.Errorf("SplitRef(%q) = %q, %q, %v", tt.ref, name, port, err)
		}
	}
}

func TestSteps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt, cfg.Duration = 0.1, 2
	if cfg.Steps() != 20 {
		t.Errorf("expected 20 steps, got %d", cfg.Steps())
	}
}
