package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/field"
	"github.com/san-kum/emsim/internal/geodesy"
)

func comp(name string, t catalog.ComponentType, x, y float64, props map[string]float64) ComponentConfig {
	return ComponentConfig{Name: name, Type: t, X: x, Y: y, Properties: props}
}

func wire(from, to string) WireConfig { return WireConfig{From: from, To: to} }

var presets = map[string]func() *Config{
	"divider": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "divider"
		cfg.Description = "10 V across a 1k/3k resistive divider"
		cfg.Duration = 5
		cfg.Circuit = CircuitConfig{
			Components: []ComponentConfig{
				comp("V1", catalog.DCSource, 0, 0, map[string]float64{"voltage": 10}),
				comp("R1", catalog.Resistor, 100, 0, map[string]float64{"resistance": 1000}),
				comp("R2", catalog.Resistor, 100, 100, map[string]float64{"resistance": 3000}),
				comp("GND", catalog.Ground, 0, 150, nil),
			},
			Wires: []WireConfig{
				wire("V1.positive", "R1.a"),
				wire("R1.b", "R2.a"),
				wire("R2.b", "V1.negative"),
				wire("V1.negative", "GND.gnd"),
			},
		}
		return cfg
	},
	"overload": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "overload"
		cfg.Description = "12 V across a 10 ohm carbon resistor until it burns out"
		cfg.Duration = 20
		cfg.Circuit = CircuitConfig{
			Components: []ComponentConfig{
				comp("V1", catalog.DCSource, 0, 0, map[string]float64{"voltage": 12}),
				comp("R1", catalog.Resistor, 120, 0, map[string]float64{"resistance": 10}),
				comp("GND", catalog.Ground, 0, 150, nil),
			},
			Wires: []WireConfig{
				wire("V1.positive", "R1.a"),
				wire("R1.b", "V1.negative"),
				wire("V1.negative", "GND.gnd"),
			},
		}
		return cfg
	},
	"coil": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "coil"
		cfg.Description = "solenoid driven through a switch that opens at 5 s, with a ground loop field"
		cfg.Duration = 10
		cfg.Circuit = CircuitConfig{
			Components: []ComponentConfig{
				comp("V1", catalog.DCSource, 0, 0, map[string]float64{"voltage": 6}),
				comp("SW1", catalog.Switch, 80, 0, map[string]float64{"closed": 1}),
				comp("SOL1", catalog.Solenoid, 200, 0, map[string]float64{"turns": 400}),
				comp("GND", catalog.Ground, 0, 150, nil),
			},
			Wires: []WireConfig{
				wire("V1.positive", "SW1.a"),
				wire("SW1.b", "SOL1.a"),
				wire("SOL1.b", "V1.negative"),
				wire("V1.negative", "GND.gnd"),
			},
		}
		cfg.Events = []Event{{At: 5, Component: "SW1", Set: map[string]float64{"closed": 0}}}
		center := geodesy.Geo{Lat: 45, Lon: 7}
		cfg.Field = FieldConfig{
			Sources:    []field.Source{field.NewLoop(center, 500, 10, 100)},
			Lat:        field.Range{Min: 44.99, Max: 45.01},
			Lon:        field.Range{Min: 6.99, Max: 7.01},
			Resolution: 20,
			Scale:      1,
		}
		return cfg
	},
	"pulse": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "pulse"
		cfg.Description = "2 Hz pulse train into an RL load"
		cfg.Dt = 0.01
		cfg.Duration = 4
		cfg.Circuit = CircuitConfig{
			Components: []ComponentConfig{
				comp("PG1", catalog.PulseGenerator, 0, 0, map[string]float64{"voltage": 5, "frequency": 2, "dutyCycle": 0.25}),
				comp("R1", catalog.Resistor, 100, 0, map[string]float64{"resistance": 47}),
				comp("L1", catalog.Inductor, 200, 0, map[string]float64{"inductance": 0.01, "resistance": 3}),
				comp("GND", catalog.Ground, 0, 150, nil),
			},
			Wires: []WireConfig{
				wire("PG1.positive", "R1.a"),
				wire("R1.b", "L1.a"),
				wire("L1.b", "PG1.negative"),
				wire("PG1.negative", "GND.gnd"),
			},
		}
		return cfg
	},
	"relay": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "relay"
		cfg.Description = "relay coil on a 12 V supply switching a lamp load"
		cfg.Duration = 3
		cfg.Circuit = CircuitConfig{
			Components: []ComponentConfig{
				comp("V1", catalog.DCSource, 0, 0, map[string]float64{"voltage": 12}),
				comp("K1", catalog.Relay, 120, 0, nil),
				comp("LAMP", catalog.Resistor, 240, 0, map[string]float64{"resistance": 24}),
				comp("GND", catalog.Ground, 0, 150, nil),
			},
			Wires: []WireConfig{
				wire("V1.positive", "K1.coil+"),
				wire("K1.coil-", "V1.negative"),
				wire("V1.positive", "K1.com"),
				wire("K1.no", "LAMP.a"),
				wire("LAMP.b", "V1.negative"),
				wire("V1.negative", "GND.gnd"),
			},
		}
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset.
func GetPreset(name string) (*Config, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return build(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
