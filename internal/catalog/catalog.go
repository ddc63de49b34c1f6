// Package catalog holds the read-only lookup tables the engine is built
// with: component definitions keyed by type and material properties keyed by
// name. A Catalog is constructed once and injected into the engine; nothing
// in the engine reads package-level tables directly.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var ErrUnknownMaterial = errors.New("catalog: unknown material")

type ComponentType string

const (
	Resistor       ComponentType = "resistor"
	Capacitor      ComponentType = "capacitor"
	Inductor       ComponentType = "inductor"
	DCSource       ComponentType = "dcSource"
	ACSource       ComponentType = "acSource"
	PulseGenerator ComponentType = "pulseGenerator"
	Coil           ComponentType = "coil"
	Solenoid       ComponentType = "solenoid"
	Toroid         ComponentType = "toroid"
	Helmholtz      ComponentType = "helmholtz"
	Transformer    ComponentType = "transformer"
	Switch         ComponentType = "switch"
	Relay          ComponentType = "relay"
	Transistor     ComponentType = "transistor"
	Ground         ComponentType = "ground"
)

// IsSource reports whether components of type t drive a voltage.
func (t ComponentType) IsSource() bool {
	return t == DCSource || t == ACSource || t == PulseGenerator
}

type Category string

const (
	CategoryPassive   Category = "passive"
	CategorySource    Category = "source"
	CategoryMagnetic  Category = "magnetic"
	CategoryControl   Category = "control"
	CategoryReference Category = "reference"
)

type Footprint struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Definition describes a component type. Ports lists port names; its length
// is the port count fixed at creation.
type Definition struct {
	Type      ComponentType      `yaml:"type" json:"type"`
	Category  Category           `yaml:"category" json:"category"`
	Ports     []string           `yaml:"ports" json:"ports"`
	Defaults  map[string]float64 `yaml:"defaults" json:"defaults"`
	Material  string             `yaml:"material" json:"material"`
	Footprint Footprint          `yaml:"footprint" json:"footprint"`
	// ThermalResistance in °C/W to ambient, HeatCapacity in J/°C.
	ThermalResistance float64 `yaml:"thermal_resistance" json:"thermalResistance"`
	HeatCapacity      float64 `yaml:"heat_capacity" json:"heatCapacity"`
}

type Material struct {
	Name               string  `yaml:"name" json:"name"`
	Resistivity        float64 `yaml:"resistivity" json:"resistivity"`
	Permeability       float64 `yaml:"permeability" json:"permeability"`
	Conductivity       float64 `yaml:"conductivity" json:"conductivity"`
	ThermalCoefficient float64 `yaml:"thermal_coefficient" json:"thermalCoefficient"`
	MaxTemperature     float64 `yaml:"max_temperature" json:"maxTemperature"`
}

type Catalog struct {
	Components map[ComponentType]Definition `yaml:"components"`
	Materials  map[string]Material          `yaml:"materials"`
}

func (c *Catalog) Lookup(t ComponentType) (Definition, bool) {
	d, ok := c.Components[t]
	return d, ok
}

func (c *Catalog) Material(name string) (Material, bool) {
	m, ok := c.Materials[name]
	return m, ok
}

// Types returns the known component types in sorted order.
func (c *Catalog) Types() []ComponentType {
	types := make([]ComponentType, 0, len(c.Components))
	for t := range c.Components {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Merge overlays other onto c. Entries in other replace entries with the same key.
func (c *Catalog) Merge(other *Catalog) {
	for t, d := range other.Components {
		d.Type = t
		c.Components[t] = d
	}
	for name, m := range other.Materials {
		m.Name = name
		if m.Conductivity == 0 && m.Resistivity > 0 {
			m.Conductivity = 1 / m.Resistivity
		}
		c.Materials[name] = m
	}
}

// Validate checks that every definition references a known material.
func (c *Catalog) Validate() error {
	for _, t := range c.Types() {
		d := c.Components[t]
		if _, ok := c.Materials[d.Material]; !ok {
			return fmt.Errorf("component %s material %q: %w", t, d.Material, ErrUnknownMaterial)
		}
		if len(d.Ports) == 0 || len(d.Ports) > 4 {
			return fmt.Errorf("component %s: port count %d outside 1-4", t, len(d.Ports))
		}
	}
	return nil
}

// Load returns the default catalog overlaid with the YAML file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	c := Default()
	c.Merge(&override)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
