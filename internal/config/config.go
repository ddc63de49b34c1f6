package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/circuit"
	"github.com/san-kum/emsim/internal/field"
	"github.com/san-kum/emsim/internal/sim"
)

const (
	DefaultDt       = 0.1
	DefaultDuration = 10.0
	DefaultLogLevel = "info"
)

var (
	ErrUnknownPreset = errors.New("config: unknown preset")
	ErrBadReference  = errors.New("config: bad port reference")
)

// Config describes one circuit run: the circuit itself, engine settings and
// limits, timed events, and an optional set of field sources.
type Config struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Dt          float64          `yaml:"dt"`
	Duration    float64          `yaml:"duration"`
	LogLevel    string           `yaml:"log_level"`
	Catalog     string           `yaml:"catalog,omitempty"`
	Settings    circuit.Settings `yaml:"settings"`
	Limits      sim.Limits       `yaml:"limits"`
	Circuit     CircuitConfig    `yaml:"circuit"`
	Events      []Event          `yaml:"events,omitempty"`
	Field       FieldConfig      `yaml:"field,omitempty"`
}

type CircuitConfig struct {
	Components []ComponentConfig `yaml:"components"`
	Wires      []WireConfig      `yaml:"wires"`
}

// ComponentConfig places one component. Name becomes its label and is how
// wires and events refer to it.
type ComponentConfig struct {
	Name       string                `yaml:"name"`
	Type       catalog.ComponentType `yaml:"type"`
	X          float64               `yaml:"x"`
	Y          float64               `yaml:"y"`
	Rotation   float64               `yaml:"rotation,omitempty"`
	Material   string                `yaml:"material,omitempty"`
	Properties map[string]float64    `yaml:"properties,omitempty"`
}

// WireConfig joins two ports written as "<name>.<port>".
type WireConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Event changes component properties once elapsed time reaches At.
type Event struct {
	At        float64            `yaml:"at"`
	Component string             `yaml:"component"`
	Set       map[string]float64 `yaml:"set"`
}

type FieldConfig struct {
	Sources    []field.Source `yaml:"sources,omitempty"`
	Lat        field.Range    `yaml:"lat,omitempty"`
	Lon        field.Range    `yaml:"lon,omitempty"`
	Alt        float64        `yaml:"alt,omitempty"`
	Resolution int            `yaml:"resolution,omitempty"`
	Scale      float64        `yaml:"scale,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "untitled",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		LogLevel: DefaultLogLevel,
		Settings: circuit.DefaultSettings(),
		Limits:   sim.DefaultLimits(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

// SplitRef parses "<name>.<port>". The port is everything after the last dot.
func SplitRef(ref string) (name, port string, err error) {
	i := strings.LastIndex(ref, ".")
	if i <= 0 || i == len(ref)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrBadReference, ref)
	}
	return ref[:i], ref[i+1:], nil
}

// Validate checks the parts of a config that can be checked without a catalog.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}

	names := make(map[string]bool, len(c.Circuit.Components))
	for _, comp := range c.Circuit.Components {
		if comp.Name == "" {
			return fmt.Errorf("component of type %s has no name", comp.Type)
		}
		if names[comp.Name] {
			return fmt.Errorf("duplicate component name %q", comp.Name)
		}
		names[comp.Name] = true
	}
	for _, w := range c.Circuit.Wires {
		for _, ref := range []string{w.From, w.To} {
			name, _, err := SplitRef(ref)
			if err != nil {
				return err
			}
			if !names[name] {
				return fmt.Errorf("%w: %q names no component", ErrBadReference, ref)
			}
		}
	}
	for _, ev := range c.Events {
		if !names[ev.Component] {
			return fmt.Errorf("event at %g: unknown component %q", ev.At, ev.Component)
		}
	}
	return nil
}

// Steps is the number of dt steps covering Duration.
func (c *Config) Steps() int {
	if c.Dt <= 0 {
		return 0
	}
	return int(c.Duration/c.Dt + 0.5)
}
