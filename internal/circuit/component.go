// Package circuit is the persistent circuit model: components with typed
// property variants, the wires between their ports, and the project that
// owns both.
package circuit

import (
	"fmt"
	"math"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/thermal"
)

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Position) DistanceTo(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Port ids are "<componentID>/<name>".
type Port struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Index int    `json:"index"`
}

func PortID(componentID, name string) string {
	return componentID + "/" + name
}

// Runtime is the per-step state written by the simulation.
type Runtime struct {
	Temperature float64              `json:"temperature"`
	Current     float64              `json:"current"`
	VoltageDrop float64              `json:"voltageDrop"`
	Power       float64              `json:"power"`
	Failed      bool                 `json:"failed"`
	FailureKind thermal.FailureKind  `json:"failureKind"`
	Warning     thermal.WarningLevel `json:"warning"`
}

// Reset restores the idle state at the given ambient temperature.
func (r *Runtime) Reset(ambient float64) {
	*r = Runtime{
		Temperature: ambient,
		FailureKind: thermal.FailureNone,
		Warning:     thermal.WarningNone,
	}
}

// Fail marks the runtime failed. A runtime that already failed keeps its first kind.
func (r *Runtime) Fail(kind thermal.FailureKind) bool {
	if r.Failed {
		return false
	}
	r.Failed = true
	r.FailureKind = kind
	return true
}

type Component struct {
	ID       string                `json:"id"`
	Type     catalog.ComponentType `json:"type"`
	Label    string                `json:"label"`
	Position Position              `json:"position"`
	Rotation float64               `json:"rotation"`
	Ports    []Port                `json:"ports"`
	Material string                `json:"material"`
	Props    Properties            `json:"properties"`
	Thermal  thermal.Params        `json:"thermal"`
	Runtime  Runtime               `json:"runtime"`
}

// Port returns the port matching either its full id or its name.
func (c *Component) Port(ref string) (Port, bool) {
	for _, p := range c.Ports {
		if p.ID == ref || p.Name == ref {
			return p, true
		}
	}
	return Port{}, false
}

// Apply sets properties by name. "material" and "label" go to the base
// record; every other key must be numeric and known to the variant. Nothing
// is applied unless every update is acceptable.
func (c *Component) Apply(updates map[string]any) error {
	known := c.Props.Params()
	numeric := make(map[string]float64, len(updates))
	for name, raw := range updates {
		switch name {
		case "material", "label":
			if _, ok := raw.(string); !ok {
				return fmt.Errorf("%s: expected string, got %T", name, raw)
			}
			continue
		}
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%s: %w for %s", name, ErrUnknownParam, c.Type)
		}
		v, ok := toFloat(raw)
		if !ok {
			return fmt.Errorf("%s: expected number, got %T", name, raw)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: %w: %g", name, ErrInvalidValue, v)
		}
		numeric[name] = v
	}

	if s, ok := updates["material"].(string); ok {
		c.Material = s
	}
	if s, ok := updates["label"].(string); ok {
		c.Label = s
	}
	for name, v := range numeric {
		if err := c.Props.SetParam(name, v); err != nil {
			return err
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
