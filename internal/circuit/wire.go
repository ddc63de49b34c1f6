package circuit

import (
	"math"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/impedance"
)

const (
	// MetersPerUnit converts canvas units (millimetres) to meters.
	MetersPerUnit = 0.001
	MinWireLength = 0.01

	DefaultWireMaterial     = "copper"
	DefaultWireCrossSection = 1.5 // mm²

	// wireThermalResistance is per meter of wire, °C·m/W.
	wireThermalResistance = 10.0
	// volumetric heat capacity of copper, J/(m³·°C)
	wireVolumetricHeat = 3.45e6
)

type Endpoint struct {
	ComponentID string `json:"componentId"`
	PortID      string `json:"portId"`
}

type Wire struct {
	ID           string   `json:"id"`
	Start        Endpoint `json:"start"`
	End          Endpoint `json:"end"`
	Material     string   `json:"material"`
	CrossSection float64  `json:"crossSection"`
	Length       float64  `json:"length"`
	Current      float64  `json:"current"`
	Temperature  float64  `json:"temperature"`
}

// Connects reports whether the wire touches the component.
func (w *Wire) Connects(componentID string) bool {
	return w.Start.ComponentID == componentID || w.End.ComponentID == componentID
}

func (w *Wire) samePorts(a, b Endpoint) bool {
	return (w.Start == a && w.End == b) || (w.Start == b && w.End == a)
}

// Area is the conductor cross-section in m².
func (w *Wire) Area() float64 {
	return w.CrossSection * 1e-6
}

func (w *Wire) Resistance(m catalog.Material) float64 {
	return impedance.WireResistance(m.Resistivity, w.Length, w.Area(), m.ThermalCoefficient, w.Temperature)
}

// ThermalResistance to ambient, °C/W. Longer wires shed heat more easily.
func (w *Wire) ThermalResistance() float64 {
	return wireThermalResistance / math.Max(w.Length, MinWireLength)
}

func (w *Wire) HeatCapacity() float64 {
	return wireVolumetricHeat * w.Area() * w.Length
}

func wireLength(a, b Position) float64 {
	return math.Max(a.DistanceTo(b)*MetersPerUnit, MinWireLength)
}
