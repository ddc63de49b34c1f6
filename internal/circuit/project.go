package circuit

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/thermal"
)

type Settings struct {
	TimeStep           float64 `json:"timeStep" yaml:"time_step"`
	Duration           float64 `json:"duration" yaml:"duration"`
	AmbientTemperature float64 `json:"ambientTemperature" yaml:"ambient_temperature"`
	BufferScale        float64 `json:"bufferScale" yaml:"buffer_scale"`
	ThermalEnabled     bool    `json:"thermalEnabled" yaml:"thermal_enabled"`
	FailuresEnabled    bool    `json:"failuresEnabled" yaml:"failures_enabled"`
	FieldResolution    int     `json:"fieldResolution" yaml:"field_resolution"`
}

func DefaultSettings() Settings {
	return Settings{
		TimeStep:           0.1,
		AmbientTemperature: 25,
		BufferScale:        1,
		ThermalEnabled:     true,
		FailuresEnabled:    true,
		FieldResolution:    20,
	}
}

// Selection holds at most one of ComponentID and WireID.
type Selection struct {
	ComponentID string `json:"componentId,omitempty"`
	WireID      string `json:"wireId,omitempty"`
}

// Project is the aggregate root. Every mutation updates UpdatedAt.
type Project struct {
	Name       string       `json:"name"`
	Components []*Component `json:"components"`
	Wires      []*Wire      `json:"wires"`
	Settings   Settings     `json:"settings"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	Selection  Selection    `json:"selection"`

	labels map[string]int
	now    func() time.Time
}

func NewProject(name string, settings Settings) *Project {
	p := &Project{
		Name:     name,
		Settings: settings,
		labels:   make(map[string]int),
		now:      time.Now,
	}
	p.CreatedAt = p.now()
	p.UpdatedAt = p.CreatedAt
	return p
}

// SetClock replaces the time source used for timestamps.
func (p *Project) SetClock(now func() time.Time) {
	p.now = now
}

func (p *Project) touch() {
	if p.now == nil {
		p.now = time.Now
	}
	p.UpdatedAt = p.now()
}

func (p *Project) Component(id string) *Component {
	for _, c := range p.Components {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ComponentByLabel returns the first component with the given label.
func (p *Project) ComponentByLabel(label string) *Component {
	for _, c := range p.Components {
		if c.Label == label {
			return c
		}
	}
	return nil
}

func (p *Project) Wire(id string) *Wire {
	for _, w := range p.Wires {
		if w.ID == id {
			return w
		}
	}
	return nil
}

var labelPrefix = map[catalog.ComponentType]string{
	catalog.Resistor:       "R",
	catalog.Capacitor:      "C",
	catalog.Inductor:       "L",
	catalog.DCSource:       "V",
	catalog.ACSource:       "VAC",
	catalog.PulseGenerator: "PG",
	catalog.Coil:           "COIL",
	catalog.Solenoid:       "SOL",
	catalog.Toroid:         "TOR",
	catalog.Helmholtz:      "HH",
	catalog.Transformer:    "T",
	catalog.Switch:         "SW",
	catalog.Relay:          "K",
	catalog.Transistor:     "Q",
	catalog.Ground:         "GND",
}

func (p *Project) nextLabel(t catalog.ComponentType) string {
	prefix, ok := labelPrefix[t]
	if !ok {
		prefix = string(t)
	}
	if p.labels == nil {
		p.labels = make(map[string]int)
	}
	p.labels[prefix]++
	return fmt.Sprintf("%s%d", prefix, p.labels[prefix])
}

// AddComponent creates a component from its catalog definition at pos.
func (p *Project) AddComponent(def catalog.Definition, pos Position) (*Component, error) {
	props, err := NewProperties(def.Type, def.Defaults)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ports := make([]Port, len(def.Ports))
	for i, name := range def.Ports {
		ports[i] = Port{ID: PortID(id, name), Name: name, Index: i}
	}

	c := &Component{
		ID:       id,
		Type:     def.Type,
		Label:    p.nextLabel(def.Type),
		Position: pos,
		Ports:    ports,
		Material: def.Material,
		Props:    props,
		Thermal:  thermal.Params{Resistance: def.ThermalResistance, Capacity: def.HeatCapacity},
	}
	c.Runtime.Reset(p.Settings.AmbientTemperature)

	p.Components = append(p.Components, c)
	p.touch()
	return c, nil
}

func (p *Project) UpdateComponent(id string, updates map[string]any) error {
	c := p.Component(id)
	if c == nil {
		return fmt.Errorf("component %s: %w", id, ErrNotFound)
	}
	if err := c.Apply(updates); err != nil {
		return err
	}
	p.touch()
	return nil
}

// MoveComponent relocates a component and re-derives incident wire lengths.
func (p *Project) MoveComponent(id string, pos Position) bool {
	c := p.Component(id)
	if c == nil {
		return false
	}
	c.Position = pos
	for _, w := range p.Wires {
		if w.Connects(id) {
			w.Length = p.wireLength(w.Start, w.End)
		}
	}
	p.touch()
	return true
}

// RotateComponent adds angle degrees, normalized to [0, 360).
func (p *Project) RotateComponent(id string, angle float64) bool {
	c := p.Component(id)
	if c == nil || math.IsNaN(angle) || math.IsInf(angle, 0) {
		return false
	}
	r := math.Mod(c.Rotation+angle, 360)
	if r < 0 {
		r += 360
	}
	c.Rotation = r
	p.touch()
	return true
}

// RemoveComponent deletes the component and every wire touching it.
func (p *Project) RemoveComponent(id string) bool {
	idx := -1
	for i, c := range p.Components {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	p.Components = append(p.Components[:idx], p.Components[idx+1:]...)

	kept := p.Wires[:0]
	for _, w := range p.Wires {
		if w.Connects(id) {
			if p.Selection.WireID == w.ID {
				p.Selection.WireID = ""
			}
			continue
		}
		kept = append(kept, w)
	}
	p.Wires = kept

	if p.Selection.ComponentID == id {
		p.Selection.ComponentID = ""
	}
	p.touch()
	return true
}

func (p *Project) resolve(componentID, portRef string) (Endpoint, *Component, error) {
	c := p.Component(componentID)
	if c == nil {
		return Endpoint{}, nil, fmt.Errorf("component %s: %w", componentID, ErrNotFound)
	}
	port, ok := c.Port(portRef)
	if !ok {
		return Endpoint{}, nil, fmt.Errorf("%s port %q: %w", c.Label, portRef, ErrUnknownPort)
	}
	return Endpoint{ComponentID: c.ID, PortID: port.ID}, c, nil
}

func (p *Project) wireLength(a, b Endpoint) float64 {
	ca, cb := p.Component(a.ComponentID), p.Component(b.ComponentID)
	if ca == nil || cb == nil {
		return MinWireLength
	}
	return wireLength(ca.Position, cb.Position)
}

// AddWire connects two ports. Ports may be given by full id or by name.
func (p *Project) AddWire(startComponent, startPort, endComponent, endPort string) (*Wire, error) {
	start, _, err := p.resolve(startComponent, startPort)
	if err != nil {
		return nil, err
	}
	end, _, err := p.resolve(endComponent, endPort)
	if err != nil {
		return nil, err
	}
	if start == end {
		return nil, ErrSelfLoop
	}
	for _, w := range p.Wires {
		if w.samePorts(start, end) {
			return nil, ErrDuplicateWire
		}
	}

	w := &Wire{
		ID:           uuid.NewString(),
		Start:        start,
		End:          end,
		Material:     DefaultWireMaterial,
		CrossSection: DefaultWireCrossSection,
		Length:       p.wireLength(start, end),
		Temperature:  p.Settings.AmbientTemperature,
	}
	p.Wires = append(p.Wires, w)
	p.touch()
	return w, nil
}

func (p *Project) RemoveWire(id string) bool {
	for i, w := range p.Wires {
		if w.ID == id {
			p.Wires = append(p.Wires[:i], p.Wires[i+1:]...)
			if p.Selection.WireID == id {
				p.Selection.WireID = ""
			}
			p.touch()
			return true
		}
	}
	return false
}

// SelectComponent selects a component and clears any wire selection. An
// empty id clears the selection; an unknown id changes nothing.
func (p *Project) SelectComponent(id string) bool {
	if id != "" && p.Component(id) == nil {
		return false
	}
	p.Selection = Selection{ComponentID: id}
	p.touch()
	return true
}

func (p *Project) SelectWire(id string) bool {
	if id != "" && p.Wire(id) == nil {
		return false
	}
	p.Selection = Selection{WireID: id}
	p.touch()
	return true
}

// ResetRuntime returns every component and wire to idle at ambient temperature.
func (p *Project) ResetRuntime() {
	for _, c := range p.Components {
		c.Runtime.Reset(p.Settings.AmbientTemperature)
	}
	for _, w := range p.Wires {
		w.Current = 0
		w.Temperature = p.Settings.AmbientTemperature
	}
}

// ConnectedPorts returns the set of port ids touched by at least one wire.
func (p *Project) ConnectedPorts() map[string]bool {
	connected := make(map[string]bool, 2*len(p.Wires))
	for _, w := range p.Wires {
		connected[w.Start.PortID] = true
		connected[w.End.PortID] = true
	}
	return connected
}
