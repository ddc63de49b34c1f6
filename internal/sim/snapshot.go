package sim

import (
	"time"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/circuit"
	"github.com/san-kum/emsim/internal/solver"
)

type ComponentView struct {
	ID         string                `json:"id"`
	Type       catalog.ComponentType `json:"type"`
	Label      string                `json:"label"`
	Position   circuit.Position      `json:"position"`
	Rotation   float64               `json:"rotation"`
	Material   string                `json:"material"`
	Ports      []circuit.Port        `json:"ports"`
	Properties map[string]float64    `json:"properties"`
	Runtime    circuit.Runtime       `json:"runtime"`
}

// Snapshot is a detached copy of the project and simulation state for
// rendering or export. Mutating it does not affect the engine.
type Snapshot struct {
	Name       string            `json:"name"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Settings   circuit.Settings  `json:"settings"`
	Selection  circuit.Selection `json:"selection"`
	Components []ComponentView   `json:"components"`
	Wires      []circuit.Wire    `json:"wires"`
	Nodes      []solver.Node     `json:"nodes"`
	Simulation State             `json:"simulation"`
}

func (e *Engine) Snapshot() Snapshot {
	p := e.project
	s := Snapshot{
		Name:       p.Name,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		Settings:   p.Settings,
		Selection:  p.Selection,
		Components: make([]ComponentView, 0, len(p.Components)),
		Wires:      make([]circuit.Wire, 0, len(p.Wires)),
		Nodes:      []solver.Node{},
		Simulation: e.state,
	}
	s.Simulation.Errors = append([]string(nil), e.state.Errors...)
	s.Simulation.Warnings = append([]string(nil), e.state.Warnings...)

	for _, c := range p.Components {
		s.Components = append(s.Components, ComponentView{
			ID:         c.ID,
			Type:       c.Type,
			Label:      c.Label,
			Position:   c.Position,
			Rotation:   c.Rotation,
			Material:   c.Material,
			Ports:      append([]circuit.Port(nil), c.Ports...),
			Properties: c.Props.Params(),
			Runtime:    c.Runtime,
		})
	}
	for _, w := range p.Wires {
		s.Wires = append(s.Wires, *w)
	}
	if e.graph != nil {
		for _, id := range e.graph.Order {
			s.Nodes = append(s.Nodes, *e.graph.Nodes[id])
		}
	}
	return s
}
