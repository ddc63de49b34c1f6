// Package solver turns a circuit project into a transient node/branch graph
// and relaxes it to node voltages and branch currents.
package solver

import (
	"fmt"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/circuit"
	"github.com/san-kum/emsim/internal/impedance"
	"github.com/san-kum/emsim/internal/vecmath"
)

// MaterialLookup resolves a material by name. *catalog.Catalog satisfies it.
type MaterialLookup interface {
	Material(name string) (catalog.Material, bool)
}

type Node struct {
	ID      string  `json:"id"`
	Voltage float64 `json:"voltage"`
	Pinned  bool    `json:"pinned"`
}

type Branch struct {
	ID          string             `json:"id"`
	From        string             `json:"from"`
	To          string             `json:"to"`
	Z           vecmath.Complex    `json:"impedance"`
	Kind        circuit.BranchKind `json:"kind"`
	Value       float64            `json:"value"`
	Current     float64            `json:"current"`
	ComponentID string             `json:"componentId,omitempty"`
	WireID      string             `json:"wireId,omitempty"`
}

// Drop is the voltage of From over To.
func (g *Graph) Drop(b *Branch) float64 {
	return g.Nodes[b.From].Voltage - g.Nodes[b.To].Voltage
}

type adjacent struct {
	branch *Branch
	other  string
}

// Graph is rebuilt every step. Ports joined by wires share one node whose id
// is the first such port in component order.
type Graph struct {
	Nodes    map[string]*Node
	Order    []string
	Branches []*Branch

	netOf      map[string]string
	adj        map[string][]adjacent
	byComp     map[string][]*Branch
	byWire     map[string]*Branch
	wireEnds   map[string][2]string
	groundNets map[string]bool
}

// NodeOf returns the node id for a port id.
func (g *Graph) NodeOf(portID string) (string, bool) {
	n, ok := g.netOf[portID]
	return n, ok
}

// ComponentBranches returns the branches a component contributed, in edge order.
func (g *Graph) ComponentBranches(componentID string) []*Branch {
	return g.byComp[componentID]
}

func (g *Graph) WireBranch(wireID string) (*Branch, bool) {
	b, ok := g.byWire[wireID]
	return b, ok
}

type unionFind map[string]string

func (u unionFind) find(x string) string {
	for u[x] != x {
		u[x] = u[u[x]]
		x = u[x]
	}
	return x
}

func (u unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u[rb] = ra
	}
}

// Build constructs the graph for the project at elapsed time t and analysis
// frequency freq (0 for DC). Failed components contribute open circuits.
func Build(p *circuit.Project, materials MaterialLookup, t, freq float64) *Graph {
	g := &Graph{
		Nodes:      make(map[string]*Node),
		netOf:      make(map[string]string),
		adj:        make(map[string][]adjacent),
		byComp:     make(map[string][]*Branch),
		byWire:     make(map[string]*Branch),
		wireEnds:   make(map[string][2]string),
		groundNets: make(map[string]bool),
	}

	uf := make(unionFind)
	var ports []string
	for _, c := range p.Components {
		for _, port := range c.Ports {
			uf[port.ID] = port.ID
			ports = append(ports, port.ID)
		}
	}
	for _, w := range p.Wires {
		_, okA := uf[w.Start.PortID]
		_, okB := uf[w.End.PortID]
		if okA && okB {
			uf.union(w.Start.PortID, w.End.PortID)
		}
	}

	// the first port of each set in component order names the node
	rootName := make(map[string]string)
	for _, id := range ports {
		root := uf.find(id)
		name, ok := rootName[root]
		if !ok {
			name = id
			rootName[root] = name
			g.Nodes[name] = &Node{ID: name}
			g.Order = append(g.Order, name)
		}
		g.netOf[id] = name
	}

	for _, c := range p.Components {
		if c.Type == catalog.Ground {
			for _, port := range c.Ports {
				g.groundNets[g.netOf[port.ID]] = true
			}
			continue
		}

		mat, _ := materials.Material(c.Material)
		edges := c.Props.Edges(circuit.Env{
			Time:        t,
			Frequency:   freq,
			Temperature: c.Runtime.Temperature,
			Material:    mat,
			Runtime:     c.Runtime,
		})
		for i, e := range edges {
			if e.From >= len(c.Ports) || e.To >= len(c.Ports) {
				continue
			}
			if c.Runtime.Failed && e.Kind != circuit.KindSource {
				e.Z = impedance.OpenCircuit
			}
			b := &Branch{
				ID:          fmt.Sprintf("%s#%d", c.ID, i),
				From:        g.netOf[c.Ports[e.From].ID],
				To:          g.netOf[c.Ports[e.To].ID],
				Z:           e.Z,
				Kind:        e.Kind,
				Value:       e.Value,
				ComponentID: c.ID,
			}
			g.addBranch(b)
			g.byComp[c.ID] = append(g.byComp[c.ID], b)
		}
	}

	for _, w := range p.Wires {
		from, okA := g.netOf[w.Start.PortID]
		to, okB := g.netOf[w.End.PortID]
		if !okA || !okB {
			continue
		}
		mat, _ := materials.Material(w.Material)
		r := w.Resistance(mat)
		b := &Branch{
			ID:     w.ID,
			From:   from,
			To:     to,
			Z:      impedance.Resistor(r),
			Kind:   circuit.KindWire,
			Value:  r,
			WireID: w.ID,
		}
		g.addBranch(b)
		g.byWire[w.ID] = b
		g.wireEnds[w.ID] = [2]string{w.Start.ComponentID, w.End.ComponentID}
	}

	return g
}

func (g *Graph) addBranch(b *Branch) {
	g.Branches = append(g.Branches, b)
	if b.From == b.To || b.Kind == circuit.KindSource {
		return
	}
	g.adj[b.From] = append(g.adj[b.From], adjacent{b, b.To})
	g.adj[b.To] = append(g.adj[b.To], adjacent{b, b.From})
}
