package solver

import (
	"errors"
	"math"

	"github.com/san-kum/emsim/internal/circuit"
	"github.com/san-kum/emsim/internal/impedance"
)

var ErrNotImplemented = errors.New("solver: not implemented")

const (
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-6
)

type Options struct {
	MaxIterations int     `yaml:"max_iterations" json:"maxIterations"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
}

func DefaultOptions() Options {
	return Options{MaxIterations: DefaultMaxIterations, Tolerance: DefaultTolerance}
}

// Status reports how the relaxation ended. A result with Converged false is
// the best estimate after MaxIterations sweeps.
type Status struct {
	Converged  bool    `json:"converged"`
	Iterations int     `json:"iterations"`
	MaxDelta   float64 `json:"maxDelta"`
}

// Solve pins the reference nets, relaxes free node voltages with
// Gauss-Seidel and derives branch currents.
func Solve(g *Graph, opts Options) Status {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}

	g.pin()
	st := g.relax(opts)
	g.currents()
	return st
}

// pin fixes ground nets at 0 V, then propagates through source branches
// until no further node can be pinned.
func (g *Graph) pin() {
	for _, id := range g.Order {
		n := g.Nodes[id]
		n.Voltage, n.Pinned = 0, false
		if g.groundNets[id] {
			n.Pinned = true
		}
	}

	for changed := true; changed; {
		changed = false
		for _, b := range g.Branches {
			if b.Kind != circuit.KindSource || b.From == b.To {
				continue
			}
			pos, neg := g.Nodes[b.From], g.Nodes[b.To]
			switch {
			case neg.Pinned && !pos.Pinned:
				pos.Voltage, pos.Pinned = neg.Voltage+b.Value, true
				changed = true
			case pos.Pinned && !neg.Pinned:
				neg.Voltage, neg.Pinned = pos.Voltage-b.Value, true
				changed = true
			}
		}
	}
}

func (g *Graph) relax(opts Options) Status {
	var st Status
	for st.Iterations < opts.MaxIterations {
		st.Iterations++
		st.MaxDelta = 0
		for _, id := range g.Order {
			n := g.Nodes[id]
			if n.Pinned {
				continue
			}
			var sumG, sumGV float64
			for _, a := range g.adj[id] {
				cond := impedance.Conductance(a.branch.Z)
				sumG += cond
				sumGV += cond * g.Nodes[a.other].Voltage
			}
			if sumG == 0 {
				continue
			}
			v := sumGV / sumG
			if d := math.Abs(v - n.Voltage); d > st.MaxDelta {
				st.MaxDelta = d
			}
			n.Voltage = v
		}
		if st.MaxDelta < opts.Tolerance {
			st.Converged = true
			break
		}
	}
	return st
}

// currents sets I = ΔV/|Z| on every passive branch, positive from From to To.
// Source branches carry 0: the nodal relaxation has no branch-current
// unknowns for them. Wire currents are taken from the busiest passive branch
// on the wire's net at either endpoint component.
func (g *Graph) currents() {
	for _, b := range g.Branches {
		switch {
		case b.Kind == circuit.KindSource || b.Kind == circuit.KindWire:
			b.Current = 0
		case b.From == b.To:
			b.Current = 0
		default:
			b.Current = g.Drop(b) * impedance.Conductance(b.Z)
		}
	}

	for wireID, b := range g.byWire {
		net := b.From
		best := 0.0
		for _, compID := range g.wireEnds[wireID] {
			for _, cb := range g.byComp[compID] {
				if cb.Kind == circuit.KindSource || cb.From == cb.To {
					continue
				}
				if (cb.From == net || cb.To == net) && math.Abs(cb.Current) > best {
					best = math.Abs(cb.Current)
				}
			}
		}
		b.Current = best
	}
}

// SolveAC would solve the phasor network at freq.
func SolveAC(g *Graph, freq float64) (Status, error) {
	return Status{}, ErrNotImplemented
}
