package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/emsim/internal/circuit"
	"github.com/san-kum/emsim/internal/impedance"
)

// VerifyKCL returns the largest net current imbalance over free nodes.
// Pinned nodes are skipped because source branch currents are not solved.
func VerifyKCL(g *Graph) float64 {
	worst := 0.0
	for _, id := range g.Order {
		if g.Nodes[id].Pinned {
			continue
		}
		sum := 0.0
		for _, a := range g.adj[id] {
			if a.branch.From == id {
				sum += a.branch.Current
			} else {
				sum -= a.branch.Current
			}
		}
		worst = math.Max(worst, math.Abs(sum))
	}
	return worst
}

// VerifyKVL returns the largest mismatch between a source's voltage and the
// solved drop across its terminals. A floating or conflicting source shows
// up here.
func VerifyKVL(g *Graph) float64 {
	worst := 0.0
	for _, b := range g.Branches {
		if b.Kind != circuit.KindSource || b.From == b.To {
			continue
		}
		worst = math.Max(worst, math.Abs(g.Drop(b)-b.Value))
	}
	return worst
}

// SolveDirect solves the free node voltages with a dense linear solve,
// using the pinned voltages currently on the graph. Call after Solve.
func SolveDirect(g *Graph) (map[string]float64, error) {
	index := make(map[string]int)
	var free []string
	for _, id := range g.Order {
		if !g.Nodes[id].Pinned && len(g.adj[id]) > 0 {
			index[id] = len(free)
			free = append(free, id)
		}
	}
	out := make(map[string]float64, len(free))
	if len(free) == 0 {
		return out, nil
	}

	n := len(free)
	a := mat.NewDense(n, n, nil)
	b := mat.NewVecDense(n, nil)
	for i, id := range free {
		for _, adj := range g.adj[id] {
			cond := impedance.Conductance(adj.branch.Z)
			a.Set(i, i, a.At(i, i)+cond)
			if j, ok := index[adj.other]; ok {
				a.Set(i, j, a.At(i, j)-cond)
			} else {
				b.SetVec(i, b.AtVec(i)+cond*g.Nodes[adj.other].Voltage)
			}
		}
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("direct solve: %w", err)
	}
	for i, id := range free {
		out[id] = x.AtVec(i)
	}
	return out, nil
}

// Residual compares the relaxed voltages on g against a direct solve and
// returns the largest absolute difference.
func Residual(g *Graph) (float64, error) {
	direct, err := SolveDirect(g)
	if err != nil {
		return 0, err
	}
	worst := 0.0
	for id, v := range direct {
		worst = math.Max(worst, math.Abs(g.Nodes[id].Voltage-v))
	}
	return worst, nil
}
