package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/circuit"
)

type bench struct {
	t   *testing.T
	p   *circuit.Project
	cat *catalog.Catalog
}

func newBench(t *testing.T) *bench {
	return &bench{t: t, p: circuit.NewProject("bench", circuit.DefaultSettings()), cat: catalog.Default()}
}

func (b *bench) add(typ catalog.ComponentType, params map[string]any) *circuit.Component {
	b.t.Helper()
	def, _ := b.cat.Lookup(typ)
	c, err := b.p.AddComponent(def, circuit.Position{})
	if err != nil {
		b.t.Fatal(err)
	}
	if params != nil {
		if err := c.Apply(params); err != nil {
			b.t.Fatal(err)
		}
	}
	return c
}

func (b *bench) wire(a *circuit.Component, ap string, c *circuit.Component, cp string) *circuit.Wire {
	b.t.Helper()
	w, err := b.p.AddWire(a.ID, ap, c.ID, cp)
	if err != nil {
		b.t.Fatal(err)
	}
	return w
}

func (b *bench) solve() (*Graph, Status) {
	g := Build(b.p, b.cat, 0, 0)
	return g, Solve(g, DefaultOptions())
}

func TestSingleResistor(t *testing.T) {
	tests := []struct {
		name     string
		voltage  float64
		reversed bool
	}{
		{"forward", 12, false},
		{"reversed", 12, true},
		{"negative source", -5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBench(t)
			v := b.add(catalog.DCSource, map[string]any{"voltage": tt.voltage})
			r := b.add(catalog.Resistor, map[string]any{"resistance": 1000.0})
			g := b.add(catalog.Ground, nil)

			hi, lo := "a", "b"
			if tt.reversed {
				hi, lo = lo, hi
			}
			b.wire(v, "positive", r, hi)
			b.wire(r, lo, v, "negative")
			b.wire(v, "negative", g, "gnd")

			graph, st := b.solve()
			if !st.Converged {
				t.Fatalf("expected convergence, got %+v", st)
			}

			br := graph.ComponentBranches(r.ID)
			if len(br) != 1 {
				t.Fatalf("expected one resistor branch, got %d", len(br))
			}
			want := tt.voltage / 1000
			if tt.reversed {
				want = -want
			}
			if math.Abs(br[0].Current-want) > 1e-12 {
				t.Errorf("expected current %g, got %g", want, br[0].Current)
			}

			for _, sb := range graph.ComponentBranches(v.ID) {
				if sb.Current != 0 {
					t.Errorf("source branch current should be the 0 placeholder, got %g", sb.Current)
				}
			}
		})
	}
}

func dividerBench(t *testing.T) (*bench, *circuit.Component, *circuit.Component, *circuit.Wire) {
	b := newBench(t)
	v := b.add(catalog.DCSource, map[string]any{"voltage": 10.0})
	r1 := b.add(catalog.Resistor, map[string]any{"resistance": 1000.0})
	r2 := b.add(catalog.Resistor, map[string]any{"resistance": 3000.0})
	g := b.add(catalog.Ground, nil)

	top := b.wire(v, "positive", r1, "a")
	b.wire(r1, "b", r2, "a")
	b.wire(r2, "b", v, "negative")
	b.wire(v, "negative", g, "gnd")
	return b, r1, r2, top
}

func TestDivider(t *testing.T) {
	b, r1, r2, top := dividerBench(t)
	graph, st := b.solve()

	if !st.Converged || st.Iterations != 2 {
		t.Errorf("expected convergence in 2 sweeps, got %+v", st)
	}

	mid, ok := graph.NodeOf(r1.Ports[1].ID)
	if !ok {
		t.Fatal("mid node missing")
	}
	if other, _ := graph.NodeOf(r2.Ports[0].ID); other != mid {
		t.Errorf("wired ports should share a node: %s vs %s", mid, other)
	}
	if v := graph.Nodes[mid].Voltage; math.Abs(v-7.5) > 1e-9 {
		t.Errorf("expected 7.5 V at the midpoint, got %f", v)
	}

	i1 := graph.ComponentBranches(r1.ID)[0].Current
	i2 := graph.ComponentBranches(r2.ID)[0].Current
	if math.Abs(i1-0.0025) > 1e-12 || math.Abs(i2-0.0025) > 1e-12 {
		t.Errorf("expected 2.5 mA through both resistors, got %g and %g", i1, i2)
	}

	if kcl := VerifyKCL(graph); kcl > 1e-9 {
		t.Errorf("KCL residual too large: %g", kcl)
	}
	if kvl := VerifyKVL(graph); kvl > 1e-12 {
		t.Errorf("KVL residual too large: %g", kvl)
	}

	wb, ok := graph.WireBranch(top.ID)
	if !ok || math.Abs(wb.Current-0.0025) > 1e-12 {
		t.Errorf("expected wire current estimate 2.5 mA, got %+v", wb)
	}

	res, err := Residual(graph)
	if err != nil {
		t.Fatalf("direct solve failed: %v", err)
	}
	if res > 1e-9 {
		t.Errorf("relaxation differs from direct solve by %g", res)
	}
}

func TestIterationCap(t *testing.T) {
	b := newBench(t)
	v := b.add(catalog.DCSource, map[string]any{"voltage": 10.0})
	r1 := b.add(catalog.Resistor, nil)
	r2 := b.add(catalog.Resistor, nil)
	r3 := b.add(catalog.Resistor, nil)
	g := b.add(catalog.Ground, nil)
	b.wire(v, "positive", r1, "a")
	b.wire(r1, "b", r2, "a")
	b.wire(r2, "b", r3, "a")
	b.wire(r3, "b", v, "negative")
	b.wire(v, "negative", g, "gnd")

	graph := Build(b.p, b.cat, 0, 0)
	st := Solve(graph, Options{MaxIterations: 1, Tolerance: 1e-6})
	if st.Converged || st.Iterations != 1 || st.MaxDelta == 0 {
		t.Errorf("expected an unconverged single sweep, got %+v", st)
	}

	st = Solve(graph, DefaultOptions())
	if !st.Converged || st.Iterations > DefaultMaxIterations {
		t.Errorf("expected convergence within the cap, got %+v", st)
	}
}

func TestFloatingSource(t *testing.T) {
	b := newBench(t)
	v := b.add(catalog.DCSource, map[string]any{"voltage": 12.0})
	r := b.add(catalog.Resistor, nil)
	b.wire(v, "positive", r, "a")
	b.wire(r, "b", v, "negative")

	graph, st := b.solve()
	if !st.Converged {
		t.Errorf("expected trivial convergence, got %+v", st)
	}
	if kvl := VerifyKVL(graph); math.Abs(kvl-12) > 1e-12 {
		t.Errorf("expected KVL residual of the unpinned source, got %g", kvl)
	}
}

func TestFailedComponentOpens(t *testing.T) {
	b, r1, _, _ := dividerBench(t)
	r1.Runtime.Failed = true

	graph, _ := b.solve()
	if i := graph.ComponentBranches(r1.ID)[0].Current; math.Abs(i) > 1e-9 {
		t.Errorf("failed resistor should carry no current, got %g", i)
	}
}

func TestCapacitorBlocksDC(t *testing.T) {
	b := newBench(t)
	v := b.add(catalog.DCSource, nil)
	r := b.add(catalog.Resistor, nil)
	c := b.add(catalog.Capacitor, nil)
	g := b.add(catalog.Ground, nil)
	b.wire(v, "positive", r, "a")
	b.wire(r, "b", c, "a")
	b.wire(c, "b", v, "negative")
	b.wire(v, "negative", g, "gnd")

	graph, _ := b.solve()
	if i := graph.ComponentBranches(r.ID)[0].Current; math.Abs(i) > 1e-9 {
		t.Errorf("expected no DC current through a capacitor, got %g", i)
	}
	if drop := graph.Drop(graph.ComponentBranches(c.ID)[0]); math.Abs(drop-12) > 1e-6 {
		t.Errorf("expected full source voltage across the capacitor, got %g", drop)
	}
}

func TestSolveAC(t *testing.T) {
	b, _, _, _ := dividerBench(t)
	graph := Build(b.p, b.cat, 0, 50)
	if _, err := SolveAC(graph, 50); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}

func TestSolveDirect_NoFreeNodes(t *testing.T) {
	b := newBench(t)
	v := b.add(catalog.DCSource, nil)
	r := b.add(catalog.Resistor, nil)
	g := b.add(catalog.Ground, nil)
	b.wire(v, "positive", r, "a")
	b.wire(r, "b", v, "negative")
	b.wire(v, "negative", g, "gnd")

	graph, _ := b.solve()
	out, err := SolveDirect(graph)
	if err != nil || len(out) != 0 {
		t.Errorf("expected empty direct solve, got %v %v", out, err)
	}
}
