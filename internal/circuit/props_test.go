package circuit

import (
	"math"
	"testing"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/impedance"
	"github.com/san-kum/emsim/internal/thermal"
)

func TestDefaultsValidate(t *testing.T) {
	cat := catalog.Default()
	for _, typ := range cat.Types() {
		def, _ := cat.Lookup(typ)
		p, err := NewProperties(typ, def.Defaults)
		if err != nil {
			t.Errorf("%s: %v", typ, err)
			continue
		}
		for _, issue := range p.Validate() {
			if !issue.Warning {
				t.Errorf("%s defaults produce error %q", typ, issue.Message)
			}
		}
		for name := range def.Defaults {
			if _, ok := p.Params()[name]; !ok {
				t.Errorf("%s default %q not exposed as a parameter", typ, name)
			}
		}
	}
}

func TestSourceProps(t *testing.T) {
	dc := &SourceProps{Voltage: 9}
	if dc.At(123) != 9 {
		t.Errorf("dc source should be constant")
	}
	if err := dc.SetParam("frequency", 50); err == nil {
		t.Error("dc source should not accept frequency")
	}

	ac := &SourceProps{Voltage: 10, Frequency: 50, Alternating: true}
	if v := ac.At(0.005); math.Abs(v-10) > 1e-9 {
		t.Errorf("expected peak at quarter period, got %f", v)
	}
	edges := ac.Edges(Env{Time: 0.005})
	if len(edges) != 1 || edges[0].Kind != KindSource || edges[0].From != 0 || edges[0].To != 1 {
		t.Errorf("unexpected source edges %+v", edges)
	}
}

func TestPulseProps(t *testing.T) {
	p := &PulseProps{Voltage: 5, Frequency: 2, DutyCycle: 0.25}
	tests := []struct {
		t    float64
		want float64
	}{
		{0, 5},
		{0.1, 5},
		{0.2, 0},
		{0.5, 5},
		{0.7, 0},
	}
	for _, tt := range tests {
		if got := p.At(tt.t); got != tt.want {
			t.Errorf("At(%g) = %g, want %g", tt.t, got, tt.want)
		}
	}
	p.DutyCycle = 1.5
	if len(p.Validate()) == 0 {
		t.Error("expected duty cycle error")
	}
}

func TestCoilProps(t *testing.T) {
	cu, _ := catalog.Default().Material("copper")

	sol := &CoilProps{Shape: catalog.Solenoid, Turns: 100, Radius: 0.01, Length: 0.1, WireDiameter: 0.5e-3, CorePermeability: 1}
	want := 4 * math.Pi * 1e-7 * 1e4 * math.Pi * 1e-4 / (0.1 + 0.009)
	if l := sol.Inductance(); math.Abs(l-want)/want > 1e-12 {
		t.Errorf("solenoid inductance: expected %g, got %g", want, l)
	}

	wire := 100 * 2 * math.Pi * 0.01
	area := math.Pi * 0.25e-6 / 4
	wantR := cu.Resistivity * wire / area
	if r := sol.DCResistance(cu, impedance.ReferenceTemperature); math.Abs(r-wantR)/wantR > 1e-12 {
		t.Errorf("solenoid resistance: expected %g, got %g", wantR, r)
	}
	if hot := sol.DCResistance(cu, 120); hot <= wantR {
		t.Errorf("expected resistance to rise with temperature, got %g", hot)
	}

	tor := &CoilProps{Shape: catalog.Toroid, Turns: 10, Radius: 0.03, MinorRadius: 0.04, WireDiameter: 1e-3, CorePermeability: 1}
	if tor.Inductance() != 0 || len(tor.Validate()) == 0 {
		t.Error("toroid with minor radius beyond major radius should be rejected")
	}
	if _, ok := tor.Params()["length"]; ok {
		t.Error("toroid should not expose length")
	}
	if err := tor.SetParam("length", 1); err == nil {
		t.Error("toroid should reject length")
	}

	edges := sol.Edges(Env{Material: cu, Temperature: 20, Frequency: 0})
	if len(edges) != 1 || edges[0].Kind != KindInductor || edges[0].Z.Im != 0 {
		t.Errorf("expected purely resistive DC edge, got %+v", edges)
	}
}

func TestCoilProps_Saturation(t *testing.T) {
	c := &CoilProps{Shape: catalog.Solenoid, Turns: 1000, Radius: 0.01, Length: 0.1, WireDiameter: 1e-3, CorePermeability: 5000}
	if _, failed := c.CheckFailure(Runtime{Current: 0.001}); failed {
		t.Error("small current should not saturate")
	}
	kind, failed := c.CheckFailure(Runtime{Current: 1})
	if !failed || kind != thermal.FailureMagnetic {
		t.Errorf("expected magnetic failure, got %v %s", failed, kind)
	}
	c.CorePermeability = 1
	if _, failed := c.CheckFailure(Runtime{Current: 100}); failed {
		t.Error("air core should never saturate")
	}
}

func TestCapacitorProps_Overvoltage(t *testing.T) {
	c := &CapacitorProps{Capacitance: 1e-6, MaxVoltage: 16}
	if _, failed := c.CheckFailure(Runtime{VoltageDrop: -12}); failed {
		t.Error("12 V should not break down a 16 V capacitor")
	}
	if kind, failed := c.CheckFailure(Runtime{VoltageDrop: 24}); !failed || kind != thermal.FailureElectrical {
		t.Errorf("expected electrical failure, got %v %s", failed, kind)
	}
	if edges := c.Edges(Env{}); edges[0].Z != impedance.OpenCircuit {
		t.Errorf("capacitor at DC should be open, got %v", edges[0].Z)
	}
}

func TestSwitchProps(t *testing.T) {
	s := &SwitchProps{}
	s.SetParam("onResistance", 0.01)
	if e := s.Edges(Env{}); e[0].Z != impedance.OpenCircuit {
		t.Errorf("open switch should be open circuit, got %v", e[0].Z)
	}
	s.SetParam("closed", 1)
	if e := s.Edges(Env{}); e[0].Z.Re != 0.01 {
		t.Errorf("closed switch should conduct, got %v", e[0].Z)
	}
	if s.Params()["closed"] != 1 {
		t.Error("closed param not reported")
	}
}

func TestRelayAndTransistor(t *testing.T) {
	relay := &RelayProps{CoilResistance: 100, PullInVoltage: 5, ContactResistance: 0.05}
	off := relay.Edges(Env{Runtime: Runtime{VoltageDrop: 4.9}})
	on := relay.Edges(Env{Runtime: Runtime{VoltageDrop: -5}})
	if off[1].Z != impedance.OpenCircuit || on[1].Z.Re != 0.05 {
		t.Errorf("relay contact wrong: off=%v on=%v", off[1].Z, on[1].Z)
	}
	if off[1].From != 2 || off[1].To != 3 {
		t.Errorf("relay contact should join com and no, got %d-%d", off[1].From, off[1].To)
	}

	q := &TransistorProps{BaseResistance: 1000, OnResistance: 0.2, OffResistance: 1e8, Threshold: 0.7}
	if e := q.Edges(Env{Runtime: Runtime{VoltageDrop: 0.2}}); e[1].Value != 1e8 {
		t.Errorf("expected off resistance below threshold, got %g", e[1].Value)
	}
	if e := q.Edges(Env{Runtime: Runtime{VoltageDrop: 0.7}}); e[1].Value != 0.2 {
		t.Errorf("expected on resistance at threshold, got %g", e[1].Value)
	}
}

func TestTransformerProps(t *testing.T) {
	tr := &TransformerProps{PrimaryTurns: 100, SecondaryTurns: 50, PrimaryInductance: 0.1, WindingResistance: 2}
	edges := tr.Edges(Env{Frequency: 50})
	if len(edges) != 2 {
		t.Fatalf("expected two windings, got %d", len(edges))
	}
	if math.Abs(edges[1].Value-0.025) > 1e-15 || edges[1].Z.Re != 1 {
		t.Errorf("secondary winding wrong: %+v", edges[1])
	}
	if edges[1].From != 2 || edges[1].To != 3 {
		t.Errorf("secondary should join s1-s2, got %d-%d", edges[1].From, edges[1].To)
	}
}
