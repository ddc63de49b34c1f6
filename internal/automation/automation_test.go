package automation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/config"
	"github.com/san-kum/emsim/internal/sim"
	"github.com/san-kum/emsim/internal/thermal"
)

func preset(t *testing.T, name string) *config.Config {
	t.Helper()
	cfg, err := config.GetPreset(name)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

type stepCounter struct{ n int }

func (s *stepCounter) OnStep(sim.StepEvent) { s.n++ }

func TestBuild(t *testing.T) {
	e, err := Build(preset(t, "divider"), catalog.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	p := e.Project()
	if len(p.Components) != 4 || len(p.Wires) != 4 {
		t.Fatalf("expected 4 components and 4 wires, got %d and %d", len(p.Components), len(p.Wires))
	}
	r2 := p.ComponentByLabel("R2")
	if r2 == nil {
		t.Fatal("R2 missing")
	}
	if got := r2.Props.Params()["resistance"]; got != 3000 {
		t.Errorf("expected 3000 ohm, got %g", got)
	}
	if p.Settings.TimeStep != 0.1 {
		t.Errorf("expected time step from dt, got %g", p.Settings.TimeStep)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown type", func(c *config.Config) { c.Circuit.Components[0].Type = "flux-capacitor" }},
		{"unknown port", func(c *config.Config) { c.Circuit.Wires[0].To = "R1.z" }},
		{"unknown property", func(c *config.Config) { c.Circuit.Components[1].Properties["color"] = 3 }},
		{"bad reference", func(c *config.Config) { c.Circuit.Wires[1].From = "R1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := preset(t, "divider")
			tt.mutate(cfg)
			if _, err := Build(cfg, catalog.Default(), nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunScenario_Divider(t *testing.T) {
	cfg := preset(t, "divider")
	steps := &stepCounter{}
	res, err := RunScenario(context.Background(), cfg, catalog.Default(), nil, steps)
	if err != nil {
		t.Fatal(err)
	}
	if steps.n != cfg.Steps() {
		t.Errorf("expected observer to see %d steps, got %d", cfg.Steps(), steps.n)
	}
	if res.History.Len() != cfg.Steps() {
		t.Errorf("expected %d rows, got %d", cfg.Steps(), res.History.Len())
	}
	series, ok := res.History.Series("R1.current")
	if !ok {
		t.Fatal("R1.current missing")
	}
	if last := series[len(series)-1]; math.Abs(last-0.0025) > 1e-9 {
		t.Errorf("expected 2.5 mA, got %g", last)
	}
	if len(res.Failures) != 0 {
		t.Errorf("expected no failures, got %+v", res.Failures)
	}
	if res.State.Running {
		t.Error("engine should be stopped after the run")
	}
}

func TestRunScenario_Overload(t *testing.T) {
	res, err := RunScenario(context.Background(), preset(t, "overload"), catalog.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	f, ok := res.FailureOf("R1")
	if !ok {
		t.Fatal("expected R1 to fail")
	}
	if f.Kind != thermal.FailureThermal || f.Time < 5 || f.Time > 10 {
		t.Errorf("unexpected failure %+v", f)
	}
}

func TestRunScenario_Events(t *testing.T) {
	res, err := RunScenario(context.Background(), preset(t, "coil"), catalog.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	series, _ := res.History.Series("SOL1.current")
	if series[10] < 1 {
		t.Errorf("expected the solenoid to conduct before the switch opens, got %g", series[10])
	}
	if last := series[len(series)-1]; math.Abs(last) > 1e-6 {
		t.Errorf("expected no current after the switch opens, got %g", last)
	}
}

func TestRunScenario_Invalid(t *testing.T) {
	cfg := preset(t, "divider")
	cfg.Circuit.Components = cfg.Circuit.Components[1:3]
	cfg.Circuit.Wires = cfg.Circuit.Wires[1:2]
	if _, err := RunScenario(context.Background(), cfg, catalog.Default(), nil); !errors.Is(err, ErrInvalidCircuit) {
		t.Errorf("expected ErrInvalidCircuit, got %v", err)
	}
}

func TestRunScenario_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := RunScenario(ctx, preset(t, "divider"), catalog.Default(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if res == nil || res.History.Len() != 0 {
		t.Error("expected an empty partial result")
	}
}

func TestSweepValues(t *testing.T) {
	tests := []struct {
		sweep Sweep
		want  []float64
	}{
		{Sweep{Min: 1, Max: 3, Count: 3}, []float64{1, 2, 3}},
		{Sweep{Min: 5, Max: 9, Count: 1}, []float64{5}},
	}
	for _, tt := range tests {
		got := tt.sweep.Values()
		if len(got) != len(tt.want) {
			t.Fatalf("expected %v, got %v", tt.want, got)
		}
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > 1e-12 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		}
	}
}

func TestRunSweep(t *testing.T) {
	sw := Sweep{Component: "R1", Param: "resistance", Min: 10, Max: 1000, Count: 3}
	results, err := RunSweep(context.Background(), preset(t, "overload"), catalog.Default(), nil, sw)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Failed || results[0].FailureKind != thermal.FailureThermal {
		t.Errorf("10 ohm should burn out, got %+v", results[0])
	}
	if results[2].Failed {
		t.Errorf("1k should survive, got %+v", results[2])
	}
	if results[2].PeakTemperature >= results[0].PeakTemperature {
		t.Errorf("expected peak temperature to fall with resistance: %+v", results)
	}
	if math.Abs(results[2].PeakCurrent-0.012) > 1e-9 {
		t.Errorf("expected 12 mA peak, got %g", results[2].PeakCurrent)
	}
}

func TestRunSweep_Errors(t *testing.T) {
	cfg := preset(t, "overload")
	if _, err := RunSweep(context.Background(), cfg, catalog.Default(), nil, Sweep{Component: "R1", Param: "resistance"}); err == nil {
		t.Error("expected error for zero count")
	}
	if _, err := RunSweep(context.Background(), cfg, catalog.Default(), nil, Sweep{Component: "R7", Param: "resistance", Count: 2}); err == nil {
		t.Error("expected error for unknown component")
	}
}

func TestRunMonteCarlo(t *testing.T) {
	mc := MonteCarlo{Params: []string{"resistance"}, Tolerance: 0.1, Trials: 5, Seed: 42}
	results, err := RunMonteCarlo(context.Background(), preset(t, "divider"), catalog.Default(), nil, mc)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 trials, got %d", len(results))
	}
	for _, r := range results {
		v := r.Values["R1"]["resistance"]
		if v < 900 || v > 1100 {
			t.Errorf("trial %d: R1 %g outside tolerance", r.Trial, v)
		}
		if _, ok := r.Values["V1"]; ok {
			t.Errorf("trial %d: source has no resistance to perturb", r.Trial)
		}
	}
	survived, failed := MonteCarloStats(results)
	if survived != 5 || failed != 0 {
		t.Errorf("expected 5 survivors, got %d/%d", survived, failed)
	}
}
