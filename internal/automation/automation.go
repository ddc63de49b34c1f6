// Package automation runs circuits described by config files headlessly:
// single scenarios with timed events, parameter sweeps and Monte Carlo
// tolerance runs.
package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/circuit"
	"github.com/san-kum/emsim/internal/config"
	"github.com/san-kum/emsim/internal/sim"
	"github.com/san-kum/emsim/internal/thermal"
)

var ErrInvalidCircuit = errors.New("automation: circuit failed validation")

// Build creates an engine holding cfg's circuit. Component names become labels.
func Build(cfg *config.Config, cat *catalog.Catalog, logger *log.Logger, opts ...sim.Option) (*sim.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = orDiscard(logger)

	settings := cfg.Settings
	settings.TimeStep = cfg.Dt
	opts = append([]sim.Option{sim.WithLogger(logger), sim.WithLimits(cfg.Limits)}, opts...)
	e := sim.New(cat, cfg.Name, settings, opts...)
	p := e.Project()

	ids := make(map[string]string, len(cfg.Circuit.Components))
	for _, cc := range cfg.Circuit.Components {
		c, ok := e.AddComponent(cc.Type, circuit.Position{X: cc.X, Y: cc.Y})
		if !ok {
			return nil, fmt.Errorf("component %s: unknown type %q", cc.Name, cc.Type)
		}
		updates := map[string]any{"label": cc.Name}
		if cc.Material != "" {
			updates["material"] = cc.Material
		}
		for k, v := range cc.Properties {
			updates[k] = v
		}
		if err := p.UpdateComponent(c.ID, updates); err != nil {
			return nil, fmt.Errorf("component %s: %w", cc.Name, err)
		}
		if cc.Rotation != 0 {
			e.RotateComponent(c.ID, cc.Rotation)
		}
		ids[cc.Name] = c.ID
	}

	for _, wc := range cfg.Circuit.Wires {
		fromName, fromPort, _ := config.SplitRef(wc.From)
		toName, toPort, _ := config.SplitRef(wc.To)
		if _, err := p.AddWire(ids[fromName], fromPort, ids[toName], toPort); err != nil {
			return nil, fmt.Errorf("wire %s -> %s: %w", wc.From, wc.To, err)
		}
	}
	return e, nil
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}

// Failure is one component failure seen during a run.
type Failure struct {
	Label string              `json:"label"`
	Kind  thermal.FailureKind `json:"kind"`
	Time  float64             `json:"time"`
}

type failureLog struct {
	failures []Failure
}

func (f *failureLog) OnStep(ev sim.StepEvent) {
	for _, c := range ev.Failures {
		f.failures = append(f.failures, Failure{Label: c.Label, Kind: c.Runtime.FailureKind, Time: ev.Time})
	}
}

type Result struct {
	Name     string
	History  *sim.History
	State    sim.State
	Failures []Failure
	Engine   *sim.Engine
}

// FailureOf returns the first failure of the labelled component.
func (r *Result) FailureOf(label string) (Failure, bool) {
	for _, f := range r.Failures {
		if f.Label == label {
			return f, true
		}
	}
	return Failure{}, false
}

// RunScenario builds cfg's circuit and steps it for cfg.Duration, applying
// events as their time is reached. The run ends early if the engine stops.
// Extra observers see every step after the recorded history.
func RunScenario(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, logger *log.Logger, observers ...sim.Observer) (*Result, error) {
	logger = orDiscard(logger)
	history := sim.NewHistory()
	failures := &failureLog{}
	opts := []sim.Option{sim.WithObserver(history), sim.WithObserver(failures)}
	for _, o := range observers {
		opts = append(opts, sim.WithObserver(o))
	}
	e, err := Build(cfg, cat, logger, opts...)
	if err != nil {
		return nil, err
	}
	if !e.Start() {
		st := e.State()
		return nil, fmt.Errorf("%w: %s", ErrInvalidCircuit, strings.Join(st.Errors, "; "))
	}

	events := append([]config.Event(nil), cfg.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })

	steps := cfg.Steps()
	next := 0
	for i := 0; i < steps && e.State().Running; i++ {
		select {
		case <-ctx.Done():
			e.Stop()
			return result(cfg.Name, e, history, failures), ctx.Err()
		default:
		}

		now := e.State().ElapsedTime
		for next < len(events) && events[next].At <= now+1e-9 {
			applyEvent(e, events[next], logger)
			next++
		}
		e.Step(cfg.Dt)
	}
	e.Stop()
	return result(cfg.Name, e, history, failures), nil
}

func result(name string, e *sim.Engine, h *sim.History, f *failureLog) *Result {
	return &Result{Name: name, History: h, State: e.State(), Failures: f.failures, Engine: e}
}

func applyEvent(e *sim.Engine, ev config.Event, logger *log.Logger) {
	c := e.Project().ComponentByLabel(ev.Component)
	if c == nil {
		return
	}
	updates := make(map[string]any, len(ev.Set))
	for k, v := range ev.Set {
		updates[k] = v
	}
	if !e.UpdateComponent(c.ID, updates) {
		logger.Warn("event rejected", "at", ev.At, "component", ev.Component)
	}
}

// Sweep varies one numeric property of one component over Count evenly
// spaced values in [Min, Max].
type Sweep struct {
	Component string
	Param     string
	Min       float64
	Max       float64
	Count     int
}

func (s Sweep) Values() []float64 {
	if s.Count <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Count-1)
	out := make([]float64, s.Count)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

type SweepResult struct {
	Value           float64             `json:"value"`
	PeakTemperature float64             `json:"peakTemperature"`
	PeakCurrent     float64             `json:"peakCurrent"`
	Failed          bool                `json:"failed"`
	FailureKind     thermal.FailureKind `json:"failureKind"`
	FailedAt        float64             `json:"failedAt"`
}

// RunSweep runs one engine per sweep value concurrently. Events are not
// applied during sweeps.
func RunSweep(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, logger *log.Logger, sw Sweep) ([]SweepResult, error) {
	logger = orDiscard(logger)
	if sw.Count < 1 {
		return nil, fmt.Errorf("sweep needs at least one value, got %d", sw.Count)
	}
	values := sw.Values()
	engines := make([]*sim.Engine, len(values))
	histories := make([]*sim.History, len(values))
	logs := make([]*failureLog, len(values))

	for i, v := range values {
		histories[i], logs[i] = sim.NewHistory(), &failureLog{}
		e, err := Build(cfg, cat, logger, sim.WithObserver(histories[i]), sim.WithObserver(logs[i]))
		if err != nil {
			return nil, err
		}
		c := e.Project().ComponentByLabel(sw.Component)
		if c == nil {
			return nil, fmt.Errorf("sweep: no component %q", sw.Component)
		}
		if err := e.Project().UpdateComponent(c.ID, map[string]any{sw.Param: v}); err != nil {
			return nil, fmt.Errorf("sweep %s.%s=%g: %w", sw.Component, sw.Param, v, err)
		}
		engines[i] = e
	}

	started, err := sim.RunAll(ctx, engines, cfg.Dt, cfg.Steps())
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(values))
	for i, v := range values {
		if !started[i] {
			return nil, fmt.Errorf("%w: %s=%g: %s", ErrInvalidCircuit, sw.Param, v, strings.Join(engines[i].State().Errors, "; "))
		}
		r := SweepResult{Value: v}
		r.PeakTemperature, _ = histories[i].Peak(sw.Component + ".temperature")
		if series, ok := histories[i].Series(sw.Component + ".current"); ok {
			for _, cur := range series {
				r.PeakCurrent = math.Max(r.PeakCurrent, math.Abs(cur))
			}
		}
		res := &Result{Failures: logs[i].failures}
		if f, ok := res.FailureOf(sw.Component); ok {
			r.Failed, r.FailureKind, r.FailedAt = true, f.Kind, f.Time
		}
		results[i] = r
		logger.Debug("sweep point", "param", sw.Param, "value", v, "peak", r.PeakTemperature, "failed", r.Failed)
	}
	return results, nil
}

// MonteCarlo perturbs every numeric property named in Params by up to
// ±Tolerance (a fraction) on every component that has it.
type MonteCarlo struct {
	Params    []string
	Tolerance float64
	Trials    int
	Seed      int64
}

type MonteCarloResult struct {
	Trial    int                           `json:"trial"`
	Values   map[string]map[string]float64 `json:"values"`
	Failures []Failure                     `json:"failures"`
}

// RunMonteCarlo runs Trials independently perturbed copies of cfg's circuit.
// A zero seed uses the clock.
func RunMonteCarlo(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, logger *log.Logger, mc MonteCarlo) ([]MonteCarloResult, error) {
	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	engines := make([]*sim.Engine, mc.Trials)
	logs := make([]*failureLog, mc.Trials)
	results := make([]MonteCarloResult, mc.Trials)
	for trial := range engines {
		logs[trial] = &failureLog{}
		e, err := Build(cfg, cat, logger, sim.WithObserver(logs[trial]))
		if err != nil {
			return nil, err
		}
		values := make(map[string]map[string]float64)
		for _, c := range e.Project().Components {
			params := c.Props.Params()
			updates := make(map[string]any)
			for _, name := range mc.Params {
				base, ok := params[name]
				if !ok {
					continue
				}
				v := base * (1 + (rng.Float64()*2-1)*mc.Tolerance)
				updates[name] = v
				if values[c.Label] == nil {
					values[c.Label] = make(map[string]float64)
				}
				values[c.Label][name] = v
			}
			if len(updates) > 0 {
				if err := e.Project().UpdateComponent(c.ID, updates); err != nil {
					return nil, fmt.Errorf("trial %d %s: %w", trial, c.Label, err)
				}
			}
		}
		engines[trial] = e
		results[trial] = MonteCarloResult{Trial: trial, Values: values}
	}

	if _, err := sim.RunAll(ctx, engines, cfg.Dt, cfg.Steps()); err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Failures = logs[i].failures
	}
	return results, nil
}

// MonteCarloStats counts trials with and without failures.
func MonteCarloStats(results []MonteCarloResult) (survived, failed int) {
	for _, r := range results {
		if len(r.Failures) == 0 {
			survived++
		} else {
			failed++
		}
	}
	return
}
