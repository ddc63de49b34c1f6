// Package sim drives the circuit simulation. An Engine owns one project and
// advances it one discrete step per call; it has no timers or goroutines of
// its own and expects a single caller at a time.
package sim

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/circuit"
	"github.com/san-kum/emsim/internal/solver"
	"github.com/san-kum/emsim/internal/thermal"
)

// Limits are the numeric knobs injected at construction.
type Limits struct {
	Solver        solver.Options `yaml:"solver" json:"solver"`
	OverheatRatio float64        `yaml:"overheat_ratio" json:"overheatRatio"`
	// Frequency is the analysis frequency used for reactive impedances. 0 is DC.
	Frequency float64 `yaml:"frequency" json:"frequency"`
}

func DefaultLimits() Limits {
	return Limits{
		Solver:        solver.DefaultOptions(),
		OverheatRatio: thermal.OverheatRatio,
	}
}

type State struct {
	Running     bool          `json:"running"`
	Complete    bool          `json:"complete"`
	ElapsedTime float64       `json:"elapsedTime"`
	StepCount   int           `json:"stepCount"`
	Errors      []string      `json:"errors"`
	Warnings    []string      `json:"warnings"`
	LastSolve   solver.Status `json:"lastSolve"`
}

// StepEvent is passed to observers after every completed step.
type StepEvent struct {
	Time     float64
	Step     int
	Project  *circuit.Project
	Graph    *solver.Graph
	Status   solver.Status
	Failures []*circuit.Component
}

type Observer interface {
	OnStep(ev StepEvent)
}

type Option func(*Engine)

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithLimits(l Limits) Option {
	return func(e *Engine) { e.limits = l }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

type Engine struct {
	project   *circuit.Project
	catalog   *catalog.Catalog
	limits    Limits
	state     State
	graph     *solver.Graph
	logger    *log.Logger
	observers []Observer
}

// New returns an engine with an empty project named name.
func New(cat *catalog.Catalog, name string, settings circuit.Settings, opts ...Option) *Engine {
	e := &Engine{
		project: circuit.NewProject(name, settings),
		catalog: cat,
		limits:  DefaultLimits(),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.limits.OverheatRatio <= 0 {
		e.limits.OverheatRatio = thermal.OverheatRatio
	}
	return e
}

func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Engine) Project() *circuit.Project { return e.project }
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }
func (e *Engine) Limits() Limits            { return e.limits }
func (e *Engine) State() State              { return e.state }

// Graph returns the graph solved by the last step, or nil before the first step.
func (e *Engine) Graph() *solver.Graph { return e.graph }

func (e *Engine) AddComponent(t catalog.ComponentType, pos circuit.Position) (*circuit.Component, bool) {
	def, ok := e.catalog.Lookup(t)
	if !ok {
		return nil, false
	}
	c, err := e.project.AddComponent(def, pos)
	if err != nil {
		e.logger.Debug("add component", "type", t, "err", err)
		return nil, false
	}
	return c, true
}

func (e *Engine) UpdateComponent(id string, updates map[string]any) bool {
	if err := e.project.UpdateComponent(id, updates); err != nil {
		e.logger.Debug("update component", "id", id, "err", err)
		return false
	}
	return true
}

func (e *Engine) MoveComponent(id string, pos circuit.Position) bool {
	return e.project.MoveComponent(id, pos)
}

func (e *Engine) RotateComponent(id string, angle float64) bool {
	return e.project.RotateComponent(id, angle)
}

func (e *Engine) RemoveComponent(id string) bool {
	return e.project.RemoveComponent(id)
}

func (e *Engine) AddWire(startComponent, startPort, endComponent, endPort string) (*circuit.Wire, bool) {
	w, err := e.project.AddWire(startComponent, startPort, endComponent, endPort)
	if err != nil {
		e.logger.Debug("add wire", "err", err)
		return nil, false
	}
	return w, true
}

func (e *Engine) RemoveWire(id string) bool      { return e.project.RemoveWire(id) }
func (e *Engine) SelectComponent(id string) bool { return e.project.SelectComponent(id) }
func (e *Engine) SelectWire(id string) bool      { return e.project.SelectWire(id) }

// Start validates the circuit and begins running only when no errors were
// found. Errors and warnings are recorded on the state either way.
func (e *Engine) Start() bool {
	r := e.Validate()
	e.state.Errors = r.Errors
	e.state.Warnings = r.Warnings
	if !r.Valid {
		e.logger.Warn("validation failed", "errors", len(r.Errors))
		return false
	}
	e.state.Running = true
	e.state.Complete = false
	e.logger.Info("simulation started", "components", len(e.project.Components), "wires", len(e.project.Wires))
	return true
}

func (e *Engine) Stop() {
	if e.state.Running {
		e.logger.Info("simulation stopped", "elapsed", e.state.ElapsedTime, "steps", e.state.StepCount)
	}
	e.state.Running = false
}

// Reset clears all runtime fields, including failures, and zeroes the
// simulation state.
func (e *Engine) Reset() {
	e.project.ResetRuntime()
	e.state = State{}
	e.graph = nil
	e.logger.Info("simulation reset")
}

// Step advances the simulation by dt seconds. It does nothing unless
// running. A non-positive dt uses the project time step.
func (e *Engine) Step(dt float64) {
	if !e.state.Running {
		return
	}
	settings := e.project.Settings
	if dt <= 0 {
		dt = settings.TimeStep
	}
	if dt <= 0 {
		return
	}

	g := solver.Build(e.project, e.catalog, e.state.ElapsedTime, e.limits.Frequency)
	st := solver.Solve(g, e.limits.Solver)
	if !st.Converged {
		e.logger.Debug("solve did not converge", "iterations", st.Iterations, "maxDelta", st.MaxDelta)
	}

	var failures []*circuit.Component
	for _, c := range e.project.Components {
		applyElectrical(c, g)
		if e.updateThermal(c, dt) {
			failures = append(failures, c)
		}
	}
	e.updateWires(g, dt)

	e.graph = g
	e.state.ElapsedTime += dt
	e.state.StepCount++
	e.state.LastSolve = st

	if settings.Duration > 0 && e.state.ElapsedTime >= settings.Duration-1e-9 {
		e.state.Running = false
		e.state.Complete = true
		e.logger.Info("simulation complete", "elapsed", e.state.ElapsedTime, "steps", e.state.StepCount)
	}

	ev := StepEvent{
		Time:     e.state.ElapsedTime,
		Step:     e.state.StepCount,
		Project:  e.project,
		Graph:    g,
		Status:   st,
		Failures: failures,
	}
	for _, o := range e.observers {
		o.OnStep(ev)
	}
}

// applyElectrical copies solved values onto the component. Current and
// voltage drop come from the first branch; power sums I²·Re(Z) over all of them.
func applyElectrical(c *circuit.Component, g *solver.Graph) {
	branches := g.ComponentBranches(c.ID)
	c.Runtime.Current, c.Runtime.VoltageDrop, c.Runtime.Power = 0, 0, 0
	if len(branches) == 0 {
		return
	}
	c.Runtime.Current = branches[0].Current
	c.Runtime.VoltageDrop = g.Drop(branches[0])
	for _, b := range branches {
		c.Runtime.Power += thermal.HeatGeneration(b.Current, b.Z.Re)
	}
}

// updateThermal integrates temperature, reclassifies the warning level and
// applies failure transitions. It reports whether the component failed on this step.
func (e *Engine) updateThermal(c *circuit.Component, dt float64) bool {
	settings := e.project.Settings
	mat, _ := e.catalog.Material(c.Material)

	if settings.ThermalEnabled {
		c.Runtime.Temperature = thermal.Step(c.Runtime.Temperature, settings.AmbientTemperature, c.Runtime.Power, c.Thermal, dt)
	}
	c.Runtime.Warning = thermal.Classify(c.Runtime.Temperature, mat.MaxTemperature, e.limits.OverheatRatio)

	if !settings.FailuresEnabled || c.Runtime.Failed {
		return false
	}
	kind := thermal.FailureNone
	if thermal.ShouldFail(c.Runtime.Temperature, mat.MaxTemperature, e.limits.OverheatRatio) {
		kind = thermal.FailureThermal
	} else if fc, ok := c.Props.(circuit.FailureChecker); ok {
		if k, failed := fc.CheckFailure(c.Runtime); failed {
			kind = k
		}
	}
	if kind == thermal.FailureNone || !c.Runtime.Fail(kind) {
		return false
	}
	e.logger.Warn("component failed",
		"label", c.Label,
		"kind", kind,
		"temperature", c.Runtime.Temperature,
		"time", e.state.ElapsedTime+dt,
	)
	return true
}

func (e *Engine) updateWires(g *solver.Graph, dt float64) {
	settings := e.project.Settings
	for _, w := range e.project.Wires {
		b, ok := g.WireBranch(w.ID)
		if !ok {
			w.Current = 0
			continue
		}
		w.Current = b.Current
		if !settings.ThermalEnabled {
			continue
		}
		q := thermal.HeatGeneration(w.Current, b.Value)
		p := thermal.Params{Resistance: w.ThermalResistance(), Capacity: w.HeatCapacity()}
		w.Temperature = thermal.Step(w.Temperature, settings.AmbientTemperature, q, p, dt)
	}
}
