// Package metrics summarizes a run as scalar values. Every metric is a
// sim.Observer and can be attached with sim.WithObserver.
package metrics

import (
	"math"

	"github.com/san-kum/emsim/internal/sim"
)

type Metric interface {
	sim.Observer
	Name() string
	Value() float64
	Reset()
}

// Defaults returns a fresh set of the standard run metrics.
func Defaults() []Metric {
	return []Metric{NewEnergy(), NewPeakTemperature(), NewConvergence()}
}

// Collect reads every metric into a map keyed by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

func Observers(ms []Metric) []sim.Observer {
	out := make([]sim.Observer, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

// Energy integrates the power dissipated in all components, in joules.
type Energy struct {
	total float64
	last  float64
}

func NewEnergy() *Energy { return &Energy{} }

func (e *Energy) Name() string { return "energy_j" }

func (e *Energy) OnStep(ev sim.StepEvent) {
	dt := ev.Time - e.last
	e.last = ev.Time
	if dt <= 0 {
		return
	}
	for _, c := range ev.Project.Components {
		e.total += c.Runtime.Power * dt
	}
}

func (e *Energy) Value() float64 { return e.total }

func (e *Energy) Reset() { e.total, e.last = 0, 0 }

// PeakTemperature is the hottest any component got.
type PeakTemperature struct {
	peak    float64
	samples int
}

func NewPeakTemperature() *PeakTemperature { return &PeakTemperature{} }

func (p *PeakTemperature) Name() string { return "peak_temperature_c" }

func (p *PeakTemperature) OnStep(ev sim.StepEvent) {
	for _, c := range ev.Project.Components {
		if p.samples == 0 {
			p.peak = c.Runtime.Temperature
		}
		p.peak = math.Max(p.peak, c.Runtime.Temperature)
		p.samples++
	}
}

func (p *PeakTemperature) Value() float64 { return p.peak }

func (p *PeakTemperature) Reset() { p.peak, p.samples = 0, 0 }

// Convergence is the fraction of steps whose relaxation converged.
type Convergence struct {
	converged int
	samples   int
}

func NewConvergence() *Convergence { return &Convergence{} }

func (c *Convergence) Name() string { return "convergence" }

func (c *Convergence) OnStep(ev sim.StepEvent) {
	c.samples++
	if ev.Status.Converged {
		c.converged++
	}
}

func (c *Convergence) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return float64(c.converged) / float64(c.samples)
}

func (c *Convergence) Reset() { c.converged, c.samples = 0, 0 }
