package sim

import (
	"fmt"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/thermal"
)

// Report is the outcome of circuit validation. Valid is false as soon as
// one error is added.
type Report struct {
	Valid    bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func NewReport() *Report {
	return &Report{Valid: true, Errors: []string{}, Warnings: []string{}}
}

func (r *Report) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *Report) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) Merge(other *Report) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Valid = r.Valid && other.Valid
}

// Validate checks the circuit for a power source, a ground reference and
// per-component property ranges. It never mutates the project.
func (e *Engine) Validate() *Report {
	r := NewReport()
	p := e.project

	if len(p.Components) == 0 {
		r.AddError("circuit has no components")
		return r
	}

	connected := p.ConnectedPorts()
	var hasSource, hasGround bool
	for _, c := range p.Components {
		switch {
		case c.Type.IsSource():
			hasSource = true
		case c.Type == catalog.Ground:
			hasGround = true
		}

		if _, ok := e.catalog.Material(c.Material); !ok {
			r.AddError("%s: unknown material %q", c.Label, c.Material)
		}
		for _, issue := range c.Props.Validate() {
			if issue.Warning {
				r.AddWarning("%s: %s", c.Label, issue.Message)
			} else {
				r.AddError("%s: %s", c.Label, issue.Message)
			}
		}
		for _, port := range c.Ports {
			if !connected[port.ID] {
				r.AddWarning("%s: port %s is not connected", c.Label, port.Name)
			}
		}

		switch {
		case c.Runtime.Failed:
			r.AddWarning("%s has failed (%s)", c.Label, c.Runtime.FailureKind)
		case c.Runtime.Warning.Rank() >= thermal.WarningMedium.Rank():
			r.AddWarning("%s is overheating (%s)", c.Label, c.Runtime.Warning)
		}
	}

	if !hasSource {
		r.AddError("circuit has no power source")
	}
	if !hasGround {
		r.AddError("circuit has no ground reference")
	}
	return r
}
