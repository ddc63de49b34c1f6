package circuit

import (
	"fmt"
	"math"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/impedance"
	"github.com/san-kum/emsim/internal/thermal"
	"github.com/san-kum/emsim/internal/vecmath"
)

type BranchKind string

const (
	KindResistor  BranchKind = "resistor"
	KindCapacitor BranchKind = "capacitor"
	KindInductor  BranchKind = "inductor"
	KindWire      BranchKind = "wire"
	KindSource    BranchKind = "source"
)

// SaturationFlux is the core flux density (T) above which a cored coil fails magnetically.
const SaturationFlux = 2.0

// Edge is one implicit branch between two ports of a component, by port index.
// For source edges Value is the instantaneous voltage of From over To.
type Edge struct {
	From, To int
	Kind     BranchKind
	Z        vecmath.Complex
	Value    float64
}

// Env is what a component may read when producing its edges.
type Env struct {
	Time        float64
	Frequency   float64
	Temperature float64
	Material    catalog.Material
	Runtime     Runtime
}

type Issue struct {
	Warning bool
	Message string
}

func errIssue(format string, args ...any) Issue {
	return Issue{Message: fmt.Sprintf(format, args...)}
}

func warnIssue(format string, args ...any) Issue {
	return Issue{Warning: true, Message: fmt.Sprintf(format, args...)}
}

// Properties is the type-specific part of a component.
type Properties interface {
	Params() map[string]float64
	SetParam(name string, v float64) error
	Edges(env Env) []Edge
	Validate() []Issue
}

// FailureChecker is implemented by variants with a non-thermal failure mode.
type FailureChecker interface {
	CheckFailure(rt Runtime) (thermal.FailureKind, bool)
}

var variants = map[catalog.ComponentType]func() Properties{
	catalog.Resistor:       func() Properties { return &ResistorProps{} },
	catalog.Capacitor:      func() Properties { return &CapacitorProps{} },
	catalog.Inductor:       func() Properties { return &InductorProps{} },
	catalog.DCSource:       func() Properties { return &SourceProps{} },
	catalog.ACSource:       func() Properties { return &SourceProps{Alternating: true} },
	catalog.PulseGenerator: func() Properties { return &PulseProps{} },
	catalog.Coil:           func() Properties { return &CoilProps{Shape: catalog.Coil} },
	catalog.Solenoid:       func() Properties { return &CoilProps{Shape: catalog.Solenoid} },
	catalog.Toroid:         func() Properties { return &CoilProps{Shape: catalog.Toroid} },
	catalog.Helmholtz:      func() Properties { return &CoilProps{Shape: catalog.Helmholtz} },
	catalog.Transformer:    func() Properties { return &TransformerProps{} },
	catalog.Switch:         func() Properties { return &SwitchProps{} },
	catalog.Relay:          func() Properties { return &RelayProps{} },
	catalog.Transistor:     func() Properties { return &TransistorProps{} },
	catalog.Ground:         func() Properties { return &GroundProps{} },
}

// NewProperties builds the variant for t and applies defaults. Defaults the
// variant does not know are ignored.
func NewProperties(t catalog.ComponentType, defaults map[string]float64) (Properties, error) {
	ctor, ok := variants[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	p := ctor()
	known := p.Params()
	for name, v := range defaults {
		if _, ok := known[name]; !ok {
			continue
		}
		if err := p.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func unknownParam(name string) error {
	return fmt.Errorf("%s: %w", name, ErrUnknownParam)
}

type ResistorProps struct {
	Resistance float64 `json:"resistance"`
}

func (p *ResistorProps) Params() map[string]float64 {
	return map[string]float64{"resistance": p.Resistance}
}

func (p *ResistorProps) SetParam(name string, v float64) error {
	if name != "resistance" {
		return unknownParam(name)
	}
	p.Resistance = v
	return nil
}

func (p *ResistorProps) Edges(Env) []Edge {
	return []Edge{{From: 0, To: 1, Kind: KindResistor, Z: impedance.Resistor(p.Resistance), Value: p.Resistance}}
}

func (p *ResistorProps) Validate() []Issue {
	if p.Resistance <= 0 {
		return []Issue{errIssue("resistance must be positive, got %g", p.Resistance)}
	}
	return nil
}

type CapacitorProps struct {
	Capacitance float64 `json:"capacitance"`
	MaxVoltage  float64 `json:"maxVoltage"`
}

func (p *CapacitorProps) Params() map[string]float64 {
	return map[string]float64{"capacitance": p.Capacitance, "maxVoltage": p.MaxVoltage}
}

func (p *CapacitorProps) SetParam(name string, v float64) error {
	switch name {
	case "capacitance":
		p.Capacitance = v
	case "maxVoltage":
		p.MaxVoltage = v
	default:
		return unknownParam(name)
	}
	return nil
}

func (p *CapacitorProps) Edges(env Env) []Edge {
	return []Edge{{From: 0, To: 1, Kind: KindCapacitor, Z: impedance.Capacitor(p.Capacitance, env.Frequency), Value: p.Capacitance}}
}

func (p *CapacitorProps) Validate() []Issue {
	var issues []Issue
	if p.Capacitance <= 0 {
		issues = append(issues, errIssue("capacitance must be positive, got %g", p.Capacitance))
	}
	if p.MaxVoltage <= 0 {
		issues = append(issues, warnIssue("no voltage rating set"))
	}
	return issues
}

// CheckFailure reports dielectric breakdown above the voltage rating.
func (p *CapacitorProps) CheckFailure(rt Runtime) (thermal.FailureKind, bool) {
	if p.MaxVoltage > 0 && math.Abs(rt.VoltageDrop) > p.MaxVoltage {
		return thermal.FailureElectrical, true
	}
	return thermal.FailureNone, false
}

type InductorProps struct {
	Inductance float64 `json:"inductance"`
	Resistance float64 `json:"resistance"`
}

func (p *InductorProps) Params() map[string]float64 {
	return map[string]float64{"inductance": p.Inductance, "resistance": p.Resistance}
}

func (p *InductorProps) SetParam(name string, v float64) error {
	switch name {
	case "inductance":
		p.Inductance = v
	case "resistance":
		p.Resistance = v
	default:
		return unknownParam(name)
	}
	return nil
}

func (p *InductorProps) Edges(env Env) []Edge {
	z := impedance.Series(impedance.Resistor(p.Resistance), impedance.Inductor(p.Inductance, env.Frequency))
	return []Edge{{From: 0, To: 1, Kind: KindInductor, Z: z, Value: p.Inductance}}
}

func (p *InductorProps) Validate() []Issue {
	var issues []Issue
	if p.Inductance <= 0 {
		issues = append(issues, errIssue("inductance must be positive, got %g", p.Inductance))
	}
	if p.Resistance < 0 {
		issues = append(issues, errIssue("winding resistance must not be negative, got %g", p.Resistance))
	}
	return issues
}

// SourceProps drives a constant voltage, or a sinusoid when Alternating.
type SourceProps struct {
	Voltage     float64 `json:"voltage"`
	Frequency   float64 `json:"frequency,omitempty"`
	Phase       float64 `json:"phase,omitempty"`
	Alternating bool    `json:"alternating"`
}

func (p *SourceProps) Params() map[string]float64 {
	if !p.Alternating {
		return map[string]float64{"voltage": p.Voltage}
	}
	return map[string]float64{"voltage": p.Voltage, "frequency": p.Frequency, "phase": p.Phase}
}

func (p *SourceProps) SetParam(name string, v float64) error {
	switch {
	case name == "voltage":
		p.Voltage = v
	case name == "frequency" && p.Alternating:
		p.Frequency = v
	case name == "phase" && p.Alternating:
		p.Phase = v
	default:
		return unknownParam(name)
	}
	return nil
}

// At returns the source voltage at time t.
func (p *SourceProps) At(t float64) float64 {
	if !p.Alternating {
		return p.Voltage
	}
	return p.Voltage * math.Sin(2*math.Pi*p.Frequency*t+p.Phase)
}

func (p *SourceProps) Edges(env Env) []Edge {
	return []Edge{{From: 0, To: 1, Kind: KindSource, Value: p.At(env.Time)}}
}

func (p *SourceProps) Validate() []Issue {
	var issues []Issue
	if p.Voltage == 0 {
		issues = append(issues, warnIssue("source voltage is zero"))
	}
	if p.Alternating && p.Frequency <= 0 {
		issues = append(issues, errIssue("frequency must be positive, got %g", p.Frequency))
	}
	return issues
}

// PulseProps is a square wave between Voltage and 0.
type PulseProps struct {
	Voltage   float64 `json:"voltage"`
	Frequency float64 `json:"frequency"`
	DutyCycle float64 `json:"dutyCycle"`
}

func (p *PulseProps) Params() map[string]float64 {
	return map[string]float64{"voltage": p.Voltage, "frequency": p.Frequency, "dutyCycle": p.DutyCycle}
}

func (p *PulseProps) SetParam(name string, v float64) error {
	switch name {
	case "voltage":
		p.Voltage = v
	case "frequency":
		p.Frequency = v
	case "dutyCycle":
		p.DutyCycle = v
	default:
		return unknownParam(name)
	}
	return nil
}

func (p *PulseProps) At(t float64) float64 {
	if p.Frequency <= 0 {
		return p.Voltage
	}
	_, frac := math.Modf(t * p.Frequency)
	if frac < p.DutyCycle {
		return p.Voltage
	}
	return 0
}

func (p *PulseProps) Edges(env Env) []Edge {
	return []Edge{{From: 0, To: 1, Kind: KindSource, Value: p.At(env.Time)}}
}

func (p *PulseProps) Validate() []Issue {
	var issues []Issue
	if p.Voltage == 0 {
		issues = append(issues, warnIssue("pulse voltage is zero"))
	}
	if p.Frequency <= 0 {
		issues = append(issues, errIssue("frequency must be positive, got %g", p.Frequency))
	}
	if p.DutyCycle < 0 || p.DutyCycle > 1 {
		issues = append(issues, errIssue("duty cycle must be within [0, 1], got %g", p.DutyCycle))
	}
	return issues
}

// CoilProps covers the wound magnetic family. Which geometry fields apply
// depends on Shape.
type CoilProps struct {
	Shape            catalog.ComponentType `json:"shape"`
	Turns            float64               `json:"turns"`
	Radius           float64               `json:"radius"`
	Length           float64               `json:"length,omitempty"`
	MinorRadius      float64               `json:"minorRadius,omitempty"`
	WireDiameter     float64               `json:"wireDiameter"`
	CorePermeability float64               `json:"corePermeability"`
}

func (p *CoilProps) Params() map[string]float64 {
	m := map[string]float64{
		"turns":            p.Turns,
		"radius":           p.Radius,
		"wireDiameter":     p.WireDiameter,
		"corePermeability": p.CorePermeability,
	}
	switch p.Shape {
	case catalog.Toroid:
		m["minorRadius"] = p.MinorRadius
	case catalog.Coil, catalog.Solenoid:
		m["length"] = p.Length
	}
	return m
}

func (p *CoilProps) SetParam(name string, v float64) error {
	if _, ok := p.Params()[name]; !ok {
		return unknownParam(name)
	}
	switch name {
	case "turns":
		p.Turns = v
	case "radius":
		p.Radius = v
	case "length":
		p.Length = v
	case "minorRadius":
		p.MinorRadius = v
	case "wireDiameter":
		p.WireDiameter = v
	case "corePermeability":
		p.CorePermeability = v
	}
	return nil
}

func (p *CoilProps) permeability() float64 {
	return math.Max(p.CorePermeability, 1)
}

// Inductance estimates L in henries from the winding geometry.
func (p *CoilProps) Inductance() float64 {
	const mu0 = 4 * math.Pi * 1e-7
	n2 := p.Turns * p.Turns
	switch p.Shape {
	case catalog.Toroid:
		if p.MinorRadius <= 0 || p.MinorRadius >= p.Radius {
			return 0
		}
		return mu0 * p.permeability() * n2 * (p.Radius - math.Sqrt(p.Radius*p.Radius-p.MinorRadius*p.MinorRadius))
	case catalog.Helmholtz:
		w := p.WireDiameter / 2
		if w <= 0 || p.Radius <= 0 {
			return 0
		}
		single := mu0 * n2 * p.Radius * (math.Log(8*p.Radius/w) - 2)
		return 2 * math.Max(single, 0)
	default:
		// Wheeler's approximation for a single-layer solenoid.
		denom := p.Length + 0.9*p.Radius
		if denom <= 0 {
			return 0
		}
		return mu0 * p.permeability() * n2 * math.Pi * p.Radius * p.Radius / denom
	}
}

// WireLength is the total conductor length in meters.
func (p *CoilProps) WireLength() float64 {
	switch p.Shape {
	case catalog.Toroid:
		return p.Turns * 2 * math.Pi * p.MinorRadius
	case catalog.Helmholtz:
		return 2 * p.Turns * 2 * math.Pi * p.Radius
	default:
		return p.Turns * 2 * math.Pi * p.Radius
	}
}

func (p *CoilProps) DCResistance(m catalog.Material, temp float64) float64 {
	area := math.Pi * p.WireDiameter * p.WireDiameter / 4
	return impedance.WireResistance(m.Resistivity, p.WireLength(), area, m.ThermalCoefficient, temp)
}

func (p *CoilProps) Edges(env Env) []Edge {
	l := p.Inductance()
	z := impedance.Series(
		impedance.Resistor(p.DCResistance(env.Material, env.Temperature)),
		impedance.Inductor(l, env.Frequency),
	)
	return []Edge{{From: 0, To: 1, Kind: KindInductor, Z: z, Value: l}}
}

func (p *CoilProps) Validate() []Issue {
	var issues []Issue
	if p.Turns < 1 {
		issues = append(issues, errIssue("turns must be at least 1, got %g", p.Turns))
	}
	if p.Radius <= 0 {
		issues = append(issues, errIssue("radius must be positive, got %g", p.Radius))
	}
	if p.WireDiameter <= 0 {
		issues = append(issues, errIssue("wire diameter must be positive, got %g", p.WireDiameter))
	}
	switch p.Shape {
	case catalog.Toroid:
		if p.MinorRadius <= 0 || p.MinorRadius >= p.Radius {
			issues = append(issues, errIssue("minor radius must be within (0, radius), got %g", p.MinorRadius))
		}
	case catalog.Coil, catalog.Solenoid:
		if p.Length <= 0 {
			issues = append(issues, errIssue("length must be positive, got %g", p.Length))
		}
	}
	if p.CorePermeability < 1 {
		issues = append(issues, warnIssue("core permeability %g below 1 treated as air", p.CorePermeability))
	}
	return issues
}

// CoreFlux returns the flux density in the core for the given current.
// Air-cored and Helmholtz windings report 0.
func (p *CoilProps) CoreFlux(current float64) float64 {
	const mu0 = 4 * math.Pi * 1e-7
	if p.CorePermeability <= 1 {
		return 0
	}
	var path float64
	switch p.Shape {
	case catalog.Toroid:
		path = 2 * math.Pi * p.Radius
	case catalog.Coil, catalog.Solenoid:
		path = p.Length
	}
	if path <= 0 {
		return 0
	}
	return mu0 * p.CorePermeability * p.Turns * math.Abs(current) / path
}

// CheckFailure reports core saturation.
func (p *CoilProps) CheckFailure(rt Runtime) (thermal.FailureKind, bool) {
	if p.CoreFlux(rt.Current) > SaturationFlux {
		return thermal.FailureMagnetic, true
	}
	return thermal.FailureNone, false
}

// TransformerProps models each winding as an independent R+jωL branch. The
// solver has no mutual coupling, so the secondary carries no induced voltage.
type TransformerProps struct {
	PrimaryTurns      float64 `json:"primaryTurns"`
	SecondaryTurns    float64 `json:"secondaryTurns"`
	PrimaryInductance float64 `json:"primaryInductance"`
	WindingResistance float64 `json:"windingResistance"`
}

func (p *TransformerProps) Params() map[string]float64 {
	return map[string]float64{
		"primaryTurns":      p.PrimaryTurns,
		"secondaryTurns":    p.SecondaryTurns,
		"primaryInductance": p.PrimaryInductance,
		"windingResistance": p.WindingResistance,
	}
}

func (p *TransformerProps) SetParam(name string, v float64) error {
	switch name {
	case "primaryTurns":
		p.PrimaryTurns = v
	case "secondaryTurns":
		p.SecondaryTurns = v
	case "primaryInductance":
		p.PrimaryInductance = v
	case "windingResistance":
		p.WindingResistance = v
	default:
		return unknownParam(name)
	}
	return nil
}

// Ratio is secondary over primary turns.
func (p *TransformerProps) Ratio() float64 {
	if p.PrimaryTurns <= 0 {
		return 0
	}
	return p.SecondaryTurns / p.PrimaryTurns
}

func (p *TransformerProps) Edges(env Env) []Edge {
	n := p.Ratio()
	ls := p.PrimaryInductance * n * n
	return []Edge{
		{
			From: 0, To: 1, Kind: KindInductor, Value: p.PrimaryInductance,
			Z: impedance.Series(impedance.Resistor(p.WindingResistance), impedance.Inductor(p.PrimaryInductance, env.Frequency)),
		},
		{
			From: 2, To: 3, Kind: KindInductor, Value: ls,
			Z: impedance.Series(impedance.Resistor(p.WindingResistance*n), impedance.Inductor(ls, env.Frequency)),
		},
	}
}

func (p *TransformerProps) Validate() []Issue {
	var issues []Issue
	if p.PrimaryTurns < 1 || p.SecondaryTurns < 1 {
		issues = append(issues, errIssue("winding turns must be at least 1"))
	}
	if p.PrimaryInductance <= 0 {
		issues = append(issues, errIssue("primary inductance must be positive, got %g", p.PrimaryInductance))
	}
	if p.WindingResistance < 0 {
		issues = append(issues, errIssue("winding resistance must not be negative"))
	}
	return issues
}

type SwitchProps struct {
	Closed       bool    `json:"closed"`
	OnResistance float64 `json:"onResistance"`
}

func (p *SwitchProps) Params() map[string]float64 {
	closed := 0.0
	if p.Closed {
		closed = 1
	}
	return map[string]float64{"closed": closed, "onResistance": p.OnResistance}
}

func (p *SwitchProps) SetParam(name string, v float64) error {
	switch name {
	case "closed":
		p.Closed = v != 0
	case "onResistance":
		p.OnResistance = v
	default:
		return unknownParam(name)
	}
	return nil
}

func (p *SwitchProps) Edges(Env) []Edge {
	return []Edge{contactEdge(0, 1, p.Closed, p.OnResistance)}
}

func (p *SwitchProps) Validate() []Issue {
	if p.OnResistance < 0 {
		return []Issue{errIssue("on resistance must not be negative")}
	}
	return nil
}

func contactEdge(from, to int, closed bool, r float64) Edge {
	if !closed {
		return Edge{From: from, To: to, Kind: KindResistor, Z: impedance.OpenCircuit, Value: vecmath.SaturatedValue}
	}
	return Edge{From: from, To: to, Kind: KindResistor, Z: impedance.Resistor(r), Value: r}
}

// RelayProps closes its contact (com-no) while the coil voltage from the
// previous step is at or above PullInVoltage.
type RelayProps struct {
	CoilResistance    float64 `json:"coilResistance"`
	PullInVoltage     float64 `json:"pullInVoltage"`
	ContactResistance float64 `json:"contactResistance"`
}

func (p *RelayProps) Params() map[string]float64 {
	return map[string]float64{
		"coilResistance":    p.CoilResistance,
		"pullInVoltage":     p.PullInVoltage,
		"contactResistance": p.ContactResistance,
	}
}

func (p *RelayProps) SetParam(name string, v float64) error {
	switch name {
	case "coilResistance":
		p.CoilResistance = v
	case "pullInVoltage":
		p.PullInVoltage = v
	case "contactResistance":
		p.ContactResistance = v
	default:
		return unknownParam(name)
	}
	return nil
}

func (p *RelayProps) Energized(rt Runtime) bool {
	return math.Abs(rt.VoltageDrop) >= p.PullInVoltage
}

func (p *RelayProps) Edges(env Env) []Edge {
	return []Edge{
		{From: 0, To: 1, Kind: KindResistor, Z: impedance.Resistor(p.CoilResistance), Value: p.CoilResistance},
		contactEdge(2, 3, p.Energized(env.Runtime), p.ContactResistance),
	}
}

func (p *RelayProps) Validate() []Issue {
	var issues []Issue
	if p.CoilResistance <= 0 {
		issues = append(issues, errIssue("coil resistance must be positive, got %g", p.CoilResistance))
	}
	if p.PullInVoltage <= 0 {
		issues = append(issues, errIssue("pull-in voltage must be positive, got %g", p.PullInVoltage))
	}
	return issues
}

// TransistorProps is a switch model: base-emitter is a resistor and
// collector-emitter conducts while the previous base-emitter drop reaches Threshold.
type TransistorProps struct {
	BaseResistance float64 `json:"baseResistance"`
	OnResistance   float64 `json:"onResistance"`
	OffResistance  float64 `json:"offResistance"`
	Threshold      float64 `json:"threshold"`
}

func (p *TransistorProps) Params() map[string]float64 {
	return map[string]float64{
		"baseResistance": p.BaseResistance,
		"onResistance":   p.OnResistance,
		"offResistance":  p.OffResistance,
		"threshold":      p.Threshold,
	}
}

func (p *TransistorProps) SetParam(name string, v float64) error {
	switch name {
	case "baseResistance":
		p.BaseResistance = v
	case "onResistance":
		p.OnResistance = v
	case "offResistance":
		p.OffResistance = v
	case "threshold":
		p.Threshold = v
	default:
		return unknownParam(name)
	}
	return nil
}

func (p *TransistorProps) Conducting(rt Runtime) bool {
	return rt.VoltageDrop >= p.Threshold
}

func (p *TransistorProps) Edges(env Env) []Edge {
	ce := p.OffResistance
	if p.Conducting(env.Runtime) {
		ce = p.OnResistance
	}
	return []Edge{
		{From: 0, To: 2, Kind: KindResistor, Z: impedance.Resistor(p.BaseResistance), Value: p.BaseResistance},
		{From: 1, To: 2, Kind: KindResistor, Z: impedance.Resistor(ce), Value: ce},
	}
}

func (p *TransistorProps) Validate() []Issue {
	var issues []Issue
	if p.BaseResistance <= 0 {
		issues = append(issues, errIssue("base resistance must be positive, got %g", p.BaseResistance))
	}
	if p.OnResistance <= 0 || p.OffResistance <= p.OnResistance {
		issues = append(issues, errIssue("need 0 < on resistance < off resistance"))
	}
	return issues
}

// GroundProps has no parameters; its port is the 0 V reference.
type GroundProps struct{}

func (*GroundProps) Params() map[string]float64 { return map[string]float64{} }

func (*GroundProps) SetParam(name string, _ float64) error { return unknownParam(name) }

func (*GroundProps) Edges(Env) []Edge { return nil }

func (*GroundProps) Validate() []Issue { return nil }
