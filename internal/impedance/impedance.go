// Package impedance maps component values and drive frequency to complex
// impedances. Every result is bounded: resistances are floored at
// MinResistance and open circuits saturate at vecmath.SaturatedValue.
package impedance

import (
	"math"

	"github.com/san-kum/emsim/internal/vecmath"
)

const (
	// MinResistance keeps conductances finite in the nodal solver.
	MinResistance = 1e-6

	// ReferenceTemperature is the temperature (°C) at which resistivity is tabulated.
	ReferenceTemperature = 20.0

	dcFrequency = 1e-12
)

// OpenCircuit is the impedance used for an ideal open circuit.
var OpenCircuit = vecmath.Real(vecmath.SaturatedValue)

func Resistor(r float64) vecmath.Complex {
	return vecmath.Real(math.Max(r, MinResistance))
}

// Capacitor returns -j/(ωC). At DC, or for a non-positive capacitance, it is an open circuit.
func Capacitor(c, freq float64) vecmath.Complex {
	omega := 2 * math.Pi * freq
	if freq < dcFrequency || c <= 0 {
		return OpenCircuit
	}
	x := 1 / (omega * c)
	if x > vecmath.SaturatedValue {
		return OpenCircuit
	}
	return vecmath.Imag(-x)
}

func Inductor(l, freq float64) vecmath.Complex {
	return vecmath.Imag(2 * math.Pi * freq * l)
}

// Series sums impedances.
func Series(zs ...vecmath.Complex) vecmath.Complex {
	total := vecmath.Complex{}
	for _, z := range zs {
		total = total.Add(z)
	}
	return total
}

// Parallel returns the reciprocal of the summed admittances.
func Parallel(zs ...vecmath.Complex) vecmath.Complex {
	if len(zs) == 0 {
		return OpenCircuit
	}
	y := vecmath.Complex{}
	for _, z := range zs {
		y = y.Add(z.Inverse())
	}
	return y.Inverse()
}

// WireResistance returns ρ·L/A scaled by the linear temperature coefficient
// alpha relative to ReferenceTemperature. Area is in m².
func WireResistance(resistivity, length, area, alpha, temp float64) float64 {
	if area <= 0 {
		return vecmath.SaturatedValue
	}
	r := resistivity * length / area * (1 + alpha*(temp-ReferenceTemperature))
	return math.Max(r, MinResistance)
}

// Conductance returns 1/|z| with |z| floored at MinResistance.
func Conductance(z vecmath.Complex) float64 {
	return 1 / math.Max(z.Magnitude(), MinResistance)
}
