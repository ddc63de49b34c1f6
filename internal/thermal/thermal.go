// Package thermal integrates component temperature and classifies the
// resulting warning level and failure state.
package thermal

import "math"

// OverheatRatio is the fraction of the material's maximum temperature at
// which a component is considered overheating.
const OverheatRatio = 0.5

type WarningLevel string

const (
	WarningNone     WarningLevel = "none"
	WarningLow      WarningLevel = "low"
	WarningMedium   WarningLevel = "medium"
	WarningHigh     WarningLevel = "high"
	WarningCritical WarningLevel = "critical"
)

// Rank orders warning levels from none (0) to critical (4).
func (w WarningLevel) Rank() int {
	switch w {
	case WarningLow:
		return 1
	case WarningMedium:
		return 2
	case WarningHigh:
		return 3
	case WarningCritical:
		return 4
	}
	return 0
}

type FailureKind string

const (
	FailureNone       FailureKind = "none"
	FailureThermal    FailureKind = "thermal"
	FailureElectrical FailureKind = "electrical"
	FailureMagnetic   FailureKind = "magnetic"
)

// Params are the lumped thermal properties of one body.
type Params struct {
	Resistance float64 // °C/W to ambient
	Capacity   float64 // J/°C
}

// HeatGeneration returns I²R in watts.
func HeatGeneration(current, resistance float64) float64 {
	return current * current * resistance
}

func HeatDissipation(temp, ambient, thermalResistance float64) float64 {
	if thermalResistance <= 0 {
		return 0
	}
	return (temp - ambient) / thermalResistance
}

// Step advances temperature by one explicit Euler step. The result never
// falls below ambient.
func Step(temp, ambient, qGen float64, p Params, dt float64) float64 {
	if p.Capacity <= 0 || dt <= 0 {
		return math.Max(temp, ambient)
	}
	dT := (qGen - HeatDissipation(temp, ambient, p.Resistance)) * dt / p.Capacity
	next := temp + dT
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return math.Max(temp, ambient)
	}
	return math.Max(next, ambient)
}

// Ratio returns temp/maxTemp, or 0 when maxTemp is not positive.
func Ratio(temp, maxTemp float64) float64 {
	if maxTemp <= 0 {
		return 0
	}
	return temp / maxTemp
}

func IsOverheating(temp, maxTemp, overheatRatio float64) bool {
	return maxTemp > 0 && Ratio(temp, maxTemp) >= overheatRatio
}

// Classify maps temperature to a warning level. Thresholds are inclusive.
func Classify(temp, maxTemp, overheatRatio float64) WarningLevel {
	if !IsOverheating(temp, maxTemp, overheatRatio) {
		return WarningNone
	}
	r := Ratio(temp, maxTemp)
	switch {
	case r >= 0.95:
		return WarningCritical
	case r >= 0.90:
		return WarningHigh
	case r >= 0.80:
		return WarningMedium
	default:
		return WarningLow
	}
}

// ShouldFail reports whether an overheating body has passed its maximum temperature.
func ShouldFail(temp, maxTemp, overheatRatio float64) bool {
	return IsOverheating(temp, maxTemp, overheatRatio) && temp > maxTemp
}

// SteadyState returns the temperature at which generation and dissipation balance.
func SteadyState(ambient, qGen, thermalResistance float64) float64 {
	return ambient + qGen*thermalResistance
}
