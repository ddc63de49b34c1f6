// Package buffer implements the Kunferman distance-regularization buffer.
//
// Inverse-distance field laws diverge at r = 0. Every distance that feeds a
// 1/r, 1/r² or 1/r³ evaluation is first replaced by
//
//	r_reg = sqrt(r² + (Δ·scale)²)
//
// which is smooth, never smaller than Δ·scale, and converges to r for r ≫ Δ.
// No function in this package branches on r being zero.
package buffer

import (
	"math"

	"github.com/san-kum/emsim/internal/vecmath"
)

const (
	// BufferBase and BufferRatio define the floor length Delta.
	BufferBase  = 0.01
	BufferRatio = 1.6180339887498949

	// Delta is the regularization floor in meters at scale 1.
	Delta = BufferBase * BufferRatio

	// MinScale bounds the caller-supplied scale from below so the floor never vanishes.
	MinScale = 1e-9

	// triggerStrength is the Diagnose strength above which regularization counts as active.
	triggerStrength = 0.01
)

// Floor returns Δ·scale with scale clamped to MinScale.
func Floor(scale float64) float64 {
	return Delta * math.Max(scale, MinScale)
}

// Distance returns the regularized distance sqrt(r² + (Δ·scale)²).
func Distance(r, scale float64) float64 {
	return math.Hypot(r, Floor(scale))
}

func InverseDistance(r, scale float64) float64 {
	return 1 / Distance(r, scale)
}

func InverseSquareDistance(r, scale float64) float64 {
	d := Distance(r, scale)
	return 1 / (d * d)
}

func InverseCubeDistance(r, scale float64) float64 {
	d := Distance(r, scale)
	return 1 / (d * d * d)
}

// Vector keeps the direction of (x, y, z) and rescales its magnitude to the
// regularized value. The zero vector maps to (Δ·scale, 0, 0).
func Vector(x, y, z, scale float64) vecmath.Vector3 {
	v := vecmath.Vec(x, y, z)
	return v.Normalize().Scale(Distance(v.Magnitude(), scale))
}

// SmoothDistance blends the floor Δ·scale into the regularized distance
// with the weight tanh((r/Δ·scale)²). The weight has zero slope at r = 0,
// so the result is smooth there, never below the floor, non-decreasing in
// |r| and converges to r for r ≫ Δ.
func SmoothDistance(r, scale float64) float64 {
	floor := Floor(scale)
	x := r / floor
	w := math.Tanh(x * x)
	return (1-w)*floor + w*Distance(r, scale)
}

// Diagnostic reports how strongly regularization altered a distance.
type Diagnostic struct {
	Raw         float64 `json:"raw"`
	Regularized float64 `json:"regularized"`
	// Strength is (r_reg - r) / r_reg, in [0, 1].
	Strength  float64 `json:"strength"`
	Triggered bool    `json:"triggered"`
}

// Diagnose is observational only; it has no effect on any computation.
func Diagnose(r, scale float64) Diagnostic {
	reg := Distance(r, scale)
	strength := (reg - math.Abs(r)) / reg
	strength = math.Min(1, math.Max(0, strength))
	return Diagnostic{
		Raw:         r,
		Regularized: reg,
		Strength:    strength,
		Triggered:   strength > triggerStrength,
	}
}
