// Package field computes magnetic fields of current loops placed on the
// Earth's surface by superposing discretized Biot–Savart contributions.
//
// Sources and sample points are geographic positions. Both are converted to
// ECEF before the displacement is formed, and every 1/r² evaluation goes
// through the regularization buffer, so no query returns a non-finite vector.
package field

import (
	"math"

	"github.com/san-kum/emsim/internal/buffer"
	"github.com/san-kum/emsim/internal/geodesy"
	"github.com/san-kum/emsim/internal/vecmath"
)

const (
	// Mu0 is the vacuum permeability in T·m/A.
	Mu0 = 4 * math.Pi * 1e-7

	DefaultSegments = 72

	KindLoop = "loop"
)

// Source is a circular current loop lying in the local tangent plane at Position.
type Source struct {
	Kind     string      `json:"kind" yaml:"kind"`
	Position geodesy.Geo `json:"position" yaml:"position"`
	Radius   float64     `json:"radius" yaml:"radius"`
	Turns    float64     `json:"turns" yaml:"turns"`
	Current  float64     `json:"current" yaml:"current"`
	Segments int         `json:"segments" yaml:"segments"`
}

// NewLoop returns a loop source with DefaultSegments.
func NewLoop(pos geodesy.Geo, radius, turns, current float64) Source {
	return Source{
		Kind:     KindLoop,
		Position: pos,
		Radius:   radius,
		Turns:    turns,
		Current:  current,
		Segments: DefaultSegments,
	}
}

// Option selects how field evaluations regularize distances.
type Option func(*options)

type options struct {
	distance func(r, scale float64) float64
}

func newOptions(opts []Option) options {
	o := options{distance: buffer.Distance}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSmoothFalloff regularizes with buffer.SmoothDistance instead of the
// hard sqrt(r² + Δ²) floor. Heatmaps use it.
func WithSmoothFalloff() Option {
	return func(o *options) { o.distance = buffer.SmoothDistance }
}

// BiotSavartSpherical returns the field at point produced by a current
// element dl (ECEF direction scaled by segment length) located at src:
//
//	dB = μ0/4π · I · (dl × r̂) / r_reg²
func BiotSavartSpherical(src, point geodesy.Geo, dl vecmath.Vector3, current, scale float64, opts ...Option) vecmath.Vector3 {
	b, _ := biotSavart(src, point, dl, current, scale, newOptions(opts))
	return b
}

// biotSavart also returns the unregularized distance from src to point.
func biotSavart(src, point geodesy.Geo, dl vecmath.Vector3, current, scale float64, o options) (vecmath.Vector3, float64) {
	r := geodesy.GeoToECEF(point).Sub(geodesy.GeoToECEF(src))
	dist := r.Magnitude()
	reg := o.distance(dist, scale)
	k := Mu0 / (4 * math.Pi) * current / (reg * reg)
	return dl.Cross(r.Normalize()).Scale(k), dist
}

// GeoCircularLoop sums the contributions of src.Segments equal-angle segments
// of the loop, each scaled by current × turns. Segment midpoints lie on the
// circle in the East/North plane at the loop center.
func GeoCircularLoop(src Source, point geodesy.Geo, scale float64, opts ...Option) vecmath.Vector3 {
	b, _ := loop(src, point, scale, newOptions(opts))
	return b
}

// loop returns the loop field and the distance to the nearest segment midpoint.
func loop(src Source, point geodesy.Geo, scale float64, o options) (vecmath.Vector3, float64) {
	n := src.Segments
	if n <= 0 {
		n = DefaultSegments
	}
	turns := src.Turns
	if turns <= 0 {
		turns = 1
	}
	current := src.Current * turns
	segLen := 2 * math.Pi * src.Radius / float64(n)

	total := vecmath.Zero
	nearest := math.Inf(1)
	for i := 0; i < n; i++ {
		theta := (float64(i) + 0.5) * 2 * math.Pi / float64(n)
		sin, cos := math.Sincos(theta)

		mid := geodesy.ECEFToGeo(geodesy.ENUToECEF(
			vecmath.Vec(src.Radius*cos, src.Radius*sin, 0), src.Position))
		tangent := geodesy.RotateFromENU(vecmath.Vec(-sin, cos, 0), src.Position.Lat, src.Position.Lon)

		b, d := biotSavart(mid, point, tangent.Scale(segLen), current, scale, o)
		total = total.Add(b)
		nearest = math.Min(nearest, d)
	}
	return total, nearest
}

// At returns the superposed field of every loop source at lat/lon/alt.
func At(sources []Source, lat, lon, alt, scale float64, opts ...Option) vecmath.Vector3 {
	b, _ := superpose(sources, geodesy.Geo{Lat: lat, Lon: lon, Alt: alt}, scale, newOptions(opts))
	return b
}

// superpose returns the summed field and the distance to the nearest
// conductor segment, +Inf when there are no loop sources.
func superpose(sources []Source, point geodesy.Geo, scale float64, o options) (vecmath.Vector3, float64) {
	total := vecmath.Zero
	nearest := math.Inf(1)
	for _, src := range sources {
		if src.Kind != KindLoop {
			continue
		}
		b, d := loop(src, point, scale, o)
		total = total.Add(b)
		nearest = math.Min(nearest, d)
	}
	return total, nearest
}

// Diagnose reports how strongly the regularization buffer acts at lat/lon/alt,
// measured at the nearest conductor segment. ok is false without loop sources.
func Diagnose(sources []Source, lat, lon, alt, scale float64) (d buffer.Diagnostic, ok bool) {
	_, nearest := superpose(sources, geodesy.Geo{Lat: lat, Lon: lon, Alt: alt}, scale, newOptions(nil))
	return diagnose(nearest, scale)
}

func diagnose(nearest, scale float64) (buffer.Diagnostic, bool) {
	if math.IsInf(nearest, 1) {
		return buffer.Diagnostic{}, false
	}
	return buffer.Diagnose(nearest, scale), true
}

// Attenuation bands in dB per megameter.
const (
	elfCutoffHz = 3e3
	vlfCutoffHz = 30e3

	elfDBPerMm   = 1.5
	vlfDBPerMm   = 3.0
	otherDBPerMm = 20.0
)

// AtmosphericAttenuation returns the linear amplitude factor after travelling
// distance meters at freq Hz, using a piecewise ELF/VLF/other dB-per-Mm model.
// It is a band approximation, not a waveguide-mode solution.
func AtmosphericAttenuation(freq, distance float64) float64 {
	rate := otherDBPerMm
	switch {
	case freq < elfCutoffHz:
		rate = elfDBPerMm
	case freq < vlfCutoffHz:
		rate = vlfDBPerMm
	}
	db := rate * math.Abs(distance) / 1e6
	return math.Pow(10, -db/20)
}
