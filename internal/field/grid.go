package field

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/emsim/internal/buffer"
	"github.com/san-kum/emsim/internal/geodesy"
	"github.com/san-kum/emsim/internal/vecmath"
)

// Range is an inclusive [Min, Max] interval in degrees.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

type Sample struct {
	Lat       float64         `json:"lat"`
	Lon       float64         `json:"lon"`
	Alt       float64         `json:"alt"`
	Field     vecmath.Vector3 `json:"field"`
	Magnitude float64         `json:"magnitude"`
	// Buffer is the regularization diagnostic at the nearest conductor.
	// It is zero when the grid has no loop sources.
	Buffer buffer.Diagnostic `json:"buffer"`
}

// Grid samples (resolution+1)² points over lat × lon, latitude-major.
// Cost is O(points × sources × segments).
func Grid(sources []Source, lat, lon Range, alt float64, resolution int, scale float64, opts ...Option) []Sample {
	if resolution < 1 {
		resolution = 1
	}
	o := newOptions(opts)
	lats := make([]float64, resolution+1)
	lons := make([]float64, resolution+1)
	floats.Span(lats, lat.Min, lat.Max)
	floats.Span(lons, lon.Min, lon.Max)

	samples := make([]Sample, 0, len(lats)*len(lons))
	for _, la := range lats {
		for _, lo := range lons {
			b, nearest := superpose(sources, geodesy.Geo{Lat: la, Lon: lo, Alt: alt}, scale, o)
			diag, _ := diagnose(nearest, scale)
			samples = append(samples, Sample{
				Lat:       la,
				Lon:       lo,
				Alt:       alt,
				Field:     b,
				Magnitude: b.Magnitude(),
				Buffer:    diag,
			})
		}
	}
	return samples
}

// Triggered counts samples where the regularization buffer was active.
func Triggered(samples []Sample) int {
	n := 0
	for _, s := range samples {
		if s.Buffer.Triggered {
			n++
		}
	}
	return n
}

// Peak returns the sample with the largest magnitude, or false for an empty grid.
func Peak(samples []Sample) (Sample, bool) {
	if len(samples) == 0 {
		return Sample{}, false
	}
	best := samples[0]
	for _, s := range samples[1:] {
		if s.Magnitude > best.Magnitude {
			best = s
		}
	}
	return best, true
}
