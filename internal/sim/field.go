package sim

import (
	"github.com/san-kum/emsim/internal/field"
	"github.com/san-kum/emsim/internal/vecmath"
)

// FieldAt evaluates the superposed loop field at one point. It reads no
// circuit state.
func (e *Engine) FieldAt(sources []field.Source, lat, lon, alt, scale float64, opts ...field.Option) vecmath.Vector3 {
	return field.At(sources, lat, lon, alt, scale, opts...)
}

// FieldGrid samples the field over a lat/lon box. A non-positive resolution
// uses the project's field resolution.
func (e *Engine) FieldGrid(sources []field.Source, lat, lon field.Range, alt float64, resolution int, scale float64, opts ...field.Option) []field.Sample {
	if resolution <= 0 {
		resolution = e.project.Settings.FieldResolution
	}
	return field.Grid(sources, lat, lon, alt, resolution, scale, opts...)
}
