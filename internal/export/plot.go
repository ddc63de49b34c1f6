// Package export writes field grids and recorded runs as images, CSV and
// JSON. Image format follows the file extension (png, svg, pdf).
package export

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/emsim/internal/field"
	"github.com/san-kum/emsim/internal/sim"
)

var (
	ErrNoData    = errors.New("export: nothing to plot")
	ErrNotSquare = errors.New("export: samples do not form a square grid")
)

const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 5 * vg.Inch

	paletteColors = 32
)

// FieldGrid adapts a latitude-major sample slice from field.Grid to
// plotter.GridXYZ. Columns are longitudes, rows latitudes; Z is |B|.
type FieldGrid struct {
	samples []field.Sample
	n       int
}

func NewFieldGrid(samples []field.Sample) (*FieldGrid, error) {
	if len(samples) == 0 {
		return nil, ErrNoData
	}
	n := int(math.Round(math.Sqrt(float64(len(samples)))))
	if n*n != len(samples) {
		return nil, fmt.Errorf("%w: %d samples", ErrNotSquare, len(samples))
	}
	return &FieldGrid{samples: samples, n: n}, nil
}

func (g *FieldGrid) Dims() (c, r int)   { return g.n, g.n }
func (g *FieldGrid) Z(c, r int) float64 { return g.samples[r*g.n+c].Magnitude }
func (g *FieldGrid) X(c int) float64    { return g.samples[c].Lon }
func (g *FieldGrid) Y(r int) float64    { return g.samples[r*g.n].Lat }

// At returns the full sample behind cell (c, r).
func (g *FieldGrid) At(c, r int) field.Sample { return g.samples[r*g.n+c] }

// HeatmapPlot renders field magnitude over the grid.
func HeatmapPlot(samples []field.Sample, title string) (*plot.Plot, error) {
	grid, err := NewFieldGrid(samples)
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "longitude (°)"
	p.Y.Label.Text = "latitude (°)"

	hm := plotter.NewHeatMap(grid, palette.Heat(paletteColors, 1))
	p.Add(hm)
	return p, nil
}

func SaveHeatmap(path string, samples []field.Sample, title string) error {
	p, err := HeatmapPlot(samples, title)
	if err != nil {
		return err
	}
	return p.Save(DefaultWidth, DefaultHeight, path)
}

// HistoryPlot draws one line per column against time. NaN readings are
// left out of their line.
func HistoryPlot(h *sim.History, columns []string, title string) (*plot.Plot, error) {
	if h == nil || h.Len() == 0 || len(columns) == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Legend.Top = true

	for i, col := range columns {
		series, ok := h.Series(col)
		if !ok {
			return nil, fmt.Errorf("export: no column %q", col)
		}
		xys := make(plotter.XYs, 0, len(series))
		for j, v := range series {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			xys = append(xys, plotter.XY{X: h.Times[j], Y: v})
		}
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("export: %s: %w", col, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(col, line)
	}
	return p, nil
}

func SaveHistoryPlot(path string, h *sim.History, columns []string, title string) error {
	p, err := HistoryPlot(h, columns, title)
	if err != nil {
		return err
	}
	return p.Save(DefaultWidth*1.5, DefaultHeight, path)
}
