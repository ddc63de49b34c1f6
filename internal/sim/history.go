package sim

import "math"

// History records per-step component readings. Columns are fixed by the
// components present at the first recorded step.
type History struct {
	Columns []string
	Times   []float64
	Rows    [][]float64

	index map[string]int
}

func NewHistory() *History {
	return &History{index: make(map[string]int)}
}

var historyFields = []string{"temperature", "current", "voltage", "power"}

func (h *History) OnStep(ev StepEvent) {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	if len(h.Columns) == 0 {
		for _, c := range ev.Project.Components {
			for _, f := range historyFields {
				name := c.Label + "." + f
				h.index[name] = len(h.Columns)
				h.Columns = append(h.Columns, name)
			}
		}
	}

	row := make([]float64, len(h.Columns))
	for i := range row {
		row[i] = math.NaN()
	}
	for _, c := range ev.Project.Components {
		values := []float64{c.Runtime.Temperature, c.Runtime.Current, c.Runtime.VoltageDrop, c.Runtime.Power}
		for i, f := range historyFields {
			if col, ok := h.index[c.Label+"."+f]; ok {
				row[col] = values[i]
			}
		}
	}
	h.Times = append(h.Times, ev.Time)
	h.Rows = append(h.Rows, row)
}

func (h *History) Len() int { return len(h.Times) }

// Series returns one column over time.
func (h *History) Series(column string) ([]float64, bool) {
	col, ok := h.index[column]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(h.Rows))
	for i, row := range h.Rows {
		out[i] = row[col]
	}
	return out, true
}

// Peak returns the largest finite value in a column.
func (h *History) Peak(column string) (float64, bool) {
	series, ok := h.Series(column)
	if !ok || len(series) == 0 {
		return 0, false
	}
	peak := math.Inf(-1)
	for _, v := range series {
		if !math.IsNaN(v) && v > peak {
			peak = v
		}
	}
	return peak, !math.IsInf(peak, -1)
}

// RestoreHistory rebuilds a history from stored columns and rows.
func RestoreHistory(columns []string, times []float64, rows [][]float64) *History {
	h := &History{Columns: columns, Times: times, Rows: rows, index: make(map[string]int, len(columns))}
	for i, c := range columns {
		h.index[c] = i
	}
	return h
}
