package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/emsim/internal/field"
	"github.com/san-kum/emsim/internal/sim"
)

func ff(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }

// WriteGridCSV writes one row per sample: lat, lon, alt, bx, by, bz,
// magnitude, then the buffer strength and trigger flag at the nearest conductor.
func WriteGridCSV(w io.Writer, samples []field.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"lat", "lon", "alt", "bx", "by", "bz", "magnitude", "buffer_strength", "buffer_triggered"}); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{ff(s.Lat), ff(s.Lon), ff(s.Alt), ff(s.Field.X), ff(s.Field.Y), ff(s.Field.Z), ff(s.Magnitude),
			ff(s.Buffer.Strength), strconv.FormatBool(s.Buffer.Triggered)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteHistoryCSV(w io.Writer, h *sim.History) error {
	if h == nil || h.Len() == 0 {
		return ErrNoData
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"time"}, h.Columns...)); err != nil {
		return err
	}
	for i, row := range h.Rows {
		record := make([]string, 0, len(row)+1)
		record = append(record, ff(h.Times[i]))
		for _, v := range row {
			record = append(record, ff(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
