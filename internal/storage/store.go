// Package storage persists recorded runs as a directory per run holding
// metadata.json and states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/emsim/internal/sim"
)

var ErrEmptyHistory = errors.New("storage: history has no rows")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Columns   []string           `json:"columns"`
	Failures  []string           `json:"failures,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes h under a new run id. The peak of every temperature column is
// added to meta.Metrics.
func (s *Store) Save(meta RunMetadata, h *sim.History) (string, error) {
	if h == nil || h.Len() == 0 {
		return "", ErrEmptyHistory
	}
	meta.ID = fmt.Sprintf("%s_%s", meta.Name, uuid.NewString()[:8])
	meta.Timestamp = s.now()
	meta.Steps = h.Len()
	meta.Columns = h.Columns
	if meta.Metrics == nil {
		meta.Metrics = make(map[string]float64)
	}
	for k, v := range peakTemperatures(h) {
		meta.Metrics[k] = v
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(append([]string{"time"}, h.Columns...)); err != nil {
		return "", err
	}
	for i, row := range h.Rows {
		record := make([]string, 0, len(row)+1)
		record = append(record, strconv.FormatFloat(h.Times[i], 'f', 6, 64))
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', 10, 64))
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func peakTemperatures(h *sim.History) map[string]float64 {
	out := make(map[string]float64)
	for _, c := range h.Columns {
		if !strings.HasSuffix(c, ".temperature") {
			continue
		}
		if peak, ok := h.Peak(c); ok {
			out["peak."+c] = peak
		}
	}
	return out
}

// List returns the metadata of every stored run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadHistory reads states.csv back into a history.
func (s *Store) LoadHistory(runID string) (*sim.History, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyHistory
	}

	columns := records[0][1:]
	times := make([]float64, 0, len(records)-1)
	rows := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
		}
		row := make([]float64, len(columns))
		for j := range row {
			if row[j], err = strconv.ParseFloat(record[j+1], 64); err != nil {
				return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
			}
		}
		times = append(times, t)
		rows = append(rows, row)
	}
	return sim.RestoreHistory(columns, times, rows), nil
}
