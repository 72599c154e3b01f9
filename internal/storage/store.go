package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/linkage/internal/experiment"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	metadataFile  = "metadata.json"
	seriesFile    = "series.csv"
	positionsFile = "positions.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Solver    string             `json:"solver"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Ticks     int                `json:"ticks"`
	Bodies    int                `json:"bodies"`
	WallTime  float64            `json:"wall_seconds"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes one run directory holding metadata.json, series.csv and
// positions.csv and returns the run id.
func (s *Store) Save(result *experiment.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%d", result.Scenario, result.Variant, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	bodies := 0
	if len(result.Positions) > 0 {
		bodies = len(result.Positions[0])
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  result.Scenario,
		Solver:    result.Variant,
		Timestamp: now,
		Dt:        result.TimeStep,
		Ticks:     len(result.Times),
		Bodies:    bodies,
		WallTime:  result.WallTime.Seconds(),
		Metrics:   result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, seriesFile), seriesRows(result)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, positionsFile), positionRows(result)); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func seriesRows(r *experiment.Result) [][]string {
	elastic := len(r.Elastic) == len(r.Times) && len(r.Elastic) > 0

	header := []string{"time", "kinetic", "potential"}
	if elastic {
		header = append(header, "elastic")
	}
	header = append(header, "total", "violation")

	rows := [][]string{header}
	for i, t := range r.Times {
		row := []string{format(t), format(r.Kinetic[i]), format(r.Potential[i])}
		if elastic {
			row = append(row, format(r.Elastic[i]))
		}
		row = append(row, format(r.Total[i]), format(r.Violation[i]))
		rows = append(rows, row)
	}
	return rows
}

func positionRows(r *experiment.Result) [][]string {
	if len(r.Positions) == 0 {
		return [][]string{{"time"}}
	}

	header := []string{"time"}
	for i := range r.Positions[0] {
		header = append(header, fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i))
	}

	rows := [][]string{header}
	for i, ps := range r.Positions {
		row := []string{format(r.Times[i])}
		for _, p := range ps {
			row = append(row, format(p.X), format(p.Y))
		}
		rows = append(rows, row)
	}
	return rows
}

// List returns every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Series is a CSV table read back from a run directory. Rows[i][0] is time.
type Series struct {
	Header []string
	Rows   [][]float64
}

// Column returns the named column, or nil if the header lacks it.
func (s *Series) Column(name string) []float64 {
	idx := -1
	for i, h := range s.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	out := make([]float64, len(s.Rows))
	for i, row := range s.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	return loadTable(filepath.Join(s.baseDir, runID, seriesFile))
}

func (s *Store) LoadPositions(runID string) (*Series, error) {
	return loadTable(filepath.Join(s.baseDir, runID, positionsFile))
}

func loadTable(path string) (*Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Series{}, nil
	}

	series := &Series{
		Header: records[0],
		Rows:   make([][]float64, 0, len(records)-1),
	}

	for _, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			row[j] = v
		}
		series.Rows = append(series.Rows, row)
	}

	return series, nil
}

// LoadResult rebuilds a run's series from disk.
func (s *Store) LoadResult(runID string) (*experiment.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return nil, err
	}
	positions, err := s.LoadPositions(runID)
	if err != nil {
		return nil, err
	}

	r := &experiment.Result{
		Scenario:  meta.Scenario,
		Variant:   meta.Solver,
		TimeStep:  meta.Dt,
		Times:     series.Column("time"),
		Kinetic:   series.Column("kinetic"),
		Potential: series.Column("potential"),
		Elastic:   series.Column("elastic"),
		Total:     series.Column("total"),
		Violation: series.Column("violation"),
		Metrics:   meta.Metrics,
		WallTime:  time.Duration(meta.WallTime * float64(time.Second)),
	}

	r.Positions = make([][]r2.Vec, len(positions.Rows))
	for i, row := range positions.Rows {
		frame := make([]r2.Vec, (len(row)-1)/2)
		for j := range frame {
			frame[j] = r2.Vec{X: row[1+2*j], Y: row[2+2*j]}
		}
		r.Positions[i] = frame
	}

	return r, nil
}
