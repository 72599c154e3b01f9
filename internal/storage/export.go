package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/linkage/internal/experiment"
	"gonum.org/v1/gonum/spatial/r2"
)

type ExportData struct {
	Scenario  string             `json:"scenario"`
	Solver    string             `json:"solver"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	Times     []float64          `json:"times"`
	Kinetic   []float64          `json:"kinetic"`
	Potential []float64          `json:"potential"`
	Elastic   []float64          `json:"elastic,omitempty"`
	Total     []float64          `json:"total"`
	Violation []float64          `json:"violation"`
	Positions [][]r2.Vec         `json:"positions"`
	Metrics   map[string]float64 `json:"metrics"`
}

func newExportData(r *experiment.Result) ExportData {
	return ExportData{
		Scenario:  r.Scenario,
		Solver:    r.Variant,
		Dt:        r.TimeStep,
		Steps:     len(r.Times),
		Times:     r.Times,
		Kinetic:   r.Kinetic,
		Potential: r.Potential,
		Elastic:   r.Elastic,
		Total:     r.Total,
		Violation: r.Violation,
		Positions: r.Positions,
		Metrics:   r.Metrics,
	}
}

func ExportJSON(path string, result *experiment.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return ExportJSONTo(file, result)
}

func ExportJSONTo(w io.Writer, result *experiment.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(result))
}
