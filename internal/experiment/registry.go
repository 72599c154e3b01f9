package experiment

import (
	"github.com/san-kum/linkage/internal/engine"
	"github.com/san-kum/linkage/internal/metrics"
	"github.com/san-kum/linkage/internal/scenario"
)

// Entry names something selectable from the CLI.
type Entry struct {
	Name        string
	Description string
}

func Scenarios() []Entry {
	names := scenario.Names()
	out := make([]Entry, len(names))
	for i, n := range names {
		out[i] = Entry{Name: n.String(), Description: n.Description()}
	}
	return out
}

func Solvers() []Entry {
	variants := engine.Variants()
	out := make([]Entry, len(variants))
	for i, v := range variants {
		out[i] = Entry{Name: v.String(), Description: v.Description()}
	}
	return out
}

func DefaultMetrics() []metrics.Metric {
	return metrics.Defaults()
}
