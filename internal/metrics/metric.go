// Package metrics reduces a stream of snapshots to scalar run diagnostics.
package metrics

import "github.com/san-kum/linkage/internal/engine"

// Metric observes one snapshot per tick.
type Metric interface {
	Name() string
	Observe(s engine.Snapshot)
	Value() float64
	Reset()
}

// Defaults returns a fresh set of the standard run metrics.
func Defaults() []Metric {
	return []Metric{
		NewEnergy(),
		NewEnergyDrift(),
		NewViolation(),
		NewMaxViolation(),
		NewSolveTime(),
		NewStability(1e3),
	}
}

// Collect reads the value of every metric into a map keyed by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
