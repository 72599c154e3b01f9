package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/san-kum/linkage/internal/engine"
	"gonum.org/v1/gonum/spatial/r2"
)

func snapshot(kinetic, potential, violation float64) engine.Snapshot {
	return engine.Snapshot{
		Kinetic:       kinetic,
		Potential:     potential,
		ViolationMean: violation,
		Positions:     []r2.Vec{{X: 1, Y: 2}},
		SolveDuration: 2 * time.Millisecond,
	}
}

func TestEnergyMean(t *testing.T) {
	m := NewEnergy()
	m.Observe(snapshot(3, 1, 0))
	m.Observe(snapshot(1, 1, 0))

	if math.Abs(m.Value()-3) > 1e-12 {
		t.Errorf("expected mean energy 3, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyIncludesElastic(t *testing.T) {
	elastic := 2.0
	s := snapshot(1, 1, 0)
	s.Elastic = &elastic

	m := NewEnergy()
	m.Observe(s)
	if m.Value() != 4 {
		t.Errorf("expected 4, got %f", m.Value())
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()
	m.Observe(snapshot(10, 0, 0))
	m.Observe(snapshot(11, 0, 0))
	m.Observe(snapshot(9.5, 0, 0))

	if math.Abs(m.Value()-0.1) > 1e-12 {
		t.Errorf("expected drift 0.1, got %f", m.Value())
	}
}

func TestViolationMetrics(t *testing.T) {
	mean, worst := NewViolation(), NewMaxViolation()
	for _, v := range []float64{0.1, 0.3, 0.2} {
		mean.Observe(snapshot(0, 0, v))
		worst.Observe(snapshot(0, 0, v))
	}

	if math.Abs(mean.Value()-0.2) > 1e-12 {
		t.Errorf("expected mean 0.2, got %f", mean.Value())
	}
	if worst.Value() != 0.3 {
		t.Errorf("expected max 0.3, got %f", worst.Value())
	}
}

func TestSolveTime(t *testing.T) {
	m := NewSolveTime()
	m.Observe(snapshot(0, 0, 0))
	if m.Value() != 2 {
		t.Errorf("expected 2ms, got %f", m.Value())
	}
}

func TestStability(t *testing.T) {
	m := NewStability(10)
	m.Observe(snapshot(0, 0, 0))
	bad := snapshot(0, 0, 0)
	bad.Positions = []r2.Vec{{X: math.NaN()}}
	m.Observe(bad)

	if m.Value() != 0.5 {
		t.Errorf("expected stability 0.5, got %f", m.Value())
	}
}

func TestCollect(t *testing.T) {
	ms := Defaults()
	for _, m := range ms {
		m.Observe(snapshot(1, 0, 0.01))
	}
	values := Collect(ms)
	for _, name := range []string{"energy", "energy_drift", "violation", "max_violation", "solve_ms", "stability"} {
		if _, ok := values[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
}
