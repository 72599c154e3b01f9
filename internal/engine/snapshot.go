package engine

import (
	"time"

	"github.com/san-kum/linkage/internal/body"
	"github.com/san-kum/linkage/internal/constraint"
	"gonum.org/v1/gonum/spatial/r2"
)

// Link pairs a constraint's render descriptor with its last multiplier.
type Link struct {
	Widget constraint.Widget `json:"widget"`
	Force  float64           `json:"force"`
}

// Snapshot is an independent copy of one tick's state. Nothing in it
// aliases engine memory.
type Snapshot struct {
	Tick          int           `json:"tick"`
	Scenario      string        `json:"scenario"`
	Variant       string        `json:"variant"`
	Positions     []r2.Vec      `json:"positions"`
	Links         []Link        `json:"links"`
	Kinetic       float64       `json:"kinetic"`
	Potential     float64       `json:"potential"`
	Elastic       *float64      `json:"elastic,omitempty"`
	ViolationMean float64       `json:"violation_mean"`
	SolveDuration time.Duration `json:"solve_duration"`
}

// Total is kinetic plus potential plus elastic energy.
func (s Snapshot) Total() float64 {
	e := s.Kinetic + s.Potential
	if s.Elastic != nil {
		e += *s.Elastic
	}
	return e
}

// TakeSnapshot copies the current state and advances the tick counter. The
// returned snapshot carries the tick before the increment.
func (e *Engine) TakeSnapshot() Snapshot {
	if e.bodies.Stale() {
		e.bodies.Rebuild()
	}

	snap := Snapshot{
		Tick:          e.tick,
		Scenario:      e.scenario,
		Variant:       e.variant.String(),
		Positions:     make([]r2.Vec, 0, e.bodies.Len()),
		Links:         make([]Link, 0, len(e.constraints)+len(e.springs)),
		ViolationMean: e.violation,
		SolveDuration: e.solveTime,
	}

	e.bodies.Each(func(_ int, b *body.Body) {
		snap.Positions = append(snap.Positions, b.Position)
		snap.Kinetic += 0.5 * b.Mass * r2.Norm2(b.Velocity)
		snap.Potential -= b.Mass * r2.Dot(e.gravity, b.Position)
	})

	for i, c := range e.constraints {
		var force float64
		if i < len(e.multipliers) {
			force = e.multipliers[i]
		}
		snap.Links = append(snap.Links, Link{Widget: c.Widget(e.bodies), Force: force})
	}

	if len(e.springs) > 0 {
		var elastic float64
		for _, sp := range e.springs {
			elastic += sp.Energy(e.bodies)
			snap.Links = append(snap.Links, Link{Widget: sp.Widget(e.bodies)})
		}
		snap.Elastic = &elastic
	}

	e.tick++
	return snap
}
