package metrics

import (
	"math"
	"time"

	"github.com/san-kum/linkage/internal/engine"
)

// Violation averages the per-tick mean absolute constraint violation.
type Violation struct {
	sum     float64
	samples int
}

func NewViolation() *Violation { return &Violation{} }

func (v *Violation) Name() string { return "violation" }

func (v *Violation) Observe(s engine.Snapshot) {
	v.sum += s.ViolationMean
	v.samples++
}

func (v *Violation) Value() float64 {
	if v.samples == 0 {
		return 0
	}
	return v.sum / float64(v.samples)
}

func (v *Violation) Reset() { *v = Violation{} }

// MaxViolation is the worst per-tick mean violation seen.
type MaxViolation struct {
	max float64
}

func NewMaxViolation() *MaxViolation { return &MaxViolation{} }

func (m *MaxViolation) Name() string { return "max_violation" }

func (m *MaxViolation) Observe(s engine.Snapshot) {
	m.max = math.Max(m.max, s.ViolationMean)
}

func (m *MaxViolation) Value() float64 { return m.max }
func (m *MaxViolation) Reset()         { m.max = 0 }

// SolveTime is the mean wall-clock solve duration in milliseconds.
type SolveTime struct {
	total   time.Duration
	samples int
}

func NewSolveTime() *SolveTime { return &SolveTime{} }

func (s *SolveTime) Name() string { return "solve_ms" }

func (s *SolveTime) Observe(snap engine.Snapshot) {
	s.total += snap.SolveDuration
	s.samples++
}

func (s *SolveTime) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.total) / float64(s.samples) / float64(time.Millisecond)
}

func (s *SolveTime) Reset() { *s = SolveTime{} }
