package engine

import (
	"log/slog"
	"time"

	"github.com/san-kum/linkage/internal/body"
	"github.com/san-kum/linkage/internal/constraint"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 1000
)

// StandardGravity is the default downward acceleration.
var StandardGravity = r2.Vec{Y: -9.81}

// Engine owns one scene: its bodies, constraints and springs, the active
// variant and the per-tick diagnostics. It is not safe for concurrent use;
// exactly one goroutine drives it.
type Engine struct {
	bodies      *body.Store
	constraints []constraint.Constraint
	springs     []constraint.Spring

	dt       float64
	gravity  r2.Vec
	variant  Variant
	scenario string

	tolerance     float64
	maxIterations int
	iterations    int

	multipliers []float64
	violation   float64
	solveTime   time.Duration
	tick        int

	logger *slog.Logger
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCG sets the conjugate-gradient residual tolerance and iteration bound.
// Non-positive values keep the defaults.
func WithCG(tolerance float64, maxIterations int) Option {
	return func(e *Engine) {
		if tolerance > 0 {
			e.tolerance = tolerance
		}
		if maxIterations > 0 {
			e.maxIterations = maxIterations
		}
	}
}

func WithVariant(v Variant) Option {
	return func(e *Engine) { e.variant = v }
}

// New creates an empty engine stepping dt seconds per tick.
func New(dt float64, opts ...Option) *Engine {
	if !(dt > 0) {
		panic("engine: time step must be positive")
	}
	e := &Engine{
		bodies:        body.NewStore(),
		dt:            dt,
		gravity:       StandardGravity,
		variant:       HybridV3,
		tolerance:     DefaultTolerance,
		maxIterations: DefaultMaxIterations,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clear drops every body, constraint and spring and resets the tick counter.
// Gravity, time step and variant are kept.
func (e *Engine) Clear() {
	e.bodies.Clear()
	e.constraints = e.constraints[:0]
	e.springs = e.springs[:0]
	e.multipliers = e.multipliers[:0]
	e.violation = 0
	e.iterations = 0
	e.solveTime = 0
	e.tick = 0
}

// AddBody adds a point mass. Mass must be positive.
func (e *Engine) AddBody(pos, vel r2.Vec, mass float64) body.Handle {
	return e.bodies.Add(pos, vel, mass, e.dt)
}

func (e *Engine) AddConstraint(c constraint.Constraint) {
	e.constraints = append(e.constraints, c)
}

func (e *Engine) AddSpring(s constraint.Spring) {
	e.springs = append(e.springs, s)
}

func (e *Engine) Bodies() *body.Store                  { return e.bodies }
func (e *Engine) Body(h body.Handle) *body.Body        { return e.bodies.Get(h) }
func (e *Engine) Constraints() []constraint.Constraint { return e.constraints }
func (e *Engine) Springs() []constraint.Spring         { return e.springs }
func (e *Engine) TimeStep() float64                    { return e.dt }
func (e *Engine) Gravity() r2.Vec                      { return e.gravity }
func (e *Engine) SetGravity(g r2.Vec)                  { e.gravity = g }
func (e *Engine) Variant() Variant                     { return e.variant }
func (e *Engine) SetVariant(v Variant)                 { e.variant = v }
func (e *Engine) Scenario() string                     { return e.scenario }
func (e *Engine) SetScenario(name string)              { e.scenario = name }
func (e *Engine) Tick() int                            { return e.tick }
func (e *Engine) LastIterations() int                  { return e.iterations }
func (e *Engine) LastSolveDuration() time.Duration     { return e.solveTime }
func (e *Engine) ViolationMean() float64               { return e.violation }
func (e *Engine) Multipliers() []float64               { return e.multipliers }

// Solve advances the scene by one tick with the active variant. Failures are
// fatal for the tick and returned as *TickError.
func (e *Engine) Solve() error {
	if e.bodies.Len() == 0 {
		return nil
	}
	if e.bodies.Stale() {
		e.bodies.Rebuild()
		e.logger.Debug("solver index rebuilt", "bodies", e.bodies.Len(), "constraints", len(e.constraints))
	}
	if len(e.multipliers) != len(e.constraints) {
		e.multipliers = make([]float64, len(e.constraints))
	}

	start := time.Now()
	err := e.step()
	e.solveTime = time.Since(start)
	if err != nil {
		return &TickError{Tick: e.tick, Variant: e.variant, Wrapped: err}
	}
	return nil
}

func (e *Engine) step() error {
	e.loadExternal()
	if len(e.constraints) == 0 {
		e.kick(e.dt)
		e.drift(e.dt)
		e.violation = 0
		return nil
	}

	switch e.variant {
	case FirstOrder:
		return e.stepFirstOrder()
	case SecondOrder:
		return e.stepSecondOrder()
	case FirstOrderWithPrepass:
		return e.stepPrepass()
	case HybridV2:
		return e.stepHybridV2()
	case HybridV3:
		return e.stepHybridV3(false)
	case HybridV3CG:
		return e.stepHybridV3(true)
	case HybridV4:
		return e.stepHybridV4()
	case PBD:
		return e.stepPBD()
	case HybridV3PBD:
		return e.stepHybridV3PBD()
	}
	return ErrUnknownVariant
}
