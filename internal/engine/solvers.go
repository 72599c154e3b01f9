package engine

import (
	"github.com/san-kum/linkage/internal/body"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// stepFirstOrder solves K·λ = −J·q̇ after the gravity kick and steps
// positions with explicit Euler.
func (e *Engine) stepFirstOrder() error {
	sys := e.assemble()
	e.kick(e.dt)
	e.violations()

	lambda, err := sys.solve(sys.project(e.velocities()))
	if err != nil {
		return err
	}
	e.record(lambda, 1/e.dt)
	e.addVelocity(sys.response(lambda))
	e.drift(e.dt)
	return nil
}

// stepSecondOrder solves at force level and steps with a second-order
// Taylor expansion from the start-of-tick velocity.
func (e *Engine) stepSecondOrder() error {
	sys := e.assemble()
	c := e.violations()

	lambda, err := sys.solve(e.forceBias(sys, c))
	if err != nil {
		return err
	}
	e.record(lambda, 1)

	acc := sys.response(lambda)
	dt := e.dt
	e.bodies.Each(func(i int, b *body.Body) {
		a := r2.Add(at(acc, i), b.Acceleration)
		// Position steps from the start-of-tick velocity. Stepping from the
		// updated velocity would give v·Δt + 1.5·a·Δt² instead.
		b.Previous = b.Position
		b.Position = r2.Add(b.Position, r2.Add(r2.Scale(dt, b.Velocity), r2.Scale(0.5*dt*dt, a)))
		b.Velocity = r2.Add(b.Velocity, r2.Scale(dt, a))
	})
	return nil
}

// stepPrepass runs the force pass, then a velocity pass against the same
// factorization.
func (e *Engine) stepPrepass() error {
	sys := e.assemble()
	c := e.violations()

	force, err := sys.solve(e.forceBias(sys, c))
	if err != nil {
		return err
	}
	acc := sys.response(force)
	acc.AddVec(acc, e.accelerations())
	dt := e.dt
	e.bodies.Each(func(i int, b *body.Body) {
		b.Velocity = r2.Add(b.Velocity, r2.Scale(dt, at(acc, i)))
	})

	vel, err := sys.solve(sys.project(e.velocities()))
	if err != nil {
		return err
	}
	e.addVelocity(sys.response(vel))
	e.bodies.Each(func(i int, b *body.Body) {
		b.Previous = b.Position
		b.Position = r2.Add(b.Position, r2.Add(r2.Scale(dt, b.Velocity), r2.Scale(0.5*dt*dt, at(acc, i))))
	})

	e.record(force, 1)
	e.accumulate(vel, 1/dt)
	return nil
}

// stepHybridV2 corrects velocities first, then solves the force pass and
// steps positions with Verlet. Velocity is the central difference.
func (e *Engine) stepHybridV2() error {
	sys := e.assemble()
	c := e.violations()

	vel, err := sys.solve(sys.project(e.velocities()))
	if err != nil {
		return err
	}
	e.addVelocity(sys.response(vel))

	force, err := sys.solve(e.forceBias(sys, c))
	if err != nil {
		return err
	}
	acc := sys.response(force)
	acc.AddVec(acc, e.accelerations())

	dt := e.dt
	e.bodies.Each(func(i int, b *body.Body) {
		next := r2.Add(r2.Sub(r2.Scale(2, b.Position), b.Previous), r2.Scale(dt*dt, at(acc, i)))
		b.Velocity = r2.Scale(1/(2*dt), r2.Sub(next, b.Previous))
		b.Previous = b.Position
		b.Position = next
	})

	e.record(force, 1)
	e.accumulate(vel, 1/dt)
	return nil
}

// v3Bias is −J·q̇ − ½·Δt·J̇q̇.
func (e *Engine) v3Bias(sys *system) *mat.VecDense {
	b := sys.project(e.velocities())
	b.AddScaledVec(b, -0.5*e.dt, e.curvatures())
	return b
}

// stepHybridV3 folds a half-step curvature term into the velocity solve.
// With iterative set, K is solved by conjugate gradient instead of a
// factorization.
func (e *Engine) stepHybridV3(iterative bool) error {
	sys := e.assemble()
	e.kick(e.dt)
	e.violations()

	lambda, err := e.solveV3(sys, e.v3Bias(sys), iterative)
	if err != nil {
		return err
	}
	e.record(lambda, 1/e.dt)
	e.addVelocity(sys.response(lambda))
	e.drift(e.dt)
	return nil
}

func (e *Engine) solveV3(sys *system, b *mat.VecDense, iterative bool) (*mat.VecDense, error) {
	if !iterative {
		return sys.solve(b)
	}

	// Warm start from last tick's impulse, which is the recorded force times Δt.
	x := mat.NewVecDense(b.Len(), nil)
	for i, m := range e.multipliers {
		x.SetVec(i, m*e.dt)
	}
	n, err := conjugateGradient(sys.k, b, x, e.tolerance, e.maxIterations)
	e.iterations = n
	e.logger.Debug("conjugate gradient", "iterations", n, "tick", e.tick)
	if err != nil {
		return nil, err
	}
	return x, nil
}

// stepHybridV4 adds the Δt²/6 jerk term to the v3 bias. The jerk uses the
// external acceleration loaded for this tick.
func (e *Engine) stepHybridV4() error {
	sys := e.assemble()
	e.kick(e.dt)

	b := e.v3Bias(sys)
	b.AddScaledVec(b, -e.dt*e.dt/6, e.jerks())
	lambda, err := sys.solve(b)
	if err != nil {
		return err
	}
	e.record(lambda, 1/e.dt)
	e.addVelocity(sys.response(lambda))
	e.drift(e.dt)
	e.violations()
	return nil
}

// stepPBD predicts with Verlet, then projects positions back onto the
// linearized constraint manifold. Velocity is derived from the move.
func (e *Engine) stepPBD() error {
	dt := e.dt
	e.bodies.Each(func(_ int, b *body.Body) {
		next := r2.Add(r2.Sub(r2.Scale(2, b.Position), b.Previous), r2.Scale(dt*dt, b.Acceleration))
		b.Previous = b.Position
		b.Position = next
	})

	lambda, err := e.project()
	if err != nil {
		return err
	}
	e.record(lambda, 1/(dt*dt))

	e.bodies.Each(func(_ int, b *body.Body) {
		b.Velocity = r2.Scale(1/dt, r2.Sub(b.Position, b.Previous))
	})
	e.violations()
	return nil
}

// stepHybridV3PBD runs hybrid v3, then patches positions without touching
// velocities.
func (e *Engine) stepHybridV3PBD() error {
	if err := e.stepHybridV3(false); err != nil {
		return err
	}
	lambda, err := e.project()
	if err != nil {
		return err
	}
	e.accumulate(lambda, 1/(e.dt*e.dt))
	e.violations()
	return nil
}

// project solves K·λ = −C at the current positions and applies M⁻¹·Jᵗ·λ as
// a displacement.
func (e *Engine) project() (*mat.VecDense, error) {
	sys := e.assemble()
	c := e.violations()
	c.ScaleVec(-1, c)

	lambda, err := sys.solve(c)
	if err != nil {
		return nil, err
	}
	e.addPosition(sys.response(lambda))
	return lambda, nil
}
