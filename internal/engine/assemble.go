package engine

import (
	"github.com/san-kum/linkage/internal/body"
	"github.com/san-kum/linkage/internal/constraint"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Baumgarte coefficients. Both are zero: every variant runs without
// positional or velocity feedback, so drift stays visible.
const (
	baumgarteAlpha = 0.0
	baumgarteBeta  = 0.0
)

// system is the linear system for one pass: J (M×2N), M⁻¹ (2N×2N diagonal)
// and K = J·M⁻¹·Jᵗ. The factorization of K is computed on first use and
// shared by later solves against the same system.
type system struct {
	j    *mat.Dense
	minv *mat.DiagDense
	k    *mat.SymDense

	factor *factorization
}

// assemble builds the system at the bodies' current positions.
// Requires at least one body and one constraint.
func (e *Engine) assemble() *system {
	n, m := e.bodies.Len(), len(e.constraints)

	j := mat.NewDense(m, 2*n, nil)
	for i, c := range e.constraints {
		c.Row(e.bodies, j.RawRowView(i))
	}

	inv := make([]float64, 2*n)
	e.bodies.Each(func(i int, b *body.Body) {
		inv[2*i] = b.InvMass
		inv[2*i+1] = b.InvMass
	})
	minv := mat.NewDiagDense(2*n, inv)

	var jm, full mat.Dense
	jm.Mul(j, minv)
	full.Mul(&jm, j.T())

	k := mat.NewSymDense(m, nil)
	for r := 0; r < m; r++ {
		for c := r; c < m; c++ {
			k.SetSym(r, c, 0.5*(full.At(r, c)+full.At(c, r)))
		}
	}

	return &system{j: j, minv: minv, k: k}
}

func (s *system) solve(b *mat.VecDense) (*mat.VecDense, error) {
	if s.factor == nil {
		f, err := factorize(s.k)
		if err != nil {
			return nil, err
		}
		s.factor = f
	}
	return s.factor.solve(b)
}

// response maps multipliers to per-coordinate changes M⁻¹·Jᵗ·λ.
func (s *system) response(lambda *mat.VecDense) *mat.VecDense {
	var jt, out mat.VecDense
	jt.MulVec(s.j.T(), lambda)
	out.MulVec(s.minv, &jt)
	return &out
}

// project returns −J·v.
func (s *system) project(v *mat.VecDense) *mat.VecDense {
	var out mat.VecDense
	out.MulVec(s.j, v)
	out.ScaleVec(-1, &out)
	return &out
}

// loadExternal sets every body's acceleration to gravity plus spring force
// over mass.
func (e *Engine) loadExternal() {
	e.bodies.Each(func(_ int, b *body.Body) {
		b.Acceleration = e.gravity
	})
	for _, sp := range e.springs {
		f := sp.Force(e.bodies)
		a, b := e.bodies.Get(sp.A), e.bodies.Get(sp.B)
		a.Acceleration = r2.Add(a.Acceleration, r2.Scale(a.InvMass, f))
		b.Acceleration = r2.Sub(b.Acceleration, r2.Scale(b.InvMass, f))
	}
}

// velocities packs q̇ in solver-index order.
func (e *Engine) velocities() *mat.VecDense {
	v := mat.NewVecDense(2*e.bodies.Len(), nil)
	e.bodies.Each(func(i int, b *body.Body) {
		v.SetVec(2*i, b.Velocity.X)
		v.SetVec(2*i+1, b.Velocity.Y)
	})
	return v
}

// accelerations packs M⁻¹·F, the external acceleration.
func (e *Engine) accelerations() *mat.VecDense {
	a := mat.NewVecDense(2*e.bodies.Len(), nil)
	e.bodies.Each(func(i int, b *body.Body) {
		a.SetVec(2*i, b.Acceleration.X)
		a.SetVec(2*i+1, b.Acceleration.Y)
	})
	return a
}

func (e *Engine) perConstraint(fn func(constraint.Constraint) float64) *mat.VecDense {
	out := mat.NewVecDense(len(e.constraints), nil)
	for i, c := range e.constraints {
		out.SetVec(i, fn(c))
	}
	return out
}

// violations evaluates C and refreshes the mean absolute violation.
func (e *Engine) violations() *mat.VecDense {
	c := e.perConstraint(func(c constraint.Constraint) float64 { return c.C(e.bodies) })
	var acc float64
	for i := 0; i < c.Len(); i++ {
		v := c.AtVec(i)
		if v < 0 {
			v = -v
		}
		acc += v
	}
	e.violation = acc / float64(c.Len())
	return c
}

func (e *Engine) rates() *mat.VecDense {
	return e.perConstraint(func(c constraint.Constraint) float64 { return c.CDot(e.bodies) })
}

func (e *Engine) curvatures() *mat.VecDense {
	return e.perConstraint(func(c constraint.Constraint) float64 { return c.JDotQDot(e.bodies) })
}

func (e *Engine) jerks() *mat.VecDense {
	return e.perConstraint(func(c constraint.Constraint) float64 { return c.Jerk(e.bodies) })
}

// forceBias is −J·M⁻¹·F − J̇q̇ − α·C − β·Ċ.
func (e *Engine) forceBias(s *system, c *mat.VecDense) *mat.VecDense {
	b := s.project(e.accelerations())
	b.SubVec(b, e.curvatures())
	b.AddScaledVec(b, -baumgarteAlpha, c)
	b.AddScaledVec(b, -baumgarteBeta, e.rates())
	return b
}

// kick integrates external acceleration into velocity.
func (e *Engine) kick(dt float64) {
	e.bodies.Each(func(_ int, b *body.Body) {
		b.Velocity = r2.Add(b.Velocity, r2.Scale(dt, b.Acceleration))
	})
}

// drift is an explicit Euler position step. Previous tracks the old position
// so a later switch to a Verlet variant starts from coherent state.
func (e *Engine) drift(dt float64) {
	e.bodies.Each(func(_ int, b *body.Body) {
		b.Previous = b.Position
		b.Position = r2.Add(b.Position, r2.Scale(dt, b.Velocity))
	})
}

func (e *Engine) addVelocity(dv *mat.VecDense) {
	e.bodies.Each(func(i int, b *body.Body) {
		b.Velocity = r2.Add(b.Velocity, at(dv, i))
	})
}

func (e *Engine) addPosition(dx *mat.VecDense) {
	e.bodies.Each(func(i int, b *body.Body) {
		b.Position = r2.Add(b.Position, at(dx, i))
	})
}

// record stores scale·λ as the multiplier shown for each constraint.
func (e *Engine) record(lambda *mat.VecDense, scale float64) {
	for i := range e.multipliers {
		e.multipliers[i] = scale * lambda.AtVec(i)
	}
}

func (e *Engine) accumulate(lambda *mat.VecDense, scale float64) {
	for i := range e.multipliers {
		e.multipliers[i] += scale * lambda.AtVec(i)
	}
}

// at reads the 2-wide block of body i.
func at(v *mat.VecDense, i int) r2.Vec {
	return r2.Vec{X: v.AtVec(2 * i), Y: v.AtVec(2*i + 1)}
}
