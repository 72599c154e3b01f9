package constraint

import (
	"github.com/san-kum/linkage/internal/body"
	"gonum.org/v1/gonum/spatial/r2"
)

// Spring is a soft link. It adds forces and elastic energy but no Jacobian row.
type Spring struct {
	A, B      body.Handle
	Rest      float64
	Stiffness float64
	Damping   float64
}

// Force returns the force applied on A; B receives the opposite.
func (sp Spring) Force(s *body.Store) r2.Vec {
	a, b := s.Get(sp.A), s.Get(sp.B)
	d := r2.Sub(a.Position, b.Position)
	l := r2.Norm(d)
	if l == 0 {
		return r2.Vec{}
	}
	n := r2.Scale(1/l, d)
	stretch := l - sp.Rest
	closing := r2.Dot(n, r2.Sub(a.Velocity, b.Velocity))
	return r2.Scale(-(sp.Stiffness*stretch + sp.Damping*closing), n)
}

// Energy is the elastic potential ½k(l−rest)².
func (sp Spring) Energy(s *body.Store) float64 {
	l := r2.Norm(r2.Sub(s.Get(sp.A).Position, s.Get(sp.B).Position))
	stretch := l - sp.Rest
	return 0.5 * sp.Stiffness * stretch * stretch
}

func (sp Spring) Widget(s *body.Store) Widget {
	return Widget{Kind: WidgetSpring, A: s.Index(sp.A), B: s.Index(sp.B)}
}
