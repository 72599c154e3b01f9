// Package constraint defines the holonomic equality constraints a solver
// enforces, as a closed set of kinds sharing one capability set: a Jacobian
// row, the violation C, its rate Ċ, the curvature term J̇q̇, the jerk term and
// a visualization descriptor.
package constraint

import (
	"fmt"
	"math"

	"github.com/san-kum/linkage/internal/body"
	"gonum.org/v1/gonum/spatial/r2"
)

type Kind uint8

const (
	KindAnchor Kind = iota
	KindDistance
	KindPlane
	KindPulley
)

func (k Kind) String() string {
	switch k {
	case KindAnchor:
		return "anchor"
	case KindDistance:
		return "distance"
	case KindPlane:
		return "plane"
	case KindPulley:
		return "pulley"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Constraint is stateless once built. Bodies are referenced by handle only.
type Constraint struct {
	Kind Kind
	A, B body.Handle

	// PointA is the anchor of Anchor and the first pulley wheel; PointB the second wheel.
	PointA, PointB r2.Vec

	// Plane: the body satisfies Normal·p = Offset.
	Normal r2.Vec
	Offset float64

	// Rest distance for Anchor and Distance, total rope length for Pulley.
	Length float64
}

// Anchor keeps b at distance dist from a fixed world point.
func Anchor(b body.Handle, point r2.Vec, dist float64) Constraint {
	return Constraint{Kind: KindAnchor, A: b, PointA: point, Length: dist}
}

// Distance keeps a and b dist apart.
func Distance(a, b body.Handle, dist float64) Constraint {
	return Constraint{Kind: KindDistance, A: a, B: b, Length: dist}
}

// Plane keeps b on the line through origin perpendicular to normal.
// The normal is normalised here.
func Plane(b body.Handle, normal, origin r2.Vec) Constraint {
	n := r2.Unit(normal)
	return Constraint{Kind: KindPlane, A: b, Normal: n, Offset: r2.Dot(n, origin)}
}

// Pulley keeps |a−anchorA| + |b−anchorB| equal to length.
func Pulley(a, b body.Handle, anchorA, anchorB r2.Vec, length float64) Constraint {
	return Constraint{Kind: KindPulley, A: a, B: b, PointA: anchorA, PointB: anchorB, Length: length}
}

// Bodies returns the handles the constraint touches.
func (c Constraint) Bodies() []body.Handle {
	switch c.Kind {
	case KindDistance, KindPulley:
		return []body.Handle{c.A, c.B}
	}
	return []body.Handle{c.A}
}

// Row writes the constraint gradient into a zeroed Jacobian row of width 2N.
// The store's solver index must be fresh.
func (c Constraint) Row(s *body.Store, row []float64) {
	switch c.Kind {
	case KindAnchor:
		n := r2.Unit(r2.Sub(s.Get(c.A).Position, c.PointA))
		put(row, s.Index(c.A), n)
	case KindDistance:
		n := r2.Unit(r2.Sub(s.Get(c.A).Position, s.Get(c.B).Position))
		put(row, s.Index(c.A), n)
		put(row, s.Index(c.B), r2.Scale(-1, n))
	case KindPlane:
		put(row, s.Index(c.A), c.Normal)
	case KindPulley:
		put(row, s.Index(c.A), r2.Unit(r2.Sub(s.Get(c.A).Position, c.PointA)))
		put(row, s.Index(c.B), r2.Unit(r2.Sub(s.Get(c.B).Position, c.PointB)))
	}
}

func put(row []float64, index int, v r2.Vec) {
	row[2*index] += v.X
	row[2*index+1] += v.Y
}

// C evaluates the positional violation; zero when satisfied.
func (c Constraint) C(s *body.Store) float64 {
	switch c.Kind {
	case KindAnchor:
		return r2.Norm(r2.Sub(s.Get(c.A).Position, c.PointA)) - c.Length
	case KindDistance:
		return r2.Norm(r2.Sub(s.Get(c.A).Position, s.Get(c.B).Position)) - c.Length
	case KindPlane:
		return r2.Dot(s.Get(c.A).Position, c.Normal) - c.Offset
	case KindPulley:
		return r2.Norm(r2.Sub(s.Get(c.A).Position, c.PointA)) +
			r2.Norm(r2.Sub(s.Get(c.B).Position, c.PointB)) - c.Length
	}
	return 0
}

// CDot evaluates the velocity-level violation J·q̇.
func (c Constraint) CDot(s *body.Store) float64 {
	a := s.Get(c.A)
	switch c.Kind {
	case KindAnchor:
		return rate(r2.Sub(a.Position, c.PointA), a.Velocity)
	case KindDistance:
		b := s.Get(c.B)
		return rate(r2.Sub(a.Position, b.Position), r2.Sub(a.Velocity, b.Velocity))
	case KindPlane:
		return r2.Dot(a.Velocity, c.Normal)
	case KindPulley:
		b := s.Get(c.B)
		return rate(r2.Sub(a.Position, c.PointA), a.Velocity) +
			rate(r2.Sub(b.Position, c.PointB), b.Velocity)
	}
	return 0
}

// JDotQDot evaluates J̇·q̇ analytically. It is zero for planes.
func (c Constraint) JDotQDot(s *body.Store) float64 {
	a := s.Get(c.A)
	switch c.Kind {
	case KindAnchor:
		return curvature(r2.Sub(a.Position, c.PointA), a.Velocity)
	case KindDistance:
		b := s.Get(c.B)
		return curvature(r2.Sub(a.Position, b.Position), r2.Sub(a.Velocity, b.Velocity))
	case KindPulley:
		b := s.Get(c.B)
		return curvature(r2.Sub(a.Position, c.PointA), a.Velocity) +
			curvature(r2.Sub(b.Position, c.PointB), b.Velocity)
	}
	return 0
}

// Jerk evaluates J̈·q̇ + J̇·q̈ using the bodies' acceleration accumulators.
func (c Constraint) Jerk(s *body.Store) float64 {
	a := s.Get(c.A)
	switch c.Kind {
	case KindAnchor:
		return jerk(r2.Sub(a.Position, c.PointA), a.Velocity, a.Acceleration)
	case KindDistance:
		b := s.Get(c.B)
		return jerk(r2.Sub(a.Position, b.Position), r2.Sub(a.Velocity, b.Velocity), r2.Sub(a.Acceleration, b.Acceleration))
	case KindPulley:
		b := s.Get(c.B)
		return jerk(r2.Sub(a.Position, c.PointA), a.Velocity, a.Acceleration) +
			jerk(r2.Sub(b.Position, c.PointB), b.Velocity, b.Acceleration)
	}
	return 0
}

func rate(d, v r2.Vec) float64 {
	return r2.Dot(d, v) / r2.Norm(d)
}

// curvature is (d×v)²/|d|³, the centripetal part of C̈ for a length constraint.
func curvature(d, v r2.Vec) float64 {
	cross := r2.Cross(d, v)
	return cross * cross / math.Pow(r2.Norm2(d), 1.5)
}

// jerk keeps only the acceleration-coupled part of J̈q̇ + J̇q̈. The
// 3(|v|²|d|² − (d·v)²)(d·v)/|d|⁵ term of the full derivative is left out, so
// rigid links under uniform gravity contribute nothing.
func jerk(d, v, acc r2.Vec) float64 {
	d2 := r2.Norm2(d)
	v2 := r2.Norm2(v)
	dv := r2.Dot(d, v)
	return 2 * (r2.Dot(acc, v)*d2 + v2*dv - (v2+r2.Dot(d, acc))*dv) / math.Pow(d2, 1.5)
}
