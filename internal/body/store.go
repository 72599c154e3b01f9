package body

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Handle identifies a body inside a Store.
type Handle int

// Body is a dimensionless point mass.
type Body struct {
	Position     r2.Vec
	Previous     r2.Vec // position one tick ago, for Verlet-style updates
	Velocity     r2.Vec
	Acceleration r2.Vec
	Mass         float64
	InvMass      float64

	index int
}

type Store struct {
	bodies []Body
	order  []Handle
}

func NewStore() *Store {
	return &Store{}
}

// Add appends a body. Previous is set so that a Verlet step reproduces the
// given velocity. Mass must be positive: every body is dynamic.
func (s *Store) Add(pos, vel r2.Vec, mass, dt float64) Handle {
	if !(mass > 0) {
		panic(fmt.Sprintf("body: mass must be positive, got %v", mass))
	}
	s.bodies = append(s.bodies, Body{
		Position: pos,
		Previous: r2.Sub(pos, r2.Scale(dt, vel)),
		Velocity: vel,
		Mass:     mass,
		InvMass:  1 / mass,
		index:    -1,
	})
	s.order = s.order[:0]
	return Handle(len(s.bodies) - 1)
}

// Clear removes every body and invalidates the solver index.
func (s *Store) Clear() {
	s.bodies = s.bodies[:0]
	s.order = s.order[:0]
}

func (s *Store) Len() int { return len(s.bodies) }

// Get returns the body behind h. The pointer is valid until the next Add or Clear.
func (s *Store) Get(h Handle) *Body {
	return &s.bodies[h]
}

// Stale reports whether the solver index must be rebuilt.
func (s *Store) Stale() bool {
	return len(s.order) != len(s.bodies)
}

// Rebuild recomputes the dense solver index in arena order.
func (s *Store) Rebuild() {
	s.order = s.order[:0]
	for i := range s.bodies {
		s.bodies[i].index = len(s.order)
		s.order = append(s.order, Handle(i))
	}
}

// Order maps dense index to handle. Empty while stale.
func (s *Store) Order() []Handle {
	return s.order
}

// Index returns the dense solver index of h, or -1 if the index is stale.
func (s *Store) Index(h Handle) int {
	if s.Stale() {
		return -1
	}
	return s.bodies[h].index
}

// At returns the body at dense index i.
func (s *Store) At(i int) *Body {
	return &s.bodies[s.order[i]]
}

// Each calls fn for every body in dense order.
func (s *Store) Each(fn func(i int, b *Body)) {
	for i, h := range s.order {
		fn(i, &s.bodies[h])
	}
}
