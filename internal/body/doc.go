// Package body stores the point masses of a simulation.
//
// Bodies live in an append-only arena addressed by a [Handle]. The arena is
// wiped in one go by [Store.Clear]; handles from before a Clear are invalid.
//
// # Solver Index
//
// Solvers lay out vectors and matrices over a dense 0..N index. The store
// keeps that layout as a permutation ([Store.Order]) plus a per-body tag
// ([Store.Index]). Adding a body marks the layout stale; callers check
// [Store.Stale] and call [Store.Rebuild] before assembling anything.
//
//	s := body.NewStore()
//	h := s.Add(r2.Vec{X: 1}, r2.Vec{}, 1.0, dt)
//	if s.Stale() {
//	    s.Rebuild()
//	}
//	col := 2 * s.Index(h)
package body
