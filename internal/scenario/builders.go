package scenario

import (
	"math"

	"github.com/san-kum/linkage/internal/body"
	"github.com/san-kum/linkage/internal/constraint"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	earth = r2.Vec{Y: -9.81}
	// The pulley-and-rail and bridge scenes were tuned with a rounder g.
	earthRound = r2.Vec{Y: -9.8}
)

const (
	softStiffness = 2500.0
	softDamping   = 2.0
)

func vec(x, y float64) r2.Vec { return r2.Vec{X: x, Y: y} }

func buildSimple(w World) {
	w.SetGravity(earth)
	b := w.AddBody(vec(1, 0), vec(0, 12), 1)
	w.AddConstraint(constraint.Anchor(b, vec(0, 0), 1))
}

func buildDouble(w World) {
	w.SetGravity(earth)
	b1 := w.AddBody(vec(1, 0), vec(0, 0), 1)
	b2 := w.AddBody(vec(1, 1), vec(0, 0), 1)
	w.AddConstraint(constraint.Distance(b1, b2, 1))
	w.AddConstraint(constraint.Anchor(b1, vec(0, 0), 1))
}

func buildTriple(w World) {
	w.SetGravity(earth)
	b1 := w.AddBody(vec(1, 0), vec(0, 0), 1)
	b2 := w.AddBody(vec(1, 1), vec(0, 0), 1)
	b3 := w.AddBody(vec(2, 1), vec(0, 0), 1)
	w.AddConstraint(constraint.Distance(b1, b2, 1))
	w.AddConstraint(constraint.Distance(b2, b3, 1))
	w.AddConstraint(constraint.Anchor(b1, vec(0, 0), 1))
}

func buildRope(w World) {
	const (
		links   = 20
		segment = 0.25
	)
	w.SetGravity(earth)

	var last body.Handle
	for i := 0; i < links; i++ {
		b := w.AddBody(vec(float64(i)*segment-5, 0), vec(0, 4), 0.1)
		if i > 0 {
			w.AddConstraint(constraint.Distance(last, b, segment))
		}
		last = b
	}
	w.AddConstraint(constraint.Anchor(last, vec(0, 0), segment))
}

func buildRail(w World) {
	w.SetGravity(earth)
	b1 := w.AddBody(vec(-1, 1), vec(-1, 1), 1)
	b2 := w.AddBody(vec(1, 1), vec(0, 0), 1)
	w.AddConstraint(constraint.Distance(b1, b2, 2))
	b3 := w.AddBody(vec(0, 1), vec(0, 0), 1)
	w.AddConstraint(constraint.Plane(b1, vec(1, 1), vec(-1, 1)))
	w.AddConstraint(constraint.Plane(b2, vec(-1, 1), vec(1, 1)))
	w.AddConstraint(constraint.Distance(b1, b3, 1))
}

// buildStructure hangs a square from one corner. The anchor and the
// diagonal start violated and snap into place on the first ticks.
func buildStructure(w World) {
	w.SetGravity(earth)
	b1 := w.AddBody(vec(1, 0), vec(0, 0), 1)
	b2 := w.AddBody(vec(1.25, 0.25), vec(0, 0), 1)
	b3 := w.AddBody(vec(1.5, 0), vec(0, 0), 1)
	b4 := w.AddBody(vec(1.25, -0.25), vec(0, 0), 1)

	side := math.Sqrt2 * 0.25
	w.AddConstraint(constraint.Anchor(b2, vec(0, 0.5), side))
	w.AddConstraint(constraint.Distance(b1, b2, side))
	w.AddConstraint(constraint.Distance(b2, b3, side))
	w.AddConstraint(constraint.Distance(b3, b4, side))
	w.AddConstraint(constraint.Distance(b4, b1, side))
	w.AddConstraint(constraint.Distance(b1, b3, 1))
}

func buildPulley(w World) {
	w.SetGravity(earth)
	b1 := w.AddBody(vec(-1, 0), vec(5, 0), 1)
	b2 := w.AddBody(vec(1, 0), vec(-1, 0), 1)
	w.AddConstraint(constraint.Pulley(b1, b2, vec(-1, 1), vec(1, 1), 2))
}

func buildPulleyAndRail(w World) {
	w.SetGravity(earthRound)
	b1 := w.AddBody(vec(-5, 0), vec(0, 0), 1)
	b2 := w.AddBody(vec(1, 0), vec(5, 0), 2)
	w.AddConstraint(constraint.Plane(b1, vec(0, 1), vec(0, 0)))
	w.AddConstraint(constraint.Pulley(b1, b2, vec(-1, 3), vec(1, 1), 6))
}

// bridgeDeck adds the twelve truss bodies and the load, and links the load
// to the middle of the deck.
func bridgeDeck(w World) []body.Handle {
	w.SetGravity(earthRound)
	points := []r2.Vec{
		vec(-1.5, 0),
		vec(-1, 0), vec(-1, 0.5),
		vec(-0.5, 0), vec(-0.5, 0.5),
		vec(0, 0), vec(0, 0.5),
		vec(0.5, 0), vec(0.5, 0.5),
		vec(1, 0), vec(1, 0.5),
		vec(1.5, 0),
	}
	deck := make([]body.Handle, len(points))
	for i, p := range points {
		deck[i] = w.AddBody(p, vec(0, 0), 1)
	}
	load := w.AddBody(vec(0, 1), vec(0.01, 0), 10)
	w.AddConstraint(constraint.Distance(deck[5], load, 1))
	return deck
}

func bridgeAnchors(w World, deck []body.Handle) {
	w.AddConstraint(constraint.Anchor(deck[0], vec(-1.5, 1), 1))
	w.AddConstraint(constraint.Anchor(deck[len(deck)-1], vec(1.5, 1), 1))
}

func buildBridge(w World) {
	deck := bridgeDeck(w)
	TriangleStrip(w, deck, func(a, b body.Handle, rest float64) {
		w.AddConstraint(constraint.Distance(a, b, rest))
	})
	bridgeAnchors(w, deck)
}

// buildBridgeSoft is the bridge with a spring truss. The load link and the
// two anchors stay rigid.
func buildBridgeSoft(w World) {
	deck := bridgeDeck(w)
	TriangleStrip(w, deck, func(a, b body.Handle, rest float64) {
		w.AddSpring(constraint.Spring{A: a, B: b, Rest: rest, Stiffness: softStiffness, Damping: softDamping})
	})
	bridgeAnchors(w, deck)
}
