package constraint

import (
	"github.com/san-kum/linkage/internal/body"
	"gonum.org/v1/gonum/spatial/r2"
)

type WidgetKind uint8

const (
	WidgetNone WidgetKind = iota
	WidgetLink
	WidgetAnchor
	WidgetPlane
	WidgetPulley
	WidgetSpring
)

// Widget describes how a renderer should draw a constraint. Body references
// are dense solver indices into the snapshot's position slice.
type Widget struct {
	Kind           WidgetKind
	A, B           int
	PointA, PointB r2.Vec
	Normal         r2.Vec
	Offset         float64
}

// Widget builds the descriptor using the store's current solver index.
func (c Constraint) Widget(s *body.Store) Widget {
	switch c.Kind {
	case KindAnchor:
		return Widget{Kind: WidgetAnchor, A: s.Index(c.A), PointA: c.PointA}
	case KindDistance:
		return Widget{Kind: WidgetLink, A: s.Index(c.A), B: s.Index(c.B)}
	case KindPlane:
		return Widget{Kind: WidgetPlane, A: s.Index(c.A), Normal: c.Normal, Offset: c.Offset}
	case KindPulley:
		return Widget{Kind: WidgetPulley, A: s.Index(c.A), B: s.Index(c.B), PointA: c.PointA, PointB: c.PointB}
	}
	return Widget{}
}
