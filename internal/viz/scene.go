package viz

import (
	"github.com/san-kum/linkage/internal/constraint"
	"github.com/san-kum/linkage/internal/engine"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	bodyRadius = 1
	markRadius = 2
	springDash = 2
	planeDash  = 3
)

// framePoints lists everything the view should keep on screen: bodies plus
// fixed anchor and pulley points.
func framePoints(s engine.Snapshot) []r2.Vec {
	pts := make([]r2.Vec, 0, len(s.Positions)+len(s.Links))
	pts = append(pts, s.Positions...)
	for _, l := range s.Links {
		switch l.Widget.Kind {
		case constraint.WidgetAnchor:
			pts = append(pts, l.Widget.PointA)
		case constraint.WidgetPulley:
			pts = append(pts, l.Widget.PointA, l.Widget.PointB)
		}
	}
	return pts
}

// DrawSnapshot renders every widget and body of s onto c.
func DrawSnapshot(c *Canvas, v *Viewport, s engine.Snapshot) {
	at := func(i int) (int, int) {
		if i < 0 || i >= len(s.Positions) {
			return -1, -1
		}
		return v.Project(s.Positions[i])
	}

	for _, l := range s.Links {
		w := l.Widget
		switch w.Kind {
		case constraint.WidgetLink:
			ax, ay := at(w.A)
			bx, by := at(w.B)
			c.DrawLine(ax, ay, bx, by)
		case constraint.WidgetSpring:
			ax, ay := at(w.A)
			bx, by := at(w.B)
			c.DrawDashed(ax, ay, bx, by, springDash)
		case constraint.WidgetAnchor:
			px, py := v.Project(w.PointA)
			ax, ay := at(w.A)
			c.Cross(px, py, markRadius)
			c.DrawLine(px, py, ax, ay)
		case constraint.WidgetPulley:
			ax, ay := at(w.A)
			bx, by := at(w.B)
			pax, pay := v.Project(w.PointA)
			pbx, pby := v.Project(w.PointB)
			c.DrawLine(ax, ay, pax, pay)
			c.DrawLine(pax, pay, pbx, pby)
			c.DrawLine(pbx, pby, bx, by)
		case constraint.WidgetPlane:
			drawPlane(c, v, w.Normal, w.Offset)
		}
	}

	for i := range s.Positions {
		x, y := at(i)
		c.Disc(x, y, bodyRadius)
	}
}

// drawPlane draws the line n·p = offset as a dashed rail across the view.
func drawPlane(c *Canvas, v *Viewport, n r2.Vec, offset float64) {
	if r2.Norm(n) == 0 {
		return
	}
	center := v.Center()
	base := r2.Sub(center, r2.Scale(r2.Dot(n, center)-offset, n))
	along := r2.Vec{X: -n.Y, Y: n.X}
	reach := v.Reach()

	x0, y0 := v.Project(r2.Add(base, r2.Scale(-reach, along)))
	x1, y1 := v.Project(r2.Add(base, r2.Scale(reach, along)))
	c.DrawDashed(x0, y0, x1, y1, planeDash)
}
