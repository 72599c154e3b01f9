package viz

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	fitMargin   = 1.25
	minExtent   = 1.0
	zoomFreq    = 4.0
	zoomDamping = 1.0
)

// Viewport maps world coordinates to canvas pixels. Its centre and scale
// chase the scene's bounding box through critically damped springs, so
// zoom changes ease in rather than jump.
type Viewport struct {
	width, height float64 // pixels

	spring harmonica.Spring
	// cx, cy, scale and their spring velocities
	pos, vel [3]float64
	ready    bool
}

func NewViewport(c *Canvas, fps int) *Viewport {
	return &Viewport{
		width:  float64(c.Width * 2),
		height: float64(c.Height * 4),
		spring: harmonica.NewSpring(harmonica.FPS(fps), zoomFreq, zoomDamping),
	}
}

// Reset makes the next Fit snap instead of easing.
func (v *Viewport) Reset() { v.ready = false }

// Fit moves the view one frame towards framing every point.
func (v *Viewport) Fit(points []r2.Vec) {
	if len(points) == 0 {
		return
	}
	target := v.target(points)
	if !v.ready {
		v.pos, v.vel, v.ready = target, [3]float64{}, true
		return
	}
	for i := range v.pos {
		v.pos[i], v.vel[i] = v.spring.Update(v.pos[i], v.vel[i], target[i])
	}
}

func (v *Viewport) target(points []r2.Vec) [3]float64 {
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	w := math.Max(maxX-minX, minExtent) * fitMargin
	h := math.Max(maxY-minY, minExtent) * fitMargin
	scale := math.Min(v.width/w, v.height/h)
	return [3]float64{(minX + maxX) / 2, (minY + maxY) / 2, scale}
}

// Matrix is the homogeneous world-to-pixel transform. Pixel y grows
// downwards, world y upwards.
func (v *Viewport) Matrix() mgl64.Mat3 {
	return mgl64.Translate2D(v.width/2, v.height/2).
		Mul3(mgl64.Scale2D(v.pos[2], -v.pos[2])).
		Mul3(mgl64.Translate2D(-v.pos[0], -v.pos[1]))
}

func (v *Viewport) Project(p r2.Vec) (int, int) {
	q := v.Matrix().Mul3x1(mgl64.Vec3{p.X, p.Y, 1})
	return int(math.Round(q.X())), int(math.Round(q.Y()))
}

func (v *Viewport) Center() r2.Vec { return r2.Vec{X: v.pos[0], Y: v.pos[1]} }
func (v *Viewport) Scale() float64  { return v.pos[2] }

// Reach is the world distance that spans the whole canvas diagonal.
func (v *Viewport) Reach() float64 {
	if v.pos[2] <= 0 {
		return 0
	}
	return math.Hypot(v.width, v.height) / v.pos[2]
}
