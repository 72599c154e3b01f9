package analysis

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Portrait is the path of one body through the plane.
type Portrait struct {
	Body   int
	Points []r2.Vec
}

// Trace extracts body's path from a recorded position series. It returns nil
// if the body index is out of range.
func Trace(positions [][]r2.Vec, body int) *Portrait {
	if len(positions) == 0 || body < 0 || body >= len(positions[0]) {
		return nil
	}

	p := &Portrait{Body: body, Points: make([]r2.Vec, 0, len(positions))}
	for _, frame := range positions {
		if body < len(frame) {
			p.Points = append(p.Points, frame[body])
		}
	}
	return p
}

// ToASCII plots the path on a width x height character grid, drawing the
// axes where they cross the visible area.
func (p *Portrait) ToASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	colOf := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	rowOf := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	for _, pt := range p.Points {
		grid[rowOf(pt.Y)][colOf(pt.X)] = '•'
	}

	if minX <= 0 && maxX >= 0 {
		col := colOf(0)
		for row := range grid {
			if grid[row][col] == ' ' {
				grid[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := rowOf(0)
		for col := range grid[row] {
			if grid[row][col] == ' ' {
				grid[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
