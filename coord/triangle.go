package coord

import (
	"math"
)

const (
	// Epsilon is the max error when checking containment.
	Epsilon   = 0.001
	epsilonSq = Epsilon * Epsilon
)

type Triangle struct{ A, B, C Point }

// ContainsXY returns true if the 2D projection of the triangle
// has the point x,y.
//
// Points within Epsilon of an edge count as contained.
func (t Triangle) ContainsXY(x, y float64) bool {
	a, b, c := t.A.XY(), t.B.XY(), t.C.XY()
	p := Point2{X: x, Y: y}

	if !inBounds(a, b, c, p) {
		return false
	}
	// either winding order
	s1, s2, s3 := side(a, b, p), side(b, c, p), side(c, a, p)
	if (s1 >= 0 && s2 >= 0 && s3 >= 0) || (s1 <= 0 && s2 <= 0 && s3 <= 0) {
		return true
	}

	return segmentDistanceSq(a, b, p) <= epsilonSq ||
		segmentDistanceSq(b, c, p) <= epsilonSq ||
		segmentDistanceSq(c, a, p) <= epsilonSq
}

// Z will give the Z-coordinate on the plane defined by the triangle
// where it intersects x,y.
func (t Triangle) Z(x, y float64) float64 {
	ac := t.C.Sub(t.A)
	ab := t.B.Sub(t.A)

	cp := ac.Cross(ab)
	d := cp.Dot(t.C)

	return (d - cp.X*x - cp.Y*y) / cp.Z
}

// see https://totologic.blogspot.com/2014/01/accurate-point-in-triangle-test.html

func side(a, b, p Point2) float64 {
	return (b.Y-a.Y)*(p.X-a.X) + (a.X-b.X)*(p.Y-a.Y)
}

func inBounds(a, b, c, p Point2) bool {
	minX := math.Min(a.X, math.Min(b.X, c.X)) - Epsilon
	maxX := math.Max(a.X, math.Max(b.X, c.X)) + Epsilon
	minY := math.Min(a.Y, math.Min(b.Y, c.Y)) - Epsilon
	maxY := math.Max(a.Y, math.Max(b.Y, c.Y)) + Epsilon

	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

func segmentDistanceSq(a, b, p Point2) float64 {
	lenSq := (b.X-a.X)*(b.X-a.X) + (b.Y-a.Y)*(b.Y-a.Y)
	dot := ((p.X-a.X)*(b.X-a.X) + (p.Y-a.Y)*(b.Y-a.Y)) / lenSq
	switch {
	case dot < 0:
		return (p.X-a.X)*(p.X-a.X) + (p.Y-a.Y)*(p.Y-a.Y)
	case dot <= 1:
		apSq := (a.X-p.X)*(a.X-p.X) + (a.Y-p.Y)*(a.Y-p.Y)
		return apSq - dot*dot*lenSq
	}

	return (p.X-b.X)*(p.X-b.X) + (p.Y-b.Y)*(p.Y-b.Y)
}
