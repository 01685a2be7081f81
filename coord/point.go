package coord

import (
	"math"
)

// Point is a position in machine coordinates.
type Point struct{ X, Y, Z float64 }

// Point2 is a position on the XY plane, as produced by path planning.
type Point2 struct{ X, Y float64 }

func (p Point) Equal(b Point) bool {
	return p.X == b.X && p.Y == b.Y && p.Z == b.Z
}
func (p Point) Cross(op Point) Point {
	return Point{
		p.Y*op.Z - p.Z*op.Y,
		p.Z*op.X - p.X*op.Z,
		p.X*op.Y - p.Y*op.X,
	}
}
func (p Point) Dot(op Point) float64 {
	return p.X*op.X + p.Y*op.Y + p.Z*op.Z
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	return p
}

// XY drops the Z component.
func (p Point) XY() Point2 { return Point2{X: p.X, Y: p.Y} }

// Split will return a set of evenly spaced points
// from p to the target, ending on target.
func (p Point) Split(target Point, n int) []Point {
	step := Point{
		X: (target.X - p.X) / float64(n),
		Y: (target.Y - p.Y) / float64(n),
		Z: (target.Z - p.Z) / float64(n),
	}

	res := make([]Point, n)
	for i := range res {
		res[i].X = p.X + step.X*float64(i+1)
		res[i].Y = p.Y + step.Y*float64(i+1)
		res[i].Z = p.Z + step.Z*float64(i+1)
	}
	res[n-1] = target

	return res
}

// Distance will return the 3D distance between p and target.
func (p Point) Distance(target Point) float64 {
	return math.Sqrt(math.Pow(target.X-p.X, 2) + math.Pow(target.Y-p.Y, 2) + math.Pow(target.Z-p.Z, 2))
}

// DistanceXY will return the 2D distance to p from (x,y).
func (p Point) DistanceXY(x, y float64) float64 {
	return math.Sqrt(math.Pow(x-p.X, 2) + math.Pow(y-p.Y, 2))
}

// At lifts the 2D point to height z.
func (p Point2) At(z float64) Point {
	return Point{X: p.X, Y: p.Y, Z: z}
}

// Distance will return the 2D distance between p and target.
func (p Point2) Distance(target Point2) float64 {
	return math.Sqrt(math.Pow(target.X-p.X, 2) + math.Pow(target.Y-p.Y, 2))
}
