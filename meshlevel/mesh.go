package meshlevel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fogleman/delaunay"
	"github.com/mastercactapus/router/coord"
)

// Mesh interpolates surface height from probed points.
type Mesh struct {
	minX, minY, maxX, maxY float64
	triangles              []coord.Triangle
}

var _ ZOffsetter = &Mesh{}

func NewMesh(points []coord.Point) (*Mesh, error) {
	if len(points) < 3 {
		return nil, errors.New("need at least 3 points to create a mesh")
	}

	points2d := make([]delaunay.Point, len(points))
	byXY := make(map[delaunay.Point]coord.Point, len(points))

	mesh := &Mesh{
		minX: points[0].X,
		minY: points[0].Y,
		maxX: points[0].X,
		maxY: points[0].Y,
	}
	for i, p := range points {
		mesh.minX = math.Min(mesh.minX, p.X)
		mesh.minY = math.Min(mesh.minY, p.Y)
		mesh.maxX = math.Max(mesh.maxX, p.X)
		mesh.maxY = math.Max(mesh.maxY, p.Y)

		d := delaunay.Point{X: p.X, Y: p.Y}
		byXY[d] = p
		points2d[i] = d
	}
	mesh.minX -= coord.Epsilon
	mesh.minY -= coord.Epsilon
	mesh.maxX += coord.Epsilon
	mesh.maxY += coord.Epsilon

	tri, err := delaunay.Triangulate(points2d)
	if err != nil {
		return nil, fmt.Errorf("triangulate: %w", err)
	}

	mesh.triangles = make([]coord.Triangle, 0, len(tri.Triangles)/3)
	for i := 0; i+2 < len(tri.Triangles); i += 3 {
		mesh.triangles = append(mesh.triangles, coord.Triangle{
			A: byXY[tri.Points[tri.Triangles[i]]],
			B: byXY[tri.Points[tri.Triangles[i+1]]],
			C: byXY[tri.Points[tri.Triangles[i+2]]],
		})
	}

	return mesh, nil
}

// probe matches the JSON written for probe results: {"X":..,"Y":..,"Z":..,"Valid":true}.
type probe struct {
	coord.Point
	Valid bool
}

// ReadMesh builds a mesh from a JSON array of probe results, skipping
// invalid probes. Heights are taken relative to zRef.
func ReadMesh(r io.Reader, zRef float64) (*Mesh, error) {
	var probes []probe
	err := json.NewDecoder(r).Decode(&probes)
	if err != nil {
		return nil, fmt.Errorf("decode probes: %w", err)
	}

	return NewMesh(surface(probes, zRef))
}

// surface keeps the valid probes, with heights taken relative to zRef.
func surface(probes []probe, zRef float64) []coord.Point {
	points := make([]coord.Point, 0, len(probes))
	for _, p := range probes {
		if !p.Valid {
			continue
		}
		p.Z -= zRef
		points = append(points, p.Point)
	}
	return points
}

func (m Mesh) OffsetZ(x, y float64) (bool, float64) {
	if x < m.minX || m.maxX < x || y < m.minY || m.maxY < y {
		return false, 0
	}
	for _, t := range m.triangles {
		if !t.ContainsXY(x, y) {
			continue
		}
		return true, t.Z(x, y)
	}

	return false, 0
}
