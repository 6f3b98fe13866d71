package overlay

import (
	"math"

	"github.com/twpayne/go-geom"
)

// ringContains reports whether pt is inside the ring using ray casting.
func ringContains(ring *geom.LinearRing, pt geom.Coord) bool {
	coords := ring.Coords()
	n := len(coords)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi := coords[i]
		vj := coords[j]
		if (vi[1] > pt[1]) != (vj[1] > pt[1]) &&
			pt[0] < (vj[0]-vi[0])*(pt[1]-vi[1])/(vj[1]-vi[1])+vi[0] {
			inside = !inside
		}
		j = i
	}
	return inside
}

// polygonContains reports whether pt is inside the polygon's outer ring
// and outside all of its holes.
func polygonContains(p *geom.Polygon, pt geom.Coord) bool {
	if p == nil || p.NumLinearRings() == 0 {
		return false
	}
	if !ringContains(p.LinearRing(0), pt) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if ringContains(p.LinearRing(i), pt) {
			return false
		}
	}
	return true
}

// multiPolygonContains reports whether pt is inside any part of mp.
func multiPolygonContains(mp *geom.MultiPolygon, pt geom.Coord) bool {
	if mp == nil {
		return false
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		if polygonContains(mp.Polygon(i), pt) {
			return true
		}
	}
	return false
}

// ringArea returns the unsigned shoelace area of the ring.
func ringArea(ring *geom.LinearRing) float64 {
	coords := ring.Coords()
	n := len(coords)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += coords[i][0] * coords[j][1]
		area -= coords[j][0] * coords[i][1]
	}
	return math.Abs(area / 2)
}

// polygonArea returns the polygon area: outer ring minus holes.
func polygonArea(p *geom.Polygon) float64 {
	if p == nil || p.NumLinearRings() == 0 {
		return 0
	}
	area := ringArea(p.LinearRing(0))
	for i := 1; i < p.NumLinearRings(); i++ {
		area -= ringArea(p.LinearRing(i))
	}
	if area < 0 {
		return 0
	}
	return area
}

// ringCentroid returns the area-weighted centroid of the ring, falling back
// to the vertex average for degenerate rings.
func ringCentroid(ring *geom.LinearRing) geom.Coord {
	coords := ring.Coords()
	n := len(coords)
	if n == 0 {
		return geom.Coord{0, 0}
	}
	signed := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		signed += coords[i][0]*coords[j][1] - coords[j][0]*coords[i][1]
	}
	signed /= 2
	if math.Abs(signed) < 1e-12 {
		// Degenerate: return average.
		var sx, sy float64
		for _, c := range coords {
			sx += c[0]
			sy += c[1]
		}
		return geom.Coord{sx / float64(n), sy / float64(n)}
	}
	var cx, cy float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := coords[i][0]*coords[j][1] - coords[j][0]*coords[i][1]
		cx += (coords[i][0] + coords[j][0]) * cross
		cy += (coords[i][1] + coords[j][1]) * cross
	}
	f := 1 / (6 * signed)
	return geom.Coord{cx * f, cy * f}
}

// representativePoint returns a point characteristic of the multipolygon:
// the centroid of its largest part, or that part's first vertex if the
// centroid falls outside (concave parts).
func representativePoint(mp *geom.MultiPolygon) (geom.Coord, bool) {
	if mp == nil || mp.NumPolygons() == 0 {
		return nil, false
	}
	largest := mp.Polygon(0)
	best := polygonArea(largest)
	for i := 1; i < mp.NumPolygons(); i++ {
		if a := polygonArea(mp.Polygon(i)); a > best {
			best = a
			largest = mp.Polygon(i)
		}
	}
	if largest.NumLinearRings() == 0 {
		return nil, false
	}
	c := ringCentroid(largest.LinearRing(0))
	if polygonContains(largest, c) {
		return c, true
	}
	coords := largest.LinearRing(0).Coords()
	if len(coords) == 0 {
		return nil, false
	}
	return coords[0], true
}

// boundsOverlapPoint reports whether pt lies within the bounds (inclusive).
func boundsOverlapPoint(b *geom.Bounds, pt geom.Coord) bool {
	return pt[0] >= b.Min(0) && pt[0] <= b.Max(0) &&
		pt[1] >= b.Min(1) && pt[1] <= b.Max(1)
}
