package grid

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// BoundaryPolicy controls how tiles that touch only at a border edge or
// point are treated by the overlap test. Grids are edge-aligned, so the
// policy is observable on every interior tile boundary.
type BoundaryPolicy int

const (
	// BoundaryInclusive treats boundary-only contact as intersecting.
	// This is the conventional spatial-join behavior and the default.
	BoundaryInclusive BoundaryPolicy = iota

	// BoundaryExclusive requires the interiors to overlap.
	BoundaryExclusive
)

// ParseBoundaryPolicy maps a config string to a BoundaryPolicy.
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch s {
	case "", "inclusive":
		return BoundaryInclusive, nil
	case "exclusive":
		return BoundaryExclusive, nil
	default:
		return BoundaryInclusive, eris.Errorf("grid: unknown boundary policy %q", s)
	}
}

// Intersects reports whether two multipolygons overlap under the given
// boundary policy. Bounding boxes are checked first.
func Intersects(a, b *geom.MultiPolygon, policy BoundaryPolicy) bool {
	if a == nil || b == nil {
		return false
	}
	if !boundsOverlap(a.Bounds(), b.Bounds(), policy) {
		return false
	}
	if policy == BoundaryInclusive {
		return intersectsInclusive(a, b)
	}
	return interiorsOverlap(a, b)
}

// boundsOverlap tests axis-aligned bounding boxes. Under the inclusive
// policy a shared edge or corner counts.
func boundsOverlap(a, b *geom.Bounds, policy BoundaryPolicy) bool {
	if policy == BoundaryInclusive {
		return a.Min(0) <= b.Max(0) && b.Min(0) <= a.Max(0) &&
			a.Min(1) <= b.Max(1) && b.Min(1) <= a.Max(1)
	}
	return a.Min(0) < b.Max(0) && b.Min(0) < a.Max(0) &&
		a.Min(1) < b.Max(1) && b.Min(1) < a.Max(1)
}

func intersectsInclusive(a, b *geom.MultiPolygon) bool {
	// Any pair of edges touching or crossing.
	if anyEdgesIntersect(a, b) {
		return true
	}
	// Full containment of one geometry in the other.
	if anyVertexLocated(a, b, locBoundary) || anyVertexLocated(b, a, locBoundary) {
		return true
	}
	return false
}

func interiorsOverlap(a, b *geom.MultiPolygon) bool {
	if anyEdgesProperlyCross(a, b) {
		return true
	}
	if anyVertexLocated(a, b, locInterior) || anyVertexLocated(b, a, locInterior) {
		return true
	}
	// Edge-aligned overlaps (identical or stacked tiles) produce no proper
	// crossing and no strictly-interior vertex. Probe points that are interior
	// to a convex shape: each shell's vertex centroid, plus the center of the
	// bounding-box overlap. The bbox center alone is only interior for
	// axis-aligned rectangles; for a coincident pair of triangles it lands on
	// the hypotenuse.
	probes := shellCentroids(a)
	probes = append(probes, shellCentroids(b)...)
	probes = append(probes, overlapCenter(a.Bounds(), b.Bounds()))
	for _, c := range probes {
		if locateInMultiPolygon(c, a) == locInterior && locateInMultiPolygon(c, b) == locInterior {
			return true
		}
	}
	return false
}

// shellCentroids returns the vertex centroid of each polygon's outer shell.
// For a convex shell the centroid is strictly interior.
func shellCentroids(mp *geom.MultiPolygon) []geom.Coord {
	out := make([]geom.Coord, 0, mp.NumPolygons())
	for i := 0; i < mp.NumPolygons(); i++ {
		ring := mp.Polygon(i).LinearRing(0)
		n := ring.NumCoords() - 1 // the closing coordinate repeats the first
		var sx, sy float64
		for j := 0; j < n; j++ {
			c := ring.Coord(j)
			sx += c[0]
			sy += c[1]
		}
		out = append(out, geom.Coord{sx / float64(n), sy / float64(n)})
	}
	return out
}

func overlapCenter(a, b *geom.Bounds) geom.Coord {
	minX := max(a.Min(0), b.Min(0))
	maxX := min(a.Max(0), b.Max(0))
	minY := max(a.Min(1), b.Min(1))
	maxY := min(a.Max(1), b.Max(1))
	return geom.Coord{(minX + maxX) / 2, (minY + maxY) / 2}
}

// anyVertexLocated reports whether any vertex of a is located in b at least
// as deep as the given threshold (locBoundary accepts boundary or interior,
// locInterior accepts interior only).
func anyVertexLocated(a, b *geom.MultiPolygon, threshold int) bool {
	for i := 0; i < a.NumPolygons(); i++ {
		ring := a.Polygon(i).LinearRing(0)
		for j := 0; j < ring.NumCoords(); j++ {
			if locateInMultiPolygon(ring.Coord(j), b) >= threshold {
				return true
			}
		}
	}
	return false
}

func anyEdgesIntersect(a, b *geom.MultiPolygon) bool {
	return edgePairs(a, b, func(p1, p2, q1, q2 geom.Coord) bool {
		return segmentsIntersect(p1, p2, q1, q2)
	})
}

func anyEdgesProperlyCross(a, b *geom.MultiPolygon) bool {
	return edgePairs(a, b, func(p1, p2, q1, q2 geom.Coord) bool {
		return segmentsCross(p1, p2, q1, q2)
	})
}

func edgePairs(a, b *geom.MultiPolygon, test func(p1, p2, q1, q2 geom.Coord) bool) bool {
	for i := 0; i < a.NumPolygons(); i++ {
		pa := a.Polygon(i)
		for ri := 0; ri < pa.NumLinearRings(); ri++ {
			ra := pa.LinearRing(ri)
			for ei := 0; ei < ra.NumCoords()-1; ei++ {
				p1, p2 := ra.Coord(ei), ra.Coord(ei+1)
				if edgeAgainst(b, p1, p2, test) {
					return true
				}
			}
		}
	}
	return false
}

func edgeAgainst(b *geom.MultiPolygon, p1, p2 geom.Coord, test func(p1, p2, q1, q2 geom.Coord) bool) bool {
	for i := 0; i < b.NumPolygons(); i++ {
		pb := b.Polygon(i)
		for ri := 0; ri < pb.NumLinearRings(); ri++ {
			rb := pb.LinearRing(ri)
			for ei := 0; ei < rb.NumCoords()-1; ei++ {
				if test(p1, p2, rb.Coord(ei), rb.Coord(ei+1)) {
					return true
				}
			}
		}
	}
	return false
}

// Point location results, ordered by depth.
const (
	locExterior = iota
	locBoundary
	locInterior
)

// locateInMultiPolygon returns the deepest location of pt across the
// member polygons.
func locateInMultiPolygon(pt geom.Coord, mp *geom.MultiPolygon) int {
	loc := locExterior
	for i := 0; i < mp.NumPolygons(); i++ {
		if l := locateInPolygon(pt, mp.Polygon(i)); l > loc {
			loc = l
		}
		if loc == locInterior {
			return loc
		}
	}
	return loc
}

// locateInPolygon locates pt relative to a polygon shell and its holes.
// A point on a hole boundary is on the polygon boundary; a point inside a
// hole is exterior.
func locateInPolygon(pt geom.Coord, p *geom.Polygon) int {
	shell := locateInRing(pt, p.LinearRing(0))
	if shell != locInterior {
		return shell
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		switch locateInRing(pt, p.LinearRing(i)) {
		case locInterior:
			return locExterior
		case locBoundary:
			return locBoundary
		}
	}
	return locInterior
}

// locateInRing is an even-odd ray cast with an explicit boundary check.
func locateInRing(pt geom.Coord, ring *geom.LinearRing) int {
	n := ring.NumCoords()
	for i := 0; i < n-1; i++ {
		if onSegment(pt, ring.Coord(i), ring.Coord(i+1)) {
			return locBoundary
		}
	}
	inside := false
	for i := 0; i < n-1; i++ {
		a, b := ring.Coord(i), ring.Coord(i+1)
		if (a[1] > pt[1]) != (b[1] > pt[1]) {
			x := a[0] + (pt[1]-a[1])/(b[1]-a[1])*(b[0]-a[0])
			if pt[0] < x {
				inside = !inside
			}
		}
	}
	if inside {
		return locInterior
	}
	return locExterior
}

// cross2 returns the z component of (b-a) x (c-a); its sign is the
// orientation of the triplet.
func cross2(a, b, c geom.Coord) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether pt lies on the closed segment a-b.
func onSegment(pt, a, b geom.Coord) bool {
	if cross2(a, b, pt) != 0 {
		return false
	}
	return min(a[0], b[0]) <= pt[0] && pt[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= pt[1] && pt[1] <= max(a[1], b[1])
}

// segmentsIntersect reports whether closed segments p1-p2 and q1-q2 share
// any point, including endpoint touches and collinear overlap.
func segmentsIntersect(p1, p2, q1, q2 geom.Coord) bool {
	d1 := cross2(q1, q2, p1)
	d2 := cross2(q1, q2, p2)
	d3 := cross2(p1, p2, q1)
	d4 := cross2(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(p1, q1, q2)) ||
		(d2 == 0 && onSegment(p2, q1, q2)) ||
		(d3 == 0 && onSegment(q1, p1, p2)) ||
		(d4 == 0 && onSegment(q2, p1, p2))
}

// segmentsCross reports a proper crossing: the segments intersect at a
// single point interior to both.
func segmentsCross(p1, p2, q1, q2 geom.Coord) bool {
	d1 := cross2(q1, q2, p1)
	d2 := cross2(q1, q2, p2)
	d3 := cross2(p1, p2, q1)
	d4 := cross2(p1, p2, q2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
