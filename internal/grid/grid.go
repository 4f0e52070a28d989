// Package grid models satellite tiling grids (WRS-2 path/row, MGRS 100km)
// loaded from shapefiles, and provides spatial indexing and polygon
// intersection predicates over their tiles.
package grid

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Sentinel errors for grid loading and intersection preconditions.
var (
	// ErrCRSMismatch indicates the two grids are not in the same coordinate
	// reference system. Reprojection is a precondition of every cross-grid
	// operation, never performed implicitly.
	ErrCRSMismatch = eris.New("grid: coordinate reference systems do not match")

	// ErrInvalidGeometry indicates a malformed tile geometry (empty, unclosed
	// ring, degenerate ring, or self-intersecting ring).
	ErrInvalidGeometry = eris.New("grid: invalid geometry")

	// ErrEmptyGrid indicates a grid with zero usable tiles.
	ErrEmptyGrid = eris.New("grid: empty grid")
)

// Tile is a single named polygon cell within a tiling grid.
type Tile struct {
	ID   string
	Geom *geom.MultiPolygon
}

// Bounds returns the tile's bounding box.
func (t *Tile) Bounds() *geom.Bounds {
	return t.Geom.Bounds()
}

// Grid is the full collection of tiles for one tiling system.
// Tile IDs are unique within a grid.
type Grid struct {
	Name  string
	CRS   string
	Tiles []Tile

	byID map[string]int
}

// NewGrid creates an empty grid with the given name and CRS identifier.
func NewGrid(name, crs string) *Grid {
	return &Grid{Name: name, CRS: crs, byID: make(map[string]int)}
}

// Add appends a tile, enforcing ID uniqueness.
func (g *Grid) Add(t Tile) error {
	if t.ID == "" {
		return eris.Wrap(ErrInvalidGeometry, "tile has empty id")
	}
	if err := ValidateGeometry(t.Geom); err != nil {
		return eris.Wrapf(err, "tile %s", t.ID)
	}
	if g.byID == nil {
		g.byID = make(map[string]int)
	}
	if _, dup := g.byID[t.ID]; dup {
		return eris.Wrapf(ErrInvalidGeometry, "duplicate tile id %s", t.ID)
	}
	g.byID[t.ID] = len(g.Tiles)
	g.Tiles = append(g.Tiles, t)
	return nil
}

// Tile returns the tile with the given ID, or nil if absent.
func (g *Grid) Tile(id string) *Tile {
	i, ok := g.byID[id]
	if !ok {
		return nil
	}
	return &g.Tiles[i]
}

// Len returns the number of tiles in the grid.
func (g *Grid) Len() int {
	return len(g.Tiles)
}

// EnsureSameCRS verifies two grids share a coordinate reference system.
func EnsureSameCRS(a, b *Grid) error {
	return CheckCRS(a.Name, a.CRS, b.Name, b.CRS)
}

// CheckCRS verifies two named datasets share a coordinate reference system.
// A dataset with no recorded CRS (missing .prj sidecar) cannot be verified
// and is allowed through; only a known, differing pair is rejected.
func CheckCRS(aName, aCRS, bName, bCRS string) error {
	na, nb := NormalizeCRS(aCRS), NormalizeCRS(bCRS)
	if na == "" || nb == "" {
		return nil
	}
	if na != nb {
		return eris.Wrapf(ErrCRSMismatch, "%s is %q, %s is %q", aName, aCRS, bName, bCRS)
	}
	return nil
}

// ValidateGeometry checks that a multipolygon is usable for intersection
// tests: non-empty, every ring closed with at least four coordinates,
// non-zero area, and no self-intersecting rings.
func ValidateGeometry(mp *geom.MultiPolygon) error {
	if mp == nil || mp.NumPolygons() == 0 {
		return eris.Wrap(ErrInvalidGeometry, "empty geometry")
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		p := mp.Polygon(i)
		if p.NumLinearRings() == 0 {
			return eris.Wrap(ErrInvalidGeometry, "polygon without rings")
		}
		for j := 0; j < p.NumLinearRings(); j++ {
			ring := p.LinearRing(j)
			if err := validateRing(ring); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateRing(ring *geom.LinearRing) error {
	n := ring.NumCoords()
	if n < 4 {
		return eris.Wrapf(ErrInvalidGeometry, "ring has %d coordinates", n)
	}
	first, last := ring.Coord(0), ring.Coord(n-1)
	if first[0] != last[0] || first[1] != last[1] {
		return eris.Wrap(ErrInvalidGeometry, "ring not closed")
	}
	if ringArea(ring) == 0 {
		return eris.Wrap(ErrInvalidGeometry, "ring has zero area")
	}
	if ringSelfIntersects(ring) {
		return eris.Wrap(ErrInvalidGeometry, "ring self-intersects")
	}
	return nil
}

// ringArea returns the signed shoelace area of a ring.
func ringArea(ring *geom.LinearRing) float64 {
	var area float64
	n := ring.NumCoords()
	for i := 0; i < n-1; i++ {
		a, b := ring.Coord(i), ring.Coord(i+1)
		area += a[0]*b[1] - b[0]*a[1]
	}
	return area / 2
}

// ringSelfIntersects reports whether any two non-adjacent ring edges cross.
func ringSelfIntersects(ring *geom.LinearRing) bool {
	n := ring.NumCoords() - 1 // edges
	for i := 0; i < n; i++ {
		a1, a2 := ring.Coord(i), ring.Coord(i+1)
		for j := i + 2; j < n; j++ {
			// Skip the closing edge's adjacency with the first edge.
			if i == 0 && j == n-1 {
				continue
			}
			b1, b2 := ring.Coord(j), ring.Coord(j+1)
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}
