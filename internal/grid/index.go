package grid

import (
	"github.com/dhconnelly/rtreego"
	"github.com/twpayne/go-geom"
)

// SpatialIndex answers bounding-box candidate queries over a set of tiles.
// Candidates still require an exact Intersects test; the index only prunes
// tiles whose boxes cannot overlap.
type SpatialIndex interface {
	Insert(t *Tile)
	Search(bounds *geom.Bounds) []*Tile
	Len() int
}

// NewIndex builds a spatial index over all tiles of a grid. An R-tree is
// used above a small cutoff where the O(n) scan is already cheap.
func NewIndex(g *Grid) SpatialIndex {
	var idx SpatialIndex
	if g.Len() < 32 {
		idx = &linearIndex{}
	} else {
		idx = newRTreeIndex()
	}
	for i := range g.Tiles {
		idx.Insert(&g.Tiles[i])
	}
	return idx
}

// tileEntry adapts a Tile to the rtreego.Spatial interface.
type tileEntry struct {
	tile *Tile
}

// Bounds converts the tile's bounding box to an R-tree rectangle.
// rtreego rejects zero-extent rectangles, so degenerate boxes get a sliver.
func (e tileEntry) Bounds() rtreego.Rect {
	b := e.tile.Bounds()
	rect, _ := rtreego.NewRect(
		rtreego.Point{b.Min(0), b.Min(1)},
		[]float64{extent(b.Min(0), b.Max(0)), extent(b.Min(1), b.Max(1))},
	)
	return rect
}

func extent(lo, hi float64) float64 {
	if d := hi - lo; d > 0 {
		return d
	}
	return 1e-12
}

type rtreeIndex struct {
	rtree *rtreego.Rtree
	count int
}

func newRTreeIndex() *rtreeIndex {
	// 2D, 25..50 children per node.
	return &rtreeIndex{rtree: rtreego.NewTree(2, 25, 50)}
}

func (i *rtreeIndex) Insert(t *Tile) {
	i.rtree.Insert(tileEntry{tile: t})
	i.count++
}

func (i *rtreeIndex) Search(bounds *geom.Bounds) []*Tile {
	rect, err := rtreego.NewRect(
		rtreego.Point{bounds.Min(0), bounds.Min(1)},
		[]float64{extent(bounds.Min(0), bounds.Max(0)), extent(bounds.Min(1), bounds.Max(1))},
	)
	if err != nil {
		return nil
	}

	spatials := i.rtree.SearchIntersect(rect)
	tiles := make([]*Tile, 0, len(spatials))
	for _, s := range spatials {
		tiles = append(tiles, s.(tileEntry).tile)
	}
	return tiles
}

func (i *rtreeIndex) Len() int {
	return i.count
}

// linearIndex is the trivial reference backend: a slice scan with a
// bounding-box filter.
type linearIndex struct {
	tiles []*Tile
}

func (i *linearIndex) Insert(t *Tile) {
	i.tiles = append(i.tiles, t)
}

func (i *linearIndex) Search(bounds *geom.Bounds) []*Tile {
	var out []*Tile
	for _, t := range i.tiles {
		if boundsOverlap(t.Bounds(), bounds, BoundaryInclusive) {
			out = append(out, t)
		}
	}
	return out
}

func (i *linearIndex) Len() int {
	return len(i.tiles)
}
