// Package intersect implements the cross-grid spatial join: for each tile
// of a source grid, the set of target-grid tiles whose geometry overlaps it.
package intersect

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wscullen/landsat-downloader/internal/grid"
)

// Mapping pairs each considered source tile ID with the sorted IDs of
// overlapping target tiles. A source tile with no overlap maps to an empty
// slice, never a missing key.
type Mapping map[string][]string

// SourceIDs returns the mapping's keys in sorted order.
func (m Mapping) SourceIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Options configures a Mapper.
type Options struct {
	// Policy selects boundary handling for the overlap test.
	Policy grid.BoundaryPolicy

	// Workers is the number of parallel chunks the source grid is split
	// into. Zero or one means a single pass.
	Workers int
}

// Mapper computes grid-to-grid intersection mappings. Inputs are read-only;
// a Mapper is safe for repeated use.
type Mapper struct {
	policy  grid.BoundaryPolicy
	workers int
}

// NewMapper creates a Mapper with the given options.
func NewMapper(opts Options) *Mapper {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Mapper{policy: opts.Policy, workers: workers}
}

// Compute maps every tile of source to the target tiles it overlaps.
// The grids must already share a coordinate reference system. A non-nil
// ref geometry restricts the source grid to tiles intersecting it.
func (m *Mapper) Compute(ctx context.Context, source, target *grid.Grid, ref *geom.MultiPolygon) (Mapping, error) {
	if source.Len() == 0 {
		return nil, eris.Wrapf(grid.ErrEmptyGrid, "source grid %s", source.Name)
	}
	if target.Len() == 0 {
		return nil, eris.Wrapf(grid.ErrEmptyGrid, "target grid %s", target.Name)
	}
	if err := grid.EnsureSameCRS(source, target); err != nil {
		return nil, err
	}

	start := time.Now()
	log := zap.L().With(
		zap.String("source", source.Name),
		zap.String("target", target.Name),
	)

	tiles := make([]*grid.Tile, 0, source.Len())
	for i := range source.Tiles {
		t := &source.Tiles[i]
		if ref != nil && !grid.Intersects(t.Geom, ref, m.policy) {
			continue
		}
		tiles = append(tiles, t)
	}
	if ref != nil {
		log.Debug("reference filter applied",
			zap.Int("before", source.Len()), zap.Int("after", len(tiles)))
	}

	index := grid.NewIndex(target)

	chunks := chunkTiles(tiles, m.workers)
	results := make([]Mapping, len(chunks))

	eg, egCtx := errgroup.WithContext(ctx)
	for ci, chunk := range chunks {
		eg.Go(func() error {
			out := make(Mapping, len(chunk))
			for _, t := range chunk {
				if err := egCtx.Err(); err != nil {
					return eris.Wrap(err, "intersect: cancelled")
				}
				out[t.ID] = m.overlapping(t, index)
			}
			results[ci] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Workers write disjoint source keys, so merging is a plain union.
	mapping := make(Mapping, len(tiles))
	for _, r := range results {
		for id, targets := range r {
			mapping[id] = targets
		}
	}

	log.Info("intersection mapping computed",
		zap.Int("source_tiles", len(mapping)),
		zap.Int("target_tiles", target.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return mapping, nil
}

// overlapping returns the sorted IDs of indexed tiles overlapping t.
func (m *Mapper) overlapping(t *grid.Tile, index grid.SpatialIndex) []string {
	ids := []string{}
	for _, cand := range index.Search(t.Bounds()) {
		if grid.Intersects(t.Geom, cand.Geom, m.policy) {
			ids = append(ids, cand.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// chunkTiles splits tiles into at most n contiguous chunks.
func chunkTiles(tiles []*grid.Tile, n int) [][]*grid.Tile {
	if n > len(tiles) {
		n = len(tiles)
	}
	if n < 1 {
		n = 1
	}
	chunks := make([][]*grid.Tile, 0, n)
	size := (len(tiles) + n - 1) / n
	for start := 0; start < len(tiles); start += size {
		end := start + size
		if end > len(tiles) {
			end = len(tiles)
		}
		chunks = append(chunks, tiles[start:end])
	}
	return chunks
}

// UnionFootprint collects every polygon of a grid's tiles into a single
// reference geometry. For overlap testing a collected multipolygon is
// equivalent to the dissolved outline.
func UnionFootprint(g *grid.Grid) *geom.MultiPolygon {
	mp := geom.NewMultiPolygon(geom.XY)
	for i := range g.Tiles {
		t := &g.Tiles[i]
		for j := 0; j < t.Geom.NumPolygons(); j++ {
			if err := mp.Push(t.Geom.Polygon(j)); err != nil {
				zap.L().Debug("intersect: skipping polygon in union",
					zap.String("tile", t.ID), zap.Error(err))
			}
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
