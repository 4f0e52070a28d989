package intersect

import (
	"context"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/wscullen/landsat-downloader/internal/grid"
)

func square(t *testing.T, minX, minY, maxX, maxY float64) *geom.MultiPolygon {
	t.Helper()
	ring := geom.NewLinearRingFlat(geom.XY, []float64{
		minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY,
	})
	p := geom.NewPolygon(geom.XY)
	require.NoError(t, p.Push(ring))
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(p))
	return mp
}

func buildGrid(t *testing.T, name string, tiles map[string][4]float64) *grid.Grid {
	t.Helper()
	g := grid.NewGrid(name, "WGS 84")
	for id, c := range tiles {
		require.NoError(t, g.Add(grid.Tile{ID: id, Geom: square(t, c[0], c[1], c[2], c[3])}))
	}
	return g
}

func TestCompute_BasicOverlap(t *testing.T) {
	source := buildGrid(t, "wrs", map[string][4]float64{
		"A": {0, 0, 1, 1},
	})
	target := buildGrid(t, "mgrs", map[string][4]float64{
		"B": {0.5, 0.5, 1.5, 1.5},
		"C": {5, 5, 6, 6},
	})

	m := NewMapper(Options{})
	mapping, err := m.Compute(context.Background(), source, target, nil)
	require.NoError(t, err)

	assert.Equal(t, Mapping{"A": {"B"}}, mapping)
}

func TestCompute_NoOverlapYieldsEmptySet(t *testing.T) {
	source := buildGrid(t, "wrs", map[string][4]float64{
		"A": {0, 0, 1, 1},
	})
	target := buildGrid(t, "mgrs", map[string][4]float64{
		"C": {5, 5, 6, 6},
	})

	m := NewMapper(Options{})
	mapping, err := m.Compute(context.Background(), source, target, nil)
	require.NoError(t, err)

	require.Contains(t, mapping, "A", "disjoint source tile must still have an entry")
	assert.Empty(t, mapping["A"])
}

func TestCompute_EverySourceTileRepresented(t *testing.T) {
	tiles := map[string][4]float64{}
	for i := 0; i < 5; i++ {
		tiles[fmt.Sprintf("s%d", i)] = [4]float64{float64(3 * i), 0, float64(3*i + 1), 1}
	}
	source := buildGrid(t, "wrs", tiles)
	target := buildGrid(t, "mgrs", map[string][4]float64{
		"T": {0.5, 0.5, 1.5, 1.5},
	})

	m := NewMapper(Options{})
	mapping, err := m.Compute(context.Background(), source, target, nil)
	require.NoError(t, err)

	assert.Len(t, mapping, source.Len())
	assert.Equal(t, []string{"T"}, mapping["s0"])
	for i := 1; i < 5; i++ {
		assert.Empty(t, mapping[fmt.Sprintf("s%d", i)])
	}
}

func TestCompute_BoundaryPolicies(t *testing.T) {
	source := buildGrid(t, "wrs", map[string][4]float64{
		"A": {0, 0, 1, 1},
	})
	// B shares only the edge x=1 with A.
	target := buildGrid(t, "mgrs", map[string][4]float64{
		"B": {1, 0, 2, 1},
	})

	inclusive := NewMapper(Options{Policy: grid.BoundaryInclusive})
	mapping, err := inclusive.Compute(context.Background(), source, target, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, mapping["A"])

	exclusive := NewMapper(Options{Policy: grid.BoundaryExclusive})
	mapping, err = exclusive.Compute(context.Background(), source, target, nil)
	require.NoError(t, err)
	assert.Empty(t, mapping["A"])
}

func TestCompute_ReferenceFilter(t *testing.T) {
	source := buildGrid(t, "wrs", map[string][4]float64{
		"IN":  {0, 0, 1, 1},
		"OUT": {10, 10, 11, 11},
	})
	target := buildGrid(t, "mgrs", map[string][4]float64{
		"B": {0.5, 0.5, 1.5, 1.5},
	})
	ref := square(t, 0, 0, 2, 2)

	m := NewMapper(Options{})
	mapping, err := m.Compute(context.Background(), source, target, ref)
	require.NoError(t, err)

	assert.Len(t, mapping, 1)
	assert.Equal(t, []string{"B"}, mapping["IN"])
	assert.NotContains(t, mapping, "OUT")
}

func TestCompute_EmptyGrids(t *testing.T) {
	filled := buildGrid(t, "wrs", map[string][4]float64{
		"A": {0, 0, 1, 1},
	})
	empty := grid.NewGrid("empty", "WGS 84")

	m := NewMapper(Options{})

	_, err := m.Compute(context.Background(), empty, filled, nil)
	assert.True(t, eris.Is(err, grid.ErrEmptyGrid))

	_, err = m.Compute(context.Background(), filled, empty, nil)
	assert.True(t, eris.Is(err, grid.ErrEmptyGrid))
}

func TestCompute_CRSMismatch(t *testing.T) {
	source := buildGrid(t, "wrs", map[string][4]float64{
		"A": {0, 0, 1, 1},
	})
	target := grid.NewGrid("mgrs", "NAD_1983_UTM_Zone_17N")
	require.NoError(t, target.Add(grid.Tile{ID: "B", Geom: square(t, 0, 0, 1, 1)}))

	m := NewMapper(Options{})
	_, err := m.Compute(context.Background(), source, target, nil)
	assert.True(t, eris.Is(err, grid.ErrCRSMismatch))
}

func TestCompute_Deterministic(t *testing.T) {
	tiles := map[string][4]float64{}
	for i := 0; i < 12; i++ {
		for j := 0; j < 4; j++ {
			tiles[fmt.Sprintf("s%02d%02d", i, j)] = [4]float64{
				float64(i) * 0.7, float64(j) * 0.7, float64(i)*0.7 + 1, float64(j)*0.7 + 1,
			}
		}
	}
	source := buildGrid(t, "wrs", tiles)

	targets := map[string][4]float64{}
	for i := 0; i < 9; i++ {
		for j := 0; j < 5; j++ {
			targets[fmt.Sprintf("t%02d%02d", i, j)] = [4]float64{
				float64(i), float64(j), float64(i + 1), float64(j + 1),
			}
		}
	}
	target := buildGrid(t, "mgrs", targets)

	serial := NewMapper(Options{Workers: 1})
	parallel := NewMapper(Options{Workers: 8})

	first, err := serial.Compute(context.Background(), source, target, nil)
	require.NoError(t, err)
	second, err := serial.Compute(context.Background(), source, target, nil)
	require.NoError(t, err)
	fanned, err := parallel.Compute(context.Background(), source, target, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must yield identical mappings")
	assert.Equal(t, first, fanned, "worker count must not affect the result")
}

func TestCompute_Cancelled(t *testing.T) {
	source := buildGrid(t, "wrs", map[string][4]float64{
		"A": {0, 0, 1, 1},
	})
	target := buildGrid(t, "mgrs", map[string][4]float64{
		"B": {0, 0, 1, 1},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMapper(Options{})
	_, err := m.Compute(ctx, source, target, nil)
	assert.Error(t, err)
}

func TestMapping_SourceIDs(t *testing.T) {
	m := Mapping{"b": {}, "a": {"x"}, "c": {"y", "z"}}
	assert.Equal(t, []string{"a", "b", "c"}, m.SourceIDs())
}

func TestUnionFootprint(t *testing.T) {
	g := buildGrid(t, "aoi", map[string][4]float64{
		"p": {0, 0, 1, 1},
		"q": {2, 0, 3, 1},
	})

	mp := UnionFootprint(g)
	require.NotNil(t, mp)
	assert.Equal(t, 2, mp.NumPolygons())

	probe := square(t, 2.5, 0.5, 2.6, 0.6)
	assert.True(t, grid.Intersects(probe, mp, grid.BoundaryInclusive))
}
