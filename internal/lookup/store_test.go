package lookup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wscullen/landsat-downloader/internal/intersect"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "lookup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestStore_SaveAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mapping := intersect.Mapping{
		"014031": {"18TUR", "18TUS"},
		"015031": {},
	}
	build, err := s.SaveBuild(ctx, "wrs", "mgrs", mapping)
	require.NoError(t, err)
	assert.NotEmpty(t, build.ID)
	assert.Equal(t, 2, build.TileCount)

	mgrs, err := s.Lookup(ctx, "", "014031")
	require.NoError(t, err)
	assert.Equal(t, []string{"18TUR", "18TUS"}, mgrs)

	// Empty overlap set round-trips as an empty, non-nil slice.
	mgrs, err = s.Lookup(ctx, "", "015031")
	require.NoError(t, err)
	require.NotNil(t, mgrs)
	assert.Empty(t, mgrs)

	// Unknown path/row yields nil without error.
	mgrs, err = s.Lookup(ctx, "", "099099")
	require.NoError(t, err)
	assert.Nil(t, mgrs)
}

func TestStore_LookupEmptyStore(t *testing.T) {
	s := newTestStore(t)

	mgrs, err := s.Lookup(context.Background(), "", "014031")
	require.NoError(t, err)
	assert.Nil(t, mgrs)

	latest, err := s.LatestBuild(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestStore_LatestBuildWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	first, err := s.SaveBuild(ctx, "wrs", "mgrs", intersect.Mapping{"014031": {"OLD"}})
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(time.Minute) }
	second, err := s.SaveBuild(ctx, "wrs", "mgrs", intersect.Mapping{"014031": {"NEW"}})
	require.NoError(t, err)

	latest, err := s.LatestBuild(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	mgrs, err := s.Lookup(ctx, "", "014031")
	require.NoError(t, err)
	assert.Equal(t, []string{"NEW"}, mgrs)

	// Explicit build ID bypasses latest-build resolution.
	mgrs, err = s.Lookup(ctx, first.ID, "014031")
	require.NoError(t, err)
	assert.Equal(t, []string{"OLD"}, mgrs)
}

func TestStore_ListBuilds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.SaveBuild(ctx, "wrs", "mgrs", intersect.Mapping{"014031": {"18TUR"}})
		require.NoError(t, err)
	}

	builds, err := s.ListBuilds(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, builds, 3)

	builds, err = s.ListBuilds(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, builds, 2)
}
