package grid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrid = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"CELL_ID": 5700, "PRIMARY_STATE": "Washington"},
      "geometry": {"type": "Polygon", "coordinates": [[[-123, 45], [-122.875, 45], [-122.875, 45.125], [-123, 45.125], [-123, 45]]]}
    },
    {
      "type": "Feature",
      "properties": {"CELL_ID": 5812, "PRIMARY_STATE": "Oregon"},
      "geometry": {"type": "Polygon", "coordinates": [[[-122.875, 45], [-122.75, 45], [-122.75, 45.125], [-122.875, 45.125], [-122.875, 45]]]}
    },
    {
      "type": "Feature",
      "properties": {"PRIMARY_STATE": "Oregon"},
      "geometry": {"type": "Polygon", "coordinates": [[[-121, 44], [-120, 44], [-120, 45], [-121, 45], [-121, 44]]]}
    }
  ]
}`

func loadTestGrid(t *testing.T) *Grid {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.geojson")
	require.NoError(t, os.WriteFile(path, []byte(testGrid), 0o644))
	g, err := Load(path)
	require.NoError(t, err)
	return g
}

func TestLoad(t *testing.T) {
	g := loadTestGrid(t)

	// The feature without CELL_ID is dropped.
	require.Len(t, g.Tiles(), 2)

	tile, ok := g.Tile(5700)
	require.True(t, ok)
	assert.Equal(t, "WA", tile.State)
	assert.Equal(t, orb.Point{-123, 45}, tile.Bound.Min)

	tile, ok = g.Tile(5812)
	require.True(t, ok)
	assert.Equal(t, "OR", tile.State)

	_, ok = g.Tile(99999)
	assert.False(t, ok)
}

func TestUnionBound(t *testing.T) {
	g := loadTestGrid(t)

	bound, ok := g.UnionBound([]int{5700, 5812})
	require.True(t, ok)
	assert.Equal(t, orb.Point{-123, 45}, bound.Min)
	assert.Equal(t, orb.Point{-122.75, 45.125}, bound.Max)

	// Unknown ids are skipped, not fatal.
	bound, ok = g.UnionBound([]int{5700, 12345})
	require.True(t, ok)
	assert.Equal(t, orb.Point{-122.875, 45.125}, bound.Max)

	_, ok = g.UnionBound([]int{12345})
	assert.False(t, ok)
}

func TestSplitBound(t *testing.T) {
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 2}}
	quads := SplitBound(b, 2)
	require.Len(t, quads, 4)

	// Row-major from the lower-left corner.
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, quads[0])
	assert.Equal(t, orb.Bound{Min: orb.Point{1, 0}, Max: orb.Point{2, 1}}, quads[1])
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 1}, Max: orb.Point{1, 2}}, quads[2])
	assert.Equal(t, orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{2, 2}}, quads[3])

	assert.Equal(t, []orb.Bound{b}, SplitBound(b, 1))
}

func TestInferUTM(t *testing.T) {
	// Western Oregon sits in UTM zone 10N.
	b := orb.Bound{Min: orb.Point{-123.5, 44}, Max: orb.Point{-123, 44.5}}
	assert.Equal(t, 32610, InferUTM(b))

	// Just east of -120 falls into zone 11N.
	b = orb.Bound{Min: orb.Point{-119.9, 44}, Max: orb.Point{-119.5, 44.5}}
	assert.Equal(t, 32611, InferUTM(b))
}

func TestPaddedBound(t *testing.T) {
	b := orb.Bound{Min: orb.Point{-123, 45}, Max: orb.Point{-122.875, 45.125}}
	padded := PaddedBound(b, 1000)

	assert.Less(t, padded.Min[0], b.Min[0])
	assert.Less(t, padded.Min[1], b.Min[1])
	assert.Greater(t, padded.Max[0], b.Max[0])
	assert.Greater(t, padded.Max[1], b.Max[1])

	// Longitude padding is wider than latitude padding away from the equator.
	assert.Greater(t, b.Min[0]-padded.Min[0], b.Min[1]-padded.Min[1])
}
