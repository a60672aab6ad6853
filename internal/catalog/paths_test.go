package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Run("annual imagery path", func(t *testing.T) {
		ap, err := Classify("data/naip/5700_2009_wa_naip-cog.tif", SegmentIndex("data"))
		require.NoError(t, err)
		assert.Equal(t, 5700, ap.CellID)
		assert.Equal(t, 2009, ap.Year)
		assert.True(t, ap.Annual)
		assert.Equal(t, "WA", ap.State)
		assert.Equal(t, "naip", ap.Name)
		assert.Equal(t, "5700_2009_wa_naip", ap.Stem())
	})

	t.Run("non-year second token is static", func(t *testing.T) {
		ap, err := Classify("data/3dep/5700_dem_wa_3dep-cog.tif", SegmentIndex("data"))
		require.NoError(t, err)
		assert.False(t, ap.Annual)
		assert.Zero(t, ap.Year)
		assert.Equal(t, "3dep", ap.Name)
	})

	t.Run("label path two levels deeper", func(t *testing.T) {
		ap, err := Classify(
			"data/stands/WA/dnr/2017/5700_2017_wa_dnr_stands.geojson",
			SegmentIndex("data")+2,
		)
		require.NoError(t, err)
		assert.Equal(t, "dnr", ap.Name)
		assert.Equal(t, 2017, ap.Year)
		assert.Equal(t, 5700, ap.CellID)
	})

	t.Run("non-integer cell id is rejected", func(t *testing.T) {
		_, err := Classify("data/naip/tile_2009_wa_naip-cog.tif", SegmentIndex("data"))
		assert.Error(t, err)
	})

	t.Run("too few stem tokens is rejected", func(t *testing.T) {
		_, err := Classify("data/naip/5700-cog.tif", SegmentIndex("data"))
		assert.Error(t, err)
	})

	t.Run("missing name segment is rejected", func(t *testing.T) {
		_, err := Classify("5700_2009_wa_naip-cog.tif", 0)
		assert.Error(t, err)
	})
}

func TestGroupPaths(t *testing.T) {
	paths := []string{
		"data/naip/5700_2009_wa_naip-cog.tif",
		"data/naip/5700_2011_wa_naip-cog.tif",
		"data/naip/5812_2011_wa_naip-cog.tif",
		"data/3dep/5700_dem_wa_3dep-cog.tif",
	}
	groups, err := GroupPaths(paths, SegmentIndex("data"))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	naip := groups["naip"]
	require.NotNil(t, naip)
	assert.True(t, naip.Annual())
	assert.Len(t, naip.Years[2009], 1)
	assert.Len(t, naip.Years[2011], 2)
	assert.Empty(t, naip.Flat)

	dep := groups["3dep"]
	require.NotNil(t, dep)
	assert.False(t, dep.Annual())
	assert.Len(t, dep.Flat, 1)
}

func TestSegmentIndex(t *testing.T) {
	assert.Equal(t, 0, SegmentIndex("data"))
	assert.Equal(t, 1, SegmentIndex("data/processed"))
	assert.Equal(t, 1, SegmentIndex("data/processed/"))
	assert.Equal(t, 2, SegmentIndex("/home/data"))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "naip"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "naip", "5700_2009_wa_naip-cog.tif"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "naip", "5700_2009_wa_naip-preview.png"), nil, 0o644))

	found, err := Discover(dir, "-cog.tif")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found[0], "5700_2009_wa_naip-cog.tif")
}
