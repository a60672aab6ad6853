package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ecotrust/TreeForCaSt-s/internal/stac"
)

func TestBatches(t *testing.T) {
	matches := []Match{
		{
			Agency: "dnr", Year: 2015,
			Labels:  []AssetPath{{CellID: 1, Year: 2015}},
			Imagery: map[string][]AssetPath{"naip": {{CellID: 1, Year: 2015}}},
		},
		{
			Agency: "dnr", Year: 2019,
			Labels:  []AssetPath{{CellID: 2, Year: 2019}},
			Imagery: map[string][]AssetPath{"naip": {{CellID: 2, Year: 2019}}},
		},
		{
			Agency: "odf", Year: 2017,
			Labels: []AssetPath{{CellID: 3, Year: 2017}},
		},
	}

	t.Run("one batch per agency-year", func(t *testing.T) {
		b := &Builder{multiYear: false}
		batches := b.batches(matches)
		require.Len(t, batches, 3)
		assert.Equal(t, "dnr-2015-stands", batches[0].ID)
		assert.Equal(t, "dnr-2019-stands", batches[1].ID)
		assert.Equal(t, "odf-2017-stands", batches[2].ID)
		assert.Equal(t, 2015, batches[0].MinYear)
		assert.Equal(t, 2015, batches[0].MaxYear)
	})

	t.Run("agency batches merge years and imagery", func(t *testing.T) {
		b := &Builder{multiYear: true}
		batches := b.batches(matches)
		require.Len(t, batches, 2)

		dnr := batches[0]
		assert.Equal(t, "dnr-stands", dnr.ID)
		assert.Equal(t, 2015, dnr.MinYear)
		assert.Equal(t, 2019, dnr.MaxYear)
		assert.Len(t, dnr.Labels, 2)
		assert.Len(t, dnr.Imagery["naip"], 2)

		assert.Equal(t, "odf-stands", batches[1].ID)
	})

	t.Run("imagery shared between years is merged once", func(t *testing.T) {
		shared := AssetPath{Path: "data/naip/2020/1_2020_wa_naip-cog.tif", CellID: 1, Year: 2020}
		b := &Builder{multiYear: true}
		batches := b.batches([]Match{
			{
				Agency: "dnr", Year: 2019,
				Labels:  []AssetPath{{CellID: 1, Year: 2019}},
				Imagery: map[string][]AssetPath{"naip": {shared}},
			},
			{
				Agency: "dnr", Year: 2020,
				Labels:  []AssetPath{{CellID: 1, Year: 2020}},
				Imagery: map[string][]AssetPath{"naip": {shared}},
			},
		})
		require.Len(t, batches, 1)
		assert.Equal(t, []AssetPath{shared}, batches[0].Imagery["naip"])
	})
}

func TestAddImageItemsSkipsExisting(t *testing.T) {
	b := &Builder{workers: 1, imageItems: map[string][]*stac.Item{}}
	existing := stac.NewItem("1_2020_wa_naip", nil, []float64{0, 0, 1, 1}, time.Now())
	b.registerImageItem(existing)

	// The path does not exist on disk; building it would fail, so a nil
	// error proves the registered id was skipped rather than rebuilt.
	col := stac.NewCollection("naip", "d", "l", nil)
	err := b.addImageItems(col, []AssetPath{
		{Path: "data/naip/2020/1_2020_wa_naip-cog.tif", CellID: 1, Year: 2020, State: "wa", Name: "naip"},
	})
	require.NoError(t, err)
	assert.Empty(t, col.Items())
	assert.Len(t, b.imageSources("1_2020_wa_dnr_stands"), 1)
}

func TestRecomputeExtent(t *testing.T) {
	item := func(bbox []float64, year int) *stac.Item {
		return stac.NewItem("x", nil, bbox, time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC))
	}
	items := []*stac.Item{
		item([]float64{-123, 45, -122, 46}, 2017),
		item([]float64{-124, 44, -123, 45}, 2015),
		item([]float64{-122, 46, -121, 47}, 2019),
	}

	// The union must not depend on the order items were added in.
	for _, order := range [][]int{{0, 1, 2}, {2, 0, 1}, {1, 2, 0}} {
		col := stac.NewCollection("naip", "d", "l", nil)
		for _, i := range order {
			col.AddItem(items[i])
		}
		recomputeExtent(col)

		require.Len(t, col.Extent.Spatial.Bbox, 1)
		assert.Equal(t, []float64{-124, 44, -121, 47}, col.Extent.Spatial.Bbox[0])
		require.Len(t, col.Extent.Temporal.Interval, 1)
		assert.Equal(t, "2015-06-01T00:00:00Z", *col.Extent.Temporal.Interval[0][0])
		assert.Equal(t, "2019-06-01T00:00:00Z", *col.Extent.Temporal.Interval[0][1])
	}
}

func TestImageSources(t *testing.T) {
	b := &Builder{imageItems: map[string][]*stac.Item{}}

	naip := stac.NewItem("12345_2017_wa_naip", nil, []float64{0, 0, 1, 1}, time.Now())
	landtrendr := stac.NewItem("12345_2017_wa_landtrendr", nil, []float64{0, 0, 1, 1}, time.Now())
	other := stac.NewItem("999_2017_wa_naip", nil, []float64{0, 0, 1, 1}, time.Now())
	for _, it := range []*stac.Item{naip, landtrendr, other} {
		b.registerImageItem(it)
	}

	sources := b.imageSources("12345_2017_wa_dnr_stands")
	require.Len(t, sources, 2)
	assert.Contains(t, sources, naip)
	assert.Contains(t, sources, landtrendr)
	assert.NotContains(t, sources, other)

	assert.Empty(t, b.imageSources("777_2017_wa_dnr_stands"))
}
