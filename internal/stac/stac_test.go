package stac

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(id string) *Item {
	bound := orb.Bound{Min: orb.Point{-123, 45}, Max: orb.Point{-122, 46}}
	it := NewItem(
		id,
		geojson.NewGeometry(bound.ToPolygon()),
		[]float64{-123, 45, -122, 46},
		time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC),
	)
	it.AddAsset("image", &Asset{Href: "https://example.org/" + id + "-cog.tif", Type: MediaTypeCOG})
	return it
}

func testCatalog() (*Catalog, *Collection, *Collection) {
	cat := NewCatalog("fbstac", "forest stand catalog", "Forest Stands")

	naip := NewCollection("naip", "NAIP imagery", "proprietary", []Provider{{Name: "USDA"}})
	naip.Extent = NewExtent(
		[4]float64{-123, 45, -122, 46},
		time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2017, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	cat.AddChild(naip)

	stands := NewCollection("dnr-2017-stands", "DNR stand maps", "CC-BY-4.0", nil)
	stands.Extent = naip.Extent
	cat.AddChild(stands)

	return cat, naip, stands
}

func TestValidate(t *testing.T) {
	t.Run("valid catalog passes", func(t *testing.T) {
		cat, naip, _ := testCatalog()
		naip.AddItem(testItem("5700_2017_wa_naip"))
		assert.NoError(t, cat.Validate())
	})

	t.Run("duplicate collection ids fail", func(t *testing.T) {
		cat, naip, _ := testCatalog()
		dup := NewCollection(naip.ID, "copy", "", nil)
		dup.Extent = naip.Extent
		cat.AddChild(dup)
		assert.Error(t, cat.Validate())
	})

	t.Run("missing spatial extent fails", func(t *testing.T) {
		cat, naip, _ := testCatalog()
		naip.Extent = Extent{Temporal: naip.Extent.Temporal}
		assert.Error(t, cat.Validate())
	})

	t.Run("inverted bbox fails", func(t *testing.T) {
		cat, naip, _ := testCatalog()
		naip.Extent.Spatial.Bbox = [][]float64{{-122, 45, -123, 46}}
		assert.Error(t, cat.Validate())
	})

	t.Run("item without datetime fails", func(t *testing.T) {
		cat, naip, _ := testCatalog()
		it := testItem("5700_2017_wa_naip")
		it.Datetime = time.Time{}
		naip.AddItem(it)
		assert.Error(t, cat.Validate())
	})

	t.Run("source outside any collection fails", func(t *testing.T) {
		cat, naip, stands := testCatalog()
		naip.AddItem(testItem("5700_2017_wa_naip"))

		label := testItem("5700_2017_wa_dnr_stands")
		label.AddSource(testItem("5700_2017_wa_naip")) // never added to a collection
		stands.AddItem(label)
		assert.Error(t, cat.Validate())
	})
}

func TestSave(t *testing.T) {
	cat, naip, stands := testCatalog()
	image := testItem("5700_2017_wa_naip")
	naip.AddItem(image)

	label := testItem("5700_2017_wa_dnr_stands")
	label.ApplyLabel("DNR stands", "vector", []string{"species"}, "classification",
		&LabelClasses{Name: "species", Classes: []string{"DF", "WH"}})
	label.AddSource(image)
	stands.AddItem(label)

	dest := t.TempDir()
	require.NoError(t, cat.Save(dest))

	t.Run("catalog document links every collection", func(t *testing.T) {
		var doc CatalogDoc
		decode(t, filepath.Join(dest, "catalog.json"), &doc)
		assert.Equal(t, "Catalog", doc.Type)
		assert.Equal(t, Version, doc.StacVersion)

		var children []string
		for _, link := range doc.Links {
			if link.Rel == "child" {
				children = append(children, link.Href)
			}
		}
		assert.ElementsMatch(t, []string{
			"./naip/collection.json",
			"./dnr-2017-stands/collection.json",
		}, children)
	})

	t.Run("collection document is self contained", func(t *testing.T) {
		var doc CollectionDoc
		decode(t, filepath.Join(dest, "naip", "collection.json"), &doc)
		assert.Equal(t, "naip", doc.ID)
		assert.Len(t, doc.Extent.Spatial.Bbox, 1)

		hasItem := false
		for _, link := range doc.Links {
			if link.Rel == "item" && link.Href == "./5700_2017_wa_naip/5700_2017_wa_naip.json" {
				hasItem = true
			}
		}
		assert.True(t, hasItem)
	})

	t.Run("label item carries its source link", func(t *testing.T) {
		var doc ItemDoc
		decode(t, filepath.Join(dest, "dnr-2017-stands", "5700_2017_wa_dnr_stands", "5700_2017_wa_dnr_stands.json"), &doc)
		assert.Equal(t, "dnr-2017-stands", doc.Collection)
		assert.Equal(t, "2017-06-01T00:00:00Z", doc.Properties["datetime"])
		assert.Contains(t, doc.Extensions, ExtensionLabel)

		var sources []string
		for _, link := range doc.Links {
			if link.Rel == "source" {
				sources = append(sources, link.Href)
			}
		}
		assert.Equal(t, []string{"../../naip/5700_2017_wa_naip/5700_2017_wa_naip.json"}, sources)
	})
}

func decode(t *testing.T, path string, out interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}
