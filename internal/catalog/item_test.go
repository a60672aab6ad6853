package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetURL(t *testing.T) {
	base := "https://fbstac.s3.amazonaws.com"

	url, err := assetURL(base, "data/processed/naip/2017/5700_2017_wa_naip-cog.tif", "naip")
	require.NoError(t, err)
	assert.Equal(t, base+"/naip/2017/5700_2017_wa_naip-cog.tif", url)

	url, err = assetURL(base, "data/processed/stands/WA/dnr/2017/5700_2017_wa_dnr_stands.geojson", "stands")
	require.NoError(t, err)
	assert.Equal(t, base+"/stands/WA/dnr/2017/5700_2017_wa_dnr_stands.geojson", url)

	_, err = assetURL(base, "data/processed/naip/file.tif", "gflandsat")
	assert.Error(t, err)
}

func TestEpsgFromCRS(t *testing.T) {
	assert.Equal(t, 4326, epsgFromCRS("EPSG:4326"))
	assert.Equal(t, 32610, epsgFromCRS("EPSG:32610"))

	// Anything unparseable falls back to the pipeline's working CRS.
	assert.Equal(t, 4326, epsgFromCRS(""))
	assert.Equal(t, 4326, epsgFromCRS("urn:ogc:def:crs:OGC:1.3:CRS84"))
}

func TestReadSidecarMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "5700_2017_wa_naip-metadata.json")
	doc := `{
	  "type": "Image",
	  "id": "image",
	  "bands": [
	    {"id": "R", "crs": "EPSG:4326"},
	    {"id": "G", "crs": "EPSG:4326"},
	    {"id": "B", "crs": "EPSG:4326"},
	    {"id": "N", "crs": "EPSG:4326"}
	  ],
	  "properties": {"system:time_start": 1498867200000, "system:time_end": 1501545600000}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	meta, err := readSidecarMetadata(path)
	require.NoError(t, err)
	require.Len(t, meta.Bands, 4)
	assert.Equal(t, "R", meta.Bands[0].ID)
	assert.Equal(t, "EPSG:4326", meta.Bands[0].CRS)
	assert.Equal(t, int64(1498867200000), meta.Properties.TimeStart)

	_, err = readSidecarMetadata(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
