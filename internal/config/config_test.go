package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `catalog_id: fbstac
catalog_title: Forest Stands
catalog_description: Forest stand imagery and labels
grid: data/usgs_grid.geojson
data_dir: data/processed
asset_base_url: https://fbstac.s3.amazonaws.com
datasets:
  naip:
    description: NAIP aerial imagery
    license:
      type: proprietary
      url: https://www.fsa.usda.gov/help/policies-and-links
    providers:
      - name: USDA
        roles: [producer, licensor]
agencies:
  dnr:
    description: Washington DNR stand maps
    license:
      type: CC-BY-4.0
    provider:
      name: WA DNR
    label:
      date: "2017-07-01"
      task: classification
      type: vector
      name: species
      classes: [DF, WH, RA]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "fbstac", conf.CatalogID)
	assert.Equal(t, 8, conf.Workers)
	assert.Equal(t, "stands", conf.LabelsSubdir)

	naip, ok := conf.Datasets["naip"]
	require.True(t, ok)
	assert.Equal(t, "proprietary", naip.License.Type)
	require.Len(t, naip.Providers, 1)
	assert.Equal(t, []string{"producer", "licensor"}, naip.Providers[0].Roles)

	dnr, ok := conf.Agencies["dnr"]
	require.True(t, ok)
	assert.Equal(t, "classification", dnr.Label.Task)
	assert.Equal(t, []string{"DF", "WH", "RA"}, dnr.Label.Classes)
}

func TestLoadMissingCatalogID(t *testing.T) {
	_, err := Load(writeConfig(t, "catalog_title: no id\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLabelDate(t *testing.T) {
	agency := Agency{Label: Label{Date: "2017-07-01"}}
	d := agency.LabelDate(2019)
	assert.Equal(t, 2017, d.Year())
	assert.Equal(t, 7, int(d.Month()))

	// Empty and malformed dates fall back to Jan 1 of the label year.
	assert.Equal(t, 2019, Agency{}.LabelDate(2019).Year())
	assert.Equal(t, 2019, Agency{Label: Label{Date: "July 2017"}}.LabelDate(2019).Year())
}
