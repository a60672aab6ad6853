package datafactory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGFLSeasonRange(t *testing.T) {
	start, end, err := gflSeasonRange(2019, SeasonLeafOn)
	require.NoError(t, err)
	assert.Equal(t, "2019-04-01", start.Format("2006-01-02"))
	assert.Equal(t, "2019-09-30", end.Format("2006-01-02"))

	// Leaf-off winters start in the previous calendar year.
	start, end, err = gflSeasonRange(2019, SeasonLeafOff)
	require.NoError(t, err)
	assert.Equal(t, "2018-10-01", start.Format("2006-01-02"))
	assert.Equal(t, "2019-03-31", end.Format("2006-01-02"))

	_, _, err = gflSeasonRange(2019, "spring")
	assert.Error(t, err)
}

func TestOverlapArea(t *testing.T) {
	tile := [4]float64{0, 0, 2, 2}

	assert.Equal(t, 4.0, overlapArea(tile, []float64{0, 0, 2, 2}))
	assert.Equal(t, 1.0, overlapArea(tile, []float64{1, 1, 3, 3}))
	assert.Equal(t, 0.0, overlapArea(tile, []float64{3, 3, 4, 4}))
	assert.Equal(t, 0.0, overlapArea(tile, nil))
}

func TestLabeledCells(t *testing.T) {
	dir := t.TempDir()
	labels := filepath.Join(dir, "stands")
	for _, p := range []string{
		"WA/dnr/2017/5700_2017_wa_dnr_stands.geojson",
		"WA/dnr/2017/5812_2017_wa_dnr_stands.geojson",
		"OR/odf/2019/4411_2019_or_odf_stands.geojson",
		"OR/odf/2019/5700_2019_or_odf_stands.geojson",
	} {
		full := filepath.Join(labels, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))
	}

	cells, years, err := LabeledCells(labels)
	require.NoError(t, err)
	assert.Equal(t, []int{4411, 5700, 5812}, cells)
	assert.Equal(t, []int{2017, 2019}, years)
}
