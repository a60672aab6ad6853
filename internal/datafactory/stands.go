package datafactory

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/Ecotrust/TreeForCaSt-s/internal/grid"
)

// minCoverage is the share of a tile that must be covered by stands for the
// tile to get a label file. Sparse corners produce too few training pixels
// to be worth cataloging.
const minCoverage = 0.3

// ClipStands overlays one agency stand map onto the grid and writes a label
// GeoJSON per sufficiently covered tile, under
// {labelsSubdir}/{STATE}/{agency}/{year}/{cellid}_{year}_{state}_{agency}_stands.geojson.
func (f *Factory) ClipStands(srcPath, labelsSubdir, agency string, year int) error {
	if labelsSubdir == "" {
		labelsSubdir = "stands"
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read stand map %s: %w", srcPath, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("failed to parse stand map %s: %w", srcPath, err)
	}

	tiles := f.tiles(nil)
	return f.runTiles("clip "+filepath.Base(srcPath), tiles, func(tile *grid.Tile) error {
		return f.clipStandTile(fc, tile, labelsSubdir, agency, year)
	})
}

func (f *Factory) clipStandTile(fc *geojson.FeatureCollection, tile *grid.Tile, labelsSubdir, agency string, year int) error {
	out := geojson.NewFeatureCollection()
	var covered float64
	for _, feat := range fc.Features {
		if feat.Geometry == nil {
			continue
		}
		clipped := clip.Geometry(tile.Bound, feat.Geometry)
		if clipped == nil {
			continue
		}
		covered += geo.Area(clipped)

		cf := geojson.NewFeature(clipped)
		for k, v := range feat.Properties {
			cf.Properties[k] = v
		}
		cf.Properties["CELL_ID"] = tile.CellID
		cf.Properties["ST"] = tile.State
		out.Append(cf)
	}

	if len(out.Features) == 0 || covered < minCoverage*geo.Area(tile.Geometry) {
		return nil
	}

	outDir := filepath.Join(f.DataDir, labelsSubdir, tile.State, agency, strconv.Itoa(year))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}
	name := fmt.Sprintf("%d_%d_%s_%s_stands.geojson",
		tile.CellID, year, strings.ToLower(tile.State), agency)
	outPath := filepath.Join(outDir, name)
	if exists(outPath) && !f.Overwrite {
		return nil
	}

	encoded, err := out.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(outPath, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}
