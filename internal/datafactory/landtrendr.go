package datafactory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Ecotrust/TreeForCaSt-s/internal/gee"
	"github.com/Ecotrust/TreeForCaSt-s/internal/grid"
	"github.com/Ecotrust/TreeForCaSt-s/internal/raster"
)

// The LandTrendr segmentation itself runs as a scheduled Earth Engine task;
// this downloader pulls the published per-year product, eight bands of
// disturbance statistics over SWIR1 and NBR.
const (
	landtrendrCollection = "projects/ee-ecotrust/assets/LandTrendr_8B_SWIR1-NBR"
	landtrendrScale      = 30.0
)

var landtrendrBands = []string{
	"ysd_swir1", "mag_swir1", "dur_swir1", "rate_swir1",
	"ysd_nbr", "mag_nbr", "dur_nbr", "rate_nbr",
}

var landtrendrPalette = []string{
	"#9400D3", "#4B0082", "#0000FF", "#00FF00", "#FFFF00", "#FF7F00", "#FF0000",
}

// DownloadLandTrendr fetches the LandTrendr disturbance product for the
// given year over every requested tile.
func (f *Factory) DownloadLandTrendr(ctx context.Context, year int, cellIDs []int) error {
	outDir := filepath.Join(f.DataDir, "landtrendr", strconv.Itoa(year))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	tiles := f.tiles(cellIDs)
	return f.runTiles(fmt.Sprintf("landtrendr %d", year), tiles, func(tile *grid.Tile) error {
		return f.downloadLandTrendrTile(ctx, tile, year, outDir)
	})
}

func (f *Factory) downloadLandTrendrTile(ctx context.Context, tile *grid.Tile, year int, outDir string) error {
	name := fmt.Sprintf("%d_%d_%s_LandTrendr_8B_SWIR1-NBR",
		tile.CellID, year, strings.ToLower(tile.State))
	cogPath := filepath.Join(outDir, name+"-cog.tif")
	if exists(cogPath) && !f.Overwrite {
		return nil
	}

	req := gee.ImageRequest{
		Collection: landtrendrCollection,
		Start:      time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
		Bbox:       bound4(tile.Bound),
		Scale:      landtrendrScale,
		Bands:      landtrendrBands,
	}

	data, err := f.GEE.FetchImage(ctx, req)
	if err != nil {
		return fmt.Errorf("tile %s: %w", name, err)
	}

	tmpDir, err := os.MkdirTemp("", "ltr-"+strconv.Itoa(tile.CellID))
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpTif := filepath.Join(tmpDir, name+".tif")
	if err := os.WriteFile(tmpTif, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpTif, err)
	}
	if err := raster.Mosaic([]string{tmpTif}, filepath.Join(tmpDir, name+"-tiled.tif")); err != nil {
		return err
	}
	if err := raster.ToCOG(filepath.Join(tmpDir, name+"-tiled.tif"), cogPath); err != nil {
		return err
	}

	tr, err := f.compositeTimeRange(ctx, req)
	if err != nil {
		return fmt.Errorf("time range of %s: %w", name, err)
	}
	meta := gee.NewMetadata(gee.EPSG4326Bands(landtrendrBands...))
	meta.SetTimeRange(tr.Start, tr.End)
	meta.SetParam("scale", landtrendrScale)
	meta.SetParam("crs", "EPSG:4326")
	meta.SetParam("region", req.Bbox)
	meta.SetVizParam("min", 200)
	meta.SetVizParam("max", 800)
	meta.SetVizParam("bands", []string{"ysd_swir1"})
	meta.SetVizParam("palette", landtrendrPalette)
	if err := meta.Save(raster.SidecarMetadata(cogPath)); err != nil {
		return err
	}

	return raster.SavePreview(cogPath, raster.SidecarPreview(cogPath), 1, 200, 800)
}
