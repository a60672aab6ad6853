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

const (
	gflCollection = "projects/KalmanGFwork/GFLandsat_V1"
	gflScale      = 30.0

	SeasonLeafOn  = "leafon"
	SeasonLeafOff = "leafoff"
)

var gflBands = []string{
	"B1_mean_post", "B2_mean_post", "B3_mean_post",
	"B4_mean_post", "B5_mean_post", "B7_mean_post",
}

// gflSeasonRange maps a season to its composite window. Leaf-off winters
// straddle the year boundary and start in the previous October.
func gflSeasonRange(year int, season string) (time.Time, time.Time, error) {
	switch season {
	case SeasonLeafOn:
		return time.Date(year, 4, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year, 9, 30, 0, 0, 0, 0, time.UTC), nil
	case SeasonLeafOff:
		return time.Date(year-1, 10, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year, 3, 31, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("invalid season %q", season)
	}
}

// DownloadGFLandsat fetches the gap-filled Landsat seasonal composite for
// every requested tile.
func (f *Factory) DownloadGFLandsat(ctx context.Context, year int, season string, cellIDs []int) error {
	start, end, err := gflSeasonRange(year, season)
	if err != nil {
		return err
	}

	outDir := filepath.Join(f.DataDir, "gflandsat", strconv.Itoa(year))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	tiles := f.tiles(cellIDs)
	label := fmt.Sprintf("gflandsat %d %s", year, season)
	return f.runTiles(label, tiles, func(tile *grid.Tile) error {
		return f.downloadGFLTile(ctx, tile, year, season, start, end, outDir)
	})
}

func (f *Factory) downloadGFLTile(ctx context.Context, tile *grid.Tile, year int, season string, start, end time.Time, outDir string) error {
	name := fmt.Sprintf("%d_%d_%s_Gap_Filled_Landsat_%s",
		tile.CellID, year, strings.ToLower(tile.State), season)
	cogPath := filepath.Join(outDir, name+"-cog.tif")
	if exists(cogPath) && !f.Overwrite {
		return nil
	}

	req := gee.ImageRequest{
		Collection: gflCollection,
		Start:      start,
		End:        end,
		Bbox:       bound4(tile.Bound),
		Scale:      gflScale,
		Bands:      gflBands,
	}

	data, err := f.GEE.FetchImage(ctx, req)
	if err != nil {
		return fmt.Errorf("tile %s: %w", name, err)
	}

	tmpDir, err := os.MkdirTemp("", "gfl-"+name)
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

	// The composite window is the time coverage; the source collection does
	// not carry usable per-image acquisition spans.
	meta := gee.NewMetadata(gee.EPSG4326Bands(gflBands...))
	meta.SetTimeRange(start.UnixMilli(), end.UnixMilli())
	meta.SetParam("scale", gflScale)
	meta.SetParam("crs", "EPSG:4326")
	meta.SetParam("region", req.Bbox)
	meta.SetVizParam("min", 0)
	meta.SetVizParam("max", 2000)
	meta.SetVizParam("bands", []string{"B3_mean_post", "B2_mean_post", "B1_mean_post"})
	if err := meta.Save(raster.SidecarMetadata(cogPath)); err != nil {
		return err
	}

	return raster.SavePreview(cogPath, raster.SidecarPreview(cogPath), 1, 0, 2000)
}
