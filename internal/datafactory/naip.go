package datafactory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ecotrust/TreeForCaSt-s/internal/gee"
	"github.com/Ecotrust/TreeForCaSt-s/internal/grid"
	"github.com/Ecotrust/TreeForCaSt-s/internal/raster"
)

const (
	naipCollection = "USDA/NAIP/DOQQ"
	naipScale      = 1.0

	// quadDim splits each tile request into quadDim^2 sub-requests to stay
	// under the Earth Engine per-request pixel limit at 1m resolution.
	quadDim = 2
)

var naipBands = []string{"R", "G", "B", "N"}

// DownloadNAIP fetches the NAIP median composite of the given year for every
// requested tile and writes {cellid}_{year}_{state}_naip-cog.tif plus preview
// and metadata sidecars under DataDir/naip/{year}.
func (f *Factory) DownloadNAIP(ctx context.Context, year int, cellIDs []int) error {
	outDir := filepath.Join(f.DataDir, "naip", strconv.Itoa(year))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	tiles := f.tiles(cellIDs)
	return f.runTiles(fmt.Sprintf("naip %d", year), tiles, func(tile *grid.Tile) error {
		return f.downloadNAIPTile(ctx, tile, year, outDir)
	})
}

func (f *Factory) downloadNAIPTile(ctx context.Context, tile *grid.Tile, year int, outDir string) error {
	name := fmt.Sprintf("%d_%d_%s_naip", tile.CellID, year, strings.ToLower(tile.State))
	cogPath := filepath.Join(outDir, name+"-cog.tif")
	if exists(cogPath) && !f.Overwrite {
		return nil
	}

	req := gee.ImageRequest{
		Collection: naipCollection,
		Start:      time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
		Bbox:       bound4(tile.Bound),
		Scale:      naipScale,
		Bands:      naipBands,
	}

	tmpDir, err := os.MkdirTemp("", "naip-"+name)
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	quads := grid.SplitBound(tile.Bound, quadDim)
	parts := make([]string, len(quads))
	g, gctx := errgroup.WithContext(ctx)
	for i, quad := range quads {
		i, quad := i, quad
		g.Go(func() error {
			quadReq := req
			quadReq.Bbox = bound4(quad)
			data, err := f.GEE.FetchImage(gctx, quadReq)
			if err != nil {
				return fmt.Errorf("quad %d of %s: %w", i, name, err)
			}
			parts[i] = filepath.Join(tmpDir, fmt.Sprintf("quad-%d.tif", i))
			if err := os.WriteFile(parts[i], data, 0644); err != nil {
				return fmt.Errorf("failed to write quad %d of %s: %w", i, name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tmpTif := filepath.Join(tmpDir, name+".tif")
	if err := raster.Mosaic(parts, tmpTif); err != nil {
		return err
	}
	if err := raster.ToCOG(tmpTif, cogPath); err != nil {
		return err
	}

	tr, err := f.compositeTimeRange(ctx, req)
	if err != nil {
		return fmt.Errorf("time range of %s: %w", name, err)
	}
	meta := gee.NewMetadata(gee.EPSG4326Bands(naipBands...))
	meta.SetTimeRange(tr.Start, tr.End)
	meta.SetParam("scale", naipScale)
	meta.SetParam("crs", "EPSG:4326")
	meta.SetParam("region", req.Bbox)
	meta.SetVizParam("min", 0)
	meta.SetVizParam("max", 255)
	meta.SetVizParam("bands", []string{"R", "G", "B"})
	if err := meta.Save(raster.SidecarMetadata(cogPath)); err != nil {
		return err
	}

	return raster.SavePreview(cogPath, raster.SidecarPreview(cogPath), 30, 0, 255)
}
