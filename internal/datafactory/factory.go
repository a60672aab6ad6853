// Package datafactory produces the per-tile source data the catalog is built
// from: imagery downloads from Earth Engine and the Planetary Computer,
// stand-polygon clipping, asset staging and dataset validation.
package datafactory

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/paulmach/orb"
	"github.com/schollz/progressbar/v3"

	"github.com/Ecotrust/TreeForCaSt-s/internal/cache"
	"github.com/Ecotrust/TreeForCaSt-s/internal/catalog"
	"github.com/Ecotrust/TreeForCaSt-s/internal/gee"
	"github.com/Ecotrust/TreeForCaSt-s/internal/grid"
	"github.com/Ecotrust/TreeForCaSt-s/internal/utils"
)

type Factory struct {
	GEE       *gee.Client
	Grid      *grid.Grid
	DataDir   string
	Workers   int
	Overwrite bool

	timeCache *cache.FileCache[timeRange]
}

func NewFactory(geeClient *gee.Client, g *grid.Grid, dataDir string, workers int) *Factory {
	return &Factory{
		GEE:       geeClient,
		Grid:      g,
		DataDir:   dataDir,
		Workers:   workers,
		timeCache: cache.NewFileCache[timeRange]("gee-time-ranges"),
	}
}

// tiles resolves the requested cell ids against the grid, or returns every
// tile when none are given.
func (f *Factory) tiles(cellIDs []int) []*grid.Tile {
	if len(cellIDs) == 0 {
		return f.Grid.Tiles()
	}
	out := make([]*grid.Tile, 0, len(cellIDs))
	for _, id := range cellIDs {
		if tile, ok := f.Grid.Tile(id); ok {
			out = append(out, tile)
		}
	}
	return out
}

// runTiles executes one download task per tile on the worker pool, with a
// progress bar. Failed tiles are reported and counted, not fatal; reruns
// pick up whatever is missing.
func (f *Factory) runTiles(label string, tiles []*grid.Tile, task func(*grid.Tile) error) error {
	bar := progressbar.Default(int64(len(tiles)), label)
	wp := workerpool.New(f.Workers)
	errChan := make(chan error, len(tiles))
	for _, tile := range tiles {
		tile := tile
		wp.Submit(func() {
			defer bar.Add(1)
			if err := task(tile); err != nil {
				errChan <- err
			}
		})
	}
	wp.StopWait()
	close(errChan)

	failed := 0
	for err := range errChan {
		fmt.Println(err)
		failed++
	}
	if failed > 0 {
		return fmt.Errorf("%s: %d of %d tiles failed", label, failed, len(tiles))
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func bound4(b orb.Bound) [4]float64 {
	return [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}

type timeRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// compositeTimeRange resolves the actual image timestamps behind a composite
// request, through the file cache to keep reruns off the Earth Engine quota.
func (f *Factory) compositeTimeRange(ctx context.Context, req gee.ImageRequest) (timeRange, error) {
	key := f.timeCache.GenerateKey(
		req.Collection,
		req.Start.Format(time.DateOnly),
		req.End.Format(time.DateOnly),
		req.Bbox,
	)
	if tr, ok := f.timeCache.Get(key); ok {
		return tr, nil
	}

	start, end, err := f.GEE.FetchTimeRange(ctx, req)
	if err != nil {
		return timeRange{}, err
	}
	tr := timeRange{Start: start, End: end}
	if err := f.timeCache.Set(key, tr); err != nil {
		fmt.Println("failed to cache time range:", err)
	}
	return tr, nil
}

// LabeledCells scans the labels directory and returns the distinct cell ids
// and years found in it, both ascending. Downloads are usually restricted to
// cells that actually have stand labels.
func LabeledCells(labelsDir string) ([]int, []int, error) {
	paths, err := catalog.Discover(labelsDir, ".geojson")
	if err != nil {
		return nil, nil, err
	}

	cellSet := map[int]bool{}
	yearSet := map[int]bool{}
	idx := catalog.SegmentIndex(labelsDir) + 1
	for _, p := range paths {
		ap, err := catalog.Classify(p, idx)
		if err != nil {
			return nil, nil, err
		}
		cellSet[ap.CellID] = true
		if ap.Annual {
			yearSet[ap.Year] = true
		}
	}
	return utils.SortedKeys(cellSet), utils.SortedKeys(yearSet), nil
}
