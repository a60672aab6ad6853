package datafactory

import (
	"fmt"
	"os"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/gocarina/gocsv"
	"github.com/schollz/progressbar/v3"

	"github.com/Ecotrust/TreeForCaSt-s/internal/catalog"
	"github.com/Ecotrust/TreeForCaSt-s/internal/raster"
)

// ValidationRecord is one problem found in the downloaded dataset.
type ValidationRecord struct {
	Path    string `csv:"path"`
	Problem string `csv:"problem"`
}

// ValidateDataset checks every -cog.tif under dataDir for all-zero pixels
// and missing sidecars, and writes the problems to a CSV report. A clean
// dataset produces an empty report and no error.
func (f *Factory) ValidateDataset(reportPath string) error {
	paths, err := catalog.Discover(f.DataDir, "-cog.tif")
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var records []*ValidationRecord
	add := func(path, problem string) {
		mu.Lock()
		records = append(records, &ValidationRecord{Path: path, Problem: problem})
		mu.Unlock()
	}

	bar := progressbar.Default(int64(len(paths)), "validating")
	wp := workerpool.New(f.Workers)
	for _, p := range paths {
		p := p
		wp.Submit(func() {
			defer bar.Add(1)
			empty, err := raster.Empty(p)
			if err != nil {
				add(p, fmt.Sprintf("unreadable: %v", err))
				return
			}
			if empty {
				add(p, "all pixels are zero")
			}
			if !exists(raster.SidecarMetadata(p)) {
				add(p, "missing metadata sidecar")
			}
			if !exists(raster.SidecarPreview(p)) {
				add(p, "missing preview sidecar")
			}
		})
	}
	wp.StopWait()

	out, err := os.Create(reportPath)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", reportPath, err)
	}
	defer out.Close()

	if err := gocsv.MarshalFile(&records, out); err != nil {
		return fmt.Errorf("failed to write report %s: %w", reportPath, err)
	}

	fmt.Printf("Checked %d rasters, found %d problems\n", len(paths), len(records))
	return nil
}
