// Package raster wraps the GDAL (godal) and COG plumbing the pipeline needs:
// probing image bounds, mosaicking and warping downloads, rewriting them into
// cloud-optimized layout and rendering preview PNGs.
package raster

import (
	"fmt"
	"sync"

	"github.com/airbusgeo/godal"
)

var registerOnce sync.Once

// Register loads the GDAL drivers. Safe to call from any entry point; the
// first caller wins.
func Register() {
	registerOnce.Do(godal.RegisterAll)
}

// Info describes one raster file in its own CRS.
type Info struct {
	Bound  [4]float64 // minx, miny, maxx, maxy
	Width  int
	Height int
	Bands  int
}

// Probe opens a raster and reads its size and bounds from the geotransform.
func Probe(path string) (*Info, error) {
	Register()
	ds, err := godal.Open(path, godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return fmt.Errorf("gdal: %s", msg)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer ds.Close()

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to read geotransform of %s: %w", path, err)
	}
	st := ds.Structure()

	x0 := gt[0]
	y0 := gt[3]
	x1 := gt[0] + gt[1]*float64(st.SizeX)
	y1 := gt[3] + gt[5]*float64(st.SizeY)
	info := &Info{
		Bound:  [4]float64{min(x0, x1), min(y0, y1), max(x0, x1), max(y0, y1)},
		Width:  st.SizeX,
		Height: st.SizeY,
		Bands:  st.NBands,
	}
	return info, nil
}

// Empty reports whether every pixel of the first band is zero. Used by the
// dataset validator to flag failed downloads.
func Empty(path string) (bool, error) {
	Register()
	ds, err := godal.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer ds.Close()

	st := ds.Structure()
	bands := ds.Bands()
	if len(bands) == 0 {
		return true, nil
	}
	data := make([]float64, st.SizeX*st.SizeY)
	if err := bands[0].Read(0, 0, data, st.SizeX, st.SizeY); err != nil {
		return false, fmt.Errorf("failed to read raster %s: %w", path, err)
	}
	for _, v := range data {
		if v != 0 {
			return false, nil
		}
	}
	return true, nil
}
