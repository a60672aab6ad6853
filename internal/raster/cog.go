package raster

import (
	"fmt"
	"os"
	"strings"

	"github.com/airbusgeo/cogger"
	"github.com/airbusgeo/godal"
	_ "github.com/google/tiff/bigtiff"
)

// SidecarPreview returns the path of the preview PNG expected alongside a
// -cog.tif raster.
func SidecarPreview(cogPath string) string {
	return strings.Replace(cogPath, "-cog.tif", "-preview.png", 1)
}

// SidecarMetadata returns the path of the metadata JSON expected alongside a
// -cog.tif raster.
func SidecarMetadata(cogPath string) string {
	return strings.Replace(cogPath, "-cog.tif", "-metadata.json", 1)
}

// Mosaic assembles the given rasters into a single tiled GeoTIFF. Sources
// must share CRS and resolution; this holds for quad downloads of one tile.
func Mosaic(sources []string, outPath string) error {
	Register()
	vrt, err := godal.BuildVRT("", sources, nil)
	if err != nil {
		return fmt.Errorf("failed to build VRT over %d sources: %w", len(sources), err)
	}
	defer vrt.Close()

	out, err := vrt.Translate(outPath, nil, godal.CreationOption(
		"TILED=YES", "BLOCKXSIZE=256", "BLOCKYSIZE=256", "COMPRESS=LZW",
	))
	if err != nil {
		return fmt.Errorf("failed to translate mosaic to %s: %w", outPath, err)
	}
	return out.Close()
}

// WarpToBound reprojects a raster to EPSG:4326 clipped to the given bound.
// Planetary Computer quads arrive in their native UTM zone and need this
// before they line up with the grid.
func WarpToBound(srcPath, dstPath string, bound [4]float64) error {
	Register()
	ds, err := godal.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open raster %s: %w", srcPath, err)
	}
	defer ds.Close()

	out, err := ds.Warp(dstPath, []string{
		"-t_srs", "EPSG:4326",
		"-te", fmt.Sprint(bound[0]), fmt.Sprint(bound[1]), fmt.Sprint(bound[2]), fmt.Sprint(bound[3]),
		"-r", "bilinear",
	}, godal.CreationOption("TILED=YES", "COMPRESS=LZW"))
	if err != nil {
		return fmt.Errorf("failed to warp %s: %w", srcPath, err)
	}
	return out.Close()
}

// ToCOG rewrites a tiled GeoTIFF into cloud-optimized layout.
func ToCOG(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dstPath, err)
	}
	defer dst.Close()

	if err := cogger.Rewrite(dst, src); err != nil {
		return fmt.Errorf("failed to rewrite %s as COG: %w", srcPath, err)
	}
	return nil
}
