package raster

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
	"github.com/fogleman/gg"
)

// SavePreview renders a downscaled PNG preview of a raster. factor is the
// downscale divisor (30 gives the catalog's nominal 30m-per-pixel previews
// for 1m imagery). Rasters with fewer than three bands render grayscale.
func SavePreview(srcPath, dstPath string, factor int, minVal, maxVal float64) error {
	Register()
	ds, err := godal.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open raster %s: %w", srcPath, err)
	}
	defer ds.Close()

	st := ds.Structure()
	w := st.SizeX / factor
	h := st.SizeY / factor
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("preview-%d-%s", os.Getpid(), filepath.Base(srcPath)))
	defer os.Remove(tmp)

	small, err := ds.Translate(tmp, []string{
		"-outsize", fmt.Sprint(w), fmt.Sprint(h),
		"-r", "average",
	}, godal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		return fmt.Errorf("failed to downsample %s: %w", srcPath, err)
	}
	defer small.Close()

	bands := small.Bands()
	if len(bands) == 0 {
		return fmt.Errorf("raster %s has no bands", srcPath)
	}
	nb := 3
	if len(bands) < 3 {
		nb = 1
	}
	data := make([][]float64, nb)
	for i := 0; i < nb; i++ {
		data[i] = make([]float64, w*h)
		if err := bands[i].Read(0, 0, data[i], w, h); err != nil {
			return fmt.Errorf("failed to read band %d of %s: %w", i+1, srcPath, err)
		}
	}

	scale := maxVal - minVal
	if scale <= 0 {
		scale = 1
	}
	norm := func(v float64) float64 {
		v = (v - minVal) / scale
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}

	dc := gg.NewContext(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if nb == 1 {
				g := norm(data[0][i])
				dc.SetRGB(g, g, g)
			} else {
				dc.SetRGB(norm(data[0][i]), norm(data[1][i]), norm(data[2][i]))
			}
			dc.SetPixel(x, y)
		}
	}
	if err := dc.SavePNG(dstPath); err != nil {
		return fmt.Errorf("failed to save preview %s: %w", dstPath, err)
	}
	return nil
}
