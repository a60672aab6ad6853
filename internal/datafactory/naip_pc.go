package datafactory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Ecotrust/TreeForCaSt-s/internal/gee"
	"github.com/Ecotrust/TreeForCaSt-s/internal/grid"
	"github.com/Ecotrust/TreeForCaSt-s/internal/properties"
	"github.com/Ecotrust/TreeForCaSt-s/internal/raster"
)

// Planetary Computer is the fallback NAIP source for years Earth Engine does
// not carry.
const (
	pcSearchURL = "https://planetarycomputer.microsoft.com/api/stac/v1/search"
	pcSignURL   = "https://planetarycomputer.microsoft.com/api/sas/v1/sign"
)

type pcItem struct {
	ID         string    `json:"id"`
	Bbox       []float64 `json:"bbox"`
	Properties struct {
		Datetime time.Time `json:"datetime"`
	} `json:"properties"`
	Assets map[string]struct {
		Href string `json:"href"`
	} `json:"assets"`
}

// DownloadNAIPFromPC fetches NAIP quads from the Planetary Computer STAC API
// for every requested tile, warps them onto the grid and writes the same
// cog/preview/metadata triple the Earth Engine downloader produces.
func (f *Factory) DownloadNAIPFromPC(ctx context.Context, year int, cellIDs []int) error {
	outDir := filepath.Join(f.DataDir, "naip", strconv.Itoa(year))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	tiles := f.tiles(cellIDs)
	return f.runTiles(fmt.Sprintf("naip-pc %d", year), tiles, func(tile *grid.Tile) error {
		return f.downloadPCTile(ctx, tile, year, outDir)
	})
}

func (f *Factory) downloadPCTile(ctx context.Context, tile *grid.Tile, year int, outDir string) error {
	name := fmt.Sprintf("%d_%d_%s_naip", tile.CellID, year, strings.ToLower(tile.State))
	cogPath := filepath.Join(outDir, name+"-cog.tif")
	if exists(cogPath) && !f.Overwrite {
		return nil
	}

	bbox := bound4(tile.Bound)
	item, err := searchPC(ctx, bbox, year)
	if err != nil {
		return fmt.Errorf("tile %s: %w", name, err)
	}

	image, ok := item.Assets["image"]
	if !ok {
		return fmt.Errorf("tile %s: item %s has no image asset", name, item.ID)
	}
	signed, err := signPC(ctx, image.Href)
	if err != nil {
		return fmt.Errorf("tile %s: %w", name, err)
	}

	tmpDir, err := os.MkdirTemp("", "naip-pc-"+strconv.Itoa(tile.CellID))
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	rawTif := filepath.Join(tmpDir, "raw.tif")
	if err := download(ctx, signed, rawTif); err != nil {
		return fmt.Errorf("tile %s: %w", name, err)
	}

	warped := filepath.Join(tmpDir, name+".tif")
	if err := raster.WarpToBound(rawTif, warped, bbox); err != nil {
		return err
	}
	if err := raster.ToCOG(warped, cogPath); err != nil {
		return err
	}

	// NAIP quads on the Planetary Computer always carry R, G, B, N.
	meta := gee.NewMetadata(gee.EPSG4326Bands("R", "G", "B", "N"))
	ts := item.Properties.Datetime.UnixMilli()
	meta.SetTimeRange(ts, ts)
	meta.SetParam("scale", naipScale)
	meta.SetParam("crs", "EPSG:4326")
	meta.SetParam("region", bbox)
	meta.SetParam("source_item", item.ID)
	meta.SetVizParam("min", 0)
	meta.SetVizParam("max", 255)
	meta.SetVizParam("bands", []string{"R", "G", "B"})
	if err := meta.Save(raster.SidecarMetadata(cogPath)); err != nil {
		return err
	}

	return raster.SavePreview(cogPath, raster.SidecarPreview(cogPath), 30, 0, 255)
}

// searchPC returns the NAIP item with the largest overlap over bbox for the
// given year.
func searchPC(ctx context.Context, bbox [4]float64, year int) (*pcItem, error) {
	payload := map[string]interface{}{
		"collections": []string{"naip"},
		"bbox":        bbox[:],
		"datetime":    fmt.Sprintf("%d-01-01/%d-12-31", year, year),
		"limit":       100,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pcSearchURL, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, content)
	}

	var fc struct {
		Features []*pcItem `json:"features"`
	}
	if err := json.Unmarshal(content, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("no naip items for %d", year)
	}

	best := fc.Features[0]
	bestArea := overlapArea(bbox, best.Bbox)
	for _, item := range fc.Features[1:] {
		if a := overlapArea(bbox, item.Bbox); a > bestArea {
			best, bestArea = item, a
		}
	}
	return best, nil
}

func overlapArea(a [4]float64, b []float64) float64 {
	if len(b) < 4 {
		return 0
	}
	w := min(a[2], b[2]) - max(a[0], b[0])
	h := min(a[3], b[3]) - max(a[1], b[1])
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// signPC exchanges an asset href for a SAS-signed URL. Anonymous signing
// works but is heavily throttled; the subscription key lifts the limit.
func signPC(ctx context.Context, href string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		pcSignURL+"?href="+url.QueryEscape(href), nil)
	if err != nil {
		return "", err
	}
	if key := properties.PlanetaryComputerKey(); key != "" {
		req.Header.Set("Ocp-Apim-Subscription-Key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign request failed: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign returned status %d: %s", resp.StatusCode, content)
	}

	var out struct {
		Href string `json:"href"`
	}
	if err := json.Unmarshal(content, &out); err != nil {
		return "", fmt.Errorf("failed to parse sign response: %w", err)
	}
	return out.Href, nil
}

func download(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
