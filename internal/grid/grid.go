// Package grid loads the USGS quarter-quad tile grid and answers the spatial
// questions the pipeline asks of it: tile geometry by cell id, union bounding
// boxes over cell sets, and working CRS helpers for download requests.
package grid

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Tile is one grid cell in geographic coordinates (EPSG:4326).
type Tile struct {
	CellID   int
	State    string
	Geometry orb.Geometry
	Bound    orb.Bound
}

type Grid struct {
	tiles map[int]*Tile
	order []int
}

// Load reads a GeoJSON feature collection with CELL_ID and PRIMARY_STATE
// properties. State is reduced to its two-letter uppercase code, matching the
// naming convention of every asset file.
func Load(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid file %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse grid file %s: %w", path, err)
	}

	g := &Grid{tiles: map[int]*Tile{}}
	for _, feat := range fc.Features {
		cellID, ok := featureCellID(feat)
		if !ok {
			continue
		}
		state, _ := feat.Properties["PRIMARY_STATE"].(string)
		if len(state) > 2 {
			state = state[:2]
		}
		tile := &Tile{
			CellID:   cellID,
			State:    strings.ToUpper(state),
			Geometry: feat.Geometry,
			Bound:    feat.Geometry.Bound(),
		}
		if _, exists := g.tiles[cellID]; !exists {
			g.order = append(g.order, cellID)
		}
		g.tiles[cellID] = tile
	}
	if len(g.tiles) == 0 {
		return nil, fmt.Errorf("grid file %s contains no tiles with a CELL_ID property", path)
	}
	return g, nil
}

func featureCellID(feat *geojson.Feature) (int, bool) {
	switch v := feat.Properties["CELL_ID"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func (g *Grid) Tile(cellID int) (*Tile, bool) {
	t, ok := g.tiles[cellID]
	return t, ok
}

// Tiles returns all tiles in file order.
func (g *Grid) Tiles() []*Tile {
	out := make([]*Tile, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.tiles[id])
	}
	return out
}

// UnionBound is the bounding box over the tiles named by cellIDs. Unknown
// cell ids are skipped; ok is false when none of them are in the grid.
func (g *Grid) UnionBound(cellIDs []int) (orb.Bound, bool) {
	var union orb.Bound
	found := false
	for _, id := range cellIDs {
		tile, ok := g.tiles[id]
		if !ok {
			continue
		}
		if !found {
			union = tile.Bound
			found = true
		} else {
			union = union.Union(tile.Bound)
		}
	}
	return union, found
}

// SplitBound breaks a bounding box into dim x dim sub-boxes, row-major from
// the lower-left corner. Download requests use it to stay under the remote
// API's per-request pixel limit.
func SplitBound(b orb.Bound, dim int) []orb.Bound {
	dx := (b.Max[0] - b.Min[0]) / float64(dim)
	dy := (b.Max[1] - b.Min[1]) / float64(dim)
	boxes := make([]orb.Bound, 0, dim*dim)
	for row := 0; row < dim; row++ {
		for col := 0; col < dim; col++ {
			boxes = append(boxes, orb.Bound{
				Min: orb.Point{b.Min[0] + float64(col)*dx, b.Min[1] + float64(row)*dy},
				Max: orb.Point{b.Min[0] + float64(col+1)*dx, b.Min[1] + float64(row+1)*dy},
			})
		}
	}
	return boxes
}

// metersPerDegree at the equator; close enough for padding and preview math.
const metersPerDegree = 111319.9

func DegreesToMeters(deg float64) float64 {
	return deg * metersPerDegree
}

// InferUTM returns the EPSG code of the UTM zone containing the bound's
// midpoint. Only zones 10N-19N are meaningful for this dataset's coverage.
func InferUTM(b orb.Bound) int {
	mid := (b.Min[0] + b.Max[0]) / 2
	zone := int(math.Floor(mid+180)/6) + 1
	return 32600 + zone
}

// PaddedBound grows a tile bound by the given padding in meters, converted to
// degrees at the tile's latitude.
func PaddedBound(b orb.Bound, meters float64) orb.Bound {
	latRad := (b.Min[1] + b.Max[1]) / 2 * math.Pi / 180
	dLat := meters / metersPerDegree
	dLon := meters / (metersPerDegree * math.Cos(latRad))
	return orb.Bound{
		Min: orb.Point{b.Min[0] - dLon, b.Min[1] - dLat},
		Max: orb.Point{b.Max[0] + dLon, b.Max[1] + dLat},
	}
}
