package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/Ecotrust/TreeForCaSt-s/internal/config"
	"github.com/Ecotrust/TreeForCaSt-s/internal/raster"
	"github.com/Ecotrust/TreeForCaSt-s/internal/stac"
)

// sidecarMetadata is the slice of the per-raster metadata JSON the catalog
// needs; the files carry the full Earth Engine collection dump.
type sidecarMetadata struct {
	Bands []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		CRS  string `json:"crs"`
	} `json:"bands"`
	Properties struct {
		TimeStart int64 `json:"system:time_start"`
		TimeEnd   int64 `json:"system:time_end"`
	} `json:"properties"`
}

func readSidecarMetadata(path string) (*sidecarMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata %s: %w", path, err)
	}
	meta := &sidecarMetadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}
	return meta, nil
}

func epsgFromCRS(crs string) int {
	if code, ok := strings.CutPrefix(crs, "EPSG:"); ok {
		if epsg, err := strconv.Atoi(code); err == nil {
			return epsg
		}
	}
	return 4326
}

// assetURL builds the public download href for a local asset file: base URL
// plus everything from the dataset/agency segment down to the filename.
func assetURL(baseURL, assetPath, name string) (string, error) {
	segments := strings.Split(assetPath, "/")
	for i, seg := range segments {
		if seg == name {
			return baseURL + "/" + path.Join(segments[i:]...), nil
		}
	}
	return "", fmt.Errorf("path %s does not contain segment %s", assetPath, name)
}

// newImageItem builds the STAC item for one -cog.tif imagery file: geometry
// from the raster bounds, datetime and bands from the metadata sidecar,
// image and thumbnail assets from the public URL template.
func (b *Builder) newImageItem(p AssetPath) (*stac.Item, error) {
	info, err := raster.Probe(p.Path)
	if err != nil {
		return nil, err
	}
	meta, err := readSidecarMetadata(raster.SidecarMetadata(p.Path))
	if err != nil {
		return nil, err
	}

	bound := orb.Bound{
		Min: orb.Point{info.Bound[0], info.Bound[1]},
		Max: orb.Point{info.Bound[2], info.Bound[3]},
	}
	item := stac.NewItem(
		p.Stem(),
		geojson.NewGeometry(bound.ToPolygon()),
		info.Bound[:],
		time.UnixMilli(meta.Properties.TimeStart).UTC(),
	)

	bands := make([]stac.Band, 0, len(meta.Bands))
	epsg := 4326
	for i, bd := range meta.Bands {
		bands = append(bands, stac.Band{Name: bd.ID, CommonName: bd.Name})
		if i == 0 && bd.CRS != "" {
			epsg = epsgFromCRS(bd.CRS)
		}
	}
	item.ApplyEO(bands)
	item.ApplyProjection(epsg)

	imageURL, err := assetURL(b.baseURL, p.Path, p.Name)
	if err != nil {
		return nil, err
	}
	item.AddAsset("image", &stac.Asset{Href: imageURL, Type: stac.MediaTypeCOG})
	item.AddAsset("thumbnail", &stac.Asset{
		Href: strings.Replace(imageURL, "-cog.tif", "-preview.png", 1),
		Type: stac.MediaTypePNG,
	})
	return item, nil
}

// newLabelItem builds the STAC item for one stand-map geojson: geometry is
// the multipolygon union of the file's features, datetime the agency's
// nominal label date.
func (b *Builder) newLabelItem(p AssetPath, agency config.Agency, date time.Time) (*stac.Item, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label file %s: %w", p.Path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse label file %s: %w", p.Path, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("label file %s has no features", p.Path)
	}

	var mp orb.MultiPolygon
	for _, feat := range fc.Features {
		switch geom := feat.Geometry.(type) {
		case orb.Polygon:
			mp = append(mp, geom)
		case orb.MultiPolygon:
			mp = append(mp, geom...)
		}
	}
	if len(mp) == 0 {
		return nil, fmt.Errorf("label file %s has no polygon features", p.Path)
	}
	bound := mp.Bound()

	item := stac.NewItem(
		p.Stem(),
		geojson.NewGeometry(mp),
		[]float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]},
		date,
	)

	var classes *stac.LabelClasses
	if agency.Label.Task == "classification" || agency.Label.Task == "segmentation" {
		classes = &stac.LabelClasses{Name: agency.Label.Name, Classes: agency.Label.Classes}
	}
	item.ApplyLabel(agency.Description, agency.Label.Type, agency.Label.Properties, agency.Label.Task, classes)

	labelsURL, err := assetURL(b.baseURL, p.Path, b.conf.LabelsSubdir)
	if err != nil {
		return nil, err
	}
	item.AddGeoJSONLabels(labelsURL)
	return item, nil
}
