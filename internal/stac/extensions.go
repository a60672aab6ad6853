package stac

const (
	ExtensionEO         = "https://stac-extensions.github.io/eo/v1.1.0/schema.json"
	ExtensionProjection = "https://stac-extensions.github.io/projection/v1.1.0/schema.json"
	ExtensionLabel      = "https://stac-extensions.github.io/label/v1.0.1/schema.json"
)

type Band struct {
	Name       string `json:"name"`
	CommonName string `json:"common_name,omitempty"`
}

func (it *Item) addExtension(uri string) {
	for _, e := range it.Extensions {
		if e == uri {
			return
		}
	}
	it.Extensions = append(it.Extensions, uri)
}

func (it *Item) ApplyEO(bands []Band) {
	it.addExtension(ExtensionEO)
	it.Properties["eo:bands"] = bands
}

func (it *Item) ApplyProjection(epsg int) {
	it.addExtension(ExtensionProjection)
	it.Properties["proj:epsg"] = epsg
}

// LabelClasses mirrors the label extension's classes object.
type LabelClasses struct {
	Name    string   `json:"name"`
	Classes []string `json:"classes"`
}

// ApplyLabel marks the item as a label item. Classes may be nil for tasks
// that are not classification or segmentation.
func (it *Item) ApplyLabel(description, labelType string, properties []string, task string, classes *LabelClasses) {
	it.addExtension(ExtensionLabel)
	it.Properties["label:description"] = description
	it.Properties["label:type"] = labelType
	it.Properties["label:properties"] = properties
	it.Properties["label:tasks"] = []string{task}
	if classes != nil {
		it.Properties["label:classes"] = []LabelClasses{*classes}
	}
}

// AddGeoJSONLabels attaches the vector label file itself as an asset, the way
// the label extension expects it.
func (it *Item) AddGeoJSONLabels(href string) {
	it.AddAsset("labels", &Asset{Href: href, Type: MediaTypeGeoJSON, Roles: []string{"labels"}})
}
