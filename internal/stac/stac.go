// Package stac carries the minimal SpatioTemporal Asset Catalog object model
// the stand catalog needs: a root catalog, collections, items with assets, and
// self-contained JSON persistence. It is not a general STAC library.
package stac

import (
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
)

const Version = "1.0.0"

const (
	MediaTypeCOG     = "image/tiff; application=geotiff; profile=cloud-optimized"
	MediaTypePNG     = "image/png"
	MediaTypeGeoJSON = "application/geo+json"
	MediaTypeJSON    = "application/json"
	MediaTypeHTML    = "text/html"
)

type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

type Asset struct {
	Href  string   `json:"href"`
	Type  string   `json:"type,omitempty"`
	Title string   `json:"title,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

type Provider struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles,omitempty"`
	URL   string   `json:"url,omitempty"`
}

type SpatialExtent struct {
	Bbox [][]float64 `json:"bbox"`
}

type TemporalExtent struct {
	Interval [][]*string `json:"interval"`
}

type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// NewExtent builds an extent from a single bounding box and time interval.
func NewExtent(bbox [4]float64, start, end time.Time) Extent {
	s := start.UTC().Format(time.RFC3339)
	e := end.UTC().Format(time.RFC3339)
	return Extent{
		Spatial:  SpatialExtent{Bbox: [][]float64{{bbox[0], bbox[1], bbox[2], bbox[3]}}},
		Temporal: TemporalExtent{Interval: [][]*string{{&s, &e}}},
	}
}

// Item is a single catalog entry: one raster tile or one stand-map tile.
type Item struct {
	ID         string
	Geometry   *geojson.Geometry
	Bbox       []float64
	Datetime   time.Time
	Properties map[string]interface{}
	Assets     map[string]*Asset
	Extensions []string

	// Sources holds cross-references to the imagery items a label item was
	// derived from. Serialized as rel="source" links.
	Sources []*Item

	collection string
}

func NewItem(id string, geometry *geojson.Geometry, bbox []float64, datetime time.Time) *Item {
	return &Item{
		ID:         id,
		Geometry:   geometry,
		Bbox:       bbox,
		Datetime:   datetime,
		Properties: map[string]interface{}{},
		Assets:     map[string]*Asset{},
	}
}

func (it *Item) AddAsset(key string, asset *Asset) {
	it.Assets[key] = asset
}

// AddSource records a link to the imagery item this (label) item was derived from.
func (it *Item) AddSource(src *Item) {
	it.Sources = append(it.Sources, src)
}

// Collection groups the items of one dataset or one agency's stand maps.
// AddItem is safe to call from concurrent item-construction workers; every
// other mutation happens from the orchestrating goroutine between batches.
type Collection struct {
	ID          string
	Title       string
	Description string
	License     string
	Providers   []Provider
	Extent      Extent
	ExtraLinks  []Link

	mu    sync.Mutex
	items []*Item
}

func NewCollection(id, description, license string, providers []Provider) *Collection {
	return &Collection{
		ID:          id,
		Description: description,
		License:     license,
		Providers:   providers,
	}
}

func (c *Collection) AddLink(link Link) {
	c.ExtraLinks = append(c.ExtraLinks, link)
}

func (c *Collection) AddItem(it *Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it.collection = c.ID
	c.items = append(c.items, it)
}

// Items returns a snapshot of the collection's items.
func (c *Collection) Items() []*Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Item, len(c.items))
	copy(out, c.items)
	return out
}

// Catalog is the root node.
type Catalog struct {
	ID          string
	Title       string
	Description string

	children []*Collection
}

func NewCatalog(id, description, title string) *Catalog {
	return &Catalog{ID: id, Description: description, Title: title}
}

func (c *Catalog) AddChild(col *Collection) {
	c.children = append(c.children, col)
}

func (c *Catalog) Child(id string) *Collection {
	for _, col := range c.children {
		if col.ID == id {
			return col
		}
	}
	return nil
}

func (c *Catalog) Children() []*Collection {
	return c.children
}

// Items walks every item of every child collection.
func (c *Catalog) Items() []*Item {
	var items []*Item
	for _, col := range c.children {
		items = append(items, col.Items()...)
	}
	return items
}
