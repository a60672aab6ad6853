package stac

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb/geojson"
)

// Serialization documents. Exported so other tools (asset copier) can decode
// a persisted catalog without dragging the in-memory model back up.

type CatalogDoc struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	StacVersion string `json:"stac_version"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	Links       []Link `json:"links"`
}

type CollectionDoc struct {
	Type        string     `json:"type"`
	ID          string     `json:"id"`
	StacVersion string     `json:"stac_version"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description"`
	License     string     `json:"license,omitempty"`
	Providers   []Provider `json:"providers,omitempty"`
	Extent      Extent     `json:"extent"`
	Links       []Link     `json:"links"`
}

type ItemDoc struct {
	Type        string                 `json:"type"`
	StacVersion string                 `json:"stac_version"`
	Extensions  []string               `json:"stac_extensions,omitempty"`
	ID          string                 `json:"id"`
	Geometry    *geojson.Geometry      `json:"geometry"`
	Bbox        []float64              `json:"bbox"`
	Properties  map[string]interface{} `json:"properties"`
	Links       []Link                 `json:"links"`
	Assets      map[string]*Asset      `json:"assets"`
	Collection  string                 `json:"collection,omitempty"`
}

func (it *Item) doc() *ItemDoc {
	props := make(map[string]interface{}, len(it.Properties)+1)
	for k, v := range it.Properties {
		props[k] = v
	}
	props["datetime"] = it.Datetime.UTC().Format(time.RFC3339)

	links := []Link{
		{Rel: "root", Href: "../../catalog.json", Type: MediaTypeJSON},
		{Rel: "parent", Href: "../collection.json", Type: MediaTypeJSON},
		{Rel: "collection", Href: "../collection.json", Type: MediaTypeJSON},
		{Rel: "self", Href: fmt.Sprintf("./%s.json", it.ID), Type: MediaTypeJSON},
	}
	for _, src := range it.Sources {
		links = append(links, Link{
			Rel:  "source",
			Href: fmt.Sprintf("../../%s/%s/%s.json", src.collection, src.ID, src.ID),
			Type: MediaTypeJSON,
		})
	}

	return &ItemDoc{
		Type:        "Feature",
		StacVersion: Version,
		Extensions:  it.Extensions,
		ID:          it.ID,
		Geometry:    it.Geometry,
		Bbox:        it.Bbox,
		Properties:  props,
		Links:       links,
		Assets:      it.Assets,
		Collection:  it.collection,
	}
}

func writeDoc(path string, doc interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Save persists the catalog as a self-contained directory tree:
//
//	dest/catalog.json
//	dest/<collection>/collection.json
//	dest/<collection>/<item>/<item>.json
func (c *Catalog) Save(dest string) error {
	rootDoc := &CatalogDoc{
		Type:        "Catalog",
		ID:          c.ID,
		StacVersion: Version,
		Title:       c.Title,
		Description: c.Description,
		Links: []Link{
			{Rel: "root", Href: "./catalog.json", Type: MediaTypeJSON},
			{Rel: "self", Href: "./catalog.json", Type: MediaTypeJSON},
		},
	}
	for _, col := range c.children {
		rootDoc.Links = append(rootDoc.Links, Link{
			Rel:  "child",
			Href: fmt.Sprintf("./%s/collection.json", col.ID),
			Type: MediaTypeJSON,
		})
	}
	if err := writeDoc(filepath.Join(dest, "catalog.json"), rootDoc); err != nil {
		return err
	}

	for _, col := range c.children {
		colDoc := &CollectionDoc{
			Type:        "Collection",
			ID:          col.ID,
			StacVersion: Version,
			Title:       col.Title,
			Description: col.Description,
			License:     col.License,
			Providers:   col.Providers,
			Extent:      col.Extent,
			Links: []Link{
				{Rel: "root", Href: "../catalog.json", Type: MediaTypeJSON},
				{Rel: "parent", Href: "../catalog.json", Type: MediaTypeJSON},
				{Rel: "self", Href: "./collection.json", Type: MediaTypeJSON},
			},
		}
		colDoc.Links = append(colDoc.Links, col.ExtraLinks...)
		for _, it := range col.Items() {
			colDoc.Links = append(colDoc.Links, Link{
				Rel:  "item",
				Href: fmt.Sprintf("./%s/%s.json", it.ID, it.ID),
				Type: MediaTypeJSON,
			})
		}
		if err := writeDoc(filepath.Join(dest, col.ID, "collection.json"), colDoc); err != nil {
			return err
		}

		for _, it := range col.Items() {
			itemPath := filepath.Join(dest, col.ID, it.ID, it.ID+".json")
			if err := writeDoc(itemPath, it.doc()); err != nil {
				return err
			}
		}
	}
	return nil
}
