package stac

import (
	"fmt"
	"math"
)

// Validate checks the catalog tree against the structural rules persistence
// relies on. A validation error is fatal for a build: the catalog must not be
// saved in that case.
func (c *Catalog) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("catalog has no id")
	}
	if c.Description == "" {
		return fmt.Errorf("catalog %s has no description", c.ID)
	}

	seenCollections := map[string]bool{}
	for _, col := range c.children {
		if col.ID == "" {
			return fmt.Errorf("catalog %s contains a collection without id", c.ID)
		}
		if seenCollections[col.ID] {
			return fmt.Errorf("duplicate collection id %s", col.ID)
		}
		seenCollections[col.ID] = true

		if col.Description == "" {
			return fmt.Errorf("collection %s has no description", col.ID)
		}
		if err := validateExtent(col); err != nil {
			return err
		}

		seenItems := map[string]bool{}
		for _, it := range col.Items() {
			if err := validateItem(col.ID, it); err != nil {
				return err
			}
			if seenItems[it.ID] {
				return fmt.Errorf("collection %s: duplicate item id %s", col.ID, it.ID)
			}
			seenItems[it.ID] = true
		}
	}
	return nil
}

func validateExtent(col *Collection) error {
	if len(col.Extent.Spatial.Bbox) == 0 {
		return fmt.Errorf("collection %s has no spatial extent", col.ID)
	}
	for _, bbox := range col.Extent.Spatial.Bbox {
		if len(bbox) != 4 {
			return fmt.Errorf("collection %s: bbox must have 4 coordinates, got %d", col.ID, len(bbox))
		}
		for _, v := range bbox {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("collection %s: bbox contains non-finite coordinate", col.ID)
			}
		}
		if bbox[0] > bbox[2] || bbox[1] > bbox[3] {
			return fmt.Errorf("collection %s: bbox min exceeds max", col.ID)
		}
	}
	if len(col.Extent.Temporal.Interval) == 0 {
		return fmt.Errorf("collection %s has no temporal extent", col.ID)
	}
	return nil
}

func validateItem(collectionID string, it *Item) error {
	if it.ID == "" {
		return fmt.Errorf("collection %s contains an item without id", collectionID)
	}
	if it.Geometry == nil {
		return fmt.Errorf("item %s has no geometry", it.ID)
	}
	if len(it.Bbox) != 4 {
		return fmt.Errorf("item %s: bbox must have 4 coordinates, got %d", it.ID, len(it.Bbox))
	}
	if it.Datetime.IsZero() {
		return fmt.Errorf("item %s has no datetime", it.ID)
	}
	for key, asset := range it.Assets {
		if asset.Href == "" {
			return fmt.Errorf("item %s: asset %s has no href", it.ID, key)
		}
	}
	for _, src := range it.Sources {
		if src.collection == "" {
			return fmt.Errorf("item %s links to source %s that is not part of any collection", it.ID, src.ID)
		}
	}
	return nil
}
