package gee

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Band describes one band of a downloaded composite as it appears in the
// metadata sidecar next to each raster.
type Band struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	CRS  string `json:"crs"`
}

// Metadata is the sidecar document written next to every downloaded raster.
// The catalog builder reads bands, system:time_start and system:time_end
// back out of it.
type Metadata struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Bands      []Band                 `json:"bands"`
	Properties map[string]interface{} `json:"properties"`
	Params     map[string]interface{} `json:"params,omitempty"`
	VizParams  map[string]interface{} `json:"viz_params,omitempty"`
}

func NewMetadata(bands []Band) *Metadata {
	return &Metadata{
		Type:       "Image",
		ID:         "image",
		Bands:      bands,
		Properties: map[string]interface{}{},
	}
}

func (m *Metadata) SetProperty(key string, value interface{}) {
	m.Properties[key] = value
}

func (m *Metadata) SetParam(key string, value interface{}) {
	if m.Params == nil {
		m.Params = map[string]interface{}{}
	}
	m.Params[key] = value
}

func (m *Metadata) SetVizParam(key string, value interface{}) {
	if m.VizParams == nil {
		m.VizParams = map[string]interface{}{}
	}
	m.VizParams[key] = value
}

// SetTimeRange records the composite's time coverage in epoch milliseconds.
func (m *Metadata) SetTimeRange(start, end int64) {
	m.SetProperty("system:time_start", start)
	m.SetProperty("system:time_end", end)
}

func (m *Metadata) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata %s: %w", path, err)
	}
	return nil
}

// EPSG4326Bands tags every band id with the request CRS.
func EPSG4326Bands(ids ...string) []Band {
	bands := make([]Band, 0, len(ids))
	for _, id := range ids {
		bands = append(bands, Band{ID: id, CRS: "EPSG:4326"})
	}
	return bands
}

// FetchTimeRange computes the min and max system:time_start over the images
// an ImageRequest would composite, in epoch milliseconds. Collections that
// turn out empty for the range report an error.
func (c *Client) FetchTimeRange(ctx context.Context, req ImageRequest) (int64, int64, error) {
	start, err := c.aggregateTime(ctx, req, "AggregateFeatureCollection.min")
	if err != nil {
		return 0, 0, err
	}
	end, err := c.aggregateTime(ctx, req, "AggregateFeatureCollection.max")
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func (c *Client) aggregateTime(ctx context.Context, req ImageRequest, aggregate string) (int64, error) {
	expr := compositeExpression(req)
	values := expr["values"].(map[string]interface{})
	values["times"] = invocation(aggregate, map[string]interface{}{
		"collection": reference("bounded"),
		"property":   constant("system:time_start"),
	})
	expr["result"] = "times"

	body, err := json.Marshal(map[string]interface{}{"expression": expr})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal value request: %w", err)
	}

	url := fmt.Sprintf("%s/projects/%s/value:compute", baseURL, c.project)
	content, err := c.post(ctx, url, body)
	if err != nil {
		return 0, err
	}

	var out struct {
		Result *float64 `json:"result"`
	}
	if err := json.Unmarshal(content, &out); err != nil {
		return 0, fmt.Errorf("failed to parse value response: %w", err)
	}
	if out.Result == nil {
		return 0, fmt.Errorf("collection %s is empty between %s and %s",
			req.Collection, req.Start.Format(time.DateOnly), req.End.Format(time.DateOnly))
	}
	return int64(*out.Result), nil
}
