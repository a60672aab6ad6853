// Package gee talks to the Google Earth Engine REST API: authenticated pixel
// downloads for the data factory and collection metadata for the sidecar
// files the catalog builder reads.
package gee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
)

const (
	baseURL = "https://earthengine.googleapis.com/v1"
	scope   = "https://www.googleapis.com/auth/earthengine"

	maxRetries = 10
	retryWait  = 5 * time.Second
)

// degreesPerMeter converts a resolution in meters to EPSG:4326 pixel size.
const degreesPerMeter = 1.0 / 111319.9

type Client struct {
	http    *http.Client
	project string
	limiter *rate.Limiter
}

// NewClient authenticates with a service-account key file. The limiter keeps
// concurrent tile downloads under the Earth Engine request quota.
func NewClient(ctx context.Context, keyFile, project string) (*Client, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key %s: %w", keyFile, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	return &Client{
		http:    oauth2.NewClient(ctx, creds.TokenSource),
		project: project,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}, nil
}

// ImageRequest describes one composite download: the median of a collection
// over a time range, clipped to Bbox, rendered at Scale meters per pixel in
// EPSG:4326.
type ImageRequest struct {
	Collection string
	Start      time.Time
	End        time.Time
	Bbox       [4]float64
	Scale      float64
	Bands      []string
}

func (r ImageRequest) pixelSize() float64 {
	return r.Scale * degreesPerMeter
}

func (r ImageRequest) dimensions() (int, int) {
	px := r.pixelSize()
	width := int((r.Bbox[2] - r.Bbox[0]) / px)
	height := int((r.Bbox[3] - r.Bbox[1]) / px)
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

// FetchImage downloads one composite as GeoTIFF bytes.
func (c *Client) FetchImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	payload := map[string]interface{}{
		"expression": compositeExpression(req),
		"fileFormat": "GEO_TIFF",
		"grid":       pixelGrid(req),
	}
	if len(req.Bands) > 0 {
		payload["bandIds"] = req.Bands
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pixel request: %w", err)
	}

	url := fmt.Sprintf("%s/projects/%s/image:computePixels", baseURL, c.project)
	return c.post(ctx, url, body)
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			fmt.Printf("Attempt %d failed: %v\n", attempt, err)
			time.Sleep(retryWait)
			continue
		}

		content, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			time.Sleep(retryWait)
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return content, nil
		}
		if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("unauthorized access, check the service account key and project")
		}

		lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, content)
		fmt.Printf("Attempt %d failed: %v\n", attempt, lastErr)
		time.Sleep(retryWait)
	}
	return nil, fmt.Errorf("failed to request image after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, content)
	}
	return content, nil
}

// compositeExpression serializes the median-composite computation graph:
// load the collection, filter by date and bounds, take the per-pixel median.
func compositeExpression(req ImageRequest) map[string]interface{} {
	return map[string]interface{}{
		"values": map[string]interface{}{
			"collection": invocation("ImageCollection.load", map[string]interface{}{
				"id": constant(req.Collection),
			}),
			"dated": invocation("Collection.filter", map[string]interface{}{
				"collection": reference("collection"),
				"filter": invocation("Filter.dateRangeContains", map[string]interface{}{
					"leftValue": invocation("DateRange", map[string]interface{}{
						"start": constant(req.Start.Format("2006-01-02")),
						"end":   constant(req.End.Format("2006-01-02")),
					}),
					"rightField": constant("system:time_start"),
				}),
			}),
			"bounded": invocation("Collection.filter", map[string]interface{}{
				"collection": reference("dated"),
				"filter": invocation("Filter.intersects", map[string]interface{}{
					"leftField": constant(".all"),
					"rightValue": invocation("Feature", map[string]interface{}{
						"geometry": invocation("GeometryConstructors.BBox", map[string]interface{}{
							"west":  constant(req.Bbox[0]),
							"south": constant(req.Bbox[1]),
							"east":  constant(req.Bbox[2]),
							"north": constant(req.Bbox[3]),
						}),
					}),
				}),
			}),
			"composite": invocation("reduce.median", map[string]interface{}{
				"collection": reference("bounded"),
			}),
		},
		"result": "composite",
	}
}

func pixelGrid(req ImageRequest) map[string]interface{} {
	width, height := req.dimensions()
	px := req.pixelSize()
	return map[string]interface{}{
		"dimensions": map[string]interface{}{
			"width":  width,
			"height": height,
		},
		"affineTransform": map[string]interface{}{
			"scaleX":     px,
			"shearX":     0,
			"translateX": req.Bbox[0],
			"shearY":     0,
			"scaleY":     -px,
			"translateY": req.Bbox[3],
		},
		"crsCode": "EPSG:4326",
	}
}

func invocation(name string, arguments map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"functionInvocationValue": map[string]interface{}{
			"functionName": name,
			"arguments":    arguments,
		},
	}
}

func constant(v interface{}) map[string]interface{} {
	return map[string]interface{}{"constantValue": v}
}

func reference(name string) map[string]interface{} {
	return map[string]interface{}{"valueReference": name}
}
