// Package sentinel fetches Sentinel Hub rasters over OGC WMS.
package sentinel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/ports"
)

// Client implements ports.ImageryClient with WMS GetMap requests.
type Client struct {
	endpoint   string
	resolution int
	format     string
	client     *http.Client
}

// New creates a WMS client for one Sentinel Hub configuration instance.
func New(baseURL, instanceID string, resolution int, format string, timeout time.Duration) *Client {
	if format == "" {
		format = "image/png"
	}
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(instanceID),
		resolution: resolution,
		format:     format,
		client:     &http.Client{Timeout: timeout},
	}
}

// GetMapURL builds the GetMap request for req: the imagery-query box in
// EPSG:4326 and a one-day TIME window on the snapshot date.
func (c *Client) GetMapURL(req ports.ImageryRequest) string {
	day := req.Snapshot.Day()
	bbox := make([]string, len(req.BBox))
	for i, v := range req.BBox {
		bbox[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	size := strconv.Itoa(c.resolution)

	q := url.Values{}
	q.Set("SERVICE", "WMS")
	q.Set("REQUEST", "GetMap")
	q.Set("LAYERS", req.Layer.ID)
	q.Set("BBOX", strings.Join(bbox, ","))
	q.Set("WIDTH", size)
	q.Set("HEIGHT", size)
	q.Set("FORMAT", c.format)
	q.Set("CRS", "EPSG:4326")
	q.Set("TIME", day+"/"+day)
	return c.endpoint + "?" + q.Encode()
}

// Fetch downloads one raster. Non-200 responses become *domain.ImageFetchError.
func (c *Client) Fetch(ctx context.Context, req ports.ImageryRequest) ([]byte, string, error) {
	fail := func(status int, err error) error {
		return &domain.ImageFetchError{Layer: req.Layer.ID, Snapshot: req.Snapshot.Role, Status: status, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GetMapURL(req), nil)
	if err != nil {
		return nil, "", fail(0, err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, "", fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fail(resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fail(0, fmt.Errorf("read body: %w", err))
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	// WMS reports errors as XML with a 200 status.
	if strings.Contains(mime, "xml") {
		return nil, "", fail(0, fmt.Errorf("service exception: %.200s", data))
	}
	if mime == "" {
		mime = c.format
	}
	return data, mime, nil
}
