package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/orbital/internal/core/ports"
)

// Geocoder implements ports.Geocoder against the OpenStreetMap Nominatim API.
type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// New creates a Nominatim geocoder. Nominatim rejects requests without a
// descriptive User-Agent.
func New(baseURL, userAgent string, timeout time.Duration) *Geocoder {
	return &Geocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

type place struct {
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"`
}

// Search returns up to limit matches. Bounding boxes are passed through in
// Nominatim's order: south, north, west, east.
func (g *Geocoder) Search(ctx context.Context, query string, limit int) ([]ports.GeocodeMatch, error) {
	if limit <= 0 {
		limit = 1
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim search: HTTP %d", resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}

	matches := make([]ports.GeocodeMatch, 0, len(places))
	for _, p := range places {
		matches = append(matches, ports.GeocodeMatch{DisplayName: p.DisplayName, BoundingBox: p.BoundingBox})
	}
	return matches, nil
}
