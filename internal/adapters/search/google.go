package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samirrijal/orbital/internal/core/domain"
)

const googleEndpoint = "https://www.googleapis.com/customsearch/v1"

// Google searches with the Custom Search JSON API.
type Google struct {
	apiKey   string
	engineID string
	endpoint string
	client   *http.Client
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search returns at most count results; the API caps count at 10.
func (g *Google) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	q := url.Values{}
	q.Set("key", g.apiKey)
	q.Set("cx", g.engineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(min(max(count, 1), 10)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google search: HTTP %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode google response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(body.Items))
	for _, it := range body.Items {
		results = append(results, domain.SearchResult{Title: it.Title, URL: it.Link, Snippet: it.Snippet})
	}
	return results, nil
}
