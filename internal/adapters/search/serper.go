package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/samirrijal/orbital/internal/core/domain"
)

const serperEndpoint = "https://google.serper.dev/search"

// Serper searches with the serper.dev API.
type Serper struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (s *Serper) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	body, err := json.Marshal(map[string]any{"q": query, "num": count})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper search: HTTP %d", resp.StatusCode)
	}

	var out serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(out.Organic))
	for i, it := range out.Organic {
		if i >= count {
			break
		}
		results = append(results, domain.SearchResult{Title: it.Title, URL: it.Link, Snippet: it.Snippet})
	}
	return results, nil
}
