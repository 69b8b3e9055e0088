// Package search implements ports.WebSearcher on top of hosted search APIs.
package search

import (
	"fmt"
	"net/http"
	"time"

	"github.com/samirrijal/orbital/internal/core/ports"
)

// Provider names a supported search backend.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderSerper Provider = "serper"
)

// Options configures a searcher.
type Options struct {
	Provider Provider
	APIKey   string
	// EngineID is the Programmable Search engine id; Google only.
	EngineID string
	Timeout  time.Duration
	// BaseURL overrides the provider endpoint.
	BaseURL string
}

// New returns the searcher for opts.Provider.
func New(opts Options) (ports.WebSearcher, error) {
	client := &http.Client{Timeout: opts.Timeout}
	switch opts.Provider {
	case ProviderGoogle:
		base := opts.BaseURL
		if base == "" {
			base = googleEndpoint
		}
		return &Google{apiKey: opts.APIKey, engineID: opts.EngineID, endpoint: base, client: client}, nil
	case ProviderSerper:
		base := opts.BaseURL
		if base == "" {
			base = serperEndpoint
		}
		return &Serper{apiKey: opts.APIKey, endpoint: base, client: client}, nil
	default:
		return nil, fmt.Errorf("unsupported search provider %q", opts.Provider)
	}
}
