package ports

import (
	"context"

	"github.com/samirrijal/orbital/internal/core/domain"
)

// ToolParam describes one string argument of a declared tool.
type ToolParam struct {
	Name        string
	Description string
	Required    bool
}

// Tool is a function the language model may invoke.
type Tool struct {
	Name        string
	Description string
	Params      []ToolParam
}

// ToolCall is one invocation returned by the language model.
type ToolCall struct {
	Name string
	Args map[string]any
}

// LanguageModel is the generative model used for refinement, research and synthesis.
type LanguageModel interface {
	// GenerateText returns the model's free-text answer to prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// CallTool offers exactly one tool and returns the invocations the model made.
	CallTool(ctx context.Context, prompt string, tool Tool) ([]ToolCall, error)
	// GenerateWithImages sends prompt together with the image payloads.
	GenerateWithImages(ctx context.Context, prompt string, images []domain.ImageAsset) (string, error)
}

// GeocodeMatch is one geocoder hit. BoundingBox holds the raw edges exactly as
// the geocoder returned them: south, north, west, east.
type GeocodeMatch struct {
	DisplayName string
	BoundingBox []string
}

// Geocoder looks up place names.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]GeocodeMatch, error)
}

// WebSearcher runs a web search and returns at most count results.
type WebSearcher interface {
	Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error)
}

// ImageryRequest selects one raster from the imagery service.
type ImageryRequest struct {
	Layer domain.ImagingLayer
	// BBox is the imagery-query form: west, south, east, north.
	BBox     [4]float64
	Snapshot domain.Snapshot
}

// ImageryClient fetches one raster. A non-success response is reported as
// *domain.ImageFetchError carrying the HTTP status.
type ImageryClient interface {
	Fetch(ctx context.Context, req ImageryRequest) (data []byte, mimeType string, err error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher mirrors progress events to a message broker.
type EventPublisher interface {
	PublishProgress(ctx context.Context, runID string, event domain.ProgressEvent) error
}
