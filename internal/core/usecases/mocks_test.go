package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/ports"
)

// --- Mock LanguageModel ---

type mockModel struct {
	generateTextFn       func(ctx context.Context, prompt string) (string, error)
	callToolFn           func(ctx context.Context, prompt string, tool ports.Tool) ([]ports.ToolCall, error)
	generateWithImagesFn func(ctx context.Context, prompt string, images []domain.ImageAsset) (string, error)

	mu             sync.Mutex
	synthesisCalls int
}

func (m *mockModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	if m.generateTextFn != nil {
		return m.generateTextFn(ctx, prompt)
	}
	return "", nil
}

func (m *mockModel) CallTool(ctx context.Context, prompt string, tool ports.Tool) ([]ports.ToolCall, error) {
	if m.callToolFn != nil {
		return m.callToolFn(ctx, prompt, tool)
	}
	return nil, nil
}

func (m *mockModel) GenerateWithImages(ctx context.Context, prompt string, images []domain.ImageAsset) (string, error) {
	m.mu.Lock()
	m.synthesisCalls++
	m.mu.Unlock()
	if m.generateWithImagesFn != nil {
		return m.generateWithImagesFn(ctx, prompt, images)
	}
	return "", nil
}

func (m *mockModel) SynthesisCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.synthesisCalls
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	searchFn func(ctx context.Context, query string, limit int) ([]ports.GeocodeMatch, error)

	mu    sync.Mutex
	calls int
}

func (m *mockGeocoder) Search(ctx context.Context, query string, limit int) ([]ports.GeocodeMatch, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockGeocoder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Mock WebSearcher ---

type mockSearcher struct {
	searchFn func(ctx context.Context, query string, count int) ([]domain.SearchResult, error)

	mu      sync.Mutex
	queries []string
}

func (m *mockSearcher) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, query, count)
	}
	return nil, nil
}

func (m *mockSearcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// --- Mock ImageryClient ---

type mockImagery struct {
	fetchFn func(ctx context.Context, req ports.ImageryRequest) ([]byte, string, error)

	mu       sync.Mutex
	requests []ports.ImageryRequest
}

func (m *mockImagery) Fetch(ctx context.Context, req ports.ImageryRequest) ([]byte, string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, req)
	}
	return []byte(req.Layer.ID + "/" + string(req.Snapshot.Role)), "image/png", nil
}

func (m *mockImagery) Requests() []ports.ImageryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.ImageryRequest(nil), m.requests...)
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	setErr error

	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	publishFn func(ctx context.Context, runID string, ev domain.ProgressEvent) error

	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (m *mockPublisher) PublishProgress(ctx context.Context, runID string, ev domain.ProgressEvent) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, runID, ev)
	}
	return nil
}
