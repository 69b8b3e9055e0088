package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"

	handler "github.com/samirrijal/orbital/internal/adapters/http"
	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/ports"
	"github.com/samirrijal/orbital/internal/core/usecases"
	"github.com/samirrijal/orbital/internal/pkg/eventstream"
)

// ---- Fakes ----

type fakeModel struct {
	refined   string
	toolQuery string
	answer    string
}

func (m *fakeModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	return m.refined, nil
}

func (m *fakeModel) CallTool(ctx context.Context, prompt string, tool ports.Tool) ([]ports.ToolCall, error) {
	return []ports.ToolCall{{Name: tool.Name, Args: map[string]any{"query": m.toolQuery}}}, nil
}

func (m *fakeModel) GenerateWithImages(ctx context.Context, prompt string, images []domain.ImageAsset) (string, error) {
	return m.answer, nil
}

type fakeGeocoder struct {
	matches []ports.GeocodeMatch
	err     error
}

func (g *fakeGeocoder) Search(ctx context.Context, query string, limit int) ([]ports.GeocodeMatch, error) {
	return g.matches, g.err
}

type fakeSearcher struct {
	results []domain.SearchResult
}

func (s *fakeSearcher) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	return s.results, nil
}

type fakeImagery struct {
	status int
}

func (f *fakeImagery) Fetch(ctx context.Context, req ports.ImageryRequest) ([]byte, string, error) {
	if f.status != 0 {
		return nil, "", &domain.ImageFetchError{Layer: req.Layer.ID, Snapshot: req.Snapshot.Role, Status: f.status}
	}
	return []byte("png"), "image/png", nil
}

type fakePublisher struct {
	mu     sync.Mutex
	runIDs map[string]int
}

func (p *fakePublisher) PublishProgress(ctx context.Context, runID string, ev domain.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runIDs == nil {
		p.runIDs = make(map[string]int)
	}
	p.runIDs[runID]++
	return nil
}

// ---- Helpers ----

var research = []domain.SearchResult{
	{Title: "Amazon deforestation", URL: "https://example.org/a", Snippet: "Loss rose."},
}

const answer = `{
  "summary": "Vegetation loss in the south-east.",
  "keyChanges": ["NDVI drop"],
  "potentialCauses": [{"cause": "Logging", "explanation": "Roads.", "confidence": "Medium"}],
  "predictions": "More loss.",
  "charts": [
    {"type": "bar", "title": "Forest", "data": [{"name": "2015", "value": 10}, {"name": "2024", "value": 8}]},
    {"type": "pie", "title": "Land use", "data": [{"name": "Forest", "value": 80}, {"name": "Other", "value": 20}]}
  ],
  "sources": [{"title": "Amazon deforestation", "url": "https://example.org/a", "snippet": "Loss rose."}]
}`

type fakes struct {
	model    *fakeModel
	geocoder *fakeGeocoder
	imagery  *fakeImagery
}

func happyFakes() *fakes {
	return &fakes{
		model: &fakeModel{refined: "Amazon Rainforest, Brazil", toolQuery: "Amazon Rainforest climate change", answer: answer},
		geocoder: &fakeGeocoder{matches: []ports.GeocodeMatch{{
			DisplayName: "Amazônia, Brasil",
			BoundingBox: []string{"-10.0", "2.0", "-75.0", "-50.0"},
		}}},
		imagery: &fakeImagery{},
	}
}

func makeDeps(f *fakes) *handler.Dependencies {
	layers := domain.DefaultLayers()
	locations := usecases.NewLocationService(f.model, f.geocoder, nil, 0, 1000)
	imagery := usecases.NewImageryService(f.imagery, layers)
	return &handler.Dependencies{
		Reports: usecases.NewReportService(
			locations,
			usecases.NewResearchService(f.model, &fakeSearcher{results: research}, "google", 5),
			imagery,
			usecases.NewSynthesisService(f.model, layers),
			"instance-1",
			0,
		),
		Locations:  locations,
		Imagery:    imagery,
		InstanceID: "instance-1",
	}
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

const reportJSON = `{"prompt":"Show me deforestation in the Amazon","historicalDate":"2015-06-01","currentDate":"2024-06-01"}`

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func readEvents(t *testing.T, body io.Reader) []domain.ProgressEvent {
	t.Helper()
	dec := eventstream.NewDecoder(body)
	var events []domain.ProgressEvent
	for {
		ev, err := dec.NextEvent()
		if errors.Is(err, io.EOF) {
			return events
		}
		if err != nil {
			t.Fatalf("decode stream: %v", err)
		}
		events = append(events, ev)
	}
}

func decodeAPIError(t *testing.T, resp *http.Response) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

// ---- Stream ----

func TestStreamReport_Success(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	resp, err := app.Test(postJSON("/v1/reports/stream", reportJSON), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != eventstream.ContentType {
		t.Errorf("expected %s, got %q", eventstream.ContentType, ct)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a run id header")
	}

	events := readEvents(t, resp.Body)
	if len(events) < 2 {
		t.Fatalf("expected statuses and a result, got %d events", len(events))
	}
	for _, ev := range events[:len(events)-1] {
		if ev.Kind != domain.EventStatus {
			t.Errorf("non-status event before the terminal one: %+v", ev)
		}
	}
	final := events[len(events)-1]
	if final.Kind != domain.EventFinalResult {
		t.Fatalf("expected finalResult, got %+v", final)
	}
	if final.Payload.MapConfig.InstanceID != "instance-1" {
		t.Errorf("unexpected instance id %q", final.Payload.MapConfig.InstanceID)
	}
	if len(final.Payload.AnalysisResult.Charts) != 2 {
		t.Errorf("expected 2 charts, got %d", len(final.Payload.AnalysisResult.Charts))
	}
}

func TestStreamReport_ValidationIsPlain400(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	body := `{"prompt":"","historicalDate":"2015-06-01","currentDate":"2024-06-01"}`
	resp, _ := app.Test(postJSON("/v1/reports/stream", body), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), eventstream.ContentType) {
		t.Error("stream must not open for an invalid request")
	}
	if apiErr := decodeAPIError(t, resp); apiErr.Code != "bad_request" || !strings.Contains(apiErr.Message, "prompt") {
		t.Errorf("unexpected error body %+v", apiErr)
	}
}

func TestStreamReport_BadDateOrder(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	body := `{"prompt":"Amazon","historicalDate":"2024-06-01","currentDate":"2015-06-01"}`
	resp, _ := app.Test(postJSON("/v1/reports/stream", body), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStreamReport_FailureIsInBand(t *testing.T) {
	f := happyFakes()
	f.geocoder.matches = nil
	app := setupApp(makeDeps(f))

	resp, _ := app.Test(postJSON("/v1/reports/stream", reportJSON), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 once the stream is open, got %d", resp.StatusCode)
	}

	events := readEvents(t, resp.Body)
	final := events[len(events)-1]
	if final.Kind != domain.EventError || !strings.Contains(final.Message, "no geocoding results") {
		t.Errorf("unexpected terminal event %+v", final)
	}
}

func TestStreamReport_MirrorsUnderRequestID(t *testing.T) {
	pub := &fakePublisher{}
	deps := makeDeps(happyFakes())
	deps.Publisher = pub
	app := setupApp(deps)

	req := postJSON("/v1/reports/stream", reportJSON)
	req.Header.Set("X-Request-ID", "run-7")
	resp, _ := app.Test(req, -1)
	events := readEvents(t, resp.Body)

	if got := resp.Header.Get("X-Request-ID"); got != "run-7" {
		t.Errorf("expected run id to echo the request id, got %q", got)
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if diff := cmp.Diff(map[string]int{"run-7": len(events)}, pub.runIDs); diff != "" {
		t.Errorf("published events (-want +got):\n%s", diff)
	}
}

// ---- Buffered ----

func TestBufferedReport_Success(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	resp, _ := app.Test(postJSON("/v1/reports", reportJSON), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload domain.ReportPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.MapConfig.Bounds != [2][2]float64{{-10, -75}, {2, -50}} {
		t.Errorf("unexpected bounds %v", payload.MapConfig.Bounds)
	}
	if diff := cmp.Diff(research, payload.AnalysisResult.Sources); diff != "" {
		t.Errorf("sources (-want +got):\n%s", diff)
	}
}

func TestBufferedReport_ErrorMapping(t *testing.T) {
	tests := map[string]struct {
		mutate func(f *fakes)
		status int
		code   string
	}{
		"geocoding": {
			mutate: func(f *fakes) { f.geocoder.matches = nil },
			status: 422,
			code:   "unprocessable",
		},
		"imagery": {
			mutate: func(f *fakes) { f.imagery.status = 500 },
			status: 502,
			code:   "bad_gateway",
		},
		"synthesis": {
			mutate: func(f *fakes) { f.model.answer = "I cannot help with that." },
			status: 502,
			code:   "bad_gateway",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := happyFakes()
			tt.mutate(f)
			app := setupApp(makeDeps(f))

			resp, _ := app.Test(postJSON("/v1/reports", reportJSON), -1)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if apiErr := decodeAPIError(t, resp); apiErr.Code != tt.code || apiErr.RequestID == "" {
				t.Errorf("unexpected error body %+v", apiErr)
			}
		})
	}
}

func TestReportRoutes_MethodNotAllowed(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	for _, path := range []string{"/v1/reports", "/v1/reports/stream", "/api/generate-report", "/api/map-config"} {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		if resp.StatusCode != 405 {
			t.Errorf("GET %s: expected 405, got %d", path, resp.StatusCode)
		}
		if allow := resp.Header.Get("Allow"); allow != "POST" {
			t.Errorf("GET %s: expected Allow POST, got %q", path, allow)
		}
	}
}

// ---- Locations & layers ----

func TestResolveLocation_Success(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	resp, _ := app.Test(postJSON("/v1/locations/resolve", `{"prompt":"the amazon"}`), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got struct {
		DisplayName string        `json:"displayName"`
		Bounds      [2][2]float64 `json:"bounds"`
		ImageryBBox [4]float64    `json:"imageryBBox"`
		InstanceID  string        `json:"instanceId"`
	}
	json.NewDecoder(resp.Body).Decode(&got)
	if got.Bounds != [2][2]float64{{-10, -75}, {2, -50}} {
		t.Errorf("unexpected bounds %v", got.Bounds)
	}
	if got.ImageryBBox != [4]float64{-75, -10, -50, 2} {
		t.Errorf("unexpected imagery box %v", got.ImageryBBox)
	}
	if got.InstanceID != "instance-1" {
		t.Errorf("unexpected instance id %q", got.InstanceID)
	}
}

func TestResolveLocation_MissingPrompt(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	resp, _ := app.Test(postJSON("/v1/locations/resolve", `{}`), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLegacyMapConfig_Deprecated(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	resp, _ := app.Test(postJSON("/api/map-config", `{"prompt":"the amazon"}`), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, "/v1/locations/resolve") {
		t.Errorf("unexpected Link header %q", link)
	}
}

func TestLayers(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/v1/layers", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}

	var body struct {
		Layers []domain.ImagingLayer `json:"layers"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if diff := cmp.Diff(domain.DefaultLayers(), body.Layers); diff != "" {
		t.Errorf("layers (-want +got):\n%s", diff)
	}
}

func TestLayers_ETag(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	first, _ := app.Test(httptest.NewRequest(http.MethodGet, "/v1/layers", nil), -1)
	etag := first.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/layers", nil)
	req.Header.Set("If-None-Match", etag)
	second, _ := app.Test(req, -1)
	if second.StatusCode != 304 {
		t.Errorf("expected 304, got %d", second.StatusCode)
	}
}

// ---- GraphQL ----

func TestGraphQL_Location(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	body := `{"query":"{ location(prompt: \"amazon\") { displayName imageryBBox instanceId } layers { id } }"}`
	resp, _ := app.Test(postJSON("/graphql", body), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Location struct {
				DisplayName string    `json:"displayName"`
				ImageryBBox []float64 `json:"imageryBBox"`
				InstanceID  string    `json:"instanceId"`
			} `json:"location"`
			Layers []struct {
				ID string `json:"id"`
			} `json:"layers"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	if diff := cmp.Diff([]float64{-75, -10, -50, 2}, result.Data.Location.ImageryBBox); diff != "" {
		t.Errorf("imageryBBox (-want +got):\n%s", diff)
	}
	if len(result.Data.Layers) != 4 {
		t.Errorf("expected 4 layers, got %d", len(result.Data.Layers))
	}
}

// ---- Health ----

func TestDocs_ShowsServiceVersion(t *testing.T) {
	deps := makeDeps(happyFakes())
	deps.Version = "1.4.2"
	app := setupApp(deps)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/docs", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	for _, want := range []string{"<title>Orbital Insight API 1.4.2</title>", "/docs/openapi.yaml", "/v1/reports/stream"} {
		if !strings.Contains(page, want) {
			t.Errorf("docs page does not contain %q", want)
		}
	}
	if want := fmt.Sprintf("%d imaging layers", len(domain.DefaultLayers())); !strings.Contains(page, want) {
		t.Errorf("docs page does not contain %q", want)
	}
}

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_OptionalBackends(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	want := map[string]string{"pipeline": "ok", "nats": "not configured", "cache": "not configured"}
	if diff := cmp.Diff(want, result.Checks); diff != "" {
		t.Errorf("checks (-want +got):\n%s", diff)
	}
}

func TestWebSocket_NotMountedWithoutBroker(t *testing.T) {
	app := setupApp(makeDeps(happyFakes()))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/ws/reports/run-1", nil), -1)
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
