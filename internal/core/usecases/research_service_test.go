package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/ports"
	"github.com/samirrijal/orbital/internal/core/usecases"
)

func searchCall(query string) func(ctx context.Context, prompt string, tool ports.Tool) ([]ports.ToolCall, error) {
	return func(ctx context.Context, prompt string, tool ports.Tool) ([]ports.ToolCall, error) {
		return []ports.ToolCall{{Name: tool.Name, Args: map[string]any{"query": query}}}, nil
	}
}

func TestResearchService_Run(t *testing.T) {
	model := &mockModel{
		callToolFn: func(ctx context.Context, prompt string, tool ports.Tool) ([]ports.ToolCall, error) {
			if tool.Name != usecases.SearchToolName {
				t.Errorf("expected tool %s, got %s", usecases.SearchToolName, tool.Name)
			}
			if !strings.Contains(prompt, "Lake Chad shrinking") {
				t.Errorf("prompt does not carry the user text: %q", prompt)
			}
			return []ports.ToolCall{{Name: usecases.SearchToolName, Args: map[string]any{"query": "Lake Chad climate change"}}}, nil
		},
	}
	searcher := &mockSearcher{
		searchFn: func(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
			if count != 5 {
				t.Errorf("expected count 5, got %d", count)
			}
			return []domain.SearchResult{{Title: "Lake Chad", URL: "https://example.org/chad", Snippet: "s"}}, nil
		},
	}

	svc := usecases.NewResearchService(model, searcher, "google", 0)
	results, err := svc.Run(context.Background(), "Lake Chad shrinking")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].URL != "https://example.org/chad" {
		t.Errorf("unexpected results %+v", results)
	}
	if q := searcher.Queries(); len(q) != 1 || q[0] != "Lake Chad climate change" {
		t.Errorf("unexpected queries %v", q)
	}
}

func TestResearchService_ToolSelectionFailures(t *testing.T) {
	tests := map[string]func(ctx context.Context, prompt string, tool ports.Tool) ([]ports.ToolCall, error){
		"no call": func(ctx context.Context, prompt string, tool ports.Tool) ([]ports.ToolCall, error) {
			return nil, nil
		},
		"other tool": func(ctx context.Context, prompt string, tool ports.Tool) ([]ports.ToolCall, error) {
			return []ports.ToolCall{{Name: "getWeather", Args: map[string]any{"query": "x"}}}, nil
		},
		"empty query": searchCall("  "),
		"missing query": func(ctx context.Context, prompt string, tool ports.Tool) ([]ports.ToolCall, error) {
			return []ports.ToolCall{{Name: tool.Name}}, nil
		},
	}

	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			searcher := &mockSearcher{}
			svc := usecases.NewResearchService(&mockModel{callToolFn: fn}, searcher, "google", 5)

			_, err := svc.Run(context.Background(), "anything")

			var toolErr *domain.AgentToolSelectionError
			if !errors.As(err, &toolErr) {
				t.Fatalf("expected AgentToolSelectionError, got %v", err)
			}
			if len(searcher.Queries()) != 0 {
				t.Error("search must not run without a valid tool call")
			}
		})
	}
}

func TestResearchService_SearchFailureDegrades(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
			return nil, errors.New("search api: status 429")
		},
	}
	svc := usecases.NewResearchService(&mockModel{callToolFn: searchCall("Aral Sea climate change")}, searcher, "serper", 5)

	results, err := svc.Run(context.Background(), "Aral Sea")
	if err != nil {
		t.Fatalf("expected degradation, got error %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected an empty, non-nil list, got %#v", results)
	}
}

func TestResearchService_TruncatesResults(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
			return make([]domain.SearchResult, 9), nil
		},
	}
	svc := usecases.NewResearchService(&mockModel{callToolFn: searchCall("q")}, searcher, "google", 3)

	results, err := svc.Run(context.Background(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}
