package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/ports"
	"github.com/samirrijal/orbital/internal/pkg/logging"
	"github.com/samirrijal/orbital/internal/pkg/metrics"
)

// DefaultResultCount bounds a research search when none is configured.
const DefaultResultCount = 5

// ResearchService asks the model for a search query and runs it.
type ResearchService struct {
	model       ports.LanguageModel
	searcher    ports.WebSearcher
	provider    string
	resultCount int
}

// NewResearchService creates a new ResearchService. provider only labels metrics.
func NewResearchService(model ports.LanguageModel, searcher ports.WebSearcher, provider string, resultCount int) *ResearchService {
	if resultCount <= 0 {
		resultCount = DefaultResultCount
	}
	return &ResearchService{model: model, searcher: searcher, provider: provider, resultCount: resultCount}
}

// Run returns web evidence for prompt. The model must call the search tool
// with a non-empty query; a failing search degrades to no results.
func (s *ResearchService) Run(ctx context.Context, prompt string) ([]domain.SearchResult, error) {
	query, err := s.Query(ctx, prompt)
	if err != nil {
		return nil, err
	}

	results, err := s.searcher.Search(ctx, query, s.resultCount)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.FromContext(ctx).Warn("web search failed, continuing without research",
			"query", query, "error", err)
		metrics.SearchDegraded.WithLabelValues(s.provider).Inc()
		return []domain.SearchResult{}, nil
	}

	if len(results) > s.resultCount {
		results = results[:s.resultCount]
	}
	return results, nil
}

// Query asks the model to pick the search query for prompt.
func (s *ResearchService) Query(ctx context.Context, prompt string) (string, error) {
	calls, err := s.model.CallTool(ctx, researchPrompt(prompt), searchTool)
	if err != nil {
		return "", fmt.Errorf("research agent: %w", err)
	}
	if len(calls) == 0 {
		return "", &domain.AgentToolSelectionError{Expected: SearchToolName}
	}

	call := calls[0]
	if call.Name != SearchToolName {
		return "", &domain.AgentToolSelectionError{Expected: SearchToolName, Got: call.Name}
	}
	query, _ := call.Args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", &domain.AgentToolSelectionError{Expected: SearchToolName, Got: SearchToolName + " without a query"}
	}
	return query, nil
}
