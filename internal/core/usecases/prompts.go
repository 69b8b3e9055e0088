package usecases

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/ports"
)

// SearchToolName is the only tool offered to the research model.
const SearchToolName = "searchTheWeb"

// searchTool declares the web-search capability.
var searchTool = ports.Tool{
	Name:        SearchToolName,
	Description: "Performs a live web search.",
	Params: []ports.ToolParam{
		{Name: "query", Description: "The search query.", Required: true},
	},
}

func refinePrompt(query string) string {
	return `You are a geocoding assistant. Rewrite the user's text as the formal name of a place that a geocoding API can look up. Return ONLY the formal name, with no quotes or explanation. Examples: "burma" -> "Myanmar", "the big apple" -> "New York City, USA".` +
		fmt.Sprintf("\n\nUser Input: %q\nYour Response:", query)
}

func researchPrompt(prompt string) string {
	return fmt.Sprintf(`From the user's query, identify the main geographical location. Then call the '%s' tool with a query formatted as "{Location Name} climate change". User Query: %q`,
		SearchToolName, prompt)
}

func synthesisPrompt(layers []domain.ImagingLayer, imageCount int, research []domain.SearchResult) (string, error) {
	researchJSON, err := json.MarshalIndent(research, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode research: %w", err)
	}

	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = l.Name
	}

	var b strings.Builder
	b.WriteString("You are an expert climate scientist and geospatial analyst. Synthesize satellite imagery with pre-compiled web research.\n\n")
	b.WriteString("INPUTS:\n")
	fmt.Fprintf(&b, "1. Satellite imagery: %d images, a historical and a current image for each of these layers in order: %s.\n",
		imageCount, strings.Join(names, ", "))
	b.WriteString("2. Web research: the JSON below holds web search results about climate change in the target location. Use it for your analysis and sources.\n\n")
	b.WriteString("WEB RESEARCH RESULTS:\n```json\n")
	b.Write(researchJSON)
	b.WriteString("\n```\n\n")
	b.WriteString("WORKFLOW:\n")
	b.WriteString("1. Compare each historical image with its current counterpart and identify the key visual changes.\n")
	b.WriteString("2. Connect the visual findings to the supplied research and cite it.\n")
	b.WriteString("3. Produce data for AT LEAST TWO charts (bar, pie or line) from visual estimates and facts in the research.\n")
	b.WriteString("4. Populate 'sources' only with entries from the supplied research JSON.\n\n")
	b.WriteString("OUTPUT:\nRespond ONLY with a single valid JSON object, not wrapped in Markdown:\n")
	b.WriteString(`{
  "summary": "Synthesis connecting the visual changes with the supplied research.",
  "keyChanges": ["The most significant changes across all image types."],
  "potentialCauses": [{"cause": "e.g. Accelerated Sea Level Rise", "explanation": "Explanation backed by the research.", "confidence": "High | Medium | Low"}],
  "predictions": "A data-driven prediction for the area if trends continue.",
  "charts": [{"type": "bar", "title": "e.g. Forest Cover Change (sq km)", "data": [{"name": "2015", "value": 1500}, {"name": "2024", "value": 1350}]}],
  "sources": [{"title": "Title from the research", "url": "https://...", "snippet": "Snippet from the research"}]
}
`)
	return b.String(), nil
}
