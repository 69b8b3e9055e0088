package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/ports"
	"github.com/samirrijal/orbital/internal/pkg/logging"
)

// SynthesisService turns imagery and research into an AnalysisReport.
type SynthesisService struct {
	model  ports.LanguageModel
	layers []domain.ImagingLayer
}

// NewSynthesisService creates a new SynthesisService. layers names the image
// order in the instruction.
func NewSynthesisService(model ports.LanguageModel, layers []domain.ImagingLayer) *SynthesisService {
	if len(layers) == 0 {
		layers = domain.DefaultLayers()
	}
	return &SynthesisService{model: model, layers: layers}
}

// Synthesize makes one model call and parses its answer. It is never retried.
func (s *SynthesisService) Synthesize(ctx context.Context, images []domain.ImageAsset, research []domain.SearchResult) (domain.AnalysisReport, error) {
	prompt, err := synthesisPrompt(s.layers, len(images), research)
	if err != nil {
		return domain.AnalysisReport{}, err
	}

	text, err := s.model.GenerateWithImages(ctx, prompt, images)
	if err != nil {
		return domain.AnalysisReport{}, fmt.Errorf("synthesis agent: %w", err)
	}

	report, err := ParseAnalysisReport(text)
	if err != nil {
		logging.FromContext(ctx).Error("synthesis produced no usable report", "error", err, "response_len", len(text))
		return domain.AnalysisReport{}, err
	}

	report.Sources = restrictSources(report.Sources, research)
	return report, nil
}

// restrictSources keeps only cited sources that appear in research, replaced
// by the research record itself. When nothing matches, all research is cited.
func restrictSources(cited, research []domain.SearchResult) []domain.SearchResult {
	byURL := make(map[string]domain.SearchResult, len(research))
	for _, r := range research {
		byURL[r.URL] = r
	}

	seen := make(map[string]bool)
	out := make([]domain.SearchResult, 0, len(cited))
	for _, c := range cited {
		r, ok := byURL[c.URL]
		if !ok || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, r)
	}
	if len(out) == 0 {
		out = append(out, research...)
	}
	return out
}
