package usecases

import (
	"encoding/json"
	"strings"

	"github.com/samirrijal/orbital/internal/core/domain"
)

// ExtractJSONObject returns the span from the first '{' through the last '}'
// of text. ok is false when no such span exists.
func ExtractJSONObject(text string) (span string, ok bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// ParseAnalysisReport extracts and validates the report embedded in a model answer.
func ParseAnalysisReport(text string) (domain.AnalysisReport, error) {
	span, ok := ExtractJSONObject(text)
	if !ok {
		return domain.AnalysisReport{}, &domain.SynthesisParseError{Reason: "response contains no JSON object"}
	}

	var report domain.AnalysisReport
	if err := json.Unmarshal([]byte(span), &report); err != nil {
		return domain.AnalysisReport{}, &domain.SynthesisParseError{Reason: "response is not a valid report", Err: err}
	}
	if err := report.Validate(); err != nil {
		return domain.AnalysisReport{}, &domain.SynthesisParseError{Reason: "report failed validation", Err: err}
	}
	return report, nil
}
