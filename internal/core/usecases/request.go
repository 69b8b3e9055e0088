package usecases

import (
	"strings"
	"time"

	"github.com/samirrijal/orbital/internal/core/domain"
)

// ParseReportRequest validates the raw request fields. Dates may be RFC 3339
// timestamps or plain YYYY-MM-DD days.
func ParseReportRequest(prompt, historicalDate, currentDate string) (domain.ReportRequest, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.ReportRequest{}, &domain.ValidationError{Field: "prompt", Reason: "is required"}
	}

	historical, err := parseDate("historicalDate", historicalDate)
	if err != nil {
		return domain.ReportRequest{}, err
	}
	current, err := parseDate("currentDate", currentDate)
	if err != nil {
		return domain.ReportRequest{}, err
	}
	if historical.After(current) {
		return domain.ReportRequest{}, &domain.ValidationError{Field: "historicalDate", Reason: "must not be after currentDate"}
	}

	return domain.ReportRequest{Prompt: prompt, Historical: historical, Current: current}, nil
}

func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &domain.ValidationError{Field: field, Reason: "is required"}
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &domain.ValidationError{Field: field, Reason: "must be an ISO-8601 date"}
}
