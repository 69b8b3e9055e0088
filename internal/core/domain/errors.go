package domain

import (
	"fmt"
	"strings"
	"time"
)

// ConfigurationError lists missing or invalid settings found at startup.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Problems, "\n  - "))
}

// ValidationError rejects a request before the pipeline starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// GeocodingFailure says why a location could not be resolved.
type GeocodingFailure string

const (
	GeocodingRefinement    GeocodingFailure = "refinement"
	GeocodingNoMatch       GeocodingFailure = "noMatch"
	GeocodingInvalidBounds GeocodingFailure = "invalidBounds"
	GeocodingUpstream      GeocodingFailure = "upstream"
)

// GeocodingError fails the Geocoding stage.
type GeocodingError struct {
	Reason GeocodingFailure
	Query  string
	Err    error
}

func (e *GeocodingError) Error() string {
	switch e.Reason {
	case GeocodingNoMatch:
		return fmt.Sprintf("no geocoding results found for %q", e.Query)
	case GeocodingRefinement:
		if e.Err != nil {
			return fmt.Sprintf("could not refine location from prompt: %v", e.Err)
		}
		return "could not refine a location name from the prompt"
	case GeocodingInvalidBounds:
		return fmt.Sprintf("geocoder returned an invalid bounding box for %q: %v", e.Query, e.Err)
	default:
		return fmt.Sprintf("geocoding %q failed: %v", e.Query, e.Err)
	}
}

func (e *GeocodingError) Unwrap() error { return e.Err }

// AgentToolSelectionError is returned when the research model does not
// invoke the one tool it was given.
type AgentToolSelectionError struct {
	Expected string
	Got      string
}

func (e *AgentToolSelectionError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("research agent did not call %s", e.Expected)
	}
	return fmt.Sprintf("research agent called %s instead of %s", e.Got, e.Expected)
}

// ImageFetchError fails the Imaging stage on the first unsuccessful request.
// Status is zero when the request never produced a response.
type ImageFetchError struct {
	Layer    string
	Snapshot SnapshotRole
	Status   int
	Err      error
}

func (e *ImageFetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to fetch %s image for layer %s: status %d", e.Snapshot, e.Layer, e.Status)
	}
	return fmt.Sprintf("failed to fetch %s image for layer %s: %v", e.Snapshot, e.Layer, e.Err)
}

func (e *ImageFetchError) Unwrap() error { return e.Err }

// SynthesisParseError is returned when the synthesis output holds no usable report.
type SynthesisParseError struct {
	Reason string
	Err    error
}

func (e *SynthesisParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis failed: %s: %v", e.Reason, e.Err)
	}
	return "analysis failed: " + e.Reason
}

func (e *SynthesisParseError) Unwrap() error { return e.Err }

// TimeoutError is returned when a stage exceeds its time budget.
type TimeoutError struct {
	Stage string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s stage timed out after %s", e.Stage, e.After)
}
