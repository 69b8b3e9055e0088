package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/ports"
	"github.com/samirrijal/orbital/internal/pkg/geospatial"
	"github.com/samirrijal/orbital/internal/pkg/logging"
	"github.com/samirrijal/orbital/internal/pkg/metrics"
)

// LocationService turns free text into a resolved location. It is the only
// component that knows the geocoder's edge order.
type LocationService struct {
	model     ports.LanguageModel
	geocoder  ports.Geocoder
	cache     ports.CacheService
	cacheTTL  int
	minRadius float64
}

// NewLocationService creates a new LocationService. cache may be nil.
// minRadiusMeters sizes the box built around point results.
func NewLocationService(model ports.LanguageModel, geocoder ports.Geocoder, cache ports.CacheService, cacheTTL int, minRadiusMeters float64) *LocationService {
	return &LocationService{
		model:     model,
		geocoder:  geocoder,
		cache:     cache,
		cacheTTL:  cacheTTL,
		minRadius: minRadiusMeters,
	}
}

// Resolve refines query into a formal place name and geocodes it.
func (s *LocationService) Resolve(ctx context.Context, query string) (domain.ResolvedLocation, error) {
	name, err := s.Refine(ctx, query)
	if err != nil {
		return domain.ResolvedLocation{}, err
	}
	return s.Lookup(ctx, name)
}

// Refine asks the language model for the formal name of the place in query.
func (s *LocationService) Refine(ctx context.Context, query string) (string, error) {
	cacheKey := "location:refine:" + cacheToken(query)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil && len(data) > 0 {
			metrics.CacheHits.WithLabelValues("refine").Inc()
			return string(data), nil
		}
		metrics.CacheMisses.WithLabelValues("refine").Inc()
	}

	answer, err := s.model.GenerateText(ctx, refinePrompt(query))
	if err != nil {
		return "", &domain.GeocodingError{Reason: domain.GeocodingRefinement, Query: query, Err: err}
	}
	name := strings.Trim(strings.TrimSpace(answer), `"'`)
	if name == "" {
		return "", &domain.GeocodingError{Reason: domain.GeocodingRefinement, Query: query}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, []byte(name), s.cacheTTL); err != nil {
			logging.FromContext(ctx).Debug("cache set failed", "key", cacheKey, "error", err)
		}
	}
	return name, nil
}

// Lookup geocodes a formal place name and returns the first match.
func (s *LocationService) Lookup(ctx context.Context, name string) (domain.ResolvedLocation, error) {
	cacheKey := "location:geocode:" + cacheToken(name)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var loc domain.ResolvedLocation
			if err := json.Unmarshal(data, &loc); err == nil && loc.BoundingBox.Validate() == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return loc, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	matches, err := s.geocoder.Search(ctx, name, 1)
	if err != nil {
		return domain.ResolvedLocation{}, &domain.GeocodingError{Reason: domain.GeocodingUpstream, Query: name, Err: err}
	}
	if len(matches) == 0 {
		return domain.ResolvedLocation{}, &domain.GeocodingError{Reason: domain.GeocodingNoMatch, Query: name}
	}

	box, err := NormalizeBoundingBox(matches[0].BoundingBox, s.minRadius)
	if err != nil {
		return domain.ResolvedLocation{}, &domain.GeocodingError{Reason: domain.GeocodingInvalidBounds, Query: name, Err: err}
	}
	loc := domain.ResolvedLocation{DisplayName: matches[0].DisplayName, BoundingBox: box}
	if loc.DisplayName == "" {
		loc.DisplayName = name
	}

	if s.cache != nil {
		if data, err := json.Marshal(loc); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.cacheTTL); err != nil {
				logging.FromContext(ctx).Debug("cache set failed", "key", cacheKey, "error", err)
			}
		}
	}
	return loc, nil
}

// NormalizeBoundingBox assigns roles to the geocoder's raw edges, which
// arrive as south, north, west, east. A point result (zero height or width)
// is widened to a box of minRadiusMeters around its centre.
func NormalizeBoundingBox(raw []string, minRadiusMeters float64) (domain.BoundingBox, error) {
	if len(raw) != 4 {
		return domain.BoundingBox{}, fmt.Errorf("expected 4 edges, got %d", len(raw))
	}
	var edges [4]float64
	for i, r := range raw {
		v, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return domain.BoundingBox{}, fmt.Errorf("edge %d: %w", i, err)
		}
		edges[i] = v
	}
	south, north, west, east := edges[0], edges[1], edges[2], edges[3]

	if (south == north || west == east) && minRadiusMeters > 0 {
		lat, lon := (south+north)/2, (west+east)/2
		minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, minRadiusMeters)
		if south == north {
			south, north = minLat, maxLat
		}
		if west == east {
			west, east = minLon, maxLon
		}
	}

	return domain.NewBoundingBox(south, north, west, east)
}

func cacheToken(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
