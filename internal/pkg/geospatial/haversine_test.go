package geospatial_test

import (
	"math"
	"testing"

	"github.com/samirrijal/orbital/internal/pkg/geospatial"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// Manaus -> Belem is roughly 1290 km.
	d := geospatial.Haversine(-3.119, -60.0217, -1.4558, -48.4902)
	if d < 1_250_000 || d > 1_330_000 {
		t.Errorf("expected ~1290 km, got %.0f m", d)
	}
}

func TestHaversine_SamePoint(t *testing.T) {
	if d := geospatial.Haversine(43.263, -2.935, 43.263, -2.935); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestBoundingBox_ContainsPoint(t *testing.T) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(43.263, -2.935, 1000)
	if !(minLat < 43.263 && 43.263 < maxLat) {
		t.Errorf("latitude not inside box: %f..%f", minLat, maxLat)
	}
	if !(minLon < -2.935 && -2.935 < maxLon) {
		t.Errorf("longitude not inside box: %f..%f", minLon, maxLon)
	}
	// Half-height should be ~1km.
	half := geospatial.Haversine(minLat, -2.935, 43.263, -2.935)
	if math.Abs(half-1000) > 5 {
		t.Errorf("expected ~1000 m half-height, got %.1f", half)
	}
}

func TestBoundingBox_ClampsAtPole(t *testing.T) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(89.999, 179.999, 5000)
	if maxLat > 90 || maxLon > 180 || minLat < -90 || minLon < -180 {
		t.Errorf("box not clamped: %f %f %f %f", minLat, minLon, maxLat, maxLon)
	}
}
