package domain

import (
	"fmt"

	"github.com/samirrijal/orbital/internal/pkg/geospatial"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox is a geographic rectangle with named edges.
//
// External systems disagree on tuple ordering (the geocoder returns
// south/north/west/east, the map view wants [[south,west],[north,east]],
// the imagery service wants [west,south,east,north]), so the box is only
// ever handed around in this form and converted through the accessors below.
type BoundingBox struct {
	South float64 `json:"south"`
	North float64 `json:"north"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
}

// NewBoundingBox builds a box from named edges and validates it.
func NewBoundingBox(south, north, west, east float64) (BoundingBox, error) {
	b := BoundingBox{South: south, North: north, West: west, East: east}
	if err := b.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return b, nil
}

// Validate checks edge ranges and ordering.
func (b BoundingBox) Validate() error {
	switch {
	case b.South < -90 || b.North > 90:
		return fmt.Errorf("latitude out of range: south=%g north=%g", b.South, b.North)
	case b.West < -180 || b.East > 180:
		return fmt.Errorf("longitude out of range: west=%g east=%g", b.West, b.East)
	case b.South >= b.North:
		return fmt.Errorf("south edge %g must be below north edge %g", b.South, b.North)
	case b.West >= b.East:
		return fmt.Errorf("west edge %g must be left of east edge %g", b.West, b.East)
	}
	return nil
}

// MapView returns the map-rendering form [[south, west], [north, east]].
func (b BoundingBox) MapView() [2][2]float64 {
	return [2][2]float64{{b.South, b.West}, {b.North, b.East}}
}

// ImageryQuery returns the imagery-service form [west, south, east, north].
func (b BoundingBox) ImageryQuery() [4]float64 {
	return [4]float64{b.West, b.South, b.East, b.North}
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() GeoPoint {
	return GeoPoint{Lat: (b.South + b.North) / 2, Lon: (b.West + b.East) / 2}
}

// DiagonalMeters is the great-circle distance between the south-west and
// north-east corners.
func (b BoundingBox) DiagonalMeters() float64 {
	return geospatial.Haversine(b.South, b.West, b.North, b.East)
}

// ResolvedLocation is the outcome of geocoding a free-text place name.
type ResolvedLocation struct {
	DisplayName string      `json:"displayName"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// MapConfig is what the rendering surface needs to frame both map views.
type MapConfig struct {
	Bounds     [2][2]float64 `json:"bounds"`
	InstanceID string        `json:"instanceId,omitempty"`
}

// NewMapConfig derives the map configuration from a resolved location.
func NewMapConfig(loc ResolvedLocation, instanceID string) MapConfig {
	return MapConfig{Bounds: loc.BoundingBox.MapView(), InstanceID: instanceID}
}
