package domain_test

import (
	"testing"

	"github.com/samirrijal/orbital/internal/core/domain"
)

func TestBoundingBox_MapView(t *testing.T) {
	b := domain.BoundingBox{South: 1, North: 2, West: 3, East: 4}

	got := b.MapView()
	want := [2][2]float64{{1, 3}, {2, 4}}
	if got != want {
		t.Errorf("map view: expected %v, got %v", want, got)
	}
}

func TestBoundingBox_ImageryQuery(t *testing.T) {
	b := domain.BoundingBox{South: 1, North: 2, West: 3, East: 4}

	got := b.ImageryQuery()
	want := [4]float64{3, 1, 4, 2}
	if got != want {
		t.Errorf("imagery query: expected %v, got %v", want, got)
	}
}

func TestNewBoundingBox_Invariants(t *testing.T) {
	tests := []struct {
		name                     string
		south, north, west, east float64
		wantErr                  bool
	}{
		{"valid", -10, 5, -70, -50, false},
		{"south equals north", 5, 5, -70, -50, true},
		{"south above north", 6, 5, -70, -50, true},
		{"west right of east", -10, 5, -40, -50, true},
		{"latitude out of range", -95, 5, -70, -50, true},
		{"longitude out of range", -10, 5, -70, 190, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := domain.NewBoundingBox(tt.south, tt.north, tt.west, tt.east)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got box %+v", b)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !(b.South < b.North && b.West < b.East) {
				t.Errorf("invariant broken: %+v", b)
			}
		})
	}
}

func TestBoundingBox_CenterAndDiagonal(t *testing.T) {
	b := domain.BoundingBox{South: -10, North: 0, West: -70, East: -60}

	c := b.Center()
	if c.Lat != -5 || c.Lon != -65 {
		t.Errorf("unexpected center %+v", c)
	}
	if d := b.DiagonalMeters(); d < 1_000_000 {
		t.Errorf("expected a diagonal over 1000 km, got %.0f m", d)
	}
}

func TestNewMapConfig(t *testing.T) {
	loc := domain.ResolvedLocation{
		DisplayName: "Somewhere",
		BoundingBox: domain.BoundingBox{South: 1, North: 2, West: 3, East: 4},
	}
	cfg := domain.NewMapConfig(loc, "inst-1")
	if cfg.Bounds != [2][2]float64{{1, 3}, {2, 4}} {
		t.Errorf("unexpected bounds %v", cfg.Bounds)
	}
	if cfg.InstanceID != "inst-1" {
		t.Errorf("unexpected instance id %q", cfg.InstanceID)
	}
}
