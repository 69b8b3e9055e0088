package domain

import "time"

// ImagingLayer is a spectral or thematic imagery product.
type ImagingLayer struct {
	ID   string `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
}

// DefaultLayers is the layer set analysed when configuration does not override it.
func DefaultLayers() []ImagingLayer {
	return []ImagingLayer{
		{ID: "1_TRUE_COLOR", Name: "True Color"},
		{ID: "NDVI", Name: "Vegetation Health (NDVI)"},
		{ID: "NDWI", Name: "Water Bodies (NDWI)"},
		{ID: "POLLUTION", Name: "Air Pollution (NO₂)"},
	}
}

// SnapshotRole tags which side of the comparison a snapshot is on.
type SnapshotRole string

const (
	SnapshotHistorical SnapshotRole = "historical"
	SnapshotCurrent    SnapshotRole = "current"
)

// Snapshot is one of the two compared points in time.
type Snapshot struct {
	Role SnapshotRole `json:"role"`
	Date time.Time    `json:"date"`
}

// Day returns the snapshot date as YYYY-MM-DD in UTC.
func (s Snapshot) Day() string {
	return s.Date.UTC().Format(time.DateOnly)
}

// ImageAsset is a raster held in memory for the duration of one synthesis call.
type ImageAsset struct {
	Layer    ImagingLayer
	Snapshot Snapshot
	MimeType string
	Data     []byte
}
