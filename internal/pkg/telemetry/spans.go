package telemetry

// InstrumentationName identifies spans created by this module.
const InstrumentationName = "github.com/samirrijal/orbital"

// Span names, one per pipeline stage.
const (
	SpanReport     = "report.run"
	SpanGeocode    = "report.geocode"
	SpanResearch   = "report.research"
	SpanImagery    = "report.imagery"
	SpanSynthesize = "report.synthesize"
)

// Span attribute keys.
const (
	AttrRunID       = "orbital.run_id"
	AttrLocation    = "orbital.location"
	AttrLayerCount  = "orbital.layer_count"
	AttrImageCount  = "orbital.image_count"
	AttrSourceCount = "orbital.source_count"
	AttrErrorKind   = "orbital.error_kind"
)
