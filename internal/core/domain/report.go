package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ReportRequest is the validated input of one pipeline run.
type ReportRequest struct {
	Prompt     string
	Historical time.Time
	Current    time.Time
}

// Snapshots returns the historical and current snapshots, in that order.
func (r ReportRequest) Snapshots() [2]Snapshot {
	return [2]Snapshot{
		{Role: SnapshotHistorical, Date: r.Historical},
		{Role: SnapshotCurrent, Date: r.Current},
	}
}

// SearchResult is one piece of external evidence.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Confidence grades a potential cause.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// UnmarshalJSON accepts the three grades case-insensitively.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		*c = ConfidenceLow
	case "medium":
		*c = ConfidenceMedium
	case "high":
		*c = ConfidenceHigh
	default:
		return fmt.Errorf("unknown confidence %q", s)
	}
	return nil
}

// PotentialCause is one candidate explanation for the observed change.
type PotentialCause struct {
	Cause       string     `json:"cause"`
	Explanation string     `json:"explanation"`
	Confidence  Confidence `json:"confidence"`
}

// AnalysisReport is the structured output of the synthesis stage.
type AnalysisReport struct {
	Summary         string           `json:"summary"`
	KeyChanges      []string         `json:"keyChanges"`
	PotentialCauses []PotentialCause `json:"potentialCauses"`
	Predictions     string           `json:"predictions"`
	Charts          []ChartSpec      `json:"charts"`
	Sources         []SearchResult   `json:"sources"`
}

// Validate rejects reports the rendering surface could not display. Every
// section must be present; list sections may be empty but not absent.
func (r AnalysisReport) Validate() error {
	switch {
	case strings.TrimSpace(r.Summary) == "":
		return errors.New("summary is empty")
	case r.KeyChanges == nil:
		return errors.New("keyChanges is missing")
	case r.PotentialCauses == nil:
		return errors.New("potentialCauses is missing")
	case strings.TrimSpace(r.Predictions) == "":
		return errors.New("predictions is empty")
	case r.Charts == nil:
		return errors.New("charts is missing")
	case r.Sources == nil:
		return errors.New("sources is missing")
	}
	for i, c := range r.Charts {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("chart %d: %w", i, err)
		}
	}
	return nil
}

// ChartType discriminates the ChartSpec union.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
)

// SeriesPoint is a bar or line data point: a label plus one or more named series.
type SeriesPoint struct {
	Name   string
	Values map[string]float64
}

// PieSlice is one slice of a pie chart.
type PieSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ChartSpec is a closed union on Type. Bar and line charts carry Points,
// pie charts carry Slices; the other field is always empty.
type ChartSpec struct {
	Type   ChartType
	Title  string
	Points []SeriesPoint
	Slices []PieSlice
}

// Validate checks that the populated variant matches Type.
func (c ChartSpec) Validate() error {
	switch c.Type {
	case ChartBar, ChartLine:
		if len(c.Slices) > 0 {
			return fmt.Errorf("%s chart carries pie slices", c.Type)
		}
		for _, p := range c.Points {
			if len(p.Values) == 0 {
				return fmt.Errorf("%s point %q has no numeric series", c.Type, p.Name)
			}
		}
	case ChartPie:
		if len(c.Points) > 0 {
			return errors.New("pie chart carries series points")
		}
	default:
		return fmt.Errorf("unknown chart type %q", c.Type)
	}
	return nil
}

type chartWire struct {
	Type  ChartType         `json:"type"`
	Title string            `json:"title"`
	Data  []json.RawMessage `json:"data"`
}

// MarshalJSON writes the wire shape {type, title, data}.
func (c ChartSpec) MarshalJSON() ([]byte, error) {
	out := struct {
		Type  ChartType `json:"type"`
		Title string    `json:"title"`
		Data  []any     `json:"data"`
	}{Type: c.Type, Title: c.Title, Data: []any{}}

	switch c.Type {
	case ChartPie:
		for _, s := range c.Slices {
			out.Data = append(out.Data, s)
		}
	default:
		for _, p := range c.Points {
			m := make(map[string]any, len(p.Values)+1)
			for k, v := range p.Values {
				m[k] = v
			}
			m["name"] = p.Name
			out.Data = append(out.Data, m)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the variant selected by "type".
func (c *ChartSpec) UnmarshalJSON(data []byte) error {
	var w chartWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	spec := ChartSpec{Type: ChartType(strings.ToLower(string(w.Type))), Title: w.Title}

	switch spec.Type {
	case ChartPie:
		for i, raw := range w.Data {
			var slice struct {
				Name  string   `json:"name"`
				Value *float64 `json:"value"`
			}
			if err := json.Unmarshal(raw, &slice); err != nil {
				return fmt.Errorf("pie slice %d: %w", i, err)
			}
			if slice.Value == nil {
				return fmt.Errorf("pie slice %d: missing value", i)
			}
			spec.Slices = append(spec.Slices, PieSlice{Name: slice.Name, Value: *slice.Value})
		}
	case ChartBar, ChartLine:
		for i, raw := range w.Data {
			p, err := decodeSeriesPoint(raw)
			if err != nil {
				return fmt.Errorf("%s point %d: %w", spec.Type, i, err)
			}
			spec.Points = append(spec.Points, p)
		}
	default:
		return fmt.Errorf("unknown chart type %q", w.Type)
	}

	if err := spec.Validate(); err != nil {
		return err
	}
	*c = spec
	return nil
}

func decodeSeriesPoint(raw json.RawMessage) (SeriesPoint, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return SeriesPoint{}, err
	}

	p := SeriesPoint{Values: make(map[string]float64)}
	for k, v := range fields {
		if k == "name" {
			p.Name = fmt.Sprint(v)
			continue
		}
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		f, err := n.Float64()
		if err != nil {
			return SeriesPoint{}, fmt.Errorf("series %q: %w", k, err)
		}
		p.Values[k] = f
	}
	if len(p.Values) == 0 {
		return SeriesPoint{}, errors.New("no numeric series")
	}
	return p, nil
}

// ReportPayload is the body of the terminal finalResult event.
type ReportPayload struct {
	MapConfig      MapConfig      `json:"mapConfig"`
	AnalysisResult AnalysisReport `json:"analysisResult"`
}
