package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventKind discriminates progress events.
type EventKind int

const (
	EventStatus EventKind = iota
	EventError
	EventFinalResult
)

const (
	wireTypeError       = "error"
	wireTypeFinalResult = "finalResult"
)

// ProgressEvent is one message on a run's progress stream. Exactly one of
// Status, Message or Payload is meaningful, selected by Kind.
type ProgressEvent struct {
	Kind    EventKind
	Status  string
	Message string
	Payload *ReportPayload
}

// StatusEvent reports which stage is about to execute.
func StatusEvent(text string) ProgressEvent {
	return ProgressEvent{Kind: EventStatus, Status: text}
}

// ErrorEvent ends a run with a human-readable failure.
func ErrorEvent(message string) ProgressEvent {
	return ProgressEvent{Kind: EventError, Message: message}
}

// FinalResultEvent ends a run with the report payload.
func FinalResultEvent(p ReportPayload) ProgressEvent {
	return ProgressEvent{Kind: EventFinalResult, Payload: &p}
}

// Terminal reports whether the event ends the stream.
func (e ProgressEvent) Terminal() bool {
	return e.Kind == EventError || e.Kind == EventFinalResult
}

// MarshalJSON writes one of {status}, {type:error,message}, {type:finalResult,payload}.
func (e ProgressEvent) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EventStatus:
		return json.Marshal(struct {
			Status string `json:"status"`
		}{e.Status})
	case EventError:
		return json.Marshal(struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{wireTypeError, e.Message})
	case EventFinalResult:
		if e.Payload == nil {
			return nil, errors.New("finalResult event without payload")
		}
		return json.Marshal(struct {
			Type    string         `json:"type"`
			Payload *ReportPayload `json:"payload"`
		}{wireTypeFinalResult, e.Payload})
	default:
		return nil, fmt.Errorf("unknown event kind %d", e.Kind)
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *ProgressEvent) UnmarshalJSON(data []byte) error {
	var w struct {
		Status  *string        `json:"status"`
		Type    string         `json:"type"`
		Message string         `json:"message"`
		Payload *ReportPayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Type == wireTypeError:
		*e = ErrorEvent(w.Message)
	case w.Type == wireTypeFinalResult:
		if w.Payload == nil {
			return errors.New("finalResult event without payload")
		}
		*e = FinalResultEvent(*w.Payload)
	case w.Status != nil:
		*e = StatusEvent(*w.Status)
	default:
		return fmt.Errorf("unrecognised progress event %s", data)
	}
	return nil
}

// PipelineState is a state of the report pipeline.
type PipelineState int

const (
	StateIdle PipelineState = iota
	StateGeocoding
	StateResearching
	StateImaging
	StateSynthesizing
	StateDone
	StateFailed
)

var stateNames = [...]string{"idle", "geocoding", "researching", "imaging", "synthesizing", "done", "failed"}

func (s PipelineState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further stage may run.
func (s PipelineState) Terminal() bool {
	return s == StateDone || s == StateFailed
}
