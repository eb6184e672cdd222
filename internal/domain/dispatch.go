package domain

import (
	"bytes"
	"encoding/json"
)

// Sink slot names.
const (
	SinkNexus  = "nexus"
	SinkNotion = "notion"
)

// SinkOutcome is what one sink produced: either its decoded success payload or an error message.
type SinkOutcome struct {
	Payload json.RawMessage
	Error   string
}

// SucceededOutcome wraps a sink payload.
func SucceededOutcome(payload json.RawMessage) *SinkOutcome {
	return &SinkOutcome{Payload: payload}
}

// FailedOutcome wraps a sink error message.
func FailedOutcome(message string) *SinkOutcome {
	return &SinkOutcome{Error: message}
}

// Failed reports whether the sink was attempted and failed.
func (o *SinkOutcome) Failed() bool {
	return o != nil && o.Error != ""
}

// MarshalJSON renders a failure as {"error": message} and a success as the raw payload.
func (o SinkOutcome) MarshalJSON() ([]byte, error) {
	if o.Error != "" {
		return json.Marshal(map[string]string{"error": o.Error})
	}
	if len(o.Payload) == 0 {
		return []byte("{}"), nil
	}
	return o.Payload, nil
}

// UnmarshalJSON is the inverse of MarshalJSON. An object whose only key is "error" is a failure.
func (o *SinkOutcome) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil && len(fields) == 1 {
		if raw, ok := fields["error"]; ok {
			var msg string
			if err := json.Unmarshal(raw, &msg); err == nil {
				o.Error = msg
				o.Payload = nil
				return nil
			}
		}
	}
	o.Error = ""
	o.Payload = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}

// DispatchResult combines the sink outcomes of one dispatch.
// A nil slot means the sink was disabled or not configured.
type DispatchResult struct {
	NexusResult  *SinkOutcome `json:"nexusResult"`
	NotionResult *SinkOutcome `json:"notionResult"`
}

// Set stores an outcome in the slot named by sink. Unknown names are ignored.
func (r *DispatchResult) Set(sink string, outcome *SinkOutcome) {
	switch sink {
	case SinkNexus:
		r.NexusResult = outcome
	case SinkNotion:
		r.NotionResult = outcome
	}
}

// TranscriptionResult is the outcome of a voice transcription.
type TranscriptionResult struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// SyncReport summarizes a history re-sync.
type SyncReport struct {
	Synced    int `json:"synced"`
	Attempted int `json:"attempted"`
}

// CaptureStats are the counters shown next to the history.
type CaptureStats struct {
	Today int `json:"today"`
	Week  int `json:"week"`
	Book  int `json:"book"`
	Total int `json:"total"`
}

// HealthStatus reports whether the upstream API answered its health check.
type HealthStatus struct {
	Online bool   `json:"online"`
	Error  string `json:"error,omitempty"`
}

// CaptureEvent is broadcast to observers after a dispatch completes.
type CaptureEvent struct {
	Action  string          `json:"action"`
	Capture *Capture        `json:"capture"`
	Results *DispatchResult `json:"results"`
}

// CaptureCompleteAction names the broadcast event.
const CaptureCompleteAction = "captureComplete"
