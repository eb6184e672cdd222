package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nexus-capture/internal/domain"
)

// keepAliveInterval is how often an idle event stream gets a comment line.
const keepAliveInterval = 30 * time.Second

// EventSource hands out capture event subscriptions.
type EventSource interface {
	Subscribe() (<-chan domain.CaptureEvent, func())
}

// EventsHandler streams capture events as Server-Sent Events
type EventsHandler struct {
	source EventSource
	logger domain.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(source EventSource, logger domain.Logger) *EventsHandler {
	return &EventsHandler{
		source: source,
		logger: logger,
	}
}

// Stream writes one "captureComplete" event per completed dispatch until the client goes away
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.source.Subscribe()
	defer cancel()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("Failed to encode event", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Action, data)
			flusher.Flush()
		}
	}
}
