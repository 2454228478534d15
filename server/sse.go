package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var errNoFlusher = errors.New("server: response writer does not support flushing")

// EventWriter frames server-sent events as "event: <name>\ndata: <JSON>\n\n"
// and flushes after each one so deltas reach the client immediately.
type EventWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewEventWriter writes the SSE response headers and returns the writer.
func NewEventWriter(w http.ResponseWriter) (*EventWriter, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, errNoFlusher
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return &EventWriter{w: w, f: f}, nil
}

// Send encodes data as JSON and writes one SSE frame.
func (ew *EventWriter) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("server: encode event data: %w", err)
	}
	if _, err := fmt.Fprintf(ew.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("server: write event: %w", err)
	}
	ew.f.Flush()
	return nil
}
