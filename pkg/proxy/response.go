package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"

	"mercator-hq/hermes/pkg/anthropic"
)

// WriteJSON writes data as a JSON response body.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("encoding JSON response: %w", err)
	}
	return nil
}

// WriteError writes an inbound-protocol error body with the given status.
func WriteError(w http.ResponseWriter, statusCode int, resp *anthropic.ErrorResponse) error {
	return WriteJSON(w, statusCode, resp)
}

// SetSSEHeaders prepares the response for Server-Sent Events streaming.
// The caller must flush after writing them and before the first event.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// WriteSSEEvent writes one named stream event as
// "event: <name>\ndata: <json>\n\n" and flushes immediately.
func WriteSSEEvent(w http.ResponseWriter, event anthropic.StreamEvent) error {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshaling SSE event %q: %w", event.Name, err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data); err != nil {
		return fmt.Errorf("writing SSE event %q: %w", event.Name, err)
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// Flush flushes any buffered response data when the writer supports it.
func Flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
