package proxy

import (
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/hermes/pkg/anthropic"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, 201, map[string]string{"ok": "yes"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if rec.Code != 201 {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"ok":"yes"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := anthropic.NewErrorResponse(anthropic.ErrRateLimit, "slow down", nil)
	if err := WriteError(rec, 429, resp); err != nil {
		t.Fatalf("WriteError: %v", err)
	}
	if rec.Code != 429 {
		t.Errorf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"type":"error"`) || !strings.Contains(body, "rate_limit_error") {
		t.Errorf("body = %q", body)
	}
}

func TestSetSSEHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSSEHeaders(rec)
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("cache control = %q", got)
	}
}

func TestWriteSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	event := anthropic.NewPingEvent()
	if err := WriteSSEEvent(rec, event); err != nil {
		t.Fatalf("WriteSSEEvent: %v", err)
	}
	want := "event: ping\ndata: {\"type\":\"ping\"}\n\n"
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
	if !rec.Flushed {
		t.Error("response not flushed")
	}
}
