package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRecordRequestExposed(t *testing.T) {
	rm := NewRequestMetrics("hermes")
	rm.RecordRequest("claude-3-opus", "gpt-4o", StatusSuccess, 250*time.Millisecond)
	rm.RecordTokens("claude-3-opus", 100, 20)
	rm.RecordStreamEvent("message_start")

	rec := httptest.NewRecorder()
	rm.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"hermes_gateway_requests_total",
		`model="claude-3-opus"`,
		`target_model="gpt-4o"`,
		"hermes_gateway_tokens_total",
		"hermes_gateway_stream_events_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestSeparateRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := NewRequestMetrics("hermes")
	b := NewRequestMetrics("hermes")
	a.RecordRequest("m", "t", StatusError, time.Second)
	b.RecordRequest("m", "t", StatusError, time.Second)
}
