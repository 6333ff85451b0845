package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/hermes/pkg/openai"
	"mercator-hq/hermes/pkg/processing/tokens"
	"mercator-hq/hermes/pkg/translate"
)

// runeEncoder counts one token per rune, keeping estimates deterministic.
type runeEncoder struct{}

func (runeEncoder) Count(text string) int { return len([]rune(text)) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMessagesHandler(t *testing.T, backendURL string) *MessagesHandler {
	t.Helper()
	logger := discardLogger()
	return NewMessagesHandler(MessagesConfig{
		Logger:     logger,
		Translator: translate.New(logger, false),
		Backend:    openai.NewClient(openai.Config{BaseURL: backendURL, APIKey: "test-key"}, logger),
		Counter:    tokens.NewCounter(runeEncoder{}, logger),
		Routing: func() translate.ModelRouting {
			return translate.ModelRouting{Big: "gpt-4o", Small: "gpt-4o-mini"}
		},
	})
}

func postMessages(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMessagesNonStreaming(t *testing.T) {
	var gotBackendReq openai.ChatRequest
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBackendReq); err != nil {
			t.Errorf("decoding backend request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "cmpl-1",
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Hello there"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 9, "completion_tokens": 3, "total_tokens": 12},
		})
	}))
	defer backend.Close()

	h := newMessagesHandler(t, backend.URL)
	rec := postMessages(t, h, `{"model":"claude-3-opus","max_tokens":64,"messages":[{"role":"user","content":"Hi"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotBackendReq.Model != "gpt-4o" {
		t.Errorf("backend model = %q, want routed big model", gotBackendReq.Model)
	}

	var resp struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Model      string `json:"model"`
		StopReason string `json:"stop_reason"`
		Content    []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Type != "message" || resp.Model != "claude-3-opus" {
		t.Errorf("type/model = %q/%q", resp.Type, resp.Model)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("stop_reason = %q", resp.StopReason)
	}
	if len(resp.Content) != 1 || resp.Content[0].Text != "Hello there" {
		t.Errorf("content = %+v", resp.Content)
	}
	if resp.Usage.InputTokens != 9 || resp.Usage.OutputTokens != 3 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestMessagesBackendErrorMapped(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	}))
	defer backend.Close()

	h := newMessagesHandler(t, backend.URL)
	rec := postMessages(t, h, `{"model":"claude-3-haiku","max_tokens":10,"messages":[{"role":"user","content":"Hi"}]}`)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Type  string `json:"type"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if resp.Type != "error" || resp.Error.Type != "rate_limit_error" {
		t.Errorf("error shape = %+v", resp)
	}
	if !strings.Contains(resp.Error.Message, "slow down") {
		t.Errorf("message = %q, want backend detail preserved", resp.Error.Message)
	}
}

func TestMessagesValidation(t *testing.T) {
	h := newMessagesHandler(t, "http://unused.invalid")

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"model":`, http.StatusBadRequest},
		{"missing model", `{"max_tokens":5,"messages":[{"role":"user","content":"x"}]}`, http.StatusUnprocessableEntity},
		{"zero max_tokens", `{"model":"claude-3-opus","max_tokens":0,"messages":[{"role":"user","content":"x"}]}`, http.StatusUnprocessableEntity},
		{"empty messages", `{"model":"claude-3-opus","max_tokens":5,"messages":[]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postMessages(t, h, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if !strings.Contains(rec.Body.String(), "invalid_request_error") {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestMessagesStreaming(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Stream {
			t.Errorf("backend request not streaming: %+v err=%v", req, err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"id":"c1","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`,
			`{"id":"c1","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
			`{"id":"c1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		}
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer backend.Close()

	h := newMessagesHandler(t, backend.URL)
	rec := postMessages(t, h, `{"model":"claude-3-sonnet","max_tokens":64,"stream":true,"messages":[{"role":"user","content":"Hi"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	body := rec.Body.String()
	wantOrder := []string{
		"event: message_start",
		"event: ping",
		"event: content_block_start",
		`"text_delta","text":"Hel"`,
		`"text_delta","text":"lo"`,
		"event: content_block_stop",
		`"stop_reason":"end_turn"`,
		"event: message_stop",
	}
	pos := 0
	for _, want := range wantOrder {
		idx := strings.Index(body[pos:], want)
		if idx < 0 {
			t.Fatalf("missing %q after offset %d in body:\n%s", want, pos, body)
		}
		pos += idx + len(want)
	}
}

func TestMessagesStreamingBackendFailureMidStream(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, `data: {"id":"c1","choices":[{"index":0,"delta":{"content":"Par"}}]}`+"\n\n")
		io.WriteString(w, "data: {malformed\n\n")
	}))
	defer backend.Close()

	h := newMessagesHandler(t, backend.URL)
	rec := postMessages(t, h, `{"model":"claude-3-sonnet","max_tokens":64,"stream":true,"messages":[{"role":"user","content":"Hi"}]}`)

	body := rec.Body.String()
	if !strings.Contains(body, `"text":"Par"`) {
		t.Errorf("delta before failure missing:\n%s", body)
	}
	if count := strings.Count(body, "event: error"); count != 1 {
		t.Errorf("error events = %d, want exactly 1:\n%s", count, body)
	}
	if strings.Contains(body, "event: message_stop") {
		t.Errorf("message_stop emitted after in-band error:\n%s", body)
	}
}

func TestMessagesStreamOpenFailureIsPlainHTTPError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key"}}`)
	}))
	defer backend.Close()

	h := newMessagesHandler(t, backend.URL)
	rec := postMessages(t, h, `{"model":"claude-3-sonnet","max_tokens":64,"stream":true,"messages":[{"role":"user","content":"Hi"}]}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want JSON error before stream opens", ct)
	}
	if !strings.Contains(rec.Body.String(), "authentication_error") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestTokenCountHandler(t *testing.T) {
	h := NewTokenCountHandler(tokens.NewCounter(runeEncoder{}, discardLogger()), discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/messages/count_tokens",
		strings.NewReader(`{"model":"claude-3-opus","messages":[{"role":"user","content":"hi"}]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		InputTokens int `json:"input_tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// 4 per-message overhead + 4 runes of "user" + 2 runes of "hi".
	if resp.InputTokens != 10 {
		t.Errorf("input_tokens = %d, want 10", resp.InputTokens)
	}
}

func TestTokenCountValidation(t *testing.T) {
	h := NewTokenCountHandler(tokens.NewCounter(runeEncoder{}, discardLogger()), discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/messages/count_tokens",
		strings.NewReader(`{"model":"claude-3-opus","messages":[]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler("hermes", "1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["name"] != "hermes" || resp["version"] != "1.2.3" || resp["status"] != "ok" {
		t.Errorf("body = %v", resp)
	}
}
