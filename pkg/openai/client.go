package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultTimeout             = 120 * time.Second
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second

	// Cap on how much of an error body is read and echoed into messages.
	maxErrorBodySize = 64 * 1024
)

// Config holds the client's connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// Optional attribution headers some gateways use for dashboards.
	Referrer string
	AppName  string
}

// Client calls an OpenAI-compatible chat-completions endpoint over a pooled
// HTTP client. Safe for concurrent use.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewClient builds a client, applying defaults for unset pool settings.
func NewClient(config Config, logger *slog.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = defaultMaxIdleConns
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = defaultIdleConnTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
	}

	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout, Transport: transport},
		logger: logger,
	}
}

// CreateChatCompletion sends a non-streaming chat completion and decodes the
// response.
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	req.Stream = false
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ParseError{Message: "decoding chat completion response", Cause: err}
	}
	return &out, nil
}

// CreateChatCompletionStream sends a streaming chat completion and returns a
// reader over its SSE chunks. The caller must Close the reader; closing it
// releases the underlying connection even when the backend is still
// producing output.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req *ChatRequest) (*StreamReader, error) {
	req.Stream = true
	resp, err := c.post(ctx, req, true)
	if err != nil {
		return nil, err
	}
	return newStreamReader(resp.Body), nil
}

// post issues the request and returns the response on 2xx. Non-2xx
// responses are drained and converted to a typed error.
func (c *Client) post(ctx context.Context, req *ChatRequest, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building backend request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	if c.config.Referrer != "" {
		httpReq.Header.Set("HTTP-Referer", c.config.Referrer)
	}
	if c.config.AppName != "" {
		httpReq.Header.Set("X-Title", c.config.AppName)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling backend: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, c.errorFromResponse(resp)
	}
	return resp, nil
}

// errorFromResponse builds a typed error from a non-2xx response body.
func (c *Client) errorFromResponse(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		c.logger.Warn("failed to read backend error body",
			slog.Int("status", resp.StatusCode),
			slog.String("error", err.Error()))
	}

	var body map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			body = nil
		}
	}

	message := extractErrorMessage(body)
	if message == "" {
		message = string(raw)
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return newStatusError(resp.StatusCode, message, body)
}

// extractErrorMessage pulls a human-readable message from an error body,
// looking in the nested "error" object first.
func extractErrorMessage(body map[string]any) string {
	if body == nil {
		return ""
	}
	if nested, ok := body["error"].(map[string]any); ok {
		if msg, ok := nested["message"].(string); ok {
			return msg
		}
	}
	if msg, ok := body["message"].(string); ok {
		return msg
	}
	return ""
}
