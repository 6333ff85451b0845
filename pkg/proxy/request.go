package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/hermes/pkg/anthropic"
)

const (
	// MaxRequestBodySize caps request bodies at 10MB.
	MaxRequestBodySize = 10 * 1024 * 1024

	// RequestIDHeader propagates the request id to clients and logs.
	RequestIDHeader = "X-Request-ID"

	// ResponseTimeHeader reports handler latency to clients.
	ResponseTimeHeader = "X-Response-Time"
)

// RequestError is a parse or validation failure, surfaced before the
// request reaches the translation core. Status is 400 for malformed JSON
// and 422 for schema violations.
type RequestError struct {
	Message string
	Status  int
}

func (e *RequestError) Error() string { return e.Message }

// ToErrorResponse renders the error in the inbound error shape.
func (e *RequestError) ToErrorResponse() *anthropic.ErrorResponse {
	return anthropic.NewErrorResponse(anthropic.ErrInvalidRequest, e.Message, nil)
}

// ParseMessagesRequest decodes and validates a messages request body.
func ParseMessagesRequest(r *http.Request) (*anthropic.MessagesRequest, error) {
	var req anthropic.MessagesRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	if req.Model == "" {
		return nil, schemaError("model is required")
	}
	if req.MaxTokens < 1 {
		return nil, schemaError("max_tokens must be at least 1")
	}
	if len(req.Messages) == 0 {
		return nil, schemaError("messages must not be empty")
	}
	return &req, nil
}

// ParseTokenCountRequest decodes and validates a token-count request body.
// Unlike the messages endpoint, max_tokens is not required.
func ParseTokenCountRequest(r *http.Request) (*anthropic.TokenCountRequest, error) {
	var req anthropic.TokenCountRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	if req.Model == "" {
		return nil, schemaError("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, schemaError("messages must not be empty")
	}
	return &req, nil
}

func decodeBody(r *http.Request, into any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize))
	if err != nil {
		return &RequestError{
			Message: fmt.Sprintf("failed to read request body: %v", err),
			Status:  http.StatusBadRequest,
		}
	}
	if len(body) >= MaxRequestBodySize {
		return &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", MaxRequestBodySize),
			Status:  http.StatusRequestEntityTooLarge,
		}
	}

	if err := json.Unmarshal(body, into); err != nil {
		return &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Status:  http.StatusBadRequest,
		}
	}
	return nil
}

func schemaError(message string) *RequestError {
	return &RequestError{Message: message, Status: http.StatusUnprocessableEntity}
}
