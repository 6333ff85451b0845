package openai

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the backend. Body holds the decoded
// error payload when the backend returned JSON, nil otherwise.
type APIError struct {
	StatusCode int
	Message    string
	Body       map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// AuthenticationError is a 401 from the backend.
type AuthenticationError struct {
	APIError
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("backend authentication failed: %s", e.Message)
}

// PermissionError is a 403 from the backend.
type PermissionError struct {
	APIError
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("backend denied access: %s", e.Message)
}

// NotFoundError is a 404 from the backend, typically an unknown model.
type NotFoundError struct {
	APIError
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("backend resource not found: %s", e.Message)
}

// RateLimitError is a 429 from the backend.
type RateLimitError struct {
	APIError
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("backend rate limit exceeded: %s", e.Message)
}

// BadRequestError is a 400 or 422 from the backend: the translated request
// was rejected as invalid.
type BadRequestError struct {
	APIError
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("backend rejected request: %s", e.Message)
}

// ParseError reports a response body that could not be decoded.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// StreamError reports a failure while reading an SSE stream.
type StreamError struct {
	Message string
	Cause   error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stream error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("stream error: %s", e.Message)
}

func (e *StreamError) Unwrap() error { return e.Cause }

// newStatusError wraps a non-2xx response in the narrowest error type the
// status identifies. Unlisted statuses return a plain *APIError.
func newStatusError(status int, message string, body map[string]any) error {
	base := APIError{StatusCode: status, Message: message, Body: body}
	switch status {
	case http.StatusUnauthorized:
		return &AuthenticationError{base}
	case http.StatusForbidden:
		return &PermissionError{base}
	case http.StatusNotFound:
		return &NotFoundError{base}
	case http.StatusTooManyRequests:
		return &RateLimitError{base}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &BadRequestError{base}
	default:
		return &base
	}
}
