package anthropic

import (
	"encoding/json"
	"net/http"
)

// ErrorType is the canonical error kind reported to inbound clients.
type ErrorType string

// The closed set of error kinds.
const (
	ErrInvalidRequest  ErrorType = "invalid_request_error"
	ErrAuthentication  ErrorType = "authentication_error"
	ErrPermission      ErrorType = "permission_error"
	ErrNotFound        ErrorType = "not_found_error"
	ErrRateLimit       ErrorType = "rate_limit_error"
	ErrAPI             ErrorType = "api_error"
	ErrOverloaded      ErrorType = "overloaded_error"
	ErrRequestTooLarge ErrorType = "request_too_large_error"
)

// StatusCodeErrorType maps backend HTTP status codes to error kinds.
// Specific backend error categories override this table; see the
// translate package.
var StatusCodeErrorType = map[int]ErrorType{
	http.StatusBadRequest:            ErrInvalidRequest,
	http.StatusUnauthorized:          ErrAuthentication,
	http.StatusForbidden:             ErrPermission,
	http.StatusNotFound:              ErrNotFound,
	http.StatusRequestEntityTooLarge: ErrRequestTooLarge,
	http.StatusUnprocessableEntity:   ErrInvalidRequest,
	http.StatusTooManyRequests:       ErrRateLimit,
	http.StatusInternalServerError:   ErrAPI,
	http.StatusBadGateway:            ErrAPI,
	http.StatusServiceUnavailable:    ErrOverloaded,
	http.StatusGatewayTimeout:        ErrAPI,
}

// ProviderErrorMetadata is vendor-specific diagnostic structure surfaced by
// the backend alongside an error.
type ProviderErrorMetadata struct {
	ProviderName string         `json:"provider_name"`
	RawError     map[string]any `json:"raw_error,omitempty"`
}

// ErrorDetail is the error body of an ErrorResponse.
type ErrorDetail struct {
	Type            ErrorType       `json:"type"`
	Message         string          `json:"message"`
	Provider        string          `json:"provider,omitempty"`
	ProviderMessage string          `json:"provider_message,omitempty"`
	ProviderCode    json.RawMessage `json:"provider_code,omitempty"`
}

// ErrorResponse is the error shape returned to inbound clients, both as an
// HTTP body and as the payload of an in-band error SSE event.
type ErrorResponse struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// NewErrorResponse builds an error response, attaching provider diagnostics
// when available. Provider message and code are pulled from the raw payload's
// nested "error" object when present, or from its top level otherwise.
func NewErrorResponse(errType ErrorType, message string, provider *ProviderErrorMetadata) *ErrorResponse {
	detail := ErrorDetail{Type: errType, Message: message}

	if provider != nil {
		detail.Provider = provider.ProviderName
		src := provider.RawError
		if nested, ok := src["error"].(map[string]any); ok {
			src = nested
		}
		if msg, ok := src["message"].(string); ok {
			detail.ProviderMessage = msg
		}
		if code, ok := src["code"]; ok && code != nil {
			if encoded, err := json.Marshal(code); err == nil {
				detail.ProviderCode = encoded
			}
		}
	}

	return &ErrorResponse{Type: "error", Error: detail}
}
