package translate

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mercator-hq/hermes/pkg/anthropic"
	"mercator-hq/hermes/pkg/openai"
)

// MappedError is a backend failure expressed in the inbound error taxonomy.
type MappedError struct {
	Kind     anthropic.ErrorType
	Message  string
	Status   int
	Provider *anthropic.ProviderErrorMetadata
}

// Response builds the inbound error body for this mapping.
func (e *MappedError) Response() *anthropic.ErrorResponse {
	return anthropic.NewErrorResponse(e.Kind, e.Message, e.Provider)
}

// MapError classifies a backend failure. Specific backend error categories
// pin the kind directly; a generic transport error falls back to the
// status-code table; anything else is an api_error with status 500.
func (t *Translator) MapError(err error) *MappedError {
	var (
		authErr   *openai.AuthenticationError
		rateErr   *openai.RateLimitError
		badReqErr *openai.BadRequestError
		permErr   *openai.PermissionError
		notFound  *openai.NotFoundError
		apiErr    *openai.APIError
	)

	switch {
	case errors.As(err, &authErr):
		return t.mapped(anthropic.ErrAuthentication, &authErr.APIError)
	case errors.As(err, &rateErr):
		return t.mapped(anthropic.ErrRateLimit, &rateErr.APIError)
	case errors.As(err, &badReqErr):
		return t.mapped(anthropic.ErrInvalidRequest, &badReqErr.APIError)
	case errors.As(err, &permErr):
		return t.mapped(anthropic.ErrPermission, &permErr.APIError)
	case errors.As(err, &notFound):
		return t.mapped(anthropic.ErrNotFound, &notFound.APIError)
	case errors.As(err, &apiErr):
		kind, ok := anthropic.StatusCodeErrorType[apiErr.StatusCode]
		if !ok {
			kind = anthropic.ErrAPI
		}
		return t.mapped(kind, apiErr)
	default:
		return &MappedError{
			Kind:    anthropic.ErrAPI,
			Message: err.Error(),
			Status:  http.StatusInternalServerError,
		}
	}
}

func (t *Translator) mapped(kind anthropic.ErrorType, apiErr *openai.APIError) *MappedError {
	status := apiErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &MappedError{
		Kind:     kind,
		Message:  apiErr.Message,
		Status:   status,
		Provider: t.extractProviderMetadata(apiErr.Body),
	}
}

// extractProviderMetadata pulls vendor diagnostics from an error body's
// nested metadata object. A raw payload that arrived as a string is parsed
// as JSON; a parse failure is preserved rather than dropped.
func (t *Translator) extractProviderMetadata(body map[string]any) *anthropic.ProviderErrorMetadata {
	if body == nil {
		return nil
	}

	src := body
	if nested, ok := body["error"].(map[string]any); ok {
		src = nested
	}
	meta, ok := src["metadata"].(map[string]any)
	if !ok {
		return nil
	}
	name, _ := meta["provider_name"].(string)
	if name == "" {
		return nil
	}

	out := &anthropic.ProviderErrorMetadata{ProviderName: name}
	switch raw := meta["raw"].(type) {
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			t.logger.Warn("provider raw error is not valid JSON",
				slog.String("provider_name", name),
				slog.String("error", err.Error()))
			out.RawError = map[string]any{"raw_string_parse_failed": raw}
		} else {
			out.RawError = parsed
		}
	case map[string]any:
		out.RawError = raw
	}
	return out
}
