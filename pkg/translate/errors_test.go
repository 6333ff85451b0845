package translate

import (
	"errors"
	"net/http"
	"reflect"
	"testing"

	"mercator-hq/hermes/pkg/anthropic"
	"mercator-hq/hermes/pkg/openai"
)

func TestMapErrorTypedCategories(t *testing.T) {
	tests := []struct {
		err        error
		wantKind   anthropic.ErrorType
		wantStatus int
	}{
		{
			&openai.AuthenticationError{APIError: openai.APIError{StatusCode: 401, Message: "bad key"}},
			anthropic.ErrAuthentication, 401,
		},
		{
			&openai.RateLimitError{APIError: openai.APIError{StatusCode: 429, Message: "slow down"}},
			anthropic.ErrRateLimit, 429,
		},
		{
			&openai.BadRequestError{APIError: openai.APIError{StatusCode: 422, Message: "bad shape"}},
			anthropic.ErrInvalidRequest, 422,
		},
		{
			&openai.PermissionError{APIError: openai.APIError{StatusCode: 403, Message: "no"}},
			anthropic.ErrPermission, 403,
		},
		{
			&openai.NotFoundError{APIError: openai.APIError{StatusCode: 404, Message: "gone"}},
			anthropic.ErrNotFound, 404,
		},
	}

	for _, tt := range tests {
		tr, _ := newTestTranslator(false)
		mapped := tr.MapError(tt.err)
		if mapped.Kind != tt.wantKind {
			t.Errorf("%T: kind = %q, want %q", tt.err, mapped.Kind, tt.wantKind)
		}
		if mapped.Status != tt.wantStatus {
			t.Errorf("%T: status = %d, want %d", tt.err, mapped.Status, tt.wantStatus)
		}
	}
}

func TestMapErrorStatusTable(t *testing.T) {
	tests := []struct {
		status   int
		wantKind anthropic.ErrorType
	}{
		{http.StatusRequestEntityTooLarge, anthropic.ErrRequestTooLarge},
		{http.StatusServiceUnavailable, anthropic.ErrOverloaded},
		{http.StatusBadGateway, anthropic.ErrAPI},
		{http.StatusGatewayTimeout, anthropic.ErrAPI},
		{http.StatusInternalServerError, anthropic.ErrAPI},
		{599, anthropic.ErrAPI},
	}

	for _, tt := range tests {
		tr, _ := newTestTranslator(false)
		mapped := tr.MapError(&openai.APIError{StatusCode: tt.status, Message: "boom"})
		if mapped.Kind != tt.wantKind {
			t.Errorf("status %d: kind = %q, want %q", tt.status, mapped.Kind, tt.wantKind)
		}
		if mapped.Status != tt.status {
			t.Errorf("status %d: mapped status = %d", tt.status, mapped.Status)
		}
	}
}

func TestMapErrorUnknownError(t *testing.T) {
	tr, _ := newTestTranslator(false)
	mapped := tr.MapError(errors.New("connection refused"))
	if mapped.Kind != anthropic.ErrAPI || mapped.Status != http.StatusInternalServerError {
		t.Errorf("mapped = %+v", mapped)
	}
	if mapped.Message != "connection refused" {
		t.Errorf("message = %q", mapped.Message)
	}
}

func TestMapErrorProviderMetadata(t *testing.T) {
	tr, _ := newTestTranslator(false)

	err := &openai.APIError{
		StatusCode: 503,
		Message:    "overloaded",
		Body: map[string]any{
			"error": map[string]any{
				"message": "overloaded",
				"metadata": map[string]any{
					"provider_name": "acme",
					"raw":           `{"code":"CAPACITY"}`,
				},
			},
		},
	}
	mapped := tr.MapError(err)
	if mapped.Provider == nil {
		t.Fatal("provider metadata missing")
	}
	if mapped.Provider.ProviderName != "acme" {
		t.Errorf("provider name = %q", mapped.Provider.ProviderName)
	}
	if !reflect.DeepEqual(mapped.Provider.RawError, map[string]any{"code": "CAPACITY"}) {
		t.Errorf("raw = %#v", mapped.Provider.RawError)
	}
}

func TestMapErrorProviderMetadataBadRawPreserved(t *testing.T) {
	tr, _ := newTestTranslator(false)

	err := &openai.APIError{
		StatusCode: 500,
		Message:    "boom",
		Body: map[string]any{
			"metadata": map[string]any{
				"provider_name": "acme",
				"raw":           "not json at all",
			},
		},
	}
	mapped := tr.MapError(err)
	if mapped.Provider == nil {
		t.Fatal("provider metadata missing")
	}
	want := map[string]any{"raw_string_parse_failed": "not json at all"}
	if !reflect.DeepEqual(mapped.Provider.RawError, want) {
		t.Errorf("raw = %#v", mapped.Provider.RawError)
	}
}

func TestMappedErrorResponseShape(t *testing.T) {
	tr, _ := newTestTranslator(false)
	mapped := tr.MapError(&openai.RateLimitError{APIError: openai.APIError{StatusCode: 429, Message: "slow down"}})

	resp := mapped.Response()
	if resp.Type != "error" {
		t.Errorf("type = %q", resp.Type)
	}
	if resp.Error.Type != anthropic.ErrRateLimit || resp.Error.Message != "slow down" {
		t.Errorf("detail = %+v", resp.Error)
	}
}
