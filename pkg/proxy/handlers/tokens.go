package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/hermes/pkg/anthropic"
	"mercator-hq/hermes/pkg/processing/tokens"
	"mercator-hq/hermes/pkg/proxy"
	"mercator-hq/hermes/pkg/proxy/middleware"
)

// TokenCountHandler serves POST /v1/messages/count_tokens. The estimate
// uses the same counter as the messages endpoint, so counting then
// sending reports consistent numbers.
type TokenCountHandler struct {
	logger  *slog.Logger
	counter *tokens.Counter
}

// NewTokenCountHandler creates the token-count endpoint handler.
func NewTokenCountHandler(counter *tokens.Counter, logger *slog.Logger) *TokenCountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenCountHandler{logger: logger, counter: counter}
}

// ServeHTTP implements http.Handler.
func (h *TokenCountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := proxy.ParseTokenCountRequest(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	count := h.counter.CountRequest(req.System, req.Messages, req.Tools)
	h.logger.Debug("counted request tokens",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("model", req.Model),
		slog.Int("input_tokens", count))

	proxy.WriteJSON(w, http.StatusOK, anthropic.TokenCountResponse{InputTokens: count})
}
