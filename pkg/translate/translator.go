package translate

import (
	"log/slog"
	"strings"
)

// Translator converts between the inbound protocol and the backend
// protocol. Stateless apart from its logger; safe for concurrent use.
type Translator struct {
	logger *slog.Logger

	// cachePrompts enables forwarding of cache-control annotations to
	// backend models that understand them.
	cachePrompts bool
}

// New builds a Translator.
func New(logger *slog.Logger, cachePrompts bool) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{logger: logger, cachePrompts: cachePrompts}
}

// cacheAware reports whether cache-control annotations should be forwarded
// for the given backend model. Only Anthropic-family models served through
// OpenAI-compatible gateways honor them.
func (t *Translator) cacheAware(targetModel string) bool {
	return t.cachePrompts && strings.Contains(strings.ToLower(targetModel), "claude")
}

// ModelRouting names the backend models the gateway routes to.
type ModelRouting struct {
	Big   string
	Small string
}

// SelectTargetModel resolves an inbound model name to a configured backend
// model. Opus and Sonnet tiers route to the big model, Haiku to the small
// one; unrecognized names fall back to the small model with a warning.
func (t *Translator) SelectTargetModel(inbound string, routing ModelRouting) string {
	lower := strings.ToLower(inbound)

	var target string
	switch {
	case strings.Contains(lower, "opus"), strings.Contains(lower, "sonnet"):
		target = routing.Big
	case strings.Contains(lower, "haiku"):
		target = routing.Small
	default:
		target = routing.Small
		t.logger.Warn("unrecognized inbound model, routing to small model",
			slog.String("model", inbound),
			slog.String("target_model", target))
	}

	t.logger.Debug("resolved target model",
		slog.String("model", inbound),
		slog.String("target_model", target))
	return target
}
