package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/hermes/pkg/anthropic"
	"mercator-hq/hermes/pkg/openai"
	"mercator-hq/hermes/pkg/processing/tokens"
	"mercator-hq/hermes/pkg/proxy"
	"mercator-hq/hermes/pkg/proxy/middleware"
	"mercator-hq/hermes/pkg/telemetry/metrics"
	"mercator-hq/hermes/pkg/translate"
	"mercator-hq/hermes/pkg/usage"
)

// MessagesConfig carries the dependencies of the messages endpoint.
// Metrics and Usage are optional; nil disables the respective recording.
type MessagesConfig struct {
	Logger     *slog.Logger
	Translator *translate.Translator
	Backend    *openai.Client
	Counter    *tokens.Counter
	Routing    func() translate.ModelRouting
	Metrics    *metrics.RequestMetrics
	Usage      *usage.Recorder
}

// MessagesHandler serves POST /v1/messages.
type MessagesHandler struct {
	logger     *slog.Logger
	translator *translate.Translator
	backend    *openai.Client
	counter    *tokens.Counter
	routing    func() translate.ModelRouting
	metrics    *metrics.RequestMetrics
	usage      *usage.Recorder
}

// NewMessagesHandler creates the messages endpoint handler.
func NewMessagesHandler(cfg MessagesConfig) *MessagesHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MessagesHandler{
		logger:     logger,
		translator: cfg.Translator,
		backend:    cfg.Backend,
		counter:    cfg.Counter,
		routing:    cfg.Routing,
		metrics:    cfg.Metrics,
		usage:      cfg.Usage,
	}
}

// ServeHTTP implements http.Handler.
func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := middleware.GetRequestID(r.Context())

	req, err := proxy.ParseMessagesRequest(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	targetModel := h.translator.SelectTargetModel(req.Model, h.routing())
	estimate := h.counter.CountRequest(req.System, req.Messages, req.Tools)

	h.logger.Info("handling messages request",
		slog.String("request_id", requestID),
		slog.String("model", req.Model),
		slog.String("target_model", targetModel),
		slog.Bool("stream", req.Stream),
		slog.Int("estimated_input_tokens", estimate))

	backendReq := h.translator.NormalizeRequest(req, targetModel)

	if req.Stream {
		h.serveStream(w, r, req, backendReq, targetModel, requestID, estimate, start)
		return
	}
	h.serveComplete(w, r, req, backendReq, targetModel, requestID, estimate, start)
}

func (h *MessagesHandler) serveComplete(w http.ResponseWriter, r *http.Request, req *anthropic.MessagesRequest, backendReq *openai.ChatRequest, targetModel, requestID string, estimate int, start time.Time) {
	resp, err := h.backend.CreateChatCompletion(r.Context(), backendReq)
	if err != nil {
		mapped := h.translator.MapError(err)
		h.logger.Error("backend request failed",
			slog.String("request_id", requestID),
			slog.String("target_model", targetModel),
			slog.String("error_type", string(mapped.Kind)),
			slog.String("error", err.Error()))
		h.observe(req.Model, targetModel, metrics.StatusError, start)
		proxy.WriteError(w, mapped.Status, mapped.Response())
		return
	}

	out := h.translator.DenormalizeResponse(resp, req.Model, requestID)
	if err := proxy.WriteJSON(w, http.StatusOK, out); err != nil {
		h.logger.Debug("writing response failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
	}

	h.observe(req.Model, targetModel, metrics.StatusSuccess, start)
	h.recordTokens(req.Model, out.Usage.InputTokens, out.Usage.OutputTokens)
	h.recordUsage(&usage.Record{
		RequestID:    requestID,
		Model:        req.Model,
		TargetModel:  targetModel,
		InputTokens:  out.Usage.InputTokens,
		OutputTokens: out.Usage.OutputTokens,
		StopReason:   out.StopReason,
		DurationMS:   time.Since(start).Milliseconds(),
	})

	h.logger.Info("messages request completed",
		slog.String("request_id", requestID),
		slog.String("stop_reason", out.StopReason),
		slog.Int("output_tokens", out.Usage.OutputTokens))
}

func (h *MessagesHandler) serveStream(w http.ResponseWriter, r *http.Request, req *anthropic.MessagesRequest, backendReq *openai.ChatRequest, targetModel, requestID string, estimate int, start time.Time) {
	reader, err := h.backend.CreateChatCompletionStream(r.Context(), backendReq)
	if err != nil {
		// Stream not yet open, so the error still maps to a plain HTTP
		// response.
		mapped := h.translator.MapError(err)
		h.logger.Error("opening backend stream failed",
			slog.String("request_id", requestID),
			slog.String("target_model", targetModel),
			slog.String("error_type", string(mapped.Kind)),
			slog.String("error", err.Error()))
		h.observe(req.Model, targetModel, metrics.StatusError, start)
		proxy.WriteError(w, mapped.Status, mapped.Response())
		return
	}
	defer reader.Close()

	proxy.SetSSEHeaders(w)
	proxy.Flush(w)

	adapter := translate.NewStreamAdapter(h.translator, req.Model, requestID, estimate, h.counter)
	if err := h.emit(w, adapter.Start()); err != nil {
		h.logger.Debug("client disconnected during stream",
			slog.String("request_id", requestID))
		h.observe(req.Model, targetModel, metrics.StatusError, start)
		return
	}

	for !adapter.Done() {
		chunk, err := reader.Recv(r.Context())
		if err == io.EOF {
			break
		}
		if err != nil {
			h.logger.Error("backend stream failed",
				slog.String("request_id", requestID),
				slog.String("error", err.Error()))
			h.emit(w, adapter.Fail(err))
			h.observe(req.Model, targetModel, metrics.StatusError, start)
			h.recordUsage(&usage.Record{
				RequestID:    requestID,
				Model:        req.Model,
				TargetModel:  targetModel,
				InputTokens:  estimate,
				OutputTokens: adapter.OutputTokens(),
				StopReason:   adapter.StopReason(),
				Stream:       true,
				DurationMS:   time.Since(start).Milliseconds(),
			})
			return
		}
		if err := h.emit(w, adapter.Next(chunk)); err != nil {
			h.logger.Debug("client disconnected during stream",
				slog.String("request_id", requestID))
			h.observe(req.Model, targetModel, metrics.StatusError, start)
			return
		}
	}

	if err := h.emit(w, adapter.Finish()); err != nil {
		h.logger.Debug("client disconnected during stream",
			slog.String("request_id", requestID))
		h.observe(req.Model, targetModel, metrics.StatusError, start)
		return
	}

	h.observe(req.Model, targetModel, metrics.StatusSuccess, start)
	h.recordTokens(req.Model, estimate, adapter.OutputTokens())
	h.recordUsage(&usage.Record{
		RequestID:    requestID,
		Model:        req.Model,
		TargetModel:  targetModel,
		InputTokens:  estimate,
		OutputTokens: adapter.OutputTokens(),
		StopReason:   adapter.StopReason(),
		Stream:       true,
		DurationMS:   time.Since(start).Milliseconds(),
	})

	h.logger.Info("messages stream completed",
		slog.String("request_id", requestID),
		slog.String("message_id", adapter.MessageID()),
		slog.String("stop_reason", adapter.StopReason()),
		slog.Int("output_tokens", adapter.OutputTokens()))
}

// emit writes a batch of SSE events, stopping at the first write failure.
func (h *MessagesHandler) emit(w http.ResponseWriter, events []anthropic.StreamEvent) error {
	for _, event := range events {
		if err := proxy.WriteSSEEvent(w, event); err != nil {
			return err
		}
		if h.metrics != nil {
			h.metrics.RecordStreamEvent(event.Name)
		}
	}
	return nil
}

func (h *MessagesHandler) observe(model, targetModel, status string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordRequest(model, targetModel, status, time.Since(start))
	}
}

func (h *MessagesHandler) recordTokens(model string, inputTokens, outputTokens int) {
	if h.metrics != nil {
		h.metrics.RecordTokens(model, inputTokens, outputTokens)
	}
}

func (h *MessagesHandler) recordUsage(rec *usage.Record) {
	if h.usage != nil {
		h.usage.Record(rec)
	}
}

// writeRequestError renders a parse or validation failure. Anything that
// is not a RequestError is treated as malformed input.
func writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *proxy.RequestError
	if errors.As(err, &reqErr) {
		proxy.WriteError(w, reqErr.Status, reqErr.ToErrorResponse())
		return
	}
	proxy.WriteError(w, http.StatusBadRequest,
		anthropic.NewErrorResponse(anthropic.ErrInvalidRequest, err.Error(), nil))
}
