package translate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"mercator-hq/hermes/pkg/anthropic"
	"mercator-hq/hermes/pkg/openai"
)

// placeholderIDPrefix marks tool-call ids synthesized locally before the
// backend supplies a real one. Start events are gated on a non-placeholder
// id, so placeholders never appear on the wire.
const placeholderIDPrefix = "tool_ph_"

func isPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderIDPrefix)
}

// TokenCounter counts the tokens of a text fragment. Satisfied by the
// tokens package's encoder.
type TokenCounter interface {
	Count(text string) int
}

// toolBlockState tracks one tool-call block during reconstruction.
type toolBlockState struct {
	index   int
	id      string
	name    string
	args    strings.Builder
	started bool
}

// StreamAdapter reconstructs the inbound streaming event grammar from the
// backend's delta chunks. It is a single-pass state machine: Start opens the
// stream, Next folds in one backend chunk, Finish closes all open blocks,
// and Fail converts a mid-stream error into the single in-band error event.
// Owned by one request; not safe for concurrent use.
type StreamAdapter struct {
	translator *Translator
	logger     *slog.Logger
	counter    TokenCounter

	model          string
	requestID      string
	messageID      string
	estimatedInput int

	nextBlockIndex int
	textBlockIndex int
	toolBlocks     map[int]*toolBlockState
	startedOrder   []*toolBlockState
	outputTokens   int
	stopReason     string
	done           bool
	finished       bool
}

// NewStreamAdapter builds an adapter for one streaming request. The message
// id carries the request id plus a random suffix so concurrent streams from
// one client remain distinguishable.
func NewStreamAdapter(t *Translator, model, requestID string, estimatedInput int, counter TokenCounter) *StreamAdapter {
	return &StreamAdapter{
		translator:     t,
		logger:         t.logger,
		counter:        counter,
		model:          model,
		requestID:      requestID,
		messageID:      fmt.Sprintf("msg_stream_%s_%s", requestID, uuid.NewString()[:8]),
		estimatedInput: estimatedInput,
		textBlockIndex: -1,
		toolBlocks:     make(map[int]*toolBlockState),
	}
}

// MessageID returns the synthesized stream message id.
func (a *StreamAdapter) MessageID() string { return a.messageID }

// OutputTokens returns the accumulated output-token estimate.
func (a *StreamAdapter) OutputTokens() int { return a.outputTokens }

// StopReason returns the final stop reason, empty until the backend signals
// one or Finish defaults it.
func (a *StreamAdapter) StopReason() string { return a.stopReason }

// Done reports whether the backend signaled a finish reason; once true,
// further chunks are ignored.
func (a *StreamAdapter) Done() bool { return a.done }

// Start emits the opening message_start and ping events.
func (a *StreamAdapter) Start() []anthropic.StreamEvent {
	return []anthropic.StreamEvent{
		anthropic.NewMessageStartEvent(a.messageID, a.model, a.estimatedInput),
		anthropic.NewPingEvent(),
	}
}

// Next folds one backend chunk into the state machine and returns the
// inbound events it produces, which may be none.
func (a *StreamAdapter) Next(chunk *openai.ChatStreamChunk) []anthropic.StreamEvent {
	if a.done {
		return nil
	}

	var events []anthropic.StreamEvent
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != "" {
			events = append(events, a.applyText(choice.Delta.Content)...)
		}
		for _, tc := range choice.Delta.ToolCalls {
			events = append(events, a.applyToolDelta(tc)...)
		}
		if choice.FinishReason != "" {
			a.stopReason = mapFinishReason(choice.FinishReason)
			a.done = true
			break
		}
	}
	return events
}

// applyText opens the session's single text block on first use and emits the
// fragment as a text delta.
func (a *StreamAdapter) applyText(text string) []anthropic.StreamEvent {
	var events []anthropic.StreamEvent

	if a.textBlockIndex < 0 {
		a.textBlockIndex = a.nextBlockIndex
		a.nextBlockIndex++
		events = append(events, anthropic.StreamEvent{
			Name: anthropic.EventContentBlockStart,
			Payload: anthropic.ContentBlockStartEvent{
				Type:         anthropic.EventContentBlockStart,
				Index:        a.textBlockIndex,
				ContentBlock: anthropic.NewTextBlock(""),
			},
		})
	}

	events = append(events, anthropic.StreamEvent{
		Name: anthropic.EventContentBlockDelta,
		Payload: anthropic.ContentBlockDeltaEvent{
			Type:  anthropic.EventContentBlockDelta,
			Index: a.textBlockIndex,
			Delta: anthropic.TextDelta{Type: "text_delta", Text: text},
		},
	})
	a.outputTokens += a.counter.Count(text)
	return events
}

// applyToolDelta folds one tool-call fragment in. The start event for a tool
// block is emitted exactly once, only after both a real id and a non-empty
// name are known; argument fragments arriving earlier accumulate silently
// and are flushed in one delta when the block starts.
func (a *StreamAdapter) applyToolDelta(tc openai.ToolCallDelta) []anthropic.StreamEvent {
	state, ok := a.toolBlocks[tc.Index]
	if !ok {
		state = &toolBlockState{index: a.nextBlockIndex}
		a.nextBlockIndex++
		a.toolBlocks[tc.Index] = state
	}

	if tc.ID != "" {
		if state.id != "" && isPlaceholderID(state.id) {
			a.logger.Debug("replacing placeholder tool call id",
				slog.String("request_id", a.requestID),
				slog.String("placeholder", state.id),
				slog.String("tool_call_id", tc.ID))
		}
		state.id = tc.ID
	} else if state.id == "" {
		state.id = fmt.Sprintf("%s%s_%d", placeholderIDPrefix, a.requestID, state.index)
		a.logger.Warn("backend omitted tool call id, synthesized placeholder",
			slog.String("request_id", a.requestID),
			slog.Int("backend_index", tc.Index),
			slog.String("placeholder", state.id))
	}

	var fragment string
	if tc.Function != nil {
		if tc.Function.Name != "" {
			state.name = tc.Function.Name
		}
		if tc.Function.Arguments != "" {
			fragment = tc.Function.Arguments
			state.args.WriteString(fragment)
			a.outputTokens += a.counter.Count(fragment)
		}
	}

	var events []anthropic.StreamEvent
	if !state.started && state.name != "" && !isPlaceholderID(state.id) {
		state.started = true
		a.startedOrder = append(a.startedOrder, state)
		events = append(events, anthropic.StreamEvent{
			Name: anthropic.EventContentBlockStart,
			Payload: anthropic.ContentBlockStartEvent{
				Type:         anthropic.EventContentBlockStart,
				Index:        state.index,
				ContentBlock: anthropic.NewToolUseBlock(state.id, state.name, map[string]any{}),
			},
		})
		if buffered := state.args.String(); buffered != "" {
			events = append(events, a.inputJSONDelta(state.index, buffered))
		}
		return events
	}

	if state.started && fragment != "" {
		events = append(events, a.inputJSONDelta(state.index, fragment))
	}
	return events
}

func (a *StreamAdapter) inputJSONDelta(index int, partial string) anthropic.StreamEvent {
	return anthropic.StreamEvent{
		Name: anthropic.EventContentBlockDelta,
		Payload: anthropic.ContentBlockDeltaEvent{
			Type:  anthropic.EventContentBlockDelta,
			Index: index,
			Delta: anthropic.InputJSONDelta{Type: "input_json_delta", PartialJSON: partial},
		},
	}
}

// Finish closes every open block and emits the terminal message_delta and
// message_stop events. A stream that ended without a finish reason defaults
// to end_turn.
func (a *StreamAdapter) Finish() []anthropic.StreamEvent {
	if a.finished {
		return nil
	}
	a.finished = true

	var events []anthropic.StreamEvent
	if a.textBlockIndex >= 0 {
		events = append(events, a.blockStop(a.textBlockIndex))
	}
	for _, state := range a.startedOrder {
		// The deltas already sent are authoritative; a bad buffer is only
		// worth a warning.
		if args := state.args.String(); args != "" && !json.Valid([]byte(args)) {
			a.logger.Warn("buffered tool arguments are not valid JSON",
				slog.String("request_id", a.requestID),
				slog.String("tool_call_id", state.id),
				slog.String("tool_name", state.name))
		}
		events = append(events, a.blockStop(state.index))
	}

	if a.stopReason == "" {
		a.stopReason = anthropic.StopEndTurn
	}

	events = append(events,
		anthropic.StreamEvent{
			Name: anthropic.EventMessageDelta,
			Payload: anthropic.MessageDeltaEvent{
				Type:  anthropic.EventMessageDelta,
				Delta: anthropic.MessageDeltaBody{StopReason: a.stopReason},
				Usage: anthropic.MessageDeltaUsage{OutputTokens: a.outputTokens},
			},
		},
		anthropic.StreamEvent{
			Name:    anthropic.EventMessageStop,
			Payload: anthropic.MessageStopEvent{Type: anthropic.EventMessageStop},
		},
	)
	return events
}

// Fail maps a mid-stream failure into the single in-band error event. The
// HTTP status is already fixed at 200 by the time this can happen, so the
// event is the only error signal the client receives.
func (a *StreamAdapter) Fail(err error) []anthropic.StreamEvent {
	mapped := a.translator.MapError(err)
	a.stopReason = anthropic.StopError
	a.finished = true

	a.logger.Error("streaming failed mid-stream",
		slog.String("request_id", a.requestID),
		slog.String("error_kind", string(mapped.Kind)),
		slog.String("error", err.Error()))

	return []anthropic.StreamEvent{{
		Name:    anthropic.EventError,
		Payload: mapped.Response(),
	}}
}

func (a *StreamAdapter) blockStop(index int) anthropic.StreamEvent {
	return anthropic.StreamEvent{
		Name: anthropic.EventContentBlockStop,
		Payload: anthropic.ContentBlockStopEvent{
			Type:  anthropic.EventContentBlockStop,
			Index: index,
		},
	}
}
