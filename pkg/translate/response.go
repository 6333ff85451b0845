package translate

import (
	"encoding/json"
	"log/slog"

	"mercator-hq/hermes/pkg/anthropic"
	"mercator-hq/hermes/pkg/openai"
)

// stopReasonForFinish maps backend finish reasons to inbound stop reasons.
// Unlisted values map to end_turn.
var stopReasonForFinish = map[string]string{
	openai.FinishStop:          anthropic.StopEndTurn,
	openai.FinishLength:        anthropic.StopMaxTokens,
	openai.FinishToolCalls:     anthropic.StopToolUse,
	openai.FinishFunctionCall:  anthropic.StopToolUse,
	openai.FinishContentFilter: anthropic.StopSequence,
	"":                         anthropic.StopEndTurn,
}

func mapFinishReason(finish string) string {
	if stop, ok := stopReasonForFinish[finish]; ok {
		return stop
	}
	return anthropic.StopEndTurn
}

// DenormalizeResponse converts a completed backend response into the inbound
// response shape. The inbound model name is reported back unchanged;
// requestID seeds the response id when the backend supplies none.
func (t *Translator) DenormalizeResponse(resp *openai.ChatResponse, inboundModel, requestID string) *anthropic.MessagesResponse {
	var blocks []anthropic.ContentBlock
	stopReason := anthropic.StopEndTurn

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]

		if choice.Message.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(choice.Message.Content))
		}
		for _, tc := range choice.Message.ToolCalls {
			blocks = append(blocks, anthropic.NewToolUseBlock(
				tc.ID,
				tc.Function.Name,
				t.parseToolArguments(tc.Function.Arguments, tc.Function.Name),
			))
		}

		stopReason = mapFinishReason(choice.FinishReason)
	}

	// Empty content arrays are invalid inbound; degrade to one empty text
	// block.
	if len(blocks) == 0 {
		blocks = []anthropic.ContentBlock{anthropic.NewTextBlock("")}
	}

	var usage anthropic.Usage
	if resp.Usage != nil {
		usage = anthropic.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	id := "msg_" + resp.ID
	if resp.ID == "" {
		id = "msg_" + requestID + "_completed"
	}

	return &anthropic.MessagesResponse{
		ID:         id,
		Type:       "message",
		Role:       anthropic.RoleAssistant,
		Model:      inboundModel,
		Content:    blocks,
		StopReason: stopReason,
		Usage:      usage,
	}
}

// parseToolArguments decodes a tool call's JSON arguments into the object
// shape tool_use blocks require. Scalars are wrapped, invalid JSON becomes a
// diagnostic payload; neither aborts the response.
func (t *Translator) parseToolArguments(raw, toolName string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		t.logger.Error("tool call arguments are not valid JSON",
			slog.String("tool_name", toolName),
			slog.String("error", err.Error()))
		return map[string]any{"error_parsing_arguments": raw}
	}

	if obj, ok := parsed.(map[string]any); ok {
		return obj
	}

	t.logger.Warn("tool call arguments are a JSON scalar, wrapping",
		slog.String("tool_name", toolName))
	return map[string]any{"value": parsed}
}
