package translate

import (
	"encoding/json"
	"log/slog"
	"strings"

	"mercator-hq/hermes/pkg/anthropic"
	"mercator-hq/hermes/pkg/openai"
)

// NormalizeRequest converts an inbound messages request into the backend's
// chat-completion shape, targeting the given backend model. Unsupported
// constructs are dropped with a warning; this function never fails for
// well-typed input.
func (t *Translator) NormalizeRequest(req *anthropic.MessagesRequest, targetModel string) *openai.ChatRequest {
	cacheAware := t.cacheAware(targetModel)

	out := &openai.ChatRequest{
		Model:       targetModel,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.StopSequences,
		Stream:      req.Stream,
	}

	if req.TopK != nil {
		t.logger.Warn("top_k is not supported by the backend, dropping",
			slog.Int("top_k", *req.TopK))
	}
	if uid, ok := req.Metadata["user_id"].(string); ok && uid != "" {
		out.User = uid
	}

	messages := make([]openai.ChatMessage, 0, len(req.Messages)+1)
	if req.System != nil {
		messages = append(messages, t.systemMessage(*req.System, cacheAware))
	}
	for i, msg := range req.Messages {
		switch msg.Role {
		case anthropic.RoleUser:
			messages = t.appendUserMessage(messages, i, msg, cacheAware)
		case anthropic.RoleAssistant:
			messages = t.appendAssistantMessage(messages, i, msg, cacheAware)
		default:
			t.logger.Warn("dropping message with unknown role",
				slog.Int("message_index", i),
				slog.String("role", msg.Role))
		}
	}

	// The backend rejects assistant messages that pair tool calls with an
	// empty content string; such messages must omit content entirely.
	for i := range messages {
		m := &messages[i]
		if m.Role == openai.RoleAssistant && len(m.ToolCalls) > 0 {
			if s, ok := m.Content.(string); ok && s == "" {
				m.Content = nil
				t.logger.Warn("removed empty content from assistant message carrying tool calls",
					slog.Int("backend_message_index", i))
			}
		}
	}
	out.Messages = messages

	out.Tools = t.normalizeTools(req.Tools, cacheAware)
	out.ToolChoice = t.normalizeToolChoice(req.ToolChoice)
	return out
}

// systemMessage converts the system prompt. Cache-aware targets receive
// block-list prompts verbatim so cache-control annotations survive; other
// targets get the text blocks newline-joined.
func (t *Translator) systemMessage(system anthropic.SystemPrompt, cacheAware bool) openai.ChatMessage {
	if system.Str != nil {
		return openai.ChatMessage{Role: openai.RoleSystem, Content: *system.Str}
	}

	if cacheAware {
		return openai.ChatMessage{Role: openai.RoleSystem, Content: system.Blocks}
	}

	parts := make([]string, 0, len(system.Blocks))
	dropped := 0
	for _, block := range system.Blocks {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		t.logger.Warn("dropped non-text system prompt blocks for non-cache-aware target",
			slog.Int("dropped", dropped))
	}
	return openai.ChatMessage{Role: openai.RoleSystem, Content: strings.Join(parts, "\n")}
}

// appendUserMessage converts one user message. Tool results become separate
// tool-role messages; the remaining text and image blocks accumulate into a
// single user message, collapsed to a bare string when that loses nothing.
func (t *Translator) appendUserMessage(messages []openai.ChatMessage, msgIndex int, msg anthropic.Message, cacheAware bool) []openai.ChatMessage {
	if msg.Content.Str != nil {
		return append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: *msg.Content.Str})
	}

	var parts []openai.ContentPart
	var toolMessages []openai.ChatMessage

	for bi, block := range msg.Content.Blocks {
		switch b := block.(type) {
		case anthropic.TextBlock:
			parts = append(parts, openai.ContentPart{
				Type:         "text",
				Text:         b.Text,
				CacheControl: convertCacheControl(b.CacheControl, cacheAware),
			})
		case anthropic.ImageBlock:
			if b.Source.Type != "base64" {
				t.logger.Warn("dropping image block with unsupported source type",
					slog.Int("message_index", msgIndex),
					slog.Int("block_index", bi),
					slog.String("source_type", b.Source.Type))
				continue
			}
			parts = append(parts, openai.ContentPart{
				Type:         "image_url",
				ImageURL:     &openai.ImageURL{URL: "data:" + b.Source.MediaType + ";base64," + b.Source.Data},
				CacheControl: convertCacheControl(b.CacheControl, cacheAware),
			})
		case anthropic.ToolResultBlock:
			serialized, sawStructured := anthropic.FlattenToolResult(b.Content)
			if sawStructured {
				t.logger.Warn("tool result contained non-text items, serialized to JSON",
					slog.Int("message_index", msgIndex),
					slog.Int("block_index", bi),
					slog.String("tool_use_id", b.ToolUseID))
			}
			toolMessages = append(toolMessages, openai.ChatMessage{
				Role:         openai.RoleTool,
				Content:      serialized,
				ToolCallID:   b.ToolUseID,
				CacheControl: convertCacheControl(b.CacheControl, cacheAware),
			})
		default:
			t.logger.Warn("dropping block not allowed in user message",
				slog.Int("message_index", msgIndex),
				slog.Int("block_index", bi),
				slog.String("block_type", blockType(block)))
		}
	}

	// Tool-role messages must directly follow the assistant turn that
	// issued the calls, so they precede the user content.
	messages = append(messages, toolMessages...)

	if len(parts) == 0 {
		if len(toolMessages) == 0 {
			// Empty content maps to an empty string, never an omitted field.
			messages = append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: ""})
		}
		return messages
	}

	if len(parts) == 1 && parts[0].Type == "text" && parts[0].CacheControl == nil {
		return append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: parts[0].Text})
	}
	return append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: parts})
}

// appendAssistantMessage converts one assistant message, merging tool calls
// into a directly preceding bare assistant entry so the backend never sees
// duplicate adjacent assistant turns.
func (t *Translator) appendAssistantMessage(messages []openai.ChatMessage, msgIndex int, msg anthropic.Message, cacheAware bool) []openai.ChatMessage {
	var texts []string
	var toolCalls []openai.ToolCall

	if msg.Content.Str != nil {
		texts = append(texts, *msg.Content.Str)
	} else {
		for bi, block := range msg.Content.Blocks {
			switch b := block.(type) {
			case anthropic.TextBlock:
				if b.Text != "" {
					texts = append(texts, b.Text)
				}
			case anthropic.ToolUseBlock:
				args, err := json.Marshal(b.Input)
				if err != nil {
					t.logger.Error("failed to serialize tool_use input, sending empty object",
						slog.Int("message_index", msgIndex),
						slog.Int("block_index", bi),
						slog.String("tool_name", b.Name),
						slog.String("error", err.Error()))
					args = []byte("{}")
				}
				toolCalls = append(toolCalls, openai.ToolCall{
					ID:           b.ID,
					Type:         "function",
					Function:     openai.FunctionCall{Name: b.Name, Arguments: string(args)},
					CacheControl: convertCacheControl(b.CacheControl, cacheAware),
				})
			default:
				t.logger.Warn("dropping block not allowed in assistant message",
					slog.Int("message_index", msgIndex),
					slog.Int("block_index", bi),
					slog.String("block_type", blockType(block)))
			}
		}
	}
	content := strings.Join(texts, "\n")

	if len(toolCalls) > 0 && len(messages) > 0 {
		last := &messages[len(messages)-1]
		if last.Role == openai.RoleAssistant && len(last.ToolCalls) == 0 && !hasText(last.Content) {
			last.ToolCalls = toolCalls
			if content != "" {
				last.Content = content
			} else {
				last.Content = nil
			}
			return messages
		}
	}

	out := openai.ChatMessage{Role: openai.RoleAssistant, Content: content}
	if len(toolCalls) > 0 {
		out.ToolCalls = toolCalls
		if content == "" {
			out.Content = nil
		}
	}
	return append(messages, out)
}

// normalizeTools maps tool definitions 1:1 to backend function tools.
func (t *Translator) normalizeTools(tools []anthropic.Tool, cacheAware bool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.Tool{
			Type: "function",
			Function: openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
			CacheControl: convertCacheControl(tool.CacheControl, cacheAware),
		})
	}
	return out
}

// normalizeToolChoice maps the inbound tool-choice to the backend value.
// "any" narrows to "auto": the backend has no way to force an unspecified
// tool, so the narrowing is logged once per request.
func (t *Translator) normalizeToolChoice(choice *anthropic.ToolChoice) any {
	if choice == nil {
		return nil
	}
	switch choice.Type {
	case "auto":
		return "auto"
	case "any":
		t.logger.Warn("tool_choice \"any\" narrowed to \"auto\": backend cannot force unspecified tool use")
		return "auto"
	case "tool":
		if choice.Name != "" {
			return map[string]any{
				"type":     "function",
				"function": map[string]any{"name": choice.Name},
			}
		}
		t.logger.Warn("tool_choice \"tool\" missing name, defaulting to \"auto\"")
		return "auto"
	default:
		t.logger.Warn("unrecognized tool_choice, defaulting to \"auto\"",
			slog.String("type", choice.Type))
		return "auto"
	}
}

func convertCacheControl(cc *anthropic.CacheControl, cacheAware bool) *openai.CacheControl {
	if cc == nil || !cacheAware {
		return nil
	}
	return &openai.CacheControl{Type: cc.Type}
}

func hasText(content any) bool {
	s, ok := content.(string)
	return ok && s != ""
}

func blockType(block anthropic.ContentBlock) string {
	switch block.(type) {
	case anthropic.TextBlock:
		return "text"
	case anthropic.ImageBlock:
		return "image"
	case anthropic.ToolUseBlock:
		return "tool_use"
	case anthropic.ToolResultBlock:
		return "tool_result"
	default:
		return "unknown"
	}
}
