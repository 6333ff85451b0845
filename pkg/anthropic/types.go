package anthropic

import (
	"encoding/json"
	"fmt"
)

// Message role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Stop reason constants for MessagesResponse and message_delta events.
const (
	StopEndTurn   = "end_turn"
	StopMaxTokens = "max_tokens"
	StopSequence  = "stop_sequence"
	StopToolUse   = "tool_use"
	StopError     = "error"
)

// CacheControl marks a block as eligible for prompt caching on backends
// that support it.
type CacheControl struct {
	Type string `json:"type"`
}

// ContentBlock is the closed set of block variants that can appear in a
// message's content. Concrete types: TextBlock, ImageBlock, ToolUseBlock,
// ToolResultBlock.
type ContentBlock interface {
	isContentBlock()
}

// TextBlock is a plain text content block.
type TextBlock struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

func (TextBlock) isContentBlock() {}

// NewTextBlock creates a text block with the type discriminator set.
func NewTextBlock(text string) TextBlock {
	return TextBlock{Type: "text", Text: text}
}

// ImageSource describes the encoded payload of an image block.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// ImageBlock is an image content block. Only base64 sources are forwarded
// to the backend.
type ImageBlock struct {
	Type         string        `json:"type"`
	Source       ImageSource   `json:"source"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

func (ImageBlock) isContentBlock() {}

// ToolUseBlock is an assistant tool invocation. Input is always a JSON
// object, never a bare scalar.
type ToolUseBlock struct {
	Type         string         `json:"type"`
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Input        map[string]any `json:"input"`
	CacheControl *CacheControl  `json:"cache_control,omitempty"`
}

func (ToolUseBlock) isContentBlock() {}

// NewToolUseBlock creates a tool_use block with the type discriminator set.
func NewToolUseBlock(id, name string, input map[string]any) ToolUseBlock {
	return ToolUseBlock{Type: "tool_use", ID: id, Name: name, Input: input}
}

// ToolResultBlock carries the result of a prior tool invocation back to the
// model. It only appears in user messages.
type ToolResultBlock struct {
	Type         string            `json:"type"`
	ToolUseID    string            `json:"tool_use_id"`
	Content      ToolResultContent `json:"content"`
	IsError      *bool             `json:"is_error,omitempty"`
	CacheControl *CacheControl     `json:"cache_control,omitempty"`
}

func (ToolResultBlock) isContentBlock() {}

// ToolResultContent is either a plain string or an ordered list of
// structured items (maps with a "type" field, or arbitrary JSON values).
type ToolResultContent struct {
	// Str is set when the content arrived as a bare string.
	Str *string

	// Items is set when the content arrived as a list.
	Items []any
}

// UnmarshalJSON accepts both the string and the list form.
func (c *ToolResultContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Str = &s
		c.Items = nil
		return nil
	}

	var items []any
	if err := json.Unmarshal(data, &items); err == nil {
		c.Str = nil
		c.Items = items
		return nil
	}

	return fmt.Errorf("tool_result content must be a string or a list")
}

// MarshalJSON writes back whichever form the content holds. Empty content
// marshals as the empty string.
func (c ToolResultContent) MarshalJSON() ([]byte, error) {
	if c.Str != nil {
		return json.Marshal(*c.Str)
	}
	if c.Items != nil {
		return json.Marshal(c.Items)
	}
	return json.Marshal("")
}

// decodeContentBlock decodes a single block, discriminating on "type".
func decodeContentBlock(data []byte) (ContentBlock, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to probe content block type: %w", err)
	}

	switch probe.Type {
	case "text":
		var b TextBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	case "image":
		var b ImageBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	case "tool_use":
		var b ToolUseBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	case "tool_result":
		var b ToolResultBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown content block type %q", probe.Type)
	}
}

// MessageContent is either a bare string or an ordered block list.
type MessageContent struct {
	// Str is set when the content arrived as a bare string.
	Str *string

	// Blocks is set when the content arrived as a block list. It may be
	// empty; an empty list is distinct from a bare empty string.
	Blocks []ContentBlock
}

// UnmarshalJSON accepts both the string and the block-list form.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Str = &s
		c.Blocks = nil
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("message content must be a string or a block list")
	}

	blocks := make([]ContentBlock, 0, len(raws))
	for i, raw := range raws {
		block, err := decodeContentBlock(raw)
		if err != nil {
			return fmt.Errorf("content block %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}
	c.Str = nil
	c.Blocks = blocks
	return nil
}

// MarshalJSON writes back whichever form the content holds.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Str != nil {
		return json.Marshal(*c.Str)
	}
	if c.Blocks == nil {
		return json.Marshal([]ContentBlock{})
	}
	return json.Marshal(c.Blocks)
}

// Message is a single conversation turn. Role determines which block
// variants are legal: images and tool results only under user, tool use
// only under assistant.
type Message struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// SystemContent is a text block within a structured system prompt.
type SystemContent struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// SystemPrompt is either a bare string or a list of system content blocks.
type SystemPrompt struct {
	Str    *string
	Blocks []SystemContent
}

// UnmarshalJSON accepts both the string and the block-list form.
func (s *SystemPrompt) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Str = &str
		s.Blocks = nil
		return nil
	}

	var blocks []SystemContent
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("system prompt must be a string or a list of text blocks")
	}
	s.Str = nil
	s.Blocks = blocks
	return nil
}

// MarshalJSON writes back whichever form the prompt holds.
func (s SystemPrompt) MarshalJSON() ([]byte, error) {
	if s.Str != nil {
		return json.Marshal(*s.Str)
	}
	return json.Marshal(s.Blocks)
}

// Tool is a tool definition the model may call. Name is assumed unique
// within a request's tool list.
type Tool struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	InputSchema  map[string]any `json:"input_schema"`
	CacheControl *CacheControl  `json:"cache_control,omitempty"`
}

// ToolChoice controls whether and which tool the model may call.
// Name is meaningful only when Type is "tool".
type ToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// MessagesRequest is the body of POST /v1/messages.
type MessagesRequest struct {
	Model         string         `json:"model"`
	MaxTokens     int            `json:"max_tokens"`
	Messages      []Message      `json:"messages"`
	System        *SystemPrompt  `json:"system,omitempty"`
	StopSequences []string       `json:"stop_sequences,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	TopP          *float64       `json:"top_p,omitempty"`
	TopK          *int           `json:"top_k,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Tools         []Tool         `json:"tools,omitempty"`
	ToolChoice    *ToolChoice    `json:"tool_choice,omitempty"`
}

// TokenCountRequest is the body of POST /v1/messages/count_tokens.
// It is the messages shape without max_tokens.
type TokenCountRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	System   *SystemPrompt `json:"system,omitempty"`
	Tools    []Tool        `json:"tools,omitempty"`
}

// TokenCountResponse is the count_tokens reply.
type TokenCountResponse struct {
	InputTokens int `json:"input_tokens"`
}

// Usage reports token consumption in Anthropic terms.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// MessagesResponse is the non-streaming reply of POST /v1/messages.
type MessagesResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Model        string         `json:"model"`
	Content      []ContentBlock `json:"content"`
	StopReason   string         `json:"stop_reason,omitempty"`
	StopSequence *string        `json:"stop_sequence,omitempty"`
	Usage        Usage          `json:"usage"`
}
