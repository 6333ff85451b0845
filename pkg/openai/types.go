package openai

import "encoding/json"

// Message role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Finish reason constants.
const (
	FinishStop          = "stop"
	FinishLength        = "length"
	FinishToolCalls     = "tool_calls"
	FinishFunctionCall  = "function_call"
	FinishContentFilter = "content_filter"
)

// CacheControl is the prompt-cache annotation forwarded to cache-aware
// backend models.
type CacheControl struct {
	Type string `json:"type"`
}

// ContentPart is one entry of a multimodal user message.
type ContentPart struct {
	Type         string        `json:"type"`
	Text         string        `json:"text,omitempty"`
	ImageURL     *ImageURL     `json:"image_url,omitempty"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// ImageURL carries an image reference, typically a data: URL.
type ImageURL struct {
	URL string `json:"url"`
}

// FunctionCall is the name and serialized arguments of one tool call.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a complete tool-call descriptor on an assistant message.
type ToolCall struct {
	ID           string        `json:"id"`
	Type         string        `json:"type"`
	Function     FunctionCall  `json:"function"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// ChatMessage is a message in backend format. Content holds a string, a
// []ContentPart, or a block list passed through verbatim; nil means the
// field is omitted from the wire entirely.
type ChatMessage struct {
	Role         string        `json:"role"`
	Content      any           `json:"content"`
	ToolCalls    []ToolCall    `json:"tool_calls,omitempty"`
	ToolCallID   string        `json:"tool_call_id,omitempty"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// MarshalJSON omits the content field when Content is nil. The backend
// expects assistant messages that carry only tool calls to omit content
// rather than send null or an empty string; an explicit empty string is
// still emitted.
func (m ChatMessage) MarshalJSON() ([]byte, error) {
	type alias ChatMessage
	if m.Content != nil {
		return json.Marshal(alias(m))
	}

	withoutContent := struct {
		Role         string        `json:"role"`
		ToolCalls    []ToolCall    `json:"tool_calls,omitempty"`
		ToolCallID   string        `json:"tool_call_id,omitempty"`
		CacheControl *CacheControl `json:"cache_control,omitempty"`
	}{m.Role, m.ToolCalls, m.ToolCallID, m.CacheControl}
	return json.Marshal(withoutContent)
}

// FunctionDefinition defines a callable function.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Tool is a tool definition in backend format.
type Tool struct {
	Type         string             `json:"type"`
	Function     FunctionDefinition `json:"function"`
	CacheControl *CacheControl      `json:"cache_control,omitempty"`
}

// ChatRequest is a chat-completion request. ToolChoice is "auto" or a
// named-function-choice structure.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
	Tools       []Tool        `json:"tools,omitempty"`
	ToolChoice  any           `json:"tool_choice,omitempty"`
	User        string        `json:"user,omitempty"`
}

// Usage reports token consumption in backend terms.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ResponseMessage is the message of a completed choice.
type ResponseMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Choice is one completion choice.
type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// ChatResponse is a completed chat-completion response.
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// FunctionCallDelta is an incremental fragment of a function call.
type FunctionCallDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// ToolCallDelta is an incremental tool-call fragment. Index identifies the
// tool call within the message; backend indices are not guaranteed to be
// contiguous or to start at zero.
type ToolCallDelta struct {
	Index    int                `json:"index"`
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function *FunctionCallDelta `json:"function,omitempty"`
}

// StreamDelta is the incremental content of one stream chunk.
type StreamDelta struct {
	Role      string          `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// StreamChoice is one choice within a stream chunk.
type StreamChoice struct {
	Index        int         `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// ChatStreamChunk is one SSE chunk of a streaming completion.
type ChatStreamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
	Usage   *Usage         `json:"usage,omitempty"`
}
