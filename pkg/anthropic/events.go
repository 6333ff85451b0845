package anthropic

// Stream event names, in the order a well-formed stream emits them.
const (
	EventMessageStart      = "message_start"
	EventPing              = "ping"
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
	EventError             = "error"
)

// StreamEvent is one outbound SSE event: the event name plus its JSON
// payload, written to the wire as "event: <name>\ndata: <json>\n\n".
type StreamEvent struct {
	Name    string
	Payload any
}

// MessageStartEvent opens a streamed message. Usage carries the estimated
// input-token count and zero output tokens.
type MessageStartEvent struct {
	Type    string       `json:"type"`
	Message StreamHeader `json:"message"`
}

// StreamHeader is the message skeleton inside message_start.
type StreamHeader struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Model        string         `json:"model"`
	Content      []ContentBlock `json:"content"`
	StopReason   *string        `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// PingEvent is the keep-alive emitted right after message_start.
type PingEvent struct {
	Type string `json:"type"`
}

// ContentBlockStartEvent announces a new block at a given index.
// ContentBlock is a TextBlock for text or a ToolUseBlock (with empty input)
// for tool use.
type ContentBlockStartEvent struct {
	Type         string       `json:"type"`
	Index        int          `json:"index"`
	ContentBlock ContentBlock `json:"content_block"`
}

// TextDelta is a text fragment within content_block_delta.
type TextDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// InputJSONDelta is a partial tool-argument fragment within
// content_block_delta. PartialJSON is not guaranteed to be valid JSON on
// its own.
type InputJSONDelta struct {
	Type        string `json:"type"`
	PartialJSON string `json:"partial_json"`
}

// ContentBlockDeltaEvent carries an incremental fragment for an open block.
// Delta is a TextDelta or an InputJSONDelta.
type ContentBlockDeltaEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Delta any    `json:"delta"`
}

// ContentBlockStopEvent closes the block at Index.
type ContentBlockStopEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// MessageDeltaEvent carries the final stop reason and output-token count.
type MessageDeltaEvent struct {
	Type  string            `json:"type"`
	Delta MessageDeltaBody  `json:"delta"`
	Usage MessageDeltaUsage `json:"usage"`
}

// MessageDeltaBody is the delta payload of message_delta.
type MessageDeltaBody struct {
	StopReason   string  `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

// MessageDeltaUsage reports accumulated output tokens.
type MessageDeltaUsage struct {
	OutputTokens int `json:"output_tokens"`
}

// MessageStopEvent terminates the stream.
type MessageStopEvent struct {
	Type string `json:"type"`
}

// NewMessageStartEvent builds the opening event for a streamed message.
func NewMessageStartEvent(id, model string, estimatedInputTokens int) StreamEvent {
	return StreamEvent{
		Name: EventMessageStart,
		Payload: MessageStartEvent{
			Type: EventMessageStart,
			Message: StreamHeader{
				ID:      id,
				Type:    "message",
				Role:    RoleAssistant,
				Model:   model,
				Content: []ContentBlock{},
				Usage:   Usage{InputTokens: estimatedInputTokens},
			},
		},
	}
}

// NewPingEvent builds the keep-alive event.
func NewPingEvent() StreamEvent {
	return StreamEvent{Name: EventPing, Payload: PingEvent{Type: EventPing}}
}
