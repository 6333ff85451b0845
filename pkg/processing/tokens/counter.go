package tokens

import (
	"encoding/json"
	"log/slog"

	"mercator-hq/hermes/pkg/anthropic"
)

// Fixed surcharges modeling backend-side overhead the encoder cannot see.
const (
	perMessageOverhead = 4
	perImageTokens     = 768
	perCacheControl    = 5
	toolListOverhead   = 2
)

// Counter estimates input token counts for inbound requests.
type Counter struct {
	encoder Encoder
	logger  *slog.Logger
}

// NewCounter builds a counter around the given encoder, typically
// SharedEncoder.
func NewCounter(encoder Encoder, logger *slog.Logger) *Counter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Counter{encoder: encoder, logger: logger}
}

// Count returns the token count of a bare text fragment.
func (c *Counter) Count(text string) int {
	return c.encoder.Count(text)
}

// CountRequest estimates the input tokens of a messages request: system
// prompt, messages, and tool definitions, plus fixed framing surcharges.
// Serialization failures skip that contribution rather than aborting.
func (c *Counter) CountRequest(system *anthropic.SystemPrompt, messages []anthropic.Message, tools []anthropic.Tool) int {
	total := 0

	if system != nil {
		total += c.countSystem(*system)
	}
	for _, msg := range messages {
		total += perMessageOverhead
		total += c.encoder.Count(msg.Role)
		total += c.countContent(msg.Content)
	}
	if len(tools) > 0 {
		total += toolListOverhead
		for _, tool := range tools {
			total += c.countTool(tool)
		}
	}
	return total
}

func (c *Counter) countSystem(system anthropic.SystemPrompt) int {
	if system.Str != nil {
		return c.encoder.Count(*system.Str)
	}
	total := 0
	for _, block := range system.Blocks {
		total += c.encoder.Count(block.Text)
		if block.CacheControl != nil {
			total += perCacheControl
		}
	}
	return total
}

func (c *Counter) countContent(content anthropic.MessageContent) int {
	if content.Str != nil {
		return c.encoder.Count(*content.Str)
	}

	total := 0
	for _, block := range content.Blocks {
		switch b := block.(type) {
		case anthropic.TextBlock:
			total += c.encoder.Count(b.Text)
			total += cacheSurcharge(b.CacheControl)
		case anthropic.ImageBlock:
			// Flat surcharge regardless of payload size.
			total += perImageTokens
			total += cacheSurcharge(b.CacheControl)
		case anthropic.ToolUseBlock:
			total += c.encoder.Count(b.Name)
			if encoded, err := json.Marshal(b.Input); err == nil {
				total += c.encoder.Count(string(encoded))
			} else {
				c.logger.Warn("failed to serialize tool_use input for counting, skipping",
					slog.String("tool_name", b.Name),
					slog.String("error", err.Error()))
			}
			total += cacheSurcharge(b.CacheControl)
		case anthropic.ToolResultBlock:
			serialized, _ := anthropic.FlattenToolResult(b.Content)
			total += c.encoder.Count(serialized)
			total += cacheSurcharge(b.CacheControl)
		}
	}
	return total
}

func (c *Counter) countTool(tool anthropic.Tool) int {
	total := c.encoder.Count(tool.Name)
	total += c.encoder.Count(tool.Description)
	if tool.InputSchema != nil {
		if encoded, err := json.Marshal(tool.InputSchema); err == nil {
			total += c.encoder.Count(string(encoded))
		} else {
			c.logger.Warn("failed to serialize tool schema for counting, skipping",
				slog.String("tool_name", tool.Name),
				slog.String("error", err.Error()))
		}
	}
	total += cacheSurcharge(tool.CacheControl)
	return total
}

func cacheSurcharge(cc *anthropic.CacheControl) int {
	if cc != nil {
		return perCacheControl
	}
	return 0
}
