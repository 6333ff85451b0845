package tokens

import (
	"strings"
	"testing"

	"mercator-hq/hermes/pkg/anthropic"
)

// wordEncoder is a deterministic encoder for tests: one token per
// whitespace-separated word.
type wordEncoder struct{}

func (wordEncoder) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}

func strPtr(s string) *string { return &s }

func textMessage(role, text string) anthropic.Message {
	return anthropic.Message{
		Role:    role,
		Content: anthropic.MessageContent{Str: strPtr(text)},
	}
}

func TestCountRequestMessageOverhead(t *testing.T) {
	c := NewCounter(wordEncoder{}, nil)

	// 4 framing + 1 role + 2 words.
	got := c.CountRequest(nil, []anthropic.Message{textMessage(anthropic.RoleUser, "hello there")}, nil)
	if got != 7 {
		t.Errorf("count = %d, want 7", got)
	}
}

func TestCountRequestMonotonicInTextLength(t *testing.T) {
	c := NewCounter(wordEncoder{}, nil)

	prev := -1
	text := "word"
	for i := 0; i < 5; i++ {
		got := c.CountRequest(nil, []anthropic.Message{textMessage(anthropic.RoleUser, text)}, nil)
		if got < prev {
			t.Fatalf("count decreased from %d to %d at length %d", prev, got, i)
		}
		prev = got
		text += " word"
	}
}

func TestCountRequestImageSurcharge(t *testing.T) {
	c := NewCounter(wordEncoder{}, nil)

	image := func(data string) anthropic.Message {
		return anthropic.Message{
			Role: anthropic.RoleUser,
			Content: anthropic.MessageContent{Blocks: []anthropic.ContentBlock{
				anthropic.ImageBlock{
					Type:   "image",
					Source: anthropic.ImageSource{Type: "base64", MediaType: "image/png", Data: data},
				},
			}},
		}
	}

	small := c.CountRequest(nil, []anthropic.Message{image("AA")}, nil)
	large := c.CountRequest(nil, []anthropic.Message{image(strings.Repeat("A", 100000))}, nil)
	if small != large {
		t.Errorf("image cost varies with payload size: %d vs %d", small, large)
	}

	empty := c.CountRequest(nil, []anthropic.Message{{
		Role:    anthropic.RoleUser,
		Content: anthropic.MessageContent{Blocks: []anthropic.ContentBlock{}},
	}}, nil)
	if small-empty != 768 {
		t.Errorf("image surcharge = %d, want 768", small-empty)
	}
}

func TestCountRequestCacheControlSurcharge(t *testing.T) {
	c := NewCounter(wordEncoder{}, nil)

	plain := anthropic.Message{
		Role: anthropic.RoleUser,
		Content: anthropic.MessageContent{Blocks: []anthropic.ContentBlock{
			anthropic.NewTextBlock("cached text"),
		}},
	}
	annotated := anthropic.Message{
		Role: anthropic.RoleUser,
		Content: anthropic.MessageContent{Blocks: []anthropic.ContentBlock{
			anthropic.TextBlock{Type: "text", Text: "cached text", CacheControl: &anthropic.CacheControl{Type: "ephemeral"}},
		}},
	}

	without := c.CountRequest(nil, []anthropic.Message{plain}, nil)
	with := c.CountRequest(nil, []anthropic.Message{annotated}, nil)
	if with-without != 5 {
		t.Errorf("cache-control surcharge = %d, want 5", with-without)
	}
}

func TestCountRequestSystemPromptForms(t *testing.T) {
	c := NewCounter(wordEncoder{}, nil)

	str := c.CountRequest(&anthropic.SystemPrompt{Str: strPtr("three word prompt")}, nil, nil)
	if str != 3 {
		t.Errorf("string system = %d, want 3", str)
	}

	blocks := c.CountRequest(&anthropic.SystemPrompt{Blocks: []anthropic.SystemContent{
		{Type: "text", Text: "three word prompt", CacheControl: &anthropic.CacheControl{Type: "ephemeral"}},
	}}, nil, nil)
	if blocks != 8 {
		t.Errorf("block system = %d, want 3 + 5 surcharge", blocks)
	}
}

func TestCountRequestTools(t *testing.T) {
	c := NewCounter(wordEncoder{}, nil)

	tools := []anthropic.Tool{{
		Name:        "search",
		Description: "find things fast",
		InputSchema: map[string]any{"type": "object"},
	}}

	// 2 list overhead + 1 name + 3 description + 1 schema word.
	got := c.CountRequest(nil, nil, tools)
	if got != 7 {
		t.Errorf("tool count = %d, want 7", got)
	}
}

func TestCountRequestToolUseAndResultBlocks(t *testing.T) {
	c := NewCounter(wordEncoder{}, nil)

	messages := []anthropic.Message{
		{
			Role: anthropic.RoleAssistant,
			Content: anthropic.MessageContent{Blocks: []anthropic.ContentBlock{
				anthropic.NewToolUseBlock("call_1", "lookup", map[string]any{"q": "go"}),
			}},
		},
		{
			Role: anthropic.RoleUser,
			Content: anthropic.MessageContent{Blocks: []anthropic.ContentBlock{
				anthropic.ToolResultBlock{
					Type:      "tool_result",
					ToolUseID: "call_1",
					Content:   anthropic.ToolResultContent{Str: strPtr("two words")},
				},
			}},
		},
	}

	// assistant: 4 + 1 role + 1 name + 1 json word; user: 4 + 1 role + 2 words.
	got := c.CountRequest(nil, messages, nil)
	if got != 14 {
		t.Errorf("count = %d, want 14", got)
	}
}

func TestSharedEncoderIsSingleton(t *testing.T) {
	a := SharedEncoder(nil)
	b := SharedEncoder(nil)
	if a == nil || a != b {
		t.Errorf("SharedEncoder returned %v and %v, want one shared instance", a, b)
	}
}
