package anthropic

import (
	"encoding/json"
	"strings"
)

// FlattenToolResult serializes tool-result content to the single string the
// backend requires for tool-role messages. Text items pass through verbatim,
// any other item is JSON-encoded, and the parts are newline-joined in their
// original order. The second return reports whether any non-text item was
// encountered, so callers can log the degradation.
//
// Serialization never fails: an unencodable item becomes a placeholder, and
// an unencodable non-list value becomes a structured error payload.
func FlattenToolResult(content ToolResultContent) (string, bool) {
	if content.Str != nil {
		return *content.Str, false
	}

	if content.Items != nil {
		parts := make([]string, 0, len(content.Items))
		sawStructured := false
		for _, item := range content.Items {
			if text, ok := textItem(item); ok {
				parts = append(parts, text)
				continue
			}
			sawStructured = true
			encoded, err := json.Marshal(item)
			if err != nil {
				parts = append(parts, "<unserializable_item>")
				continue
			}
			parts = append(parts, string(encoded))
		}
		return strings.Join(parts, "\n"), sawStructured
	}

	// Neither form set: content was absent entirely.
	encoded, err := json.Marshal(content)
	if err != nil {
		fallback, _ := json.Marshal(map[string]string{"error": "serialization failed"})
		return string(fallback), true
	}
	return string(encoded), false
}

// textItem reports whether item is a {"type":"text","text":...} map and
// returns its text.
func textItem(item any) (string, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return "", false
	}
	if t, ok := m["type"].(string); !ok || t != "text" {
		return "", false
	}
	text, ok := m["text"].(string)
	return text, ok
}
