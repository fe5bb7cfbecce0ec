package agent

import (
	"bytes"
	"encoding/json"

	"github.com/firebase/genkit/go/ai"
)

// Role constants for the wire-level chat message format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// PlaceholderToolCallID is substituted when a tool message arrives without a
// correlation id. A deliberate fallback, not a failure: downstream providers
// reject tool messages with empty ids.
const PlaceholderToolCallID = "tool-call"

// ChatMessage is the client-supplied message record. Content is kept raw
// because clients send strings, content-block lists, or arbitrary objects.
type ChatMessage struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
}

// Text returns the message content coerced to plain text using the
// normalizer's rules. Used where a message is persisted or displayed
// outside the agent.
func (m ChatMessage) Text() string {
	return normalizeContent(m.Content)
}

// NormalizeMessages converts client messages into Genkit messages, one output
// per input, in order. Unknown or missing roles become user messages. This is
// a best-effort normalizer: malformed content degrades to an empty or
// JSON-escaped string, never an error.
func NormalizeMessages(messages []ChatMessage) []*ai.Message {
	out := make([]*ai.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, normalizeMessage(m))
	}
	return out
}

func normalizeMessage(m ChatMessage) *ai.Message {
	content := normalizeContent(m.Content)

	switch m.Role {
	case RoleSystem:
		return &ai.Message{
			Role:     ai.RoleSystem,
			Content:  []*ai.Part{ai.NewTextPart(content)},
			Metadata: withName(m.Metadata, m.Name),
		}
	case RoleAssistant:
		return &ai.Message{
			Role:     ai.RoleModel,
			Content:  []*ai.Part{ai.NewTextPart(content)},
			Metadata: copyMetadata(m.Metadata),
		}
	case RoleTool:
		ref := m.ToolCallID
		if ref == "" {
			ref = PlaceholderToolCallID
		}
		return &ai.Message{
			Role: ai.RoleTool,
			Content: []*ai.Part{ai.NewToolResponsePart(&ai.ToolResponse{
				Ref:    ref,
				Name:   m.Name,
				Output: content,
			})},
		}
	default: // "user" and anything unrecognized
		return &ai.Message{
			Role:     ai.RoleUser,
			Content:  []*ai.Part{ai.NewTextPart(content)},
			Metadata: withName(m.Metadata, m.Name),
		}
	}
}

// normalizeContent coerces arbitrary message content to plain text:
// strings pass through unchanged; arrays concatenate string elements verbatim
// and the JSON form of everything else, in order, with no separator; objects
// and other values are JSON-serialized; null/absent content becomes "".
func normalizeContent(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err == nil {
		var buf bytes.Buffer
		for _, p := range parts {
			// A null element is not a string: unmarshaling "null" into a
			// string is a no-op that reports success, so it must be routed
			// to the JSON branch explicitly.
			var ps string
			if !bytes.Equal(p, []byte("null")) {
				if err := json.Unmarshal(p, &ps); err == nil {
					buf.WriteString(ps)
					continue
				}
			}
			buf.WriteString(compactJSON(p))
		}
		return buf.String()
	}

	return compactJSON(raw)
}

// compactJSON strips insignificant whitespace from raw JSON, preserving the
// client's key order. Invalid JSON falls through verbatim (best effort).
func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// ContentToString serializes agent-produced message parts to plain text using
// the same coercion rules as normalizeContent: text parts pass through, all
// other parts contribute their JSON form, in order, with no separator.
func ContentToString(parts []*ai.Part) string {
	var buf bytes.Buffer
	for _, p := range parts {
		if p == nil {
			continue
		}
		switch {
		case p.IsText():
			buf.WriteString(p.Text)
		case p.ToolRequest != nil:
			writeJSON(&buf, p.ToolRequest)
		case p.ToolResponse != nil:
			writeJSON(&buf, p.ToolResponse)
		default:
			writeJSON(&buf, p)
		}
	}
	return buf.String()
}

func writeJSON(buf *bytes.Buffer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return // best effort: skip unserializable parts
	}
	buf.Write(data)
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// withName merges an optional sender name into message metadata.
func withName(m map[string]any, name string) map[string]any {
	cp := copyMetadata(m)
	if name == "" {
		return cp
	}
	if cp == nil {
		cp = make(map[string]any, 1)
	}
	cp["name"] = name
	return cp
}
