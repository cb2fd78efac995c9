// Package llmtypes holds the unified, provider-agnostic data model: messages,
// multimodal content parts, tool calls/results, usage, and streaming events.
// Every provider transformer reads or produces these types; nothing in this
// package knows about any specific wire format.
package llmtypes

import "encoding/json"

// Role is the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleDeveloper Role = "developer"
	RoleTool      Role = "tool"
)

// ContentKind discriminates the three shapes a Message's content can take.
type ContentKind string

const (
	ContentKindText       ContentKind = "text"
	ContentKindMultiModal ContentKind = "multimodal"
	ContentKindJSON       ContentKind = "json"
)

// Content is a small sum type: exactly one of Text, Parts, or JSON is
// populated, selected by Kind. Modeled as a tagged struct rather than an
// interface because, unlike ContentPart, there are only three shapes and no
// provider ever needs to add a new one.
type Content struct {
	Kind  ContentKind
	Text  string
	Parts []ContentPart
	JSON  json.RawMessage
}

// TextContent builds a plain-text message content.
func TextContent(text string) Content {
	return Content{Kind: ContentKindText, Text: text}
}

// MultiModalContent builds a multimodal message content from ordered parts.
// Part ordering is semantically significant and preserved verbatim.
func MultiModalContent(parts ...ContentPart) Content {
	return Content{Kind: ContentKindMultiModal, Parts: parts}
}

// JSONContent builds a feature-gated raw-JSON message content.
func JSONContent(raw json.RawMessage) Content {
	return Content{Kind: ContentKindJSON, JSON: raw}
}

// AsText returns the text content if this is a Text-kind content.
func (c Content) AsText() (string, bool) {
	if c.Kind == ContentKindText {
		return c.Text, true
	}
	return "", false
}

// Message is a single turn in the unified conversation history.
type Message struct {
	Role     Role
	Content  Content
	Metadata map[string]json.RawMessage
}

// ToolCalls returns every ToolCall part across the message's content,
// whether the message is MultiModal or not (Text/JSON messages never
// contain tool calls).
func (m Message) ToolCalls() []ToolCall {
	if m.Content.Kind != ContentKindMultiModal {
		return nil
	}
	var out []ToolCall
	for _, p := range m.Content.Parts {
		if tc, ok := p.(ToolCall); ok {
			out = append(out, tc)
		}
	}
	return out
}

// NewUserText is a convenience constructor for a plain user turn.
func NewUserText(text string) Message {
	return Message{Role: RoleUser, Content: TextContent(text)}
}

// NewAssistantText is a convenience constructor for a plain assistant turn.
func NewAssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: TextContent(text)}
}

// NewToolResultMessage builds a role=Tool message whose content consists
// solely of ToolResult parts, per the invariant in SPEC_FULL.md §3.
func NewToolResultMessage(results ...ToolResult) Message {
	parts := make([]ContentPart, len(results))
	for i, r := range results {
		parts[i] = r
	}
	return Message{Role: RoleTool, Content: MultiModalContent(parts...)}
}
