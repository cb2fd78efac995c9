// Package anthropic implements the Anthropic Messages API transformer
// bundle of SPEC_FULL.md §4.3. The teacher's internal/providers/anthropic.go
// is a 53-line pass-through (Anthropic is the teacher's own router target
// dialect, so it never needed a converter); this package is grounded
// instead on the *shape* of Anthropic content blocks implicit throughout
// the teacher's other converters (convertMessageContent's anthropicContent
// struct in openai.go, handleGeminiParts in gemini.go) — every other
// provider's converter builds this exact wire shape, so this package
// documents it directly and builds the inverse (Anthropic wire <-> unified).
package anthropic

import "encoding/json"

type wireRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	Messages    []wireMessage   `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	StopSeqs    []string        `json:"stop_sequences,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
	Tools       []wireTool      `json:"tools,omitempty"`
	ToolChoice  json.RawMessage `json:"tool_choice,omitempty"`
}

type wireMessage struct {
	Role    string      `json:"role"`
	Content []wireBlock `json:"content"`
}

type wireBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
}

type wireTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

type wireResponse struct {
	ID           string      `json:"id"`
	Model        string      `json:"model"`
	Role         string      `json:"role"`
	Content      []wireBlock `json:"content"`
	StopReason   string      `json:"stop_reason,omitempty"`
	StopSequence string      `json:"stop_sequence,omitempty"`
	Usage        *wireUsage  `json:"usage,omitempty"`
	Error        *wireError  `json:"error,omitempty"`
}

type wireUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
}

type wireError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Streaming event envelope: Anthropic's SSE "event:" line names the shape,
// "data:" carries one of these depending on Type.
type wireStreamEvent struct {
	Type         string          `json:"type"`
	Index        *int            `json:"index,omitempty"`
	Message      *wireResponse   `json:"message,omitempty"`
	ContentBlock *wireBlock      `json:"content_block,omitempty"`
	Delta        json.RawMessage `json:"delta,omitempty"`
	Usage        *wireUsage      `json:"usage,omitempty"`
}

type textDelta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type thinkingDelta struct {
	Type     string `json:"type"`
	Thinking string `json:"thinking,omitempty"`
}

type inputJSONDelta struct {
	Type        string `json:"type"`
	PartialJSON string `json:"partial_json,omitempty"`
}

type stopDelta struct {
	StopReason   string `json:"stop_reason,omitempty"`
	StopSequence string `json:"stop_sequence,omitempty"`
}
