// Package openai implements the OpenAI Chat Completions request/response/
// stream-chunk transformer bundle of SPEC_FULL.md §4.3, grounded on the
// teacher's internal/providers/openai.go (convertOpenAIToAnthropic,
// convertOpenAIToAnthropicStream, handleToolCalls/handleTextContent),
// generalized from "OpenAI wire shape -> Anthropic wire shape" to "OpenAI
// wire shape <-> the unified llmtypes model."
package openai

import "encoding/json"

// wireRequest is the OpenAI Chat Completions request body.
type wireRequest struct {
	Model          string          `json:"model"`
	Messages       []wireMessage   `json:"messages"`
	Stream         bool            `json:"stream,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	TopP           *float64        `json:"top_p,omitempty"`
	Stop           []string        `json:"stop,omitempty"`
	Seed           *int64          `json:"seed,omitempty"`
	Tools          []wireTool      `json:"tools,omitempty"`
	ToolChoice     any             `json:"tool_choice,omitempty"`
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`
}

type wireMessage struct {
	Role       string          `json:"role"`
	Content    *string         `json:"content,omitempty"`
	Name       string          `json:"name,omitempty"`
	ToolCalls  []wireToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireToolSpec `json:"function"`
}

type wireToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// wireResponse is the OpenAI Chat Completions response body, shared between
// the non-streaming response and each streaming chunk (which carries
// "delta" instead of "message").
type wireResponse struct {
	ID                string       `json:"id"`
	Model             string       `json:"model"`
	Choices           []wireChoice `json:"choices"`
	Usage             *wireUsage   `json:"usage,omitempty"`
	SystemFingerprint string       `json:"system_fingerprint,omitempty"`
	Error             *wireError   `json:"error,omitempty"`
}

type wireChoice struct {
	Index        int            `json:"index"`
	Message      *wireMessage   `json:"message,omitempty"`
	Delta        *wireDelta     `json:"delta,omitempty"`
	FinishReason *string        `json:"finish_reason,omitempty"`
}

// wireDelta is the streaming counterpart of wireMessage: every field is
// optional since a delta may touch only one of them per chunk.
type wireDelta struct {
	Role      string             `json:"role,omitempty"`
	Content   string             `json:"content,omitempty"`
	ToolCalls []wireToolCallDelta `json:"tool_calls,omitempty"`
}

// wireToolCallDelta is OpenAI's streaming tool-call fragment: Index selects
// which in-flight call this fragment belongs to, ID/Name arrive only on the
// first fragment for a given index, and Arguments is a fragment to append.
type wireToolCallDelta struct {
	Index    int           `json:"index"`
	ID       string        `json:"id,omitempty"`
	Function wireFuncDelta `json:"function,omitempty"`
}

type wireFuncDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type wireUsage struct {
	PromptTokens          int                `json:"prompt_tokens"`
	CompletionTokens      int                `json:"completion_tokens"`
	TotalTokens           int                `json:"total_tokens"`
	PromptTokensDetails   map[string]int     `json:"prompt_tokens_details,omitempty"`
	CompletionTokensDetails map[string]int   `json:"completion_tokens_details,omitempty"`
}

type wireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}
