package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

func TestDecodeClientChatRequest_PlainTextMessages(t *testing.T) {
	body := []byte(`{
		"model": "gpt-4o",
		"messages": [
			{"role": "system", "content": "be terse"},
			{"role": "user", "content": "hi"}
		],
		"temperature": 0.5
	}`)

	req, err := DecodeClientChatRequest(body)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", req.Params.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llmtypes.RoleSystem, req.Messages[0].Role)
	text, ok := req.Messages[1].Content.AsText()
	require.True(t, ok)
	assert.Equal(t, "hi", text)
	require.NotNil(t, req.Params.Temperature)
	assert.Equal(t, 0.5, *req.Params.Temperature)
}

func TestDecodeClientChatRequest_ToolCallsAndToolResult(t *testing.T) {
	body := []byte(`{
		"model": "gpt-4o",
		"messages": [
			{"role": "user", "content": "what's the weather"},
			{"role": "assistant", "content": null, "tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"nyc\"}"}}
			]},
			{"role": "tool", "tool_call_id": "call_1", "content": "sunny"}
		],
		"tools": [
			{"type": "function", "function": {"name": "get_weather", "description": "gets weather", "parameters": {"type": "object"}}}
		],
		"tool_choice": "auto"
	}`)

	req, err := DecodeClientChatRequest(body)
	require.NoError(t, err)
	require.Len(t, req.Messages, 3)

	toolCalls := req.Messages[1].ToolCalls()
	require.Len(t, toolCalls, 1)
	assert.Equal(t, "call_1", toolCalls[0].ToolCallID)
	assert.Equal(t, "get_weather", toolCalls[0].ToolName)

	assert.Equal(t, llmtypes.RoleTool, req.Messages[2].Role)

	require.Len(t, req.Tools, 1)
	assert.Equal(t, "get_weather", req.Tools[0].Name)

	require.NotNil(t, req.ToolChoice)
	assert.Equal(t, llmtypes.ToolChoiceAuto, req.ToolChoice.Kind)
}

func TestEncodeClientChatResponse_TextAndToolCalls(t *testing.T) {
	resp := llmtypes.ChatResponse{
		ID:           "resp_1",
		Model:        "gpt-4o",
		FinishReason: llmtypes.FinishToolCalls,
		Content: llmtypes.MultiModalContent(
			llmtypes.Text{Text: "let me check"},
			llmtypes.ToolCall{ToolCallID: "call_1", ToolName: "get_weather", Arguments: json.RawMessage(`{"city":"nyc"}`)},
		),
		Usage: &llmtypes.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}

	out, err := EncodeClientChatResponse(resp)
	require.NoError(t, err)

	var wr wireResponse
	require.NoError(t, json.Unmarshal(out, &wr))
	require.Len(t, wr.Choices, 1)
	require.NotNil(t, wr.Choices[0].Message)
	require.NotNil(t, wr.Choices[0].Message.Content)
	assert.Equal(t, "let me check", *wr.Choices[0].Message.Content)
	require.Len(t, wr.Choices[0].Message.ToolCalls, 1)
	assert.Equal(t, "get_weather", wr.Choices[0].Message.ToolCalls[0].Function.Name)
	require.NotNil(t, wr.Choices[0].FinishReason)
	assert.Equal(t, "tool_calls", *wr.Choices[0].FinishReason)
	require.NotNil(t, wr.Usage)
	assert.Equal(t, 15, wr.Usage.TotalTokens)
}

func TestEncodeClientStreamChunk_RoleSentOnceThenDeltasThenDone(t *testing.T) {
	st := &ClientStreamState{}

	frame, done, err := EncodeClientStreamChunk(llmtypes.NewStreamStart("c1", "gpt-4o"), st)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, string(frame), `"role":"assistant"`)

	idx := 0
	frame, done, err = EncodeClientStreamChunk(llmtypes.NewContentDelta("hi", &idx), st)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, string(frame), `"content":"hi"`)

	frame, done, err = EncodeClientStreamChunk(llmtypes.NewStreamEnd(llmtypes.ChatResponse{ID: "c1", Model: "gpt-4o", FinishReason: llmtypes.FinishStop}), st)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Contains(t, string(frame), `"finish_reason":"stop"`)
}

func TestEncodeClientStreamChunk_ToolCallDelta(t *testing.T) {
	st := &ClientStreamState{}
	idx := 0
	frame, done, err := EncodeClientStreamChunk(llmtypes.NewToolCallDelta("call_1", "get_weather", `{"city"`, &idx), st)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, string(frame), `"id":"call_1"`)
	assert.Contains(t, string(frame), `"name":"get_weather"`)
}
