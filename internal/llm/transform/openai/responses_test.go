package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

func responsesOpts(enabled bool) llmtypes.ProviderOptionsMap {
	raw, _ := json.Marshal(map[string]any{
		"responsesApi": map[string]any{"enabled": enabled},
	})
	return llmtypes.ProviderOptionsMap{"openai": raw}
}

func TestResponsesAPIEnabled(t *testing.T) {
	assert.True(t, ResponsesAPIEnabled(responsesOpts(true)))
	assert.False(t, ResponsesAPIEnabled(responsesOpts(false)))
	assert.False(t, ResponsesAPIEnabled(nil))
}

func TestSpec_ChatURLSwitchesToResponsesPath(t *testing.T) {
	s := Spec()
	url, err := s.ChatURL(llmtypes.BuildContext{ProviderOpts: responsesOpts(true)}, false)
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1/responses", url)

	url, err = s.ChatURL(llmtypes.BuildContext{}, false)
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", url)
}

func TestSpec_ChooseTransformersDispatchesOnResponsesFlag(t *testing.T) {
	s := Spec()
	req := llmtypes.ChatRequest{ProviderOpts: responsesOpts(true)}
	transformers := s.ChooseTransformers(req)

	body, err := transformers.Request(llmtypes.ChatRequest{
		Messages:     []llmtypes.Message{llmtypes.NewUserText("hi")},
		Params:       llmtypes.CommonParams{Model: "gpt-4o"},
		ProviderOpts: responsesOpts(true),
	}, llmtypes.BuildContext{})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"input"`)
	assert.NotContains(t, string(body), `"messages"`)
}

func TestTransformRequestResponses_EncodesToolCallAndResult(t *testing.T) {
	req := llmtypes.ChatRequest{
		Messages: []llmtypes.Message{
			llmtypes.NewUserText("what's the weather"),
			{
				Role: "assistant",
				Content: llmtypes.MultiModalContent(llmtypes.ToolCall{
					ToolCallID: "call_1",
					ToolName:   "get_weather",
					Arguments:  json.RawMessage(`{"city":"nyc"}`),
				}),
			},
			{
				Role: "tool",
				Content: llmtypes.MultiModalContent(llmtypes.NewToolResultText("call_1", "get_weather", "72F")),
			},
		},
		Params: llmtypes.CommonParams{Model: "gpt-4o"},
	}

	body, err := TransformRequestResponses(req, llmtypes.BuildContext{})
	require.NoError(t, err)

	var wr responsesWireRequest
	require.NoError(t, json.Unmarshal(body, &wr))
	require.Len(t, wr.Input, 3)
	assert.Equal(t, "function_call", wr.Input[1].Type)
	assert.Equal(t, "call_1", wr.Input[1].CallID)
	assert.Equal(t, "function_call_output", wr.Input[2].Type)
	assert.Equal(t, "72F", wr.Input[2].Output)
}

func TestTransformResponseResponses_ParsesMessageAndToolCall(t *testing.T) {
	body := []byte(`{
		"id": "resp_1",
		"model": "gpt-4o",
		"status": "completed",
		"output": [
			{"type":"message","role":"assistant","content":[{"type":"output_text","text":"hello"}]},
			{"type":"function_call","call_id":"call_1","name":"get_weather","arguments":"{}"}
		],
		"usage": {"input_tokens":3,"output_tokens":5,"total_tokens":8}
	}`)

	resp, err := TransformResponseResponses(body, llmtypes.BuildContext{})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text())
	require.Len(t, resp.ToolCalls(), 1)
	assert.Equal(t, "get_weather", resp.ToolCalls()[0].ToolName)
	assert.Equal(t, llmtypes.FinishStop, resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 8, resp.Usage.TotalTokens)
}

func TestTransformResponseResponses_ErrorBodyMapsToLlmError(t *testing.T) {
	body := []byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`)
	_, err := TransformResponseResponses(body, llmtypes.BuildContext{})
	require.Error(t, err)
}

func TestTransformStreamChunkResponses_CreatedThenTextDeltaThenCompleted(t *testing.T) {
	st := provider.NewState()

	created := []byte(`{"type":"response.created","response":{"id":"resp_1","model":"gpt-4o","status":"in_progress"}}`)
	events, err := TransformStreamChunkResponses("response.created", created, st)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, llmtypes.EventStreamStart, events[0].Kind)

	delta := []byte(`{"type":"response.output_text.delta","delta":"hi"}`)
	events, err = TransformStreamChunkResponses("response.output_text.delta", delta, st)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, llmtypes.EventContentDelta, events[0].Kind)

	completed := []byte(`{"type":"response.completed","response":{"id":"resp_1","model":"gpt-4o","status":"completed","usage":{"input_tokens":1,"output_tokens":2,"total_tokens":3}}}`)
	events, err = TransformStreamChunkResponses("response.completed", completed, st)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, llmtypes.EventStreamEnd, events[0].Kind)
}

func TestTransformStreamChunkResponses_ToolCallCompletesOnOutputItemDone(t *testing.T) {
	st := provider.NewState()
	done := []byte(`{"type":"response.output_item.done","item":{"type":"function_call","call_id":"call_1","name":"get_weather","arguments":"{\"city\":\"nyc\"}"}}`)

	events, err := TransformStreamChunkResponses("response.output_item.done", done, st)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, llmtypes.EventToolCallDelta, events[0].Kind)
	assert.Equal(t, "call_1", events[0].ToolCallDelta.ID)
}

func TestTransformStreamChunkResponses_ErrorEventReturnsError(t *testing.T) {
	st := provider.NewState()
	errFrame := []byte(`{"type":"error","error":{"message":"boom","type":"api_error"}}`)
	_, err := TransformStreamChunkResponses("error", errFrame, st)
	require.Error(t, err)
}
