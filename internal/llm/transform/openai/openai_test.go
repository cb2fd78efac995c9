package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

func TestTransformRequest_SimpleTextMessage(t *testing.T) {
	req := llmtypes.ChatRequest{
		Params:   llmtypes.CommonParams{Model: "gpt-4o"},
		Messages: []llmtypes.Message{llmtypes.NewUserText("hi there")},
	}

	body, err := TransformRequest(req, llmtypes.BuildContext{})
	require.NoError(t, err)

	var wr wireRequest
	require.NoError(t, json.Unmarshal(body, &wr))
	assert.Equal(t, "gpt-4o", wr.Model)
	require.Len(t, wr.Messages, 1)
	assert.Equal(t, "user", wr.Messages[0].Role)
	assert.Equal(t, "hi there", *wr.Messages[0].Content)
}

func TestTransformRequest_ToolResultExpandsToToolMessage(t *testing.T) {
	req := llmtypes.ChatRequest{
		Params: llmtypes.CommonParams{Model: "gpt-4o"},
		Messages: []llmtypes.Message{
			llmtypes.NewToolResultMessage(llmtypes.NewToolResultText("call_1", "get_weather", "sunny")),
		},
	}

	body, err := TransformRequest(req, llmtypes.BuildContext{})
	require.NoError(t, err)

	var wr wireRequest
	require.NoError(t, json.Unmarshal(body, &wr))
	require.Len(t, wr.Messages, 1)
	assert.Equal(t, "tool", wr.Messages[0].Role)
	assert.Equal(t, "call_1", wr.Messages[0].ToolCallID)
	assert.Equal(t, "sunny", *wr.Messages[0].Content)
}

func TestTransformResponse_BasicText(t *testing.T) {
	body := []byte(`{
		"id": "chatcmpl-1",
		"model": "gpt-4o",
		"choices": [{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],
		"usage": {"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}
	}`)

	resp, err := TransformResponse(body, llmtypes.BuildContext{})
	require.NoError(t, err)
	assert.Equal(t, "chatcmpl-1", resp.ID)
	assert.Equal(t, "hello", resp.Text())
	assert.Equal(t, llmtypes.FinishStop, resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 12, resp.Usage.TotalTokens)
}

func TestTransformResponse_ErrorBody(t *testing.T) {
	body := []byte(`{"error":{"message":"bad key","type":"authentication_error"}}`)
	_, err := TransformResponse(body, llmtypes.BuildContext{})
	require.Error(t, err)
}

func TestTransformStreamChunk_SynthesizesStreamStartOnce(t *testing.T) {
	st := provider.NewState()
	chunk := []byte(`{"id":"c1","model":"gpt-4o","choices":[{"delta":{"content":"hi"}}]}`)

	events, err := TransformStreamChunk("", chunk, st)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, llmtypes.EventStreamStart, events[0].Kind)
	assert.Equal(t, llmtypes.EventContentDelta, events[1].Kind)

	chunk2 := []byte(`{"id":"c1","model":"gpt-4o","choices":[{"delta":{"content":" there"}}]}`)
	events2, err := TransformStreamChunk("", chunk2, st)
	require.NoError(t, err)
	require.Len(t, events2, 1, "no second StreamStart once MessageStarted is set")
}

func TestTransformStreamChunk_ToolCallDeltaTracksIndex(t *testing.T) {
	st := provider.NewState()
	st.MessageStarted = true

	first := []byte(`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_weather","arguments":""}}]}}]}`)
	events, err := TransformStreamChunk("", first, st)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "call_1", events[0].ToolCallDelta.ID)
	assert.Equal(t, "get_weather", events[0].ToolCallDelta.FunctionName)

	second := []byte(`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"c"}}]}}]}`)
	events2, err := TransformStreamChunk("", second, st)
	require.NoError(t, err)
	require.Len(t, events2, 1)
	assert.Equal(t, "call_1", events2[0].ToolCallDelta.ID, "subsequent deltas resolve ID from tracked state")
}

func TestTransformStreamChunk_FinishReasonEmitsStreamEnd(t *testing.T) {
	st := provider.NewState()
	st.MessageStarted = true
	chunk := []byte(`{"choices":[{"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)

	events, err := TransformStreamChunk("", chunk, st)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, llmtypes.EventStreamEnd, events[0].Kind)
	assert.Equal(t, llmtypes.FinishStop, events[0].StreamEnd.FinishReason)
}
