package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

func TestTransformRequest_SystemMessageHoisted(t *testing.T) {
	req := llmtypes.ChatRequest{
		Params: llmtypes.CommonParams{Model: "claude-3-5-sonnet-20241022"},
		Messages: []llmtypes.Message{
			{Role: llmtypes.RoleSystem, Content: llmtypes.TextContent("be terse")},
			llmtypes.NewUserText("hi"),
		},
	}

	body, err := TransformRequest(req, llmtypes.BuildContext{})
	require.NoError(t, err)

	var wr wireRequest
	require.NoError(t, json.Unmarshal(body, &wr))
	assert.Equal(t, "be terse", wr.System)
	require.Len(t, wr.Messages, 1)
	assert.Equal(t, "user", wr.Messages[0].Role)
}

func TestTransformRequest_DefaultsMaxTokensWhenUnset(t *testing.T) {
	req := llmtypes.ChatRequest{
		Params:   llmtypes.CommonParams{Model: "claude-3-5-sonnet-20241022"},
		Messages: []llmtypes.Message{llmtypes.NewUserText("hi")},
	}
	body, err := TransformRequest(req, llmtypes.BuildContext{})
	require.NoError(t, err)

	var wr wireRequest
	require.NoError(t, json.Unmarshal(body, &wr))
	assert.Equal(t, 4096, wr.MaxTokens)
}

func TestTransformResponse_ToolUse(t *testing.T) {
	body := []byte(`{
		"id":"msg_1","model":"claude-3-5-sonnet-20241022","role":"assistant",
		"content":[{"type":"tool_use","id":"call_1","name":"get_weather","input":{"city":"nyc"}}],
		"stop_reason":"tool_use",
		"usage":{"input_tokens":5,"output_tokens":3}
	}`)

	resp, err := TransformResponse(body, llmtypes.BuildContext{})
	require.NoError(t, err)
	assert.Equal(t, llmtypes.FinishToolCalls, resp.FinishReason)
	calls := resp.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "get_weather", calls[0].ToolName)
}

func TestTransformStreamChunk_MessageStartThenTextDelta(t *testing.T) {
	st := provider.NewState()

	start, err := TransformStreamChunk("message_start", []byte(`{"type":"message_start","message":{"id":"msg_1","model":"claude-3-5-sonnet-20241022","role":"assistant","content":[]}}`), st)
	require.NoError(t, err)
	require.Len(t, start, 1)
	assert.Equal(t, llmtypes.EventStreamStart, start[0].Kind)

	_, err = TransformStreamChunk("content_block_start", []byte(`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`), st)
	require.NoError(t, err)

	delta, err := TransformStreamChunk("content_block_delta", []byte(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"hi"}}`), st)
	require.NoError(t, err)
	require.Len(t, delta, 1)
	assert.Equal(t, "hi", delta[0].ContentDelta.Delta)
}

func TestTransformStreamChunk_MessageDeltaEmitsStreamEnd(t *testing.T) {
	st := provider.NewState()
	st.MessageID, st.Model = "msg_1", "claude-3-5-sonnet-20241022"

	out, err := TransformStreamChunk("message_delta", []byte(`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":7}}`), st)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, llmtypes.EventStreamEnd, out[0].Kind)
	assert.Equal(t, llmtypes.FinishStop, out[0].StreamEnd.FinishReason)
}

func TestTransformStreamChunk_ToolUseInputJSONDeltaResolvesIDFromBlockState(t *testing.T) {
	st := provider.NewState()
	idx := 0
	_, err := TransformStreamChunk("content_block_start", []byte(`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"call_1","name":"get_weather"}}`), st)
	require.NoError(t, err)

	out, err := TransformStreamChunk("content_block_delta", []byte(`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"c"}}`), st)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "call_1", out[0].ToolCallDelta.ID)
	assert.Equal(t, &idx, out[0].ToolCallDelta.Index)
}
