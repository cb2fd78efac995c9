package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

func TestBridgeEvent_ToolCallFromUnknownPrefixAddsRawItemAndKeepsProviderMetadata(t *testing.T) {
	b := NewOpenAIResponsesBridge()

	data, _ := json.Marshal(map[string]any{
		"type":             "tool-call",
		"toolCallId":       "tc_1",
		"toolName":         "web_search",
		"input":            `{"q":"hello"}`,
		"providerMetadata": map[string]any{"gemini": map[string]any{"traceId": "t1"}},
	})

	out := b.BridgeEvent(llmtypes.NewCustom("custom:any", data))
	require.Len(t, out, 1)
	assert.Equal(t, "openai:tool-call", out[0].Custom.EventType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(out[0].Custom.Data, &payload))
	require.Contains(t, payload, "rawItem")
	pm := payload["providerMetadata"].(map[string]any)
	gemini := pm["gemini"].(map[string]any)
	assert.Equal(t, "t1", gemini["traceId"])
}

// TestBridgeEvent_ToolResultSynthesizesToolCallWhenMissing is the exact seed
// scenario: a bare tool-result with no prior tool-call must synthesize an
// in_progress tool-call scaffold before emitting the completed result.
func TestBridgeEvent_ToolResultSynthesizesToolCallWhenMissing(t *testing.T) {
	b := NewOpenAIResponsesBridge()

	data, _ := json.Marshal(map[string]any{
		"type":             "tool-result",
		"toolCallId":       "tc_2",
		"toolName":         "web_search",
		"result":           map[string]any{"ok": true},
		"providerMetadata": map[string]any{"anthropic": map[string]any{"requestId": "r1"}},
	})

	out := b.BridgeEvent(llmtypes.NewCustom("custom:any", data))
	require.Len(t, out, 2)

	assert.Equal(t, "openai:tool-call", out[0].Custom.EventType)
	var callPayload map[string]any
	require.NoError(t, json.Unmarshal(out[0].Custom.Data, &callPayload))
	rawItem := callPayload["rawItem"].(map[string]any)
	assert.Equal(t, "in_progress", rawItem["status"])
	pm := callPayload["providerMetadata"].(map[string]any)
	anthropic := pm["anthropic"].(map[string]any)
	assert.Equal(t, "r1", anthropic["requestId"])

	assert.Equal(t, "openai:tool-result", out[1].Custom.EventType)
	var resultPayload map[string]any
	require.NoError(t, json.Unmarshal(out[1].Custom.Data, &resultPayload))
	resultRawItem := resultPayload["rawItem"].(map[string]any)
	assert.Equal(t, "completed", resultRawItem["status"])
}

func TestBridgeEvent_ToolInputPartsAreRenamed(t *testing.T) {
	b := NewOpenAIResponsesBridge()

	data, _ := json.Marshal(map[string]any{
		"type":     "tool-input-start",
		"id":       "call_1",
		"toolName": "web_search",
	})

	out := b.BridgeEvent(llmtypes.NewCustom("custom:any", data))
	require.Len(t, out, 1)
	assert.Equal(t, "openai:tool-input-start", out[0].Custom.EventType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(out[0].Custom.Data, &payload))
	assert.Equal(t, "call_1", payload["id"])
}

func TestBridgeEvent_RawPartsAreNotRewritten(t *testing.T) {
	b := NewOpenAIResponsesBridge()

	data, _ := json.Marshal(map[string]any{
		"type":     "raw",
		"rawValue": map[string]any{"hello": "world"},
	})

	out := b.BridgeEvent(llmtypes.NewCustom("custom:raw", data))
	require.Len(t, out, 1)
	assert.Equal(t, "custom:raw", out[0].Custom.EventType)
}

func TestBridgeEvent_NonCustomEventsPassThroughUnchanged(t *testing.T) {
	b := NewOpenAIResponsesBridge()

	ev := llmtypes.NewContentDelta("hi", nil)
	out := b.BridgeEvent(ev)
	require.Len(t, out, 1)
	assert.Equal(t, llmtypes.EventContentDelta, out[0].Kind)
	assert.Equal(t, "hi", out[0].ContentDelta.Delta)
}

func TestBridgeEvent_GeminiSourceIsRenamed(t *testing.T) {
	b := NewOpenAIResponsesBridge()

	data, _ := json.Marshal(map[string]any{"url": "https://example.com"})
	out := b.BridgeEvent(llmtypes.NewCustom("gemini:source", data))
	require.Len(t, out, 1)
	assert.Equal(t, "openai:source", out[0].Custom.EventType)
}

func TestBridgeEvent_AnthropicReasoningStartCarriesBlockIndex(t *testing.T) {
	b := NewOpenAIResponsesBridge()

	data, _ := json.Marshal(map[string]any{"contentBlockIndex": 3})
	out := b.BridgeEvent(llmtypes.NewCustom("anthropic:reasoning-start", data))
	require.Len(t, out, 1)
	assert.Equal(t, "openai:reasoning-start", out[0].Custom.EventType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(out[0].Custom.Data, &payload))
	assert.EqualValues(t, 3, payload["id"])
}

// TestBridgeEvent_ToolCallThenResultSharesInput verifies the bridge keeps its
// per-call input/name state across events in the same stream: a tool-call
// followed by its matching tool-result reuses the recorded input rather than
// falling back to "{}".
func TestBridgeEvent_ToolCallThenResultSharesInput(t *testing.T) {
	b := NewOpenAIResponsesBridge()

	callData, _ := json.Marshal(map[string]any{
		"toolCallId": "tc_3",
		"toolName":   "get_weather",
		"input":      `{"city":"nyc"}`,
	})
	callOut := b.BridgeEvent(llmtypes.NewCustom("anthropic:tool-call", callData))
	require.Len(t, callOut, 1)

	resultData, _ := json.Marshal(map[string]any{
		"toolCallId": "tc_3",
		"toolName":   "get_weather",
		"result":     map[string]any{"tempF": 72},
	})
	resultOut := b.BridgeEvent(llmtypes.NewCustom("anthropic:tool-result", resultData))
	require.Len(t, resultOut, 1) // tool-call already emitted, no scaffold synthesized

	var payload map[string]any
	require.NoError(t, json.Unmarshal(resultOut[0].Custom.Data, &payload))
	rawItem := payload["rawItem"].(map[string]any)
	assert.Equal(t, `{"city":"nyc"}`, rawItem["input"])
}
