// Package bridge implements the stream-transcoding bridge of SPEC_FULL.md
// §4.6: a best-effort re-serializer that takes the Custom "V3 parts" emitted
// by the Anthropic/Gemini transformers (see internal/llm/transform) and
// renames/restructures them into the "openai:*" Custom event family that an
// OpenAI Responses-shaped SSE encoder can speak, for gateway/proxy use-cases
// where a client asked for one wire dialect but the upstream speaks another.
//
// Grounded on original_source/siumai-core/src/streaming/bridge.rs
// (OpenAiResponsesStreamPartsBridge): same event-type renaming table, same
// rawItem scaffold synthesis for tool-call/tool-result, same
// in_progress->completed status transition, same "unknown event types pass
// through unchanged" conservatism. Non-Custom events (StreamStart,
// ContentDelta, ...) always pass through unchanged, matching the Rust
// bridge's `other => vec![other]` arm.
package bridge

import (
	"encoding/json"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

// OpenAIResponsesBridge re-serializes gemini:*/anthropic:*/custom:* Custom
// events into openai:* Custom events. It is stateful across a single stream:
// it remembers which tool-call IDs it has already emitted an "openai:tool-call"
// scaffold for, and the input/name it last saw for each, so that a
// tool-result arriving with no preceding tool-call can synthesize one.
//
// The zero value's maps are nil; build one with NewOpenAIResponsesBridge.
// Not safe for concurrent use by multiple
// goroutines; one instance per stream, like provider.State.
type OpenAIResponsesBridge struct {
	emittedToolCallIDs map[string]bool
	toolInputByCallID  map[string]string
	toolNameByCallID   map[string]string
}

// NewOpenAIResponsesBridge returns a ready-to-use bridge for one stream.
func NewOpenAIResponsesBridge() *OpenAIResponsesBridge {
	return &OpenAIResponsesBridge{
		emittedToolCallIDs: make(map[string]bool),
		toolInputByCallID:  make(map[string]string),
		toolNameByCallID:   make(map[string]string),
	}
}

// BridgeEvent converts a single StreamEvent into zero or more events.
// Standard (non-Custom) events pass through unchanged; Custom events are
// renamed/restructured per the table below.
func (b *OpenAIResponsesBridge) BridgeEvent(ev llmtypes.StreamEvent) []llmtypes.StreamEvent {
	if ev.Kind != llmtypes.EventCustom {
		return []llmtypes.StreamEvent{ev}
	}
	return b.bridgeCustomEvent(ev.Custom.EventType, ev.Custom.Data)
}

func (b *OpenAIResponsesBridge) bridgeCustomEvent(eventType string, data json.RawMessage) []llmtypes.StreamEvent {
	var obj map[string]json.RawMessage
	_ = json.Unmarshal(data, &obj)

	switch eventType {
	case "gemini:tool", "gemini:tool-call", "gemini:tool-result":
		return b.bridgeToolLikeCustomEvent(obj, data)
	case "gemini:source":
		return b.renameCustom("openai:source", data)
	case "gemini:reasoning":
		return b.bridgeReasoningMultiplexed(obj)

	case "anthropic:stream-start":
		return b.renameCustom("openai:stream-start", data)
	case "anthropic:response-metadata":
		return b.renameCustom("openai:response-metadata", data)
	case "anthropic:text-start":
		return b.renameCustom("openai:text-start", data)
	case "anthropic:text-delta":
		return b.renameCustom("openai:text-delta", data)
	case "anthropic:text-end":
		return b.renameCustom("openai:text-end", data)
	case "anthropic:reasoning-start":
		return b.bridgeAnthropicReasoningStartEnd("openai:reasoning-start", obj)
	case "anthropic:reasoning-end":
		return b.bridgeAnthropicReasoningStartEnd("openai:reasoning-end", obj)
	case "anthropic:tool-call":
		return b.bridgeToolCall(obj)
	case "anthropic:tool-result":
		return b.bridgeToolResult(obj)
	case "anthropic:source":
		return b.renameCustom("openai:source", data)
	case "anthropic:finish":
		return b.renameCustom("openai:finish", data)

	default:
		if out, ok := b.bridgeV3CustomEvent(obj); ok {
			return out
		}
		return []llmtypes.StreamEvent{llmtypes.NewCustom(eventType, data)}
	}
}

func (b *OpenAIResponsesBridge) renameCustom(newEventType string, data json.RawMessage) []llmtypes.StreamEvent {
	return []llmtypes.StreamEvent{llmtypes.NewCustom(newEventType, data)}
}

var v3PassthroughRenames = map[string]string{
	"stream-start":          "openai:stream-start",
	"response-metadata":     "openai:response-metadata",
	"text-start":            "openai:text-start",
	"text-delta":            "openai:text-delta",
	"text-end":              "openai:text-end",
	"reasoning-start":       "openai:reasoning-start",
	"reasoning-delta":       "openai:reasoning-delta",
	"reasoning-end":         "openai:reasoning-end",
	"tool-input-start":      "openai:tool-input-start",
	"tool-input-delta":      "openai:tool-input-delta",
	"tool-input-end":        "openai:tool-input-end",
	"tool-approval-request": "openai:tool-approval-request",
	"source":                "openai:source",
	"finish":                "openai:finish",
	"error":                 "openai:error",
}

// bridgeV3CustomEvent handles the unprefixed/"custom:any"-prefixed V3 part
// family, dispatching on the part's own "type" field rather than the
// event_type string. Returns ok=false when the payload has no recognizable
// "type" field, signalling the caller to pass the event through unchanged.
func (b *OpenAIResponsesBridge) bridgeV3CustomEvent(obj map[string]json.RawMessage) ([]llmtypes.StreamEvent, bool) {
	tpe, ok := stringField(obj, "type")
	if !ok {
		return nil, false
	}

	if newType, ok := v3PassthroughRenames[tpe]; ok {
		raw, _ := json.Marshal(obj)
		return b.renameCustom(newType, raw), true
	}

	switch tpe {
	case "tool-call":
		return b.bridgeToolCall(obj), true
	case "tool-result":
		return b.bridgeToolResult(obj), true
	default:
		return nil, false
	}
}

func (b *OpenAIResponsesBridge) bridgeReasoningMultiplexed(obj map[string]json.RawMessage) []llmtypes.StreamEvent {
	tpe, _ := stringField(obj, "type")
	id, _ := stringField(obj, "id")

	out := map[string]any{"id": id}
	var newEventType string
	switch tpe {
	case "reasoning-start":
		newEventType = "openai:reasoning-start"
	case "reasoning-delta":
		newEventType = "openai:reasoning-delta"
		if delta, ok := obj["delta"]; ok {
			var v any
			_ = json.Unmarshal(delta, &v)
			out["delta"] = v
		}
	case "reasoning-end":
		newEventType = "openai:reasoning-end"
	default:
		raw, _ := json.Marshal(obj)
		return []llmtypes.StreamEvent{llmtypes.NewCustom("gemini:reasoning", raw)}
	}

	if pm, ok := obj["providerMetadata"]; ok {
		var v any
		_ = json.Unmarshal(pm, &v)
		out["providerMetadata"] = v
	}
	raw, _ := json.Marshal(out)
	return []llmtypes.StreamEvent{llmtypes.NewCustom(newEventType, raw)}
}

func (b *OpenAIResponsesBridge) bridgeAnthropicReasoningStartEnd(newEventType string, obj map[string]json.RawMessage) []llmtypes.StreamEvent {
	idxRaw, ok := obj["contentBlockIndex"]
	if !ok {
		return []llmtypes.StreamEvent{llmtypes.NewCustom(newEventType, json.RawMessage("{}"))}
	}
	var idx int
	if err := json.Unmarshal(idxRaw, &idx); err != nil {
		return []llmtypes.StreamEvent{llmtypes.NewCustom(newEventType, json.RawMessage("{}"))}
	}
	raw, _ := json.Marshal(map[string]any{"id": idx})
	return []llmtypes.StreamEvent{llmtypes.NewCustom(newEventType, raw)}
}

func (b *OpenAIResponsesBridge) bridgeToolLikeCustomEvent(obj map[string]json.RawMessage, data json.RawMessage) []llmtypes.StreamEvent {
	tpe, _ := stringField(obj, "type")
	switch tpe {
	case "tool-call":
		return b.bridgeToolCall(obj)
	case "tool-result":
		return b.bridgeToolResult(obj)
	default:
		return []llmtypes.StreamEvent{llmtypes.NewCustom("gemini:tool", data)}
	}
}

func (b *OpenAIResponsesBridge) bridgeToolCall(obj map[string]json.RawMessage) []llmtypes.StreamEvent {
	toolCallID, _ := stringField(obj, "toolCallId")
	toolName, _ := stringField(obj, "toolName")
	if toolCallID == "" || toolName == "" {
		return nil
	}

	inputStr := normalizeJSONString(obj["input"])
	b.toolInputByCallID[toolCallID] = inputStr
	b.toolNameByCallID[toolCallID] = toolName
	b.emittedToolCallIDs[toolCallID] = true

	payload := map[string]any{
		"type":             "tool-call",
		"toolCallId":       toolCallID,
		"toolName":         toolName,
		"input":            inputStr,
		"providerExecuted": boolFieldOr(obj, "providerExecuted", true),
		"dynamic":          boolFieldOr(obj, "dynamic", false),
		"rawItem": map[string]any{
			"id":     toolCallID,
			"type":   "custom_tool_call",
			"status": "in_progress",
			"name":   toolName,
			"input":  inputStr,
		},
	}
	copyRawField(obj, payload, "providerMetadata")
	copyRawField(obj, payload, "title")

	return []llmtypes.StreamEvent{llmtypes.NewCustom("openai:tool-call", mustMarshal(payload))}
}

func (b *OpenAIResponsesBridge) bridgeToolResult(obj map[string]json.RawMessage) []llmtypes.StreamEvent {
	toolCallID, _ := stringField(obj, "toolCallId")
	toolName, _ := stringField(obj, "toolName")
	if toolCallID == "" || toolName == "" {
		return nil
	}

	providerExecuted := boolFieldOr(obj, "providerExecuted", true)
	dynamic := boolFieldOr(obj, "dynamic", false)

	inputStr, ok := b.toolInputByCallID[toolCallID]
	if !ok {
		inputStr = "{}"
	}
	if _, ok := b.toolNameByCallID[toolCallID]; !ok {
		b.toolNameByCallID[toolCallID] = toolName
	}

	var out []llmtypes.StreamEvent

	// If the upstream provider only produced a tool-result (no explicit
	// tool-call), synthesize a tool-call scaffold so a downstream client
	// still sees an output_item.added-equivalent before the result.
	if !b.emittedToolCallIDs[toolCallID] {
		b.emittedToolCallIDs[toolCallID] = true
		callPayload := map[string]any{
			"type":             "tool-call",
			"toolCallId":       toolCallID,
			"toolName":         toolName,
			"input":            inputStr,
			"providerExecuted": providerExecuted,
			"dynamic":          dynamic,
			"rawItem": map[string]any{
				"id":     toolCallID,
				"type":   "custom_tool_call",
				"status": "in_progress",
				"name":   toolName,
				"input":  inputStr,
			},
		}
		copyRawField(obj, callPayload, "providerMetadata")
		out = append(out, llmtypes.NewCustom("openai:tool-call", mustMarshal(callPayload)))
	}

	var result any
	if raw, ok := obj["result"]; ok {
		_ = json.Unmarshal(raw, &result)
	}
	isError := boolFieldOr(obj, "isError", false)

	resultPayload := map[string]any{
		"type":             "tool-result",
		"toolCallId":       toolCallID,
		"toolName":         toolName,
		"providerExecuted": providerExecuted,
		"dynamic":          dynamic,
		"rawItem": map[string]any{
			"id":       toolCallID,
			"type":     "custom_tool_call",
			"status":   "completed",
			"name":     toolName,
			"input":    inputStr,
			"output":   result,
			"is_error": isError,
		},
	}
	copyRawField(obj, resultPayload, "providerMetadata")
	out = append(out, llmtypes.NewCustom("openai:tool-result", mustMarshal(resultPayload)))

	return out
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func boolFieldOr(obj map[string]json.RawMessage, key string, def bool) bool {
	raw, ok := obj[key]
	if !ok {
		return def
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}

func copyRawField(src map[string]json.RawMessage, dst map[string]any, key string) {
	raw, ok := src[key]
	if !ok {
		return
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	dst[key] = v
}

// normalizeJSONString renders a tool-call "input" field, which may arrive as
// a JSON string (already-serialized arguments) or as a JSON object/array, as
// a single JSON-text string for the rawItem scaffold.
func normalizeJSONString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return "{}"
	}
	return string(raw)
}

func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}
