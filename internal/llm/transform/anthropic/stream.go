package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/llm-gateway/internal/llm/llmerr"
	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

// TransformStreamChunk parses one Anthropic SSE event (event type + data
// payload) into zero or more unified StreamEvents. Anthropic's stream is
// itself a content-block state machine (message_start, content_block_start/
// delta/stop per index, message_delta, message_stop); State.ContentBlocks
// tracks which index is text/tool_use/thinking so deltas without a "type"
// field of their own can be dispatched correctly.
func TransformStreamChunk(eventType string, data []byte, st *provider.State) ([]llmtypes.StreamEvent, error) {
	switch eventType {
	case "message_start":
		var ev wireStreamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, llmerr.ParseError(fmt.Errorf("anthropic: decode message_start: %w", err))
		}
		if ev.Message != nil {
			st.MessageID, st.Model = ev.Message.ID, ev.Message.Model
		}
		st.MessageStarted = true
		return []llmtypes.StreamEvent{llmtypes.NewStreamStart(st.MessageID, st.Model)}, nil

	case "content_block_start":
		var ev wireStreamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, llmerr.ParseError(fmt.Errorf("anthropic: decode content_block_start: %w", err))
		}
		if ev.Index == nil || ev.ContentBlock == nil {
			return nil, nil
		}
		block := &provider.ContentBlockState{StartSent: true}
		switch ev.ContentBlock.Type {
		case "tool_use":
			block.Kind = llmtypes.PartKindToolCall
			block.ToolCallID = ev.ContentBlock.ID
			block.ToolName = ev.ContentBlock.Name
		case "thinking":
			block.Kind = llmtypes.PartKindReasoning
		default:
			block.Kind = llmtypes.PartKindText
		}
		st.ContentBlocks[*ev.Index] = block
		if block.Kind == llmtypes.PartKindToolCall {
			return []llmtypes.StreamEvent{llmtypes.NewToolCallDelta(block.ToolCallID, block.ToolName, "", ev.Index)}, nil
		}
		return nil, nil

	case "content_block_delta":
		return contentBlockDelta(data, st)

	case "content_block_stop":
		return nil, nil

	case "message_delta":
		var ev wireStreamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, llmerr.ParseError(fmt.Errorf("anthropic: decode message_delta: %w", err))
		}
		var sd stopDelta
		if len(ev.Delta) > 0 {
			_ = json.Unmarshal(ev.Delta, &sd)
		}
		reason, other := convertStopReason(sd.StopReason)
		resp := llmtypes.ChatResponse{ID: st.MessageID, Model: st.Model, FinishReason: reason, FinishReasonOther: other}
		if ev.Usage != nil {
			resp.Usage = &llmtypes.Usage{OutputTokens: ev.Usage.OutputTokens, TotalTokens: ev.Usage.OutputTokens}
		}
		return []llmtypes.StreamEvent{llmtypes.NewStreamEnd(resp)}, nil

	case "message_stop":
		// Anthropic always sends a preceding message_delta carrying the
		// stop_reason; message_stop itself carries nothing new, so nothing is
		// emitted here even when message_delta never arrived.
		return nil, nil

	case "ping":
		return nil, nil

	case "error":
		var ev struct {
			Error wireError `json:"error"`
		}
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, llmerr.ParseError(fmt.Errorf("anthropic: decode error event: %w", err))
		}
		return nil, &llmerr.LlmError{Kind: mapErrorType(ev.Error.Type), Message: ev.Error.Message, Provider: "anthropic"}

	default:
		return nil, nil
	}
}

func contentBlockDelta(data []byte, st *provider.State) ([]llmtypes.StreamEvent, error) {
	var ev wireStreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, llmerr.ParseError(fmt.Errorf("anthropic: decode content_block_delta: %w", err))
	}
	if ev.Index == nil {
		return nil, nil
	}
	block := st.ContentBlocks[*ev.Index]

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(ev.Delta, &probe); err != nil {
		return nil, llmerr.ParseError(fmt.Errorf("anthropic: decode delta type: %w", err))
	}

	switch probe.Type {
	case "text_delta":
		var d textDelta
		_ = json.Unmarshal(ev.Delta, &d)
		return []llmtypes.StreamEvent{llmtypes.NewContentDelta(d.Text, ev.Index)}, nil
	case "thinking_delta":
		var d thinkingDelta
		_ = json.Unmarshal(ev.Delta, &d)
		return []llmtypes.StreamEvent{llmtypes.NewThinkingDelta(d.Thinking)}, nil
	case "input_json_delta":
		var d inputJSONDelta
		_ = json.Unmarshal(ev.Delta, &d)
		var id, name string
		if block != nil {
			id, name = block.ToolCallID, block.ToolName
		}
		return []llmtypes.StreamEvent{llmtypes.NewToolCallDelta(id, name, d.PartialJSON, ev.Index)}, nil
	default:
		return nil, nil
	}
}
