package openai

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

// DecodeClientChatRequest parses a client-submitted OpenAI Chat Completions
// request body into the unified ChatRequest, the inverse of TransformRequest
// and the request-side counterpart of TransformResponse — used by
// internal/gateway to accept requests in the same wire shape this bundle
// already speaks to upstream providers, so the gateway's own HTTP surface
// needs no separate client dialect.
func DecodeClientChatRequest(body []byte) (llmtypes.ChatRequest, error) {
	var wr wireRequest
	if err := json.Unmarshal(body, &wr); err != nil {
		return llmtypes.ChatRequest{}, fmt.Errorf("openai: decode client request: %w", err)
	}

	req := llmtypes.ChatRequest{
		Stream: wr.Stream,
		Params: llmtypes.CommonParams{
			Model:         wr.Model,
			Temperature:   wr.Temperature,
			MaxTokens:     wr.MaxTokens,
			TopP:          wr.TopP,
			StopSequences: wr.Stop,
			Seed:          wr.Seed,
		},
	}

	for _, m := range wr.Messages {
		req.Messages = append(req.Messages, decodeClientMessage(m))
	}

	for _, t := range wr.Tools {
		req.Tools = append(req.Tools, llmtypes.Tool{
			Kind:        llmtypes.ToolKindFunction,
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  t.Function.Parameters,
		})
	}

	if wr.ToolChoice != nil {
		if tc, ok := decodeToolChoice(wr.ToolChoice); ok {
			req.ToolChoice = &tc
		}
	}

	return req, nil
}

func decodeToolChoice(raw any) (llmtypes.ToolChoice, bool) {
	switch v := raw.(type) {
	case string:
		switch v {
		case "auto":
			return llmtypes.ToolChoice{Kind: llmtypes.ToolChoiceAuto}, true
		case "none":
			return llmtypes.ToolChoice{Kind: llmtypes.ToolChoiceNone}, true
		case "required":
			return llmtypes.ToolChoice{Kind: llmtypes.ToolChoiceRequired}, true
		}
	case map[string]any:
		if fn, ok := v["function"].(map[string]any); ok {
			if name, ok := fn["name"].(string); ok {
				return llmtypes.ToolChoice{Kind: llmtypes.ToolChoiceNamed, Name: name}, true
			}
		}
	}
	return llmtypes.ToolChoice{}, false
}

// decodeClientMessage maps one incoming OpenAI wire message into a unified
// Message. A "tool" role message becomes a role=Tool message carrying one
// ToolResult part; an assistant message with tool_calls becomes a
// MultiModal message carrying Text (if any) followed by ToolCall parts —
// the inverse of convertMultiModal/convertMessage in request.go.
func decodeClientMessage(m wireMessage) llmtypes.Message {
	role := llmtypes.Role(m.Role)

	if role == llmtypes.RoleTool {
		text := ""
		if m.Content != nil {
			text = *m.Content
		}
		return llmtypes.NewToolResultMessage(llmtypes.NewToolResultText(m.ToolCallID, "", text))
	}

	if len(m.ToolCalls) == 0 {
		text := ""
		if m.Content != nil {
			text = *m.Content
		}
		return llmtypes.Message{Role: role, Content: llmtypes.TextContent(text)}
	}

	var parts []llmtypes.ContentPart
	if m.Content != nil && *m.Content != "" {
		parts = append(parts, llmtypes.Text{Text: *m.Content})
	}
	for _, tc := range m.ToolCalls {
		parts = append(parts, llmtypes.ToolCall{
			ToolCallID: tc.ID,
			ToolName:   tc.Function.Name,
			Arguments:  json.RawMessage(tc.Function.Arguments),
		})
	}
	return llmtypes.Message{Role: role, Content: llmtypes.MultiModalContent(parts...)}
}

// EncodeClientChatResponse renders a unified ChatResponse back into an
// OpenAI Chat Completions response body for a non-streaming client request,
// the inverse of TransformResponse.
func EncodeClientChatResponse(resp llmtypes.ChatResponse) ([]byte, error) {
	wr := wireResponse{
		ID:                resp.ID,
		Model:             resp.Model,
		SystemFingerprint: resp.SystemFingerprint,
		Choices:           []wireChoice{{Index: 0, Message: partsToMessage(resp.Content)}},
	}

	finish := encodeFinishReason(resp.FinishReason, resp.FinishReasonOther)
	wr.Choices[0].FinishReason = &finish

	if resp.Usage != nil {
		wr.Usage = &wireUsage{
			PromptTokens:            resp.Usage.PromptTokens,
			CompletionTokens:        resp.Usage.CompletionTokens,
			TotalTokens:             resp.Usage.TotalTokens,
			PromptTokensDetails:     resp.Usage.PromptTokensDetails,
			CompletionTokensDetails: resp.Usage.CompletionTokensDetails,
		}
	}

	return json.Marshal(wr)
}

func partsToMessage(c llmtypes.Content) *wireMessage {
	wm := &wireMessage{Role: "assistant"}

	var text string
	for _, p := range c.Parts {
		switch v := p.(type) {
		case llmtypes.Text:
			text += v.Text
		case llmtypes.ToolCall:
			args := string(v.Arguments)
			if args == "" {
				args = "{}"
			}
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   v.ToolCallID,
				Type: "function",
				Function: wireFunction{
					Name:      v.ToolName,
					Arguments: args,
				},
			})
		}
	}
	if c.Kind == llmtypes.ContentKindText {
		text = c.Text
	}
	if text != "" || len(wm.ToolCalls) == 0 {
		wm.Content = &text
	}
	return wm
}

func encodeFinishReason(r llmtypes.FinishReason, other string) string {
	switch r {
	case llmtypes.FinishStop:
		return "stop"
	case llmtypes.FinishLength:
		return "length"
	case llmtypes.FinishToolCalls:
		return "tool_calls"
	case llmtypes.FinishContentFilter:
		return "content_filter"
	default:
		if other != "" {
			return other
		}
		return "stop"
	}
}

// ClientStreamState accumulates the role-sent-once bookkeeping an OpenAI
// Chat Completions SSE stream needs across EncodeClientStreamChunk calls,
// mirroring the same "role sent only on the first delta" rule
// messageToParts/convertMultiModal observe on the request side.
type ClientStreamState struct {
	roleSent bool
}

// EncodeClientStreamChunk renders one unified StreamEvent into zero or one
// OpenAI-shaped SSE "data: {...}\n\n" frame for a streaming client request,
// the inverse of TransformStreamChunk. Returns done=true once the event
// stream has reached its terminal StreamEnd, signaling the caller to write
// the trailing "data: [DONE]\n\n" frame.
func EncodeClientStreamChunk(ev llmtypes.StreamEvent, st *ClientStreamState) (frame []byte, done bool, err error) {
	switch ev.Kind {
	case llmtypes.EventStreamStart:
		delta := wireDelta{}
		if !st.roleSent {
			delta.Role = "assistant"
			st.roleSent = true
		}
		frame, err = encodeClientChunk(ev.StreamStart.ID, ev.StreamStart.Model, delta, nil)
		return frame, false, err

	case llmtypes.EventContentDelta:
		delta := wireDelta{Content: ev.ContentDelta.Delta}
		frame, err = encodeClientChunk("", "", delta, nil)
		return frame, false, err

	case llmtypes.EventToolCallDelta:
		td := ev.ToolCallDelta
		index := 0
		if td.Index != nil {
			index = *td.Index
		}
		delta := wireDelta{ToolCalls: []wireToolCallDelta{{
			Index:    index,
			ID:       td.ID,
			Function: wireFuncDelta{Name: td.FunctionName, Arguments: td.ArgumentsDelta},
		}}}
		frame, err = encodeClientChunk("", "", delta, nil)
		return frame, false, err

	case llmtypes.EventStreamEnd:
		finish := encodeFinishReason(ev.StreamEnd.FinishReason, ev.StreamEnd.FinishReasonOther)
		frame, err = encodeClientChunk(ev.StreamEnd.ID, ev.StreamEnd.Model, wireDelta{}, &finish)
		return frame, true, err

	default:
		return nil, false, nil
	}
}

func encodeClientChunk(id, model string, delta wireDelta, finishReason *string) ([]byte, error) {
	wr := wireResponse{
		ID:    id,
		Model: model,
		Choices: []wireChoice{{
			Index:        0,
			Delta:        &delta,
			FinishReason: finishReason,
		}},
	}
	body, err := json.Marshal(wr)
	if err != nil {
		return nil, fmt.Errorf("openai: encode stream chunk: %w", err)
	}
	out := append([]byte("data: "), body...)
	out = append(out, '\n', '\n')
	return out, nil
}
