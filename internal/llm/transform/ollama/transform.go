package ollama

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/llm-gateway/internal/llm/llmerr"
	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

// TransformRequest renders a unified ChatRequest into an Ollama /api/chat
// body.
func TransformRequest(req llmtypes.ChatRequest, bc llmtypes.BuildContext) ([]byte, error) {
	wr := wireRequest{
		Model:  req.Params.Model,
		Stream: req.Stream,
		Options: &wireOptions{
			Temperature: req.Params.Temperature,
			TopP:        req.Params.TopP,
			Stop:        req.Params.StopSequences,
			Seed:        req.Params.Seed,
		},
	}

	for _, m := range req.Messages {
		msgs, err := convertMessage(m)
		if err != nil {
			return nil, err
		}
		wr.Messages = append(wr.Messages, msgs...)
	}

	for _, t := range req.Tools {
		if t.Kind != llmtypes.ToolKindFunction {
			continue
		}
		wr.Tools = append(wr.Tools, wireTool{
			Type:     "function",
			Function: wireToolSpec{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}

	return json.Marshal(wr)
}

func convertMessage(m llmtypes.Message) ([]wireMessage, error) {
	role := string(m.Role)
	if m.Role == llmtypes.RoleTool {
		role = "tool"
	}

	switch m.Content.Kind {
	case llmtypes.ContentKindText:
		return []wireMessage{{Role: role, Content: m.Content.Text}}, nil
	case llmtypes.ContentKindJSON:
		return []wireMessage{{Role: role, Content: string(m.Content.JSON)}}, nil
	case llmtypes.ContentKindMultiModal:
		return convertParts(role, m.Content.Parts)
	default:
		return []wireMessage{{Role: role}}, nil
	}
}

func convertParts(role string, parts []llmtypes.ContentPart) ([]wireMessage, error) {
	var text string
	var toolCalls []wireToolCall
	var toolMessages []wireMessage

	for _, p := range parts {
		switch v := p.(type) {
		case llmtypes.Text:
			text += v.Text
		case llmtypes.ToolCall:
			args := v.Arguments
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			toolCalls = append(toolCalls, wireToolCall{Function: wireFunction{Name: v.ToolName, Arguments: args}})
		case llmtypes.ToolResult:
			content, err := resultText(v)
			if err != nil {
				return nil, err
			}
			toolMessages = append(toolMessages, wireMessage{Role: "tool", Content: content})
		}
	}

	var out []wireMessage
	if text != "" || len(toolCalls) > 0 {
		out = append(out, wireMessage{Role: role, Content: text, ToolCalls: toolCalls})
	}
	out = append(out, toolMessages...)
	return out, nil
}

func resultText(r llmtypes.ToolResult) (string, error) {
	switch r.Output.Kind {
	case llmtypes.ToolOutputText, llmtypes.ToolOutputErrorText:
		return r.Output.Text, nil
	case llmtypes.ToolOutputJSON, llmtypes.ToolOutputErrorJSON:
		return string(r.Output.JSON), nil
	default:
		raw, err := json.Marshal(r.Output)
		if err != nil {
			return "", fmt.Errorf("ollama: encode tool result: %w", err)
		}
		return string(raw), nil
	}
}

// TransformResponse parses a non-streaming Ollama /api/chat response (the
// single Done=true line) into the unified ChatResponse.
func TransformResponse(body []byte, bc llmtypes.BuildContext) (llmtypes.ChatResponse, error) {
	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return llmtypes.ChatResponse{}, llmerr.ParseError(fmt.Errorf("ollama: decode response: %w", err))
	}
	if wr.Error != "" {
		return llmtypes.ChatResponse{}, llmerr.New(llmerr.KindAPIError, wr.Error)
	}

	resp := llmtypes.ChatResponse{
		Model:   wr.Model,
		Content: llmtypes.MultiModalContent(messageToParts(wr.Message)...),
	}
	resp.FinishReason = convertDoneReason(wr.DoneReason, len(wr.Message.ToolCalls) > 0)
	resp.Usage = &llmtypes.Usage{
		PromptTokens:     wr.PromptEvalCount,
		CompletionTokens: wr.EvalCount,
		TotalTokens:      wr.PromptEvalCount + wr.EvalCount,
	}
	return resp, nil
}

func messageToParts(m wireMessage) []llmtypes.ContentPart {
	var parts []llmtypes.ContentPart
	if m.Content != "" {
		parts = append(parts, llmtypes.Text{Text: m.Content})
	}
	for _, tc := range m.ToolCalls {
		parts = append(parts, llmtypes.ToolCall{ToolName: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	if len(parts) == 0 {
		parts = append(parts, llmtypes.Text{Text: ""})
	}
	return parts
}

func convertDoneReason(reason string, hadToolCalls bool) llmtypes.FinishReason {
	if hadToolCalls {
		return llmtypes.FinishToolCalls
	}
	switch reason {
	case "stop", "":
		return llmtypes.FinishStop
	case "length":
		return llmtypes.FinishLength
	default:
		return llmtypes.FinishUnknown
	}
}

// TransformStreamChunk parses one Ollama JSON-lines frame into unified
// StreamEvents. There is no "event:" discriminator or [DONE] sentinel: the
// frame's own Done field signals the terminal line. EOF on the body without
// a Done line is handled by the caller (httpexec.pumpJSONLines), which
// flushes the last line and closes the stream.Session normally, so the
// synthesized StreamEnd carries no error.
func TransformStreamChunk(eventType string, frame []byte, st *provider.State) ([]llmtypes.StreamEvent, error) {
	var wr wireResponse
	if err := json.Unmarshal(frame, &wr); err != nil {
		return nil, llmerr.ParseError(fmt.Errorf("ollama: decode stream line: %w", err))
	}
	if wr.Error != "" {
		return nil, llmerr.New(llmerr.KindAPIError, wr.Error)
	}

	var events []llmtypes.StreamEvent
	if !st.MessageStarted {
		st.Model = wr.Model
		events = append(events, llmtypes.NewStreamStart("", st.Model))
		st.MessageStarted = true
	}

	if wr.Message.Content != "" {
		events = append(events, llmtypes.NewContentDelta(wr.Message.Content, nil))
	}
	for _, tc := range wr.Message.ToolCalls {
		events = append(events, llmtypes.NewToolCallDelta(tc.Function.Name, tc.Function.Name, string(tc.Function.Arguments), nil))
	}

	if wr.Done {
		resp := llmtypes.ChatResponse{
			Model:        st.Model,
			FinishReason: convertDoneReason(wr.DoneReason, len(wr.Message.ToolCalls) > 0),
			Usage: &llmtypes.Usage{
				PromptTokens:     wr.PromptEvalCount,
				CompletionTokens: wr.EvalCount,
				TotalTokens:      wr.PromptEvalCount + wr.EvalCount,
			},
		}
		events = append(events, llmtypes.NewStreamEnd(resp))
	}

	return events, nil
}
