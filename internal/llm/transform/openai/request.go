package openai

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

// TransformRequest renders a unified ChatRequest into an OpenAI Chat
// Completions request body, grounded on the field mapping implicit in the
// teacher's convertMessageContent (the inverse direction: Anthropic content
// blocks -> OpenAI message shape).
func TransformRequest(req llmtypes.ChatRequest, bc llmtypes.BuildContext) ([]byte, error) {
	wr := wireRequest{
		Model:       req.Params.Model,
		Stream:      req.Stream,
		Temperature: req.Params.Temperature,
		MaxTokens:   req.Params.MaxTokens,
		TopP:        req.Params.TopP,
		Stop:        req.Params.StopSequences,
		Seed:        req.Params.Seed,
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
			continue // provider-defined tools belong to a different vendor
		}
		wr.Tools = append(wr.Tools, wireTool{
			Type: "function",
			Function: wireToolSpec{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	if req.ToolChoice != nil {
		wr.ToolChoice = convertToolChoice(*req.ToolChoice)
	}

	if req.ResponseFormat != nil && req.ResponseFormat.Kind == llmtypes.ResponseFormatJSONSchema {
		raw, err := json.Marshal(map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   req.ResponseFormat.SchemaName,
				"schema": req.ResponseFormat.Schema,
				"strict": req.ResponseFormat.Strict,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("openai: encode response_format: %w", err)
		}
		wr.ResponseFormat = raw
	}

	return json.Marshal(wr)
}

func convertToolChoice(tc llmtypes.ToolChoice) any {
	switch tc.Kind {
	case llmtypes.ToolChoiceAuto:
		return "auto"
	case llmtypes.ToolChoiceNone:
		return "none"
	case llmtypes.ToolChoiceRequired:
		return "required"
	case llmtypes.ToolChoiceNamed:
		return map[string]any{
			"type":     "function",
			"function": map[string]string{"name": tc.Name},
		}
	default:
		return "auto"
	}
}

// convertMessage maps one unified Message to one or more OpenAI messages. A
// unified role=Tool message with several ToolResult parts expands into
// several OpenAI "tool" messages, since OpenAI addresses each result by its
// own tool_call_id rather than grouping them.
func convertMessage(m llmtypes.Message) ([]wireMessage, error) {
	role := string(m.Role)

	switch m.Content.Kind {
	case llmtypes.ContentKindText:
		text := m.Content.Text
		return []wireMessage{{Role: role, Content: &text}}, nil
	case llmtypes.ContentKindJSON:
		s := string(m.Content.JSON)
		return []wireMessage{{Role: role, Content: &s}}, nil
	case llmtypes.ContentKindMultiModal:
		return convertMultiModal(role, m.Content.Parts)
	default:
		empty := ""
		return []wireMessage{{Role: role, Content: &empty}}, nil
	}
}

func convertMultiModal(role string, parts []llmtypes.ContentPart) ([]wireMessage, error) {
	var text string
	var toolCalls []wireToolCall
	var toolMessages []wireMessage

	for _, p := range parts {
		switch v := p.(type) {
		case llmtypes.Text:
			text += v.Text
		case llmtypes.ToolCall:
			args := string(v.Arguments)
			if args == "" {
				args = "{}"
			}
			toolCalls = append(toolCalls, wireToolCall{
				ID:   v.ToolCallID,
				Type: "function",
				Function: wireFunction{
					Name:      v.ToolName,
					Arguments: args,
				},
			})
		case llmtypes.ToolResult:
			content, err := toolResultText(v)
			if err != nil {
				return nil, err
			}
			toolMessages = append(toolMessages, wireMessage{
				Role:       "tool",
				Content:    &content,
				ToolCallID: v.ToolCallID,
			})
		}
		// Image/Audio/File/Source parts are dropped here for every role,
		// user turns included: this bundle renders only Text, ToolCall and
		// ToolResult parts.
	}

	var out []wireMessage
	if text != "" || len(toolCalls) > 0 {
		var contentPtr *string
		if text != "" {
			contentPtr = &text
		}
		out = append(out, wireMessage{Role: role, Content: contentPtr, ToolCalls: toolCalls})
	}
	out = append(out, toolMessages...)
	return out, nil
}

func toolResultText(r llmtypes.ToolResult) (string, error) {
	switch r.Output.Kind {
	case llmtypes.ToolOutputText, llmtypes.ToolOutputErrorText:
		return r.Output.Text, nil
	case llmtypes.ToolOutputJSON, llmtypes.ToolOutputErrorJSON:
		return string(r.Output.JSON), nil
	case llmtypes.ToolOutputExecutionDenied:
		return "tool execution denied", nil
	default:
		raw, err := json.Marshal(r.Output)
		if err != nil {
			return "", fmt.Errorf("openai: encode tool result: %w", err)
		}
		return string(raw), nil
	}
}
