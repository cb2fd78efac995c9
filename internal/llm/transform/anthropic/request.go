package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

// TransformRequest renders a unified ChatRequest into an Anthropic Messages
// API body. System-role messages are hoisted into the top-level "system"
// field per Anthropic's API, which has no system role in the messages
// array.
func TransformRequest(req llmtypes.ChatRequest, bc llmtypes.BuildContext) ([]byte, error) {
	wr := wireRequest{
		Model:       req.Params.Model,
		Stream:      req.Stream,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
		StopSeqs:    req.Params.StopSequences,
	}
	if req.Params.MaxTokens != nil {
		wr.MaxTokens = *req.Params.MaxTokens
	} else {
		wr.MaxTokens = 4096 // Anthropic requires max_tokens; pick the teacher's implicit default
	}

	var system string
	for _, m := range req.Messages {
		if m.Role == llmtypes.RoleSystem {
			if text, ok := m.Content.AsText(); ok {
				if system != "" {
					system += "\n\n"
				}
				system += text
			}
			continue
		}
		blocks, err := convertMessage(m)
		if err != nil {
			return nil, err
		}
		wr.Messages = append(wr.Messages, wireMessage{Role: string(m.Role), Content: blocks})
	}
	wr.System = system

	for _, t := range req.Tools {
		if t.Kind != llmtypes.ToolKindFunction {
			continue
		}
		wr.Tools = append(wr.Tools, wireTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}

	if req.ToolChoice != nil {
		raw, err := json.Marshal(convertToolChoice(*req.ToolChoice))
		if err != nil {
			return nil, fmt.Errorf("anthropic: encode tool_choice: %w", err)
		}
		wr.ToolChoice = raw
	}

	return json.Marshal(wr)
}

func convertToolChoice(tc llmtypes.ToolChoice) map[string]any {
	switch tc.Kind {
	case llmtypes.ToolChoiceNone:
		return map[string]any{"type": "none"}
	case llmtypes.ToolChoiceRequired:
		return map[string]any{"type": "any"}
	case llmtypes.ToolChoiceNamed:
		return map[string]any{"type": "tool", "name": tc.Name}
	default:
		return map[string]any{"type": "auto"}
	}
}

func convertMessage(m llmtypes.Message) ([]wireBlock, error) {
	switch m.Content.Kind {
	case llmtypes.ContentKindText:
		if m.Content.Text == "" {
			return []wireBlock{{Type: "text", Text: ""}}, nil
		}
		return []wireBlock{{Type: "text", Text: m.Content.Text}}, nil
	case llmtypes.ContentKindJSON:
		return []wireBlock{{Type: "text", Text: string(m.Content.JSON)}}, nil
	case llmtypes.ContentKindMultiModal:
		return convertParts(m.Content.Parts)
	default:
		return []wireBlock{{Type: "text", Text: ""}}, nil
	}
}

func convertParts(parts []llmtypes.ContentPart) ([]wireBlock, error) {
	var blocks []wireBlock
	for _, p := range parts {
		switch v := p.(type) {
		case llmtypes.Text:
			blocks = append(blocks, wireBlock{Type: "text", Text: v.Text})
		case llmtypes.Reasoning:
			blocks = append(blocks, wireBlock{Type: "thinking", Thinking: v.Text})
		case llmtypes.ToolCall:
			input := v.Arguments
			if len(input) == 0 {
				input = json.RawMessage("{}")
			}
			blocks = append(blocks, wireBlock{Type: "tool_use", ID: v.ToolCallID, Name: v.ToolName, Input: input})
		case llmtypes.ToolResult:
			content, isErr, err := toolResultContent(v)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, wireBlock{Type: "tool_result", ToolUseID: v.ToolCallID, Content: content, IsError: isErr})
		}
	}
	if len(blocks) == 0 {
		blocks = append(blocks, wireBlock{Type: "text", Text: ""})
	}
	return blocks, nil
}

func toolResultContent(r llmtypes.ToolResult) (json.RawMessage, bool, error) {
	switch r.Output.Kind {
	case llmtypes.ToolOutputText:
		raw, err := json.Marshal(r.Output.Text)
		return raw, false, err
	case llmtypes.ToolOutputErrorText:
		raw, err := json.Marshal(r.Output.Text)
		return raw, true, err
	case llmtypes.ToolOutputJSON:
		return r.Output.JSON, false, nil
	case llmtypes.ToolOutputErrorJSON:
		return r.Output.JSON, true, nil
	case llmtypes.ToolOutputExecutionDenied:
		raw, err := json.Marshal(fmt.Sprintf("execution denied: %s", r.Output.DeniedReason))
		return raw, true, err
	default:
		raw, err := json.Marshal(r.Output)
		return raw, false, err
	}
}
