package gemini

import (
	"encoding/json"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

// TransformRequest renders a unified ChatRequest into a Gemini
// generateContent body. System-role messages become the top-level
// systemInstruction field, matching Gemini's API shape.
func TransformRequest(req llmtypes.ChatRequest, bc llmtypes.BuildContext) ([]byte, error) {
	wr := wireRequest{}

	cfg := &wireGenConfig{
		Temperature:   req.Params.Temperature,
		TopP:          req.Params.TopP,
		MaxOutputTokens: req.Params.MaxTokens,
		StopSequences: req.Params.StopSequences,
	}
	wr.GenerationConfig = cfg

	for _, m := range req.Messages {
		if m.Role == llmtypes.RoleSystem {
			if text, ok := m.Content.AsText(); ok {
				wr.SystemInstruction = &wireContent{Parts: []wirePart{{Text: text}}}
			}
			continue
		}
		wr.Contents = append(wr.Contents, wireContent{
			Role:  geminiRole(m.Role),
			Parts: convertParts(m),
		})
	}

	var decls []wireFuncDecl
	for _, t := range req.Tools {
		if t.Kind != llmtypes.ToolKindFunction {
			continue
		}
		decls = append(decls, wireFuncDecl{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
	}
	if len(decls) > 0 {
		wr.Tools = []wireTool{{FunctionDeclarations: decls}}
	}

	return json.Marshal(wr)
}

func geminiRole(r llmtypes.Role) string {
	switch r {
	case llmtypes.RoleAssistant:
		return "model"
	case llmtypes.RoleTool:
		return "function"
	default:
		return "user"
	}
}

func convertParts(m llmtypes.Message) []wirePart {
	switch m.Content.Kind {
	case llmtypes.ContentKindText:
		return []wirePart{{Text: m.Content.Text}}
	case llmtypes.ContentKindJSON:
		return []wirePart{{Text: string(m.Content.JSON)}}
	case llmtypes.ContentKindMultiModal:
		var parts []wirePart
		for _, p := range m.Content.Parts {
			switch v := p.(type) {
			case llmtypes.Text:
				parts = append(parts, wirePart{Text: v.Text})
			case llmtypes.ToolCall:
				args := v.Arguments
				if len(args) == 0 {
					args = json.RawMessage("{}")
				}
				parts = append(parts, wirePart{FunctionCall: &wireFuncCall{Name: v.ToolName, Args: args}})
			case llmtypes.ToolResult:
				parts = append(parts, wirePart{FunctionResponse: &wireFuncResp{
					Name:     v.ToolName,
					Response: toolResponseJSON(v),
				}})
			}
		}
		if len(parts) == 0 {
			parts = append(parts, wirePart{Text: ""})
		}
		return parts
	default:
		return []wirePart{{Text: ""}}
	}
}

func toolResponseJSON(r llmtypes.ToolResult) json.RawMessage {
	switch r.Output.Kind {
	case llmtypes.ToolOutputJSON, llmtypes.ToolOutputErrorJSON:
		return r.Output.JSON
	case llmtypes.ToolOutputText, llmtypes.ToolOutputErrorText:
		raw, _ := json.Marshal(map[string]string{"result": r.Output.Text})
		return raw
	default:
		raw, _ := json.Marshal(r.Output)
		return raw
	}
}
