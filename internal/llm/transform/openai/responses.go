package openai

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/llm-gateway/internal/llm/llmerr"
	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

// ResponsesAPIEnabled reports whether a request opted into the OpenAI
// Responses API instead of Chat Completions, via
// provider_options.openai.responsesApi.enabled, grounded on
// original_source/siumai-providers/src/providers/openai/spec.rs's dispatch
// flag of the same name.
func ResponsesAPIEnabled(opts llmtypes.ProviderOptionsMap) bool {
	raw, ok := opts["openai"]
	if !ok {
		return false
	}
	var cfg struct {
		ResponsesAPI struct {
			Enabled bool `json:"enabled"`
		} `json:"responsesApi"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return false
	}
	return cfg.ResponsesAPI.Enabled
}

// responsesInputItem is one element of the Responses API's "input" array,
// the dialect's flattened counterpart to a Chat Completions message: plain
// messages carry role/content, function call results and calls are their
// own item types addressed by call_id rather than nested inside a message.
type responsesInputItem struct {
	Type   string                 `json:"type,omitempty"`
	Role   string                 `json:"role,omitempty"`
	Content []responsesContentPart `json:"content,omitempty"`
	CallID string                 `json:"call_id,omitempty"`
	Name   string                 `json:"name,omitempty"`
	Arguments string              `json:"arguments,omitempty"`
	Output string                 `json:"output,omitempty"`
}

type responsesContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type responsesWireRequest struct {
	Model       string                `json:"model"`
	Input       []responsesInputItem  `json:"input"`
	Stream      bool                  `json:"stream,omitempty"`
	Temperature *float64              `json:"temperature,omitempty"`
	MaxTokens   *int                  `json:"max_output_tokens,omitempty"`
	TopP        *float64              `json:"top_p,omitempty"`
	Tools       []responsesWireTool   `json:"tools,omitempty"`
	ToolChoice  any                   `json:"tool_choice,omitempty"`
}

type responsesWireTool struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// TransformRequestResponses renders a unified ChatRequest into an OpenAI
// Responses API body, the "input" array replacing Chat Completions'
// "messages" array, grounded on the input-building logic implicit in
// other_examples' sendAsyncOpenAIResponses/buildOpenAIResponsesParams
// (function_call/custom_tool_call/message/reasoning item shapes).
func TransformRequestResponses(req llmtypes.ChatRequest, bc llmtypes.BuildContext) ([]byte, error) {
	wr := responsesWireRequest{
		Model:       req.Params.Model,
		Stream:      req.Stream,
		Temperature: req.Params.Temperature,
		MaxTokens:   req.Params.MaxTokens,
		TopP:        req.Params.TopP,
	}

	for _, m := range req.Messages {
		items, err := convertMessageToResponsesItems(m)
		if err != nil {
			return nil, err
		}
		wr.Input = append(wr.Input, items...)
	}

	for _, t := range req.Tools {
		if t.Kind != llmtypes.ToolKindFunction {
			continue
		}
		wr.Tools = append(wr.Tools, responsesWireTool{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}

	if req.ToolChoice != nil {
		wr.ToolChoice = convertToolChoice(*req.ToolChoice)
	}

	return json.Marshal(wr)
}

func convertMessageToResponsesItems(m llmtypes.Message) ([]responsesInputItem, error) {
	role := string(m.Role)

	switch m.Content.Kind {
	case llmtypes.ContentKindText:
		return []responsesInputItem{textItem(role, m.Content.Text)}, nil
	case llmtypes.ContentKindJSON:
		return []responsesInputItem{textItem(role, string(m.Content.JSON))}, nil
	case llmtypes.ContentKindMultiModal:
		return convertMultiModalToResponsesItems(role, m.Content.Parts)
	default:
		return []responsesInputItem{textItem(role, "")}, nil
	}
}

func textItem(role, text string) responsesInputItem {
	return responsesInputItem{
		Type: "message",
		Role: role,
		Content: []responsesContentPart{
			{Type: contentPartTypeFor(role), Text: text},
		},
	}
}

func contentPartTypeFor(role string) string {
	if role == "assistant" {
		return "output_text"
	}
	return "input_text"
}

func convertMultiModalToResponsesItems(role string, parts []llmtypes.ContentPart) ([]responsesInputItem, error) {
	var text string
	var items []responsesInputItem

	for _, p := range parts {
		switch v := p.(type) {
		case llmtypes.Text:
			text += v.Text
		case llmtypes.ToolCall:
			args := string(v.Arguments)
			if args == "" {
				args = "{}"
			}
			items = append(items, responsesInputItem{
				Type:      "function_call",
				CallID:    v.ToolCallID,
				Name:      v.ToolName,
				Arguments: args,
			})
		case llmtypes.ToolResult:
			out, err := toolResultText(v)
			if err != nil {
				return nil, err
			}
			items = append(items, responsesInputItem{
				Type:   "function_call_output",
				CallID: v.ToolCallID,
				Output: out,
			})
		case llmtypes.Reasoning:
			// Reasoning items are provider-opaque on the way back in; the
			// Responses API does not accept caller-authored reasoning text,
			// so this part is dropped rather than round-tripped.
		}
	}

	if text != "" {
		items = append([]responsesInputItem{textItem(role, text)}, items...)
	}
	return items, nil
}

// responsesWireResponse is the non-streaming Responses API body shape:
// a flat "output" array of items instead of Chat Completions' single
// message, grounded on openaiResponesBuildResponse's per-item-type switch
// (message/function_call/custom_tool_call/reasoning) in other_examples'
// open_ai_responses.go.
type responsesWireResponse struct {
	ID     string                  `json:"id"`
	Model  string                  `json:"model"`
	Status string                  `json:"status"`
	Output []responsesOutputItem   `json:"output"`
	Usage  *responsesWireUsage     `json:"usage,omitempty"`
	Error  *wireError              `json:"error,omitempty"`
}

type responsesOutputItem struct {
	Type      string                 `json:"type"`
	ID        string                 `json:"id,omitempty"`
	Role      string                 `json:"role,omitempty"`
	Content   []responsesContentPart `json:"content,omitempty"`
	CallID    string                 `json:"call_id,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Arguments string                 `json:"arguments,omitempty"`
	Summary   []responsesContentPart `json:"summary,omitempty"`
}

type responsesWireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// TransformResponseResponses parses a non-streaming Responses API body into
// the unified ChatResponse.
func TransformResponseResponses(body []byte, bc llmtypes.BuildContext) (llmtypes.ChatResponse, error) {
	var wr responsesWireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return llmtypes.ChatResponse{}, llmerr.ParseError(fmt.Errorf("openai-responses: decode response: %w", err))
	}
	if wr.Error != nil {
		return llmtypes.ChatResponse{}, &llmerr.LlmError{
			Kind:     mapErrorType(wr.Error.Type),
			Message:  wr.Error.Message,
			Provider: "openai",
			Code:     wr.Error.Code,
		}
	}

	var parts []llmtypes.ContentPart
	for _, item := range wr.Output {
		switch item.Type {
		case "message":
			for _, c := range item.Content {
				if c.Text != "" {
					parts = append(parts, llmtypes.Text{Text: c.Text})
				}
			}
		case "function_call", "custom_tool_call":
			parts = append(parts, llmtypes.ToolCall{
				ToolCallID: item.CallID,
				ToolName:   item.Name,
				Arguments:  json.RawMessage(item.Arguments),
			})
		case "reasoning":
			for _, s := range item.Summary {
				parts = append(parts, llmtypes.Reasoning{Text: s.Text})
			}
		}
	}
	if len(parts) == 0 {
		parts = append(parts, llmtypes.Text{Text: ""})
	}

	resp := llmtypes.ChatResponse{
		ID:      wr.ID,
		Model:   wr.Model,
		Content: llmtypes.MultiModalContent(parts...),
	}
	resp.FinishReason, resp.FinishReasonOther = convertResponsesStatus(wr.Status)

	if wr.Usage != nil {
		resp.Usage = &llmtypes.Usage{
			PromptTokens:     wr.Usage.InputTokens,
			CompletionTokens: wr.Usage.OutputTokens,
			TotalTokens:      wr.Usage.TotalTokens,
		}
	}
	return resp, nil
}

func convertResponsesStatus(status string) (llmtypes.FinishReason, string) {
	switch status {
	case "completed":
		return llmtypes.FinishStop, ""
	case "incomplete":
		return llmtypes.FinishLength, ""
	default:
		return llmtypes.FinishUnknown, status
	}
}

// TransformStreamChunkResponses parses one decoded Responses API SSE event
// into zero or more unified StreamEvents, grounded on the event-type switch
// in other_examples' openAIResponsesProcessEvent (response.created,
// response.output_text.delta, response.output_item.done with a
// function_call/custom_tool_call payload, response.completed/failed/
// incomplete, error). eventType is the SSE "event:" field the Responses API
// always sends alongside a same-named "type" field in the JSON body.
func TransformStreamChunkResponses(eventType string, frame []byte, st *provider.State) ([]llmtypes.StreamEvent, error) {
	var env struct {
		Type     string `json:"type"`
		Response *struct {
			ID     string `json:"id"`
			Model  string `json:"model"`
			Status string `json:"status"`
			Usage  *responsesWireUsage `json:"usage,omitempty"`
		} `json:"response,omitempty"`
		Delta string `json:"delta,omitempty"`
		Item  *responsesOutputItem `json:"item,omitempty"`
		Error *wireError `json:"error,omitempty"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, llmerr.ParseError(fmt.Errorf("openai-responses: decode stream event: %w", err))
	}

	kind := env.Type
	if kind == "" {
		kind = eventType
	}

	var events []llmtypes.StreamEvent

	switch kind {
	case "response.created", "response.queued", "response.in_progress":
		if !st.MessageStarted && env.Response != nil {
			st.MessageID = env.Response.ID
			st.Model = env.Response.Model
			events = append(events, llmtypes.NewStreamStart(st.MessageID, st.Model))
			st.MessageStarted = true
		}
	case "response.output_text.delta":
		events = append(events, llmtypes.NewContentDelta(env.Delta, nil))
	case "response.reasoning_summary_text.delta":
		events = append(events, llmtypes.NewThinkingDelta(env.Delta))
	case "response.function_call_arguments.delta":
		if env.Item != nil {
			events = append(events, llmtypes.NewToolCallDelta(env.Item.CallID, env.Item.Name, env.Delta, nil))
		}
	case "response.output_item.done":
		if env.Item != nil && (env.Item.Type == "function_call" || env.Item.Type == "custom_tool_call") {
			events = append(events, llmtypes.NewToolCallDelta(env.Item.CallID, env.Item.Name, env.Item.Arguments, nil))
		}
	case "response.completed", "response.incomplete", "response.failed":
		resp := llmtypes.ChatResponse{ID: st.MessageID, Model: st.Model}
		status := "completed"
		if env.Response != nil {
			status = env.Response.Status
			if env.Response.Usage != nil {
				resp.Usage = &llmtypes.Usage{
					PromptTokens:     env.Response.Usage.InputTokens,
					CompletionTokens: env.Response.Usage.OutputTokens,
					TotalTokens:      env.Response.Usage.TotalTokens,
				}
			}
		}
		resp.FinishReason, resp.FinishReasonOther = convertResponsesStatus(status)
		events = append(events, llmtypes.NewStreamEnd(resp))
	case "error":
		if env.Error != nil {
			return nil, &llmerr.LlmError{
				Kind:     mapErrorType(env.Error.Type),
				Message:  env.Error.Message,
				Provider: "openai",
				Code:     env.Error.Code,
			}
		}
	}

	return events, nil
}
