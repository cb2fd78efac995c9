package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/llm-gateway/internal/llm/llmerr"
	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

// TransformResponse parses an Anthropic Messages API response body into the
// unified ChatResponse.
func TransformResponse(body []byte, bc llmtypes.BuildContext) (llmtypes.ChatResponse, error) {
	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return llmtypes.ChatResponse{}, llmerr.ParseError(fmt.Errorf("anthropic: decode response: %w", err))
	}

	if wr.Error != nil {
		return llmtypes.ChatResponse{}, &llmerr.LlmError{
			Kind:     mapErrorType(wr.Error.Type),
			Message:  wr.Error.Message,
			Provider: "anthropic",
		}
	}

	parts, err := blocksToParts(wr.Content)
	if err != nil {
		return llmtypes.ChatResponse{}, err
	}

	resp := llmtypes.ChatResponse{
		ID:      wr.ID,
		Model:   wr.Model,
		Content: llmtypes.MultiModalContent(parts...),
	}
	resp.FinishReason, resp.FinishReasonOther = convertStopReason(wr.StopReason)

	if wr.Usage != nil {
		u := &llmtypes.Usage{
			PromptTokens:     wr.Usage.InputTokens,
			CompletionTokens: wr.Usage.OutputTokens,
			TotalTokens:      wr.Usage.InputTokens + wr.Usage.OutputTokens,
		}
		if wr.Usage.CacheReadInputTokens > 0 {
			cached := wr.Usage.CacheReadInputTokens
			u.CachedTokens = &cached
		}
		resp.Usage = u
	}

	return resp, nil
}

func blocksToParts(blocks []wireBlock) ([]llmtypes.ContentPart, error) {
	var parts []llmtypes.ContentPart
	for _, b := range blocks {
		switch b.Type {
		case "text":
			parts = append(parts, llmtypes.Text{Text: b.Text})
		case "thinking":
			parts = append(parts, llmtypes.Reasoning{Text: b.Thinking})
		case "tool_use":
			parts = append(parts, llmtypes.ToolCall{
				ToolCallID: b.ID,
				ToolName:   b.Name,
				Arguments:  b.Input,
			})
		}
	}
	if len(parts) == 0 {
		parts = append(parts, llmtypes.Text{Text: ""})
	}
	return parts, nil
}

func convertStopReason(reason string) (llmtypes.FinishReason, string) {
	switch reason {
	case "end_turn", "stop_sequence":
		return llmtypes.FinishStop, ""
	case "max_tokens":
		return llmtypes.FinishLength, ""
	case "tool_use":
		return llmtypes.FinishToolCalls, ""
	case "":
		return llmtypes.FinishUnknown, ""
	default:
		return llmtypes.FinishUnknown, reason
	}
}

func mapErrorType(t string) llmerr.Kind {
	switch t {
	case "authentication_error":
		return llmerr.KindAuthenticationError
	case "permission_error":
		return llmerr.KindAuthenticationError
	case "not_found_error":
		return llmerr.KindNotFound
	case "rate_limit_error":
		return llmerr.KindRateLimitError
	case "invalid_request_error":
		return llmerr.KindInvalidInput
	case "overloaded_error":
		return llmerr.KindHTTPError
	default:
		return llmerr.KindAPIError
	}
}
