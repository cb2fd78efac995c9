package openai

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/llm-gateway/internal/llm/llmerr"
	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

// TransformResponse parses an OpenAI Chat Completions response body into the
// unified ChatResponse, grounded on the teacher's convertOpenAIToAnthropic
// (the non-streaming half), retargeted from the Anthropic wire shape to the
// unified model.
func TransformResponse(body []byte, bc llmtypes.BuildContext) (llmtypes.ChatResponse, error) {
	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return llmtypes.ChatResponse{}, llmerr.ParseError(fmt.Errorf("openai: decode response: %w", err))
	}

	if wr.Error != nil {
		return llmtypes.ChatResponse{}, &llmerr.LlmError{
			Kind:     mapErrorType(wr.Error.Type),
			Message:  wr.Error.Message,
			Provider: "openai",
			Code:     wr.Error.Code,
		}
	}

	if len(wr.Choices) == 0 {
		return llmtypes.ChatResponse{}, llmerr.New(llmerr.KindParseError, "openai: no choices in response")
	}

	choice := wr.Choices[0]
	if choice.Message == nil {
		return llmtypes.ChatResponse{}, llmerr.New(llmerr.KindParseError, "openai: no message in choice")
	}

	parts := messageToParts(*choice.Message)
	resp := llmtypes.ChatResponse{
		ID:                wr.ID,
		Model:             wr.Model,
		Content:           llmtypes.MultiModalContent(parts...),
		SystemFingerprint: wr.SystemFingerprint,
	}

	if choice.FinishReason != nil {
		resp.FinishReason, resp.FinishReasonOther = convertFinishReason(*choice.FinishReason)
	}

	if wr.Usage != nil {
		resp.Usage = &llmtypes.Usage{
			PromptTokens:            wr.Usage.PromptTokens,
			CompletionTokens:        wr.Usage.CompletionTokens,
			TotalTokens:             wr.Usage.TotalTokens,
			PromptTokensDetails:     wr.Usage.PromptTokensDetails,
			CompletionTokensDetails: wr.Usage.CompletionTokensDetails,
		}
		if cached, ok := wr.Usage.PromptTokensDetails["cached_tokens"]; ok {
			resp.Usage.CachedTokens = &cached
		}
	}

	return resp, nil
}

func messageToParts(m wireMessage) []llmtypes.ContentPart {
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
	if len(parts) == 0 {
		parts = append(parts, llmtypes.Text{Text: ""})
	}
	return parts
}

func convertFinishReason(reason string) (llmtypes.FinishReason, string) {
	switch reason {
	case "stop":
		return llmtypes.FinishStop, ""
	case "length":
		return llmtypes.FinishLength, ""
	case "tool_calls", "function_call":
		return llmtypes.FinishToolCalls, ""
	case "content_filter":
		return llmtypes.FinishContentFilter, ""
	default:
		return llmtypes.FinishUnknown, reason
	}
}

func mapErrorType(t string) llmerr.Kind {
	switch t {
	case "invalid_request_error":
		return llmerr.KindInvalidInput
	case "authentication_error":
		return llmerr.KindAuthenticationError
	case "permission_error":
		return llmerr.KindAuthenticationError
	case "not_found_error":
		return llmerr.KindNotFound
	case "rate_limit_error":
		return llmerr.KindRateLimitError
	case "insufficient_quota_error":
		return llmerr.KindRateLimitError
	default:
		return llmerr.KindAPIError
	}
}
