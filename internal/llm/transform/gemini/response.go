package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Davincible/llm-gateway/internal/llm/llmerr"
	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

// TransformResponse parses a Gemini generateContent response into the
// unified ChatResponse, grounded on the teacher's convertGeminiToAnthropic.
func TransformResponse(body []byte, bc llmtypes.BuildContext) (llmtypes.ChatResponse, error) {
	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return llmtypes.ChatResponse{}, llmerr.ParseError(fmt.Errorf("gemini: decode response: %w", err))
	}

	if wr.Error != nil {
		return llmtypes.ChatResponse{}, &llmerr.LlmError{
			Kind:       mapErrorType(wr.Error.Status, wr.Error.Code),
			Message:    wr.Error.Message,
			Provider:   "gemini",
			StatusCode: wr.Error.Code,
		}
	}

	if len(wr.Candidates) == 0 {
		return llmtypes.ChatResponse{}, llmerr.New(llmerr.KindParseError, "gemini: no candidates in response")
	}

	cand := wr.Candidates[0]
	seen := map[string]bool{}
	parts := partsFromContent(cand.Content, cand.GroundingMetadata, seen)

	resp := llmtypes.ChatResponse{
		ID:      uuid.NewString(), // Gemini's response carries no id field
		Model:   wr.ModelVersion,
		Content: llmtypes.MultiModalContent(parts...),
	}
	resp.FinishReason, resp.FinishReasonOther = convertFinishReason(cand.FinishReason)

	if wr.UsageMetadata != nil {
		resp.Usage = &llmtypes.Usage{
			PromptTokens:     wr.UsageMetadata.PromptTokenCount,
			CompletionTokens: wr.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      wr.UsageMetadata.TotalTokenCount,
		}
	}

	return resp, nil
}

// partsFromContent converts one candidate's parts, deduplicating grounding
// citations by URI (the non-streaming counterpart of the streaming dedup in
// stream.go — a single response can repeat the same grounding chunk across
// candidates' content just as consecutive stream frames can).
func partsFromContent(c wireContent, grounding *wireGrounding, seen map[string]bool) []llmtypes.ContentPart {
	var parts []llmtypes.ContentPart
	for _, p := range c.Parts {
		switch {
		case p.FunctionCall != nil:
			parts = append(parts, llmtypes.ToolCall{
				// Gemini carries no call id; wire correlation back to the
				// model runs on ToolName alone (see request.go), so a
				// synthesized id is only for our own tool-loop bookkeeping
				// and must stay unique across repeated same-name calls.
				ToolCallID: uuid.NewString(),
				ToolName:   p.FunctionCall.Name,
				Arguments:  p.FunctionCall.Args,
			})
		case p.Text != "":
			parts = append(parts, llmtypes.Text{Text: p.Text})
		}
	}
	if grounding != nil {
		for _, gc := range grounding.GroundingChunks {
			if gc.Web == nil || gc.Web.URI == "" || seen[gc.Web.URI] {
				continue
			}
			seen[gc.Web.URI] = true
			parts = append(parts, llmtypes.Source{URL: gc.Web.URI, Title: gc.Web.Title})
		}
	}
	if len(parts) == 0 {
		parts = append(parts, llmtypes.Text{Text: ""})
	}
	return parts
}

func convertFinishReason(reason string) (llmtypes.FinishReason, string) {
	switch reason {
	case "STOP":
		return llmtypes.FinishStop, ""
	case "MAX_TOKENS":
		return llmtypes.FinishLength, ""
	case "SAFETY", "RECITATION":
		return llmtypes.FinishContentFilter, ""
	case "":
		return llmtypes.FinishUnknown, ""
	default:
		return llmtypes.FinishUnknown, reason
	}
}

func mapErrorType(status string, code int) llmerr.Kind {
	switch status {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return llmerr.KindAuthenticationError
	case "RESOURCE_EXHAUSTED":
		return llmerr.KindRateLimitError
	case "NOT_FOUND":
		return llmerr.KindNotFound
	case "INVALID_ARGUMENT":
		return llmerr.KindInvalidInput
	default:
		if code >= 500 {
			return llmerr.KindHTTPError
		}
		return llmerr.KindAPIError
	}
}
