package openai

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/llm-gateway/internal/llm/llmerr"
	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

// TransformStreamChunk parses one decoded OpenAI SSE "data:" payload into
// zero or more unified StreamEvents, grounded on the teacher's
// convertOpenAIToAnthropicStream/handleTextContent/handleToolCalls, adapted
// from "emit Anthropic SSE bytes" to "emit unified StreamEvent values" and
// from per-call state tracking of Anthropic content-block indices to
// tracking OpenAI's own tool-call Index field directly.
func TransformStreamChunk(eventType string, frame []byte, st *provider.State) ([]llmtypes.StreamEvent, error) {
	// OpenAI streaming chunks carry "delta" in place of "message"; decode
	// into a small envelope matching that shape rather than wireResponse.
	var env struct {
		ID      string `json:"id"`
		Model   string `json:"model"`
		Choices []struct {
			Delta        *wireDelta `json:"delta"`
			FinishReason *string    `json:"finish_reason"`
		} `json:"choices"`
		Usage *wireUsage `json:"usage,omitempty"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, llmerr.ParseError(fmt.Errorf("openai: decode stream chunk: %w", err))
	}

	var events []llmtypes.StreamEvent

	if !st.MessageStarted {
		id, model := env.ID, env.Model
		if id != "" {
			st.MessageID = id
		}
		if model != "" {
			st.Model = model
		}
		events = append(events, llmtypes.NewStreamStart(st.MessageID, st.Model))
		st.MessageStarted = true
	}

	if len(env.Choices) == 0 {
		return events, nil
	}
	choice := env.Choices[0]

	if choice.Delta != nil {
		if choice.Delta.Content != "" {
			events = append(events, llmtypes.NewContentDelta(choice.Delta.Content, nil))
		}
		for _, tc := range choice.Delta.ToolCalls {
			idx := tc.Index
			if tc.ID != "" {
				st.ContentBlocks[idx] = &provider.ContentBlockState{
					Kind:       llmtypes.PartKindToolCall,
					ToolCallID: tc.ID,
					ToolName:   tc.Function.Name,
				}
			}
			block, ok := st.ContentBlocks[idx]
			id := tc.ID
			name := tc.Function.Name
			if ok {
				id = block.ToolCallID
				if name == "" {
					name = block.ToolName
				}
			}
			events = append(events, llmtypes.NewToolCallDelta(id, name, tc.Function.Arguments, &idx))
		}
	}

	if choice.FinishReason != nil {
		reason, other := convertFinishReason(*choice.FinishReason)
		resp := llmtypes.ChatResponse{
			ID:                st.MessageID,
			Model:             st.Model,
			FinishReason:      reason,
			FinishReasonOther: other,
		}
		if env.Usage != nil {
			resp.Usage = &llmtypes.Usage{
				PromptTokens:     env.Usage.PromptTokens,
				CompletionTokens: env.Usage.CompletionTokens,
				TotalTokens:      env.Usage.TotalTokens,
			}
		}
		events = append(events, llmtypes.NewStreamEnd(resp))
	} else if env.Usage != nil {
		events = append(events, llmtypes.NewUsageUpdate(llmtypes.Usage{
			PromptTokens:     env.Usage.PromptTokens,
			CompletionTokens: env.Usage.CompletionTokens,
			TotalTokens:      env.Usage.TotalTokens,
		}))
	}

	return events, nil
}
