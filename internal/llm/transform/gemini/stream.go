package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Davincible/llm-gateway/internal/llm/llmerr"
	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

// TransformStreamChunk parses one Gemini streamGenerateContent JSON frame
// into unified StreamEvents. Gemini has no "event:" discriminator — every
// frame is a full wireResponse shape, same as the non-streaming response,
// grounded on the teacher's convertGeminiToAnthropicStream.
//
// Grounding-chunk dedup (SPEC_FULL.md §4.9, §8 scenario 3) has no teacher
// counterpart: State.SeenGroundingURIs tracks every groundingChunks[].web.uri
// already surfaced this stream, so repeated citations across frames collapse
// into a single Custom{event_type:"gemini:source"} event.
func TransformStreamChunk(eventType string, frame []byte, st *provider.State) ([]llmtypes.StreamEvent, error) {
	var wr wireResponse
	if err := json.Unmarshal(frame, &wr); err != nil {
		return nil, llmerr.ParseError(fmt.Errorf("gemini: decode stream chunk: %w", err))
	}

	var events []llmtypes.StreamEvent
	if !st.MessageStarted {
		if wr.ModelVersion != "" {
			st.Model = wr.ModelVersion
		}
		if st.MessageID == "" {
			st.MessageID = uuid.NewString() // Gemini's stream carries no message id
		}
		events = append(events, llmtypes.NewStreamStart(st.MessageID, st.Model))
		st.MessageStarted = true
	}

	if len(wr.Candidates) == 0 {
		return events, nil
	}
	cand := wr.Candidates[0]

	for _, p := range cand.Content.Parts {
		switch {
		case p.FunctionCall != nil:
			args := p.FunctionCall.Args
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			events = append(events, llmtypes.NewToolCallDelta(uuid.NewString(), p.FunctionCall.Name, string(args), nil))
		case p.Text != "":
			events = append(events, llmtypes.NewContentDelta(p.Text, nil))
		}
	}

	if cand.GroundingMetadata != nil {
		for _, gc := range cand.GroundingMetadata.GroundingChunks {
			if gc.Web == nil || gc.Web.URI == "" || st.SeenGroundingURIs[gc.Web.URI] {
				continue
			}
			st.SeenGroundingURIs[gc.Web.URI] = true
			raw, err := json.Marshal(llmtypes.Source{SourceType: "url", URL: gc.Web.URI, Title: gc.Web.Title})
			if err != nil {
				return nil, fmt.Errorf("gemini: encode grounding source: %w", err)
			}
			events = append(events, llmtypes.NewCustom("gemini:source", raw))
		}
	}

	if cand.FinishReason != "" {
		reason, other := convertFinishReason(cand.FinishReason)
		resp := llmtypes.ChatResponse{ID: st.MessageID, Model: st.Model, FinishReason: reason, FinishReasonOther: other}
		if wr.UsageMetadata != nil {
			resp.Usage = &llmtypes.Usage{
				PromptTokens:     wr.UsageMetadata.PromptTokenCount,
				CompletionTokens: wr.UsageMetadata.CandidatesTokenCount,
				TotalTokens:      wr.UsageMetadata.TotalTokenCount,
			}
		}
		events = append(events, llmtypes.NewStreamEnd(resp))
	}

	return events, nil
}
