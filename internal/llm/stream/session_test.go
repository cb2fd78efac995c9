package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

func TestSession_SynthesizesMissingStreamStart(t *testing.T) {
	s := NewSession("resp-1", "gpt-test")

	idx := 0
	out := s.Push(llmtypes.NewContentDelta("hi", &idx))

	require.Len(t, out, 2)
	assert.Equal(t, llmtypes.EventStreamStart, out[0].Kind)
	assert.Equal(t, "resp-1", out[0].StreamStart.ID)
	assert.Equal(t, llmtypes.EventContentDelta, out[1].Kind)
}

func TestSession_DoesNotDuplicateProviderSuppliedStreamStart(t *testing.T) {
	s := NewSession("", "")
	out := s.Push(llmtypes.NewStreamStart("resp-2", "model-x"))
	require.Len(t, out, 1)
	assert.Equal(t, llmtypes.EventStreamStart, out[0].Kind)
}

func TestSession_ProviderStreamEndEndsSession(t *testing.T) {
	s := NewSession("resp-3", "m")
	s.Push(llmtypes.NewStreamStart("resp-3", "m"))

	out := s.Push(llmtypes.NewStreamEnd(llmtypes.ChatResponse{FinishReason: llmtypes.FinishStop}))
	require.Len(t, out, 1)
	assert.Equal(t, llmtypes.EventStreamEnd, out[0].Kind)
	assert.True(t, s.Ended())
}

func TestSession_DropsEventsAfterStreamEnd(t *testing.T) {
	s := NewSession("r", "m")
	s.Push(llmtypes.NewStreamStart("r", "m"))
	s.Push(llmtypes.NewStreamEnd(llmtypes.ChatResponse{}))

	out := s.Push(llmtypes.NewContentDelta("late", nil))
	assert.Empty(t, out, "events after StreamEnd must be silently dropped")
}

func TestSession_FailEmitsTerminalStreamEndWithWarning(t *testing.T) {
	s := NewSession("r", "m")
	s.Push(llmtypes.NewStreamStart("r", "m"))

	out := s.Fail("upstream closed mid-frame")
	require.Len(t, out, 1)
	require.Equal(t, llmtypes.EventStreamEnd, out[0].Kind)
	assert.Equal(t, llmtypes.FinishError, out[0].StreamEnd.FinishReason)
	assert.Contains(t, out[0].StreamEnd.Warnings, "upstream closed mid-frame")
	assert.True(t, s.Ended())

	assert.Empty(t, s.Push(llmtypes.NewContentDelta("x", nil)))
}

func TestSession_FailBeforeAnyStartStillSynthesizesOne(t *testing.T) {
	s := NewSession("r", "m")
	out := s.Fail("connect refused")
	require.Len(t, out, 2)
	assert.Equal(t, llmtypes.EventStreamStart, out[0].Kind)
	assert.Equal(t, llmtypes.EventStreamEnd, out[1].Kind)
}

func TestSession_CancelSuppressesFurtherEvents(t *testing.T) {
	s := NewSession("r", "m")
	s.Push(llmtypes.NewStreamStart("r", "m"))
	s.Cancel()

	assert.True(t, s.Ended())
	assert.Empty(t, s.Push(llmtypes.NewContentDelta("x", nil)))
}

func TestSession_AggregatesToolCallDeltasInInsertionOrder(t *testing.T) {
	s := NewSession("r", "m")
	s.Push(llmtypes.NewStreamStart("r", "m"))

	s.Push(llmtypes.NewToolCallDelta("call_2", "second_fn", `{"x":`, nil))
	s.Push(llmtypes.NewToolCallDelta("call_1", "first_fn", `{"y":1}`, nil))
	s.Push(llmtypes.NewToolCallDelta("call_2", "", `1}`, nil))

	out := s.Push(llmtypes.NewStreamEnd(llmtypes.ChatResponse{}))
	require.Len(t, out, 1)

	calls := out[0].StreamEnd.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "call_2", calls[0].ToolCallID)
	assert.Equal(t, "second_fn", calls[0].ToolName)
	assert.JSONEq(t, `{"x":1}`, string(calls[0].Arguments))
	assert.Equal(t, "call_1", calls[1].ToolCallID)
	assert.Equal(t, llmtypes.FinishToolCalls, out[0].StreamEnd.FinishReason)
}

func TestSession_ToolCallArgsFallBackToRawStringOnInvalidJSON(t *testing.T) {
	s := NewSession("r", "m")
	s.Push(llmtypes.NewStreamStart("r", "m"))
	s.Push(llmtypes.NewToolCallDelta("call_1", "fn", "not json{{{", nil))

	out := s.Push(llmtypes.NewStreamEnd(llmtypes.ChatResponse{}))
	calls := out[0].StreamEnd.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, `"not json{{{"`, string(calls[0].Arguments))
}

func TestSession_AccumulatesContentAndThinkingDeltasIntoTerminalResponse(t *testing.T) {
	s := NewSession("r", "m")
	s.Push(llmtypes.NewStreamStart("r", "m"))
	s.Push(llmtypes.NewThinkingDelta("reasoning about "))
	s.Push(llmtypes.NewContentDelta("hel", nil))
	s.Push(llmtypes.NewThinkingDelta("weather"))
	s.Push(llmtypes.NewContentDelta("lo", nil))

	// The provider's own terminal payload carries only FinishReason, the
	// same shape openai/stream.go and anthropic/stream.go actually produce —
	// Content must come entirely from the session's own accumulation.
	out := s.Push(llmtypes.NewStreamEnd(llmtypes.ChatResponse{FinishReason: llmtypes.FinishStop}))
	require.Len(t, out, 1)
	assert.Equal(t, "hello", out[0].StreamEnd.Text())

	require.Equal(t, llmtypes.ContentKindMultiModal, out[0].StreamEnd.Content.Kind)
	var sawReasoning bool
	for _, p := range out[0].StreamEnd.Content.Parts {
		if r, ok := p.(llmtypes.Reasoning); ok {
			sawReasoning = true
			assert.Equal(t, "reasoning about weather", r.Text)
		}
	}
	assert.True(t, sawReasoning, "accumulated thinking deltas must also reach the terminal response")
}

func TestSession_ContentDeltasStillForwardedDownstreamForLiveStreaming(t *testing.T) {
	s := NewSession("r", "m")
	s.Push(llmtypes.NewStreamStart("r", "m"))

	out := s.Push(llmtypes.NewContentDelta("chunk", nil))
	require.Len(t, out, 1, "accumulation must not swallow the delta a streaming client needs to render incrementally")
	assert.Equal(t, llmtypes.EventContentDelta, out[0].Kind)
}

func TestSession_CloseSynthesizesTerminalStreamEndWhenProviderNeverSentOne(t *testing.T) {
	s := NewSession("r", "m")
	s.Push(llmtypes.NewStreamStart("r", "m"))
	s.Push(llmtypes.NewContentDelta("partial", nil))

	out := s.Close()
	require.Len(t, out, 1)
	assert.Equal(t, llmtypes.EventStreamEnd, out[0].Kind)
	assert.Equal(t, "partial", out[0].StreamEnd.Text())
	assert.True(t, s.Ended())

	assert.Empty(t, s.Close(), "Close after the session already ended must be a no-op")
}

func TestSession_CloseBeforeAnyStartStillSynthesizesStreamStart(t *testing.T) {
	s := NewSession("r", "m")
	out := s.Close()
	require.Len(t, out, 2)
	assert.Equal(t, llmtypes.EventStreamStart, out[0].Kind)
	assert.Equal(t, llmtypes.EventStreamEnd, out[1].Kind)
}

func TestSession_UsageAccumulatesAcrossUpdates(t *testing.T) {
	s := NewSession("r", "m")
	s.Push(llmtypes.NewStreamStart("r", "m"))
	s.Push(llmtypes.NewUsageUpdate(llmtypes.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}))
	s.Push(llmtypes.NewUsageUpdate(llmtypes.Usage{CompletionTokens: 3, TotalTokens: 3}))

	out := s.Push(llmtypes.NewStreamEnd(llmtypes.ChatResponse{}))
	require.NotNil(t, out[0].StreamEnd.Usage)
	assert.Equal(t, 10, out[0].StreamEnd.Usage.PromptTokens)
	assert.Equal(t, 8, out[0].StreamEnd.Usage.CompletionTokens)
}
