package llmtypes

import "encoding/json"

// StreamEventKind discriminates the unified streaming event union described
// in SPEC_FULL.md §3.
type StreamEventKind string

const (
	EventStreamStart   StreamEventKind = "stream-start"
	EventContentDelta  StreamEventKind = "content-delta"
	EventThinkingDelta StreamEventKind = "thinking-delta"
	EventToolCallDelta StreamEventKind = "tool-call-delta"
	EventUsageUpdate   StreamEventKind = "usage-update"
	EventStreamEnd     StreamEventKind = "stream-end"
	EventCustom        StreamEventKind = "custom"
)

// StreamEvent is the tagged union every StreamChunkTransformer emits and the
// tool-loop orchestrator / stream bridge consume. Exactly one of the
// pointer/value fields matching Kind is populated.
type StreamEvent struct {
	Kind StreamEventKind

	StreamStart   *StreamStartData
	ContentDelta  *ContentDeltaData
	ThinkingDelta *ThinkingDeltaData
	ToolCallDelta *ToolCallDeltaData
	UsageUpdate   *Usage
	StreamEnd     *ChatResponse
	Custom        *CustomEventData
}

// StreamStartData carries response metadata known at the start of a stream
// (id, model) before any content has arrived.
type StreamStartData struct {
	ID    string
	Model string
}

// ContentDeltaData is an incremental text fragment, optionally addressed to
// a content-block index for providers that stream multiple blocks.
type ContentDeltaData struct {
	Delta string
	Index *int
}

// ThinkingDeltaData is an incremental reasoning/thinking fragment.
type ThinkingDeltaData struct {
	Delta string
}

// ToolCallDeltaData is an incremental tool-call fragment. FunctionName may
// arrive empty or only on the first delta for a given ID; ArgumentsDelta is
// meant to be concatenated by the accumulator, not replaced.
type ToolCallDeltaData struct {
	ID             string
	FunctionName   string
	ArgumentsDelta string
	Index          *int
}

// CustomEventData carries provider-specific "V3 parts" — finer-grained
// streaming fragments (text-start/delta/end, tool-input-start/delta/end,
// source, finish, error, gateway:tool-result, ...) used as the lingua franca
// for stream transcoding (see internal/llm/bridge) and for the tool loop's
// synthetic result events.
type CustomEventData struct {
	EventType string
	Data      json.RawMessage
}

func NewStreamStart(id, model string) StreamEvent {
	return StreamEvent{Kind: EventStreamStart, StreamStart: &StreamStartData{ID: id, Model: model}}
}

func NewContentDelta(delta string, index *int) StreamEvent {
	return StreamEvent{Kind: EventContentDelta, ContentDelta: &ContentDeltaData{Delta: delta, Index: index}}
}

func NewThinkingDelta(delta string) StreamEvent {
	return StreamEvent{Kind: EventThinkingDelta, ThinkingDelta: &ThinkingDeltaData{Delta: delta}}
}

func NewToolCallDelta(id, fnName, argsDelta string, index *int) StreamEvent {
	return StreamEvent{Kind: EventToolCallDelta, ToolCallDelta: &ToolCallDeltaData{
		ID: id, FunctionName: fnName, ArgumentsDelta: argsDelta, Index: index,
	}}
}

func NewUsageUpdate(u Usage) StreamEvent {
	return StreamEvent{Kind: EventUsageUpdate, UsageUpdate: &u}
}

func NewStreamEnd(resp ChatResponse) StreamEvent {
	return StreamEvent{Kind: EventStreamEnd, StreamEnd: &resp}
}

func NewCustom(eventType string, data json.RawMessage) StreamEvent {
	return StreamEvent{Kind: EventCustom, Custom: &CustomEventData{EventType: eventType, Data: data}}
}
