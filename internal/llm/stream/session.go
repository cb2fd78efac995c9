package stream

import (
	"encoding/json"
	"sort"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

// Session enforces the per-stream invariants from SPEC_FULL.md §4.4: exactly
// one StreamStart event (synthesized if the provider never sent one),
// at most one terminal StreamEnd (synthesized on clean close or on parse
// failure; Cancel ends the session without emitting one), and silent drop of
// anything arriving after the session has ended.
//
// One Session instance owns all per-stream mutable state (started/ended
// flags, the tool-call accumulator) and is meant to be driven by a single
// goroutine per streaming request — the same "one goroutine owns all
// per-session state" shape as the teacher's handleStreamingResponse loop,
// generalized here into a provider-independent type instead of one handler
// body.
type Session struct {
	id, model string

	started bool
	ended   bool

	toolCalls map[string]*toolCallAccumulator
	toolOrder []string
	usage     llmtypes.Usage
	haveUsage bool

	text      string
	reasoning string
}

type toolCallAccumulator struct {
	id, name string
	args     string
}

// NewSession returns a session identified by the response id/model known (or
// guessed) before the first event arrives; both may be filled in later by an
// actual StreamStart from the provider.
func NewSession(id, model string) *Session {
	return &Session{id: id, model: model, toolCalls: map[string]*toolCallAccumulator{}}
}

// Push feeds one raw provider event through the session. It returns the
// events that should actually be forwarded to the caller: zero or more
// events, with StreamStart/StreamEnd synthesized or suppressed as needed.
// Once a StreamEnd has been emitted, every subsequent call returns nil.
func (s *Session) Push(ev llmtypes.StreamEvent) []llmtypes.StreamEvent {
	if s.ended {
		return nil
	}

	var out []llmtypes.StreamEvent
	if !s.started && ev.Kind != llmtypes.EventStreamStart {
		out = append(out, s.synthStart())
	}

	switch ev.Kind {
	case llmtypes.EventStreamStart:
		if s.started {
			return out // duplicate StreamStart from the provider; drop it
		}
		s.started = true
		if ev.StreamStart != nil {
			s.id, s.model = ev.StreamStart.ID, ev.StreamStart.Model
		}
		out = append(out, ev)
	case llmtypes.EventContentDelta:
		if ev.ContentDelta != nil {
			s.text += ev.ContentDelta.Delta
		}
		out = append(out, ev)
	case llmtypes.EventThinkingDelta:
		if ev.ThinkingDelta != nil {
			s.reasoning += ev.ThinkingDelta.Delta
		}
		out = append(out, ev)
	case llmtypes.EventToolCallDelta:
		s.accumulateToolCall(ev.ToolCallDelta)
		out = append(out, ev)
	case llmtypes.EventUsageUpdate:
		if ev.UsageUpdate != nil {
			s.usage.Add(*ev.UsageUpdate)
			s.haveUsage = true
		}
		out = append(out, ev)
	case llmtypes.EventStreamEnd:
		s.ended = true
		resp := s.finalize(ev.StreamEnd)
		out = append(out, llmtypes.NewStreamEnd(resp))
	default:
		out = append(out, ev)
	}
	return out
}

func (s *Session) synthStart() llmtypes.StreamEvent {
	s.started = true
	return llmtypes.NewStreamStart(s.id, s.model)
}

// Fail terminates the session early on a parse/transport failure, emitting a
// single terminal StreamEnd with FinishError and the given warning text, per
// SPEC_FULL.md §4.4 ("on parse failure mid-stream emit a terminal StreamEnd
// with finish_reason=error and a warning, then close — never a bare error
// with no terminal event").
func (s *Session) Fail(reason string) []llmtypes.StreamEvent {
	if s.ended {
		return nil
	}
	var out []llmtypes.StreamEvent
	if !s.started {
		out = append(out, s.synthStart())
	}
	s.ended = true
	resp := s.finalize(nil)
	resp.FinishReason = llmtypes.FinishError
	resp.Warnings = append(resp.Warnings, reason)
	out = append(out, llmtypes.NewStreamEnd(resp))
	return out
}

// Close finalizes the session when the upstream stream ended cleanly but
// never produced an explicit terminal StreamEnd event of its own (a provider
// dialect quirk, not the common case — OpenAI/Anthropic/Gemini all emit one).
// No-op if a StreamEnd has already been produced, so callers can call it
// unconditionally once scanning stops.
func (s *Session) Close() []llmtypes.StreamEvent {
	if s.ended {
		return nil
	}
	var out []llmtypes.StreamEvent
	if !s.started {
		out = append(out, s.synthStart())
	}
	s.ended = true
	resp := s.finalize(nil)
	out = append(out, llmtypes.NewStreamEnd(resp))
	return out
}

// Cancel terminates the session because the caller cancelled the request.
// Per SPEC_FULL.md §5 ("cancellation drops the upstream read and emits no
// further events"), this deliberately returns nothing — the caller's
// CancelToken already observed cancellation and stops reading.
func (s *Session) Cancel() {
	s.ended = true
}

// Ended reports whether a terminal StreamEnd has already been produced.
func (s *Session) Ended() bool { return s.ended }

func (s *Session) accumulateToolCall(d *llmtypes.ToolCallDeltaData) {
	if d == nil || d.ID == "" {
		return
	}
	acc, ok := s.toolCalls[d.ID]
	if !ok {
		acc = &toolCallAccumulator{id: d.ID}
		s.toolCalls[d.ID] = acc
		s.toolOrder = append(s.toolOrder, d.ID)
	}
	if d.FunctionName != "" {
		acc.name = d.FunctionName
	}
	acc.args += d.ArgumentsDelta
}

// finalize builds the terminal ChatResponse, folding in accumulated text,
// reasoning, tool calls (insertion order, falling back to ID-sorted if
// insertion order was never recorded), and usage. Provider stream
// transformers only ever set FinishReason/Usage on their own terminal
// StreamEnd (see openai/stream.go, anthropic/stream.go) and never Content, so
// in practice the session's own accumulation is what populates Content; any
// Content the provided payload did carry is kept and merged in ahead of it.
func (s *Session) finalize(provided *llmtypes.ChatResponse) llmtypes.ChatResponse {
	var resp llmtypes.ChatResponse
	if provided != nil {
		resp = *provided
	} else {
		resp = llmtypes.Empty()
		resp.ID, resp.Model = s.id, s.model
	}

	var parts []llmtypes.ContentPart
	switch resp.Content.Kind {
	case llmtypes.ContentKindMultiModal:
		parts = append(parts, resp.Content.Parts...)
	case llmtypes.ContentKindText:
		if resp.Content.Text != "" {
			parts = append(parts, llmtypes.Text{Text: resp.Content.Text})
		}
	}

	if s.reasoning != "" {
		parts = append(parts, llmtypes.Reasoning{Text: s.reasoning})
	}
	if s.text != "" {
		parts = append(parts, llmtypes.Text{Text: s.text})
	}

	if len(s.toolCalls) > 0 {
		order := s.toolOrder
		if len(order) == 0 {
			for id := range s.toolCalls {
				order = append(order, id)
			}
			sort.Strings(order)
		}
		for _, id := range order {
			acc := s.toolCalls[id]
			parts = append(parts, llmtypes.ToolCall{
				ToolCallID: acc.id,
				ToolName:   acc.name,
				Arguments:  parseOrRawJSON(acc.args),
			})
		}
		if resp.FinishReason == "" || resp.FinishReason == llmtypes.FinishUnknown {
			resp.FinishReason = llmtypes.FinishToolCalls
		}
	}

	if len(parts) > 0 {
		resp.Content = llmtypes.MultiModalContent(parts...)
	}

	if resp.Usage == nil && s.haveUsage {
		u := s.usage
		resp.Usage = &u
	}
	return resp
}

// parseOrRawJSON best-effort validates args as JSON; on failure it falls
// back to a JSON string literal wrapping the raw accumulated text so callers
// always receive syntactically valid JSON, per SPEC_FULL.md §4.4's
// "best-effort JSON parse on stream end, raw-string fallback" rule.
func parseOrRawJSON(args string) json.RawMessage {
	if args == "" {
		return json.RawMessage("{}")
	}
	if json.Valid([]byte(args)) {
		return json.RawMessage(args)
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return json.RawMessage(`""`)
	}
	return json.RawMessage(raw)
}
