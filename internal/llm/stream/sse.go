package stream

import "strings"

// SSEEvent is one decoded server-sent event frame: an optional type (the
// "event:" field, empty for the default "message" type) and its payload (the
// concatenation of every "data:" line in the frame, newline-joined).
type SSEEvent struct {
	Type string
	Data string
}

// Done reports whether this frame is the provider's stream terminator
// ("data: [DONE]"), used by OpenAI, Anthropic and every OpenAI-compatible
// vendor in the registry.
func (e SSEEvent) Done() bool {
	return strings.TrimSpace(e.Data) == "[DONE]"
}

// SSEScanner accumulates decoded text and emits complete SSE frames. A frame
// is terminated by a blank line, per the text/event-stream grammar; a single
// frame may carry several "data:" lines, joined with "\n" per spec.
//
// Grounded on the teacher's bufio.Scanner-based loop in
// internal/handlers/proxy.go:handleStreamingResponse, generalized from one
// handler-local "split on newline, look for the data: prefix" loop into a
// reusable push-parser any provider transformer can drive.
type SSEScanner struct {
	lineBuf strings.Builder
	dataBuf strings.Builder
	event   string
	haveAny bool // true once this frame has seen at least one data:/event: line
}

// NewSSEScanner returns a scanner with no buffered state.
func NewSSEScanner() *SSEScanner { return &SSEScanner{} }

// Feed appends decoded text (already UTF-8 boundary safe, e.g. via Decoder)
// and returns every frame completed by this call, in arrival order.
func (s *SSEScanner) Feed(text string) []SSEEvent {
	var out []SSEEvent
	for _, r := range text {
		if r == '\n' {
			if ev, ok := s.endLine(); ok {
				out = append(out, ev)
			}
			continue
		}
		if r == '\r' {
			continue // tolerate CRLF
		}
		s.lineBuf.WriteRune(r)
	}
	return out
}

// endLine processes one terminated line, returning a completed event only
// when the line is blank (the SSE frame delimiter) and the frame carried
// actual content.
func (s *SSEScanner) endLine() (SSEEvent, bool) {
	line := s.lineBuf.String()
	s.lineBuf.Reset()

	switch {
	case line == "":
		if !s.haveAny {
			return SSEEvent{}, false
		}
		ev := SSEEvent{Type: s.event, Data: s.dataBuf.String()}
		s.event = ""
		s.dataBuf.Reset()
		s.haveAny = false
		return ev, true
	case strings.HasPrefix(line, ":"):
		// comment line, e.g. keep-alive pings; ignored.
	case strings.HasPrefix(line, "event:"):
		s.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		s.haveAny = true
	case strings.HasPrefix(line, "data:"):
		if s.dataBuf.Len() > 0 {
			s.dataBuf.WriteByte('\n')
		}
		s.dataBuf.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		s.haveAny = true
	default:
		// Unknown field (id:, retry:, etc.); ignored, but marks the frame
		// non-empty so a trailing blank line still flushes it.
		s.haveAny = true
	}
	return SSEEvent{}, false
}
