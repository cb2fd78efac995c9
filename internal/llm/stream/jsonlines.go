package stream

import "strings"

// JSONLinesScanner frames newline-delimited JSON objects, the wire format
// Ollama uses instead of SSE: no "data:" prefix, no "[DONE]" sentinel — the
// stream simply ends when the connection closes (EOF-as-terminator).
//
// Grounded on the same teacher proxy-streaming loop as SSEScanner, adapted
// for Ollama's plain-newline framing instead of the SSE "data:"/"event:"
// field grammar.
type JSONLinesScanner struct {
	lineBuf strings.Builder
}

// NewJSONLinesScanner returns a scanner with no buffered state.
func NewJSONLinesScanner() *JSONLinesScanner { return &JSONLinesScanner{} }

// Feed appends decoded text and returns every complete line (one JSON object
// per line) seen so far, skipping blank lines.
func (s *JSONLinesScanner) Feed(text string) []string {
	var out []string
	for _, r := range text {
		if r == '\n' {
			if line := strings.TrimRight(s.lineBuf.String(), "\r"); line != "" {
				out = append(out, line)
			}
			s.lineBuf.Reset()
			continue
		}
		s.lineBuf.WriteRune(r)
	}
	return out
}

// Flush returns a final buffered, non-terminated line on EOF, if any — the
// normal case for Ollama, whose last line is not itself newline-terminated.
func (s *JSONLinesScanner) Flush() (string, bool) {
	line := strings.TrimRight(s.lineBuf.String(), "\r")
	s.lineBuf.Reset()
	if line == "" {
		return "", false
	}
	return line, true
}
