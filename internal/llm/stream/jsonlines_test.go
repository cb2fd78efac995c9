package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLinesScanner_BasicFraming(t *testing.T) {
	s := NewJSONLinesScanner()
	lines := s.Feed("{\"a\":1}\n{\"b\":2}\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"a":1}`, lines[0])
	assert.Equal(t, `{"b":2}`, lines[1])
}

func TestJSONLinesScanner_BlankLinesSkipped(t *testing.T) {
	s := NewJSONLinesScanner()
	lines := s.Feed("{\"a\":1}\n\n\n{\"b\":2}\n")
	require.Len(t, lines, 2)
}

func TestJSONLinesScanner_EOFWithoutTrailingNewline(t *testing.T) {
	s := NewJSONLinesScanner()
	assert.Empty(t, s.Feed(`{"a":1}`))

	line, ok := s.Flush()
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, line)

	_, ok = s.Flush()
	assert.False(t, ok, "a second flush after drain has nothing left")
}
