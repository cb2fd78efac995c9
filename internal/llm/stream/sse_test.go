package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEScanner_SingleDataLine(t *testing.T) {
	s := NewSSEScanner()
	events := s.Feed("data: {\"hello\":true}\n\n")
	require.Len(t, events, 1)
	assert.Equal(t, `{"hello":true}`, events[0].Data)
	assert.Equal(t, "", events[0].Type)
}

func TestSSEScanner_EventTypeAndData(t *testing.T) {
	s := NewSSEScanner()
	events := s.Feed("event: content_block_delta\ndata: {\"x\":1}\n\n")
	require.Len(t, events, 1)
	assert.Equal(t, "content_block_delta", events[0].Type)
	assert.Equal(t, `{"x":1}`, events[0].Data)
}

func TestSSEScanner_MultipleDataLinesJoinedWithNewline(t *testing.T) {
	s := NewSSEScanner()
	events := s.Feed("data: line1\ndata: line2\n\n")
	require.Len(t, events, 1)
	assert.Equal(t, "line1\nline2", events[0].Data)
}

func TestSSEScanner_DonePseudoFrame(t *testing.T) {
	s := NewSSEScanner()
	events := s.Feed("data: [DONE]\n\n")
	require.Len(t, events, 1)
	assert.True(t, events[0].Done())
}

func TestSSEScanner_CommentLinesIgnored(t *testing.T) {
	s := NewSSEScanner()
	events := s.Feed(": keep-alive\n\ndata: hi\n\n")
	require.Len(t, events, 1)
	assert.Equal(t, "hi", events[0].Data)
}

func TestSSEScanner_FeedAcrossMultipleCalls(t *testing.T) {
	s := NewSSEScanner()
	assert.Empty(t, s.Feed("data: par"))
	events := s.Feed("tial\n\n")
	require.Len(t, events, 1)
	assert.Equal(t, "partial", events[0].Data)
}

func TestSSEScanner_CRLFTolerated(t *testing.T) {
	s := NewSSEScanner()
	events := s.Feed("data: hi\r\n\r\n")
	require.Len(t, events, 1)
	assert.Equal(t, "hi", events[0].Data)
}
