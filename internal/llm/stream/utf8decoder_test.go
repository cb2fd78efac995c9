package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoder_SplitMultibyteRune(t *testing.T) {
	d := NewDecoder()

	// "☃" is 0xE2 0x98 0x83; split as [0xE2] then [0x98, 0x83].
	first := d.Decode([]byte{0xE2})
	assert.Equal(t, "", first)

	second := d.Decode([]byte{0x98, 0x83})
	assert.Equal(t, "☃", second)
}

func TestDecoder_SplitAcrossThreeChunks(t *testing.T) {
	d := NewDecoder()

	assert.Equal(t, "", d.Decode([]byte{0xE2}))
	assert.Equal(t, "", d.Decode([]byte{0x98}))
	assert.Equal(t, "☃", d.Decode([]byte{0x83}))
}

func TestDecoder_WholeChunkPassesThrough(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, "hello ☃ world", d.Decode([]byte("hello ☃ world")))
}

func TestDecoder_FlushReturnsResidualBytes(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, "", d.Decode([]byte{0xE2, 0x98}))
	assert.Equal(t, "\xe2\x98", d.Flush())
	assert.Equal(t, "", d.Flush(), "Flush drains the buffer; a second call has nothing left")
}

func TestDecoder_ASCIINeverBuffers(t *testing.T) {
	d := NewDecoder()
	for _, b := range []byte("abcdefg") {
		out := d.Decode([]byte{b})
		assert.NotEmpty(t, out)
	}
}
