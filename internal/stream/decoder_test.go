// ABOUTME: Tests for the incremental UTF-8 decoder
// ABOUTME: Splits multi-byte characters at every possible byte boundary

package stream

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestDecoder_ASCII(t *testing.T) {
	var d Decoder
	assert.Equal(t, "hello", d.Decode([]byte("hello")))
	assert.Zero(t, d.Pending())
	assert.Equal(t, "", d.Flush())
}

func TestDecoder_SplitAtEveryBoundary(t *testing.T) {
	inputs := []string{"é", "日本語", "🙂 ok", "a€b", "mixed ñ 🚀 done"}

	for _, in := range inputs {
		raw := []byte(in)
		for cut := 0; cut <= len(raw); cut++ {
			var d Decoder
			first := d.Decode(raw[:cut])
			second := d.Decode(raw[cut:])

			got := first + second + d.Flush()
			assert.Equal(t, in, got, "input %q cut at %d", in, cut)
			assert.True(t, utf8.ValidString(first), "no partial character emitted early")
			assert.NotContains(t, got, string(utf8.RuneError))
		}
	}
}

func TestDecoder_HoldsBackPartialSequence(t *testing.T) {
	var d Decoder
	emoji := []byte("🙂") // 4 bytes

	assert.Equal(t, "", d.Decode(emoji[:1]))
	assert.Equal(t, "", d.Decode(emoji[1:3]))
	assert.Equal(t, 3, d.Pending())
	assert.Equal(t, "🙂", d.Decode(emoji[3:]))
	assert.Zero(t, d.Pending())
}

func TestDecoder_ByteAtATime(t *testing.T) {
	in := "Grüße, 世界 🌍"
	var d Decoder
	var b strings.Builder
	for _, c := range []byte(in) {
		b.WriteString(d.Decode([]byte{c}))
	}
	b.WriteString(d.Flush())
	assert.Equal(t, in, b.String())
}

func TestDecoder_InvalidBytes(t *testing.T) {
	var d Decoder
	got := d.Decode([]byte{'a', 0xff, 'b'})
	assert.Equal(t, "a�b", got)
}

func TestDecoder_FlushIncompleteTail(t *testing.T) {
	var d Decoder
	assert.Equal(t, "x", d.Decode([]byte{'x', 0xe6, 0x97}))
	assert.Equal(t, "�", d.Flush())
	assert.Equal(t, "", d.Flush(), "flush resets state")
}

func TestDecoder_DoesNotRetainCallerBuffer(t *testing.T) {
	var d Decoder
	buf := []byte{'a', 0xc3}
	d.Decode(buf)
	buf[1] = 'z' // caller reuses its buffer

	assert.Equal(t, "é", d.Decode([]byte{0xa9}))
}
