// ABOUTME: Incremental UTF-8 decoder that carries split multi-byte sequences across reads
// ABOUTME: Invalid bytes decode to U+FFFD; an unfinished tail is only replaced on Flush

package stream

import (
	"strings"
	"unicode/utf8"
)

// Decoder turns a sequence of byte chunks into text. A character whose
// encoding straddles two chunks is emitted once the second chunk arrives.
type Decoder struct {
	pending []byte
}

// Decode returns the text decodable from p plus any bytes held back from the
// previous call. Trailing bytes of an incomplete character are held back.
func (d *Decoder) Decode(p []byte) string {
	buf := p
	if len(d.pending) > 0 {
		buf = append(d.pending, p...)
	}

	var b strings.Builder
	b.Grow(len(buf))

	i := 0
	for i < len(buf) {
		c := buf[i]
		if c < utf8.RuneSelf {
			b.WriteByte(c)
			i++
			continue
		}
		if !utf8.FullRune(buf[i:]) {
			break
		}
		r, size := utf8.DecodeRune(buf[i:])
		b.WriteRune(r)
		i += size
	}

	// Copy so the caller may reuse p.
	d.pending = append([]byte(nil), buf[i:]...)
	return b.String()
}

// Flush ends the stream. An incomplete trailing character becomes U+FFFD.
func (d *Decoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	d.pending = nil
	return string(utf8.RuneError)
}

// Pending reports how many bytes are held back.
func (d *Decoder) Pending() int {
	return len(d.pending)
}
