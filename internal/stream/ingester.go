// ABOUTME: StreamIngester reading a chunked or SSE response body into text deltas
// ABOUTME: Handles data: lines, raw text lines, blank separators and the end-of-stream sentinel

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	// DefaultSentinel is the payload that marks the end of a reply
	DefaultSentinel = "[DONE]"
	// DefaultBufferSize is the size of a single read from the body
	DefaultBufferSize = 4096
)

// Event names with special meaning when a server sends SSE event lines.
const (
	eventDone  = "done"
	eventError = "error"
)

// EventError is returned when the server reports a failure inside the stream.
type EventError struct {
	Message string
}

func (e *EventError) Error() string {
	return "server reported stream error: " + e.Message
}

// Options configures an Ingester.
type Options struct {
	// Sentinel ends the reply. Defaults to DefaultSentinel.
	Sentinel string
	// Trim trims whitespace from every delta. Off by default so that
	// word-boundary spaces at the start of a delta survive.
	Trim bool
	// BufferSize is the read size. Defaults to DefaultBufferSize.
	BufferSize int
	Logger     *slog.Logger
}

// Stats summarizes one Ingest call.
type Stats struct {
	Bytes    int
	Reads    int
	Deltas   int
	Sentinel bool
}

// Ingester consumes streaming reply bodies.
type Ingester struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Ingester, filling in defaults.
func New(opts Options) *Ingester {
	if opts.Sentinel == "" {
		opts.Sentinel = DefaultSentinel
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		opts:   opts,
		logger: logger.With("component", "stream"),
	}
}

// Ingest reads body until EOF, calling onDelta for each text fragment in the
// order received and onSentinel when the end-of-stream marker is seen.
// Deltas after the sentinel are dropped. A read error other than io.EOF is
// returned wrapped; the context is checked between reads.
func (in *Ingester) Ingest(ctx context.Context, body io.Reader, onDelta func(string), onSentinel func()) (Stats, error) {
	p := &lineParser{
		opts:       in.opts,
		onDelta:    onDelta,
		onSentinel: onSentinel,
	}
	var dec Decoder
	buf := make([]byte, in.opts.BufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return p.stats, err
		}

		n, err := body.Read(buf)
		if n > 0 {
			p.stats.Bytes += n
			p.stats.Reads++
			if perr := p.feed(dec.Decode(buf[:n]), false); perr != nil {
				return p.stats, perr
			}
		}

		if errors.Is(err, io.EOF) {
			if perr := p.feed(dec.Flush(), true); perr != nil {
				return p.stats, perr
			}
			in.logger.Debug("stream complete",
				"bytes", p.stats.Bytes,
				"deltas", p.stats.Deltas,
				"sentinel", p.stats.Sentinel,
			)
			return p.stats, nil
		}
		if err != nil {
			return p.stats, fmt.Errorf("reading stream: %w", err)
		}
	}
}

// lineParser splits decoded text into lines and classifies them.
type lineParser struct {
	opts       Options
	onDelta    func(string)
	onSentinel func()

	carry     string // partial field line awaiting the rest of its bytes
	event     string // current SSE event name, reset by a blank line
	dataLines int    // data: fields seen in the current event
	newlines  int    // line breaks owed to the next delta
	stats     Stats
}

// feed processes one decoded fragment. When final is false, a trailing
// partial line that looks like an SSE field is kept for the next fragment;
// any other partial line is raw text and is forwarded immediately.
func (p *lineParser) feed(text string, final bool) error {
	data := p.carry + text
	p.carry = ""
	if data == "" {
		return nil
	}

	lines := strings.Split(data, "\n")
	tail := lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		if err := p.line(line); err != nil {
			return err
		}
	}

	if tail == "" {
		return nil
	}
	if !final && looksLikeField(tail) {
		p.carry = tail
		return nil
	}
	return p.line(tail)
}

func (p *lineParser) line(line string) error {
	line = strings.TrimSuffix(line, "\r")

	if strings.TrimSpace(line) == "" {
		p.event = ""
		p.dataLines = 0
		return nil
	}

	var payload string
	switch {
	case strings.HasPrefix(line, ":"):
		return nil
	case hasField(line, "event"):
		p.event = strings.TrimSpace(fieldValue(line, "event"))
		return nil
	case hasField(line, "id"), hasField(line, "retry"):
		return nil
	case hasField(line, "data"):
		payload = fieldValue(line, "data")
		// data fields of one event are joined by line breaks
		if p.dataLines > 0 {
			p.newlines++
		}
		p.dataLines++
	default:
		payload = line
	}

	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil
	}

	if trimmed == p.opts.Sentinel || p.event == eventDone {
		if !p.stats.Sentinel {
			p.stats.Sentinel = true
			if p.onSentinel != nil {
				p.onSentinel()
			}
		}
		return nil
	}

	if p.event == eventError {
		return &EventError{Message: trimmed}
	}

	if p.stats.Sentinel {
		return nil
	}

	if p.opts.Trim {
		payload = trimmed
	}
	if p.newlines > 0 {
		payload = strings.Repeat("\n", p.newlines) + payload
		p.newlines = 0
	}
	p.stats.Deltas++
	if p.onDelta != nil {
		p.onDelta(payload)
	}
	return nil
}

var fieldNames = []string{"data:", "event:", "id:", "retry:"}

// looksLikeField reports whether s is, or could grow into, an SSE field line.
func looksLikeField(s string) bool {
	if strings.HasPrefix(s, ":") {
		return true
	}
	for _, f := range fieldNames {
		if strings.HasPrefix(s, f) || strings.HasPrefix(f, s) {
			return true
		}
	}
	return false
}

func hasField(line, name string) bool {
	return strings.HasPrefix(line, name+":")
}

// fieldValue strips the field name, the colon and one optional space.
func fieldValue(line, name string) string {
	v := strings.TrimPrefix(line, name+":")
	return strings.TrimPrefix(v, " ")
}
