// ABOUTME: Terminal presentation of the message sequence with role headers and markdown
// ABOUTME: Streams raw deltas as snapshots arrive and renders finished messages with glamour

package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/HarshalVankudre/digitalocean/internal/messages"
)

// Options configures a Terminal.
type Options struct {
	// Style is a glamour style name; "auto" picks by terminal background.
	Style string
	// WordWrap is the markdown wrap width; 0 disables wrapping.
	WordWrap int
	// NoColor disables role header colours.
	NoColor bool
}

// Terminal writes messages to a terminal.
type Terminal struct {
	out io.Writer
	md  *glamour.TermRenderer

	user      *color.Color
	assistant *color.Color
	muted     *color.Color

	mu       sync.Mutex
	streamID string // assistant message currently being streamed
	printed  int    // bytes of streamID's content already written
	streamed string // last message that finished streaming
}

// NewTerminal creates a Terminal writing to out.
func NewTerminal(out io.Writer, opts Options) (*Terminal, error) {
	styleOpt := glamour.WithAutoStyle()
	if opts.Style != "" && opts.Style != "auto" {
		styleOpt = glamour.WithStylePath(opts.Style)
	}
	md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(opts.WordWrap))
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}

	t := &Terminal{
		out:       out,
		md:        md,
		user:      color.New(color.FgGreen, color.Bold),
		assistant: color.New(color.FgCyan, color.Bold),
		muted:     color.New(color.FgHiBlack),
	}
	if opts.NoColor {
		t.user.DisableColor()
		t.assistant.DisableColor()
		t.muted.DisableColor()
	}
	return t, nil
}

// Header writes the role label for a message.
func (t *Terminal) Header(role messages.Role) {
	switch role {
	case messages.RoleUser:
		t.user.Fprintln(t.out, "You")
	case messages.RoleAssistant:
		t.assistant.Fprintln(t.out, "Assistant")
	default:
		t.muted.Fprintln(t.out, string(role))
	}
}

// Message writes a finished message. Assistant content is rendered as
// markdown; user content is written as typed.
func (t *Terminal) Message(m messages.Message) {
	t.Header(m.Role)
	if m.Role != messages.RoleAssistant {
		fmt.Fprintln(t.out, m.Content)
		fmt.Fprintln(t.out)
		return
	}
	fmt.Fprint(t.out, t.Markdown(m.Content))
}

// Markdown renders content, falling back to the raw text on renderer errors.
func (t *Terminal) Markdown(content string) string {
	rendered, err := t.md.Render(content)
	if err != nil {
		return content + "\n"
	}
	return rendered
}

// History writes a whole conversation.
func (t *Terminal) History(msgs []messages.Message) {
	if len(msgs) == 0 {
		t.Notice("(no messages yet)")
		return
	}
	for _, m := range msgs {
		t.Message(m)
	}
}

// Notice writes a muted informational line.
func (t *Terminal) Notice(format string, args ...any) {
	t.muted.Fprintf(t.out, format+"\n", args...)
}

// Observe is a messages.Store subscriber. It writes the new part of a
// streaming assistant message as each snapshot arrives, terminates the line
// when streaming ends, and notes a partial reply that was withdrawn.
func (t *Terminal) Observe(snap []messages.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var last *messages.Message
	if len(snap) > 0 {
		last = &snap[len(snap)-1]
	}

	if last != nil && last.Streaming && last.Role == messages.RoleAssistant {
		if last.ID != t.streamID {
			t.Header(messages.RoleAssistant)
			t.streamID = last.ID
			t.printed = 0
		}
		if len(last.Content) > t.printed {
			fmt.Fprint(t.out, last.Content[t.printed:])
			t.printed = len(last.Content)
		}
		return
	}

	if t.streamID == "" {
		return
	}

	if m, ok := find(snap, t.streamID); ok {
		if !strings.HasSuffix(m.Content, "\n") {
			fmt.Fprintln(t.out)
		}
		fmt.Fprintln(t.out)
		t.streamed = t.streamID
	} else {
		fmt.Fprintln(t.out)
		t.muted.Fprintln(t.out, "(reply withdrawn)")
	}
	t.streamID = ""
	t.printed = 0
}

// Finish writes the reply after a completed submission unless it was
// already streamed to the terminal.
func (t *Terminal) Finish(reply messages.Message) {
	t.mu.Lock()
	streamed := t.streamed == reply.ID
	t.mu.Unlock()

	if !streamed {
		t.Message(reply)
	}
}

func find(snap []messages.Message, id string) (messages.Message, bool) {
	for _, m := range snap {
		if m.ID == id {
			return m, true
		}
	}
	return messages.Message{}, false
}
