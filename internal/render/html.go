// ABOUTME: HTML transcript export of a conversation
// ABOUTME: Converts message markdown with goldmark and wraps it in an embedded page template

package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/HarshalVankudre/digitalocean/internal/api"
	"github.com/HarshalVankudre/digitalocean/internal/messages"
)

//go:embed templates/transcript.html
var templateFS embed.FS

var transcriptTmpl = template.Must(template.ParseFS(templateFS, "templates/transcript.html"))

// HTML exports transcripts. Raw HTML inside messages is dropped.
type HTML struct {
	md  goldmark.Markdown
	now func() time.Time
}

// NewHTML creates an exporter with GitHub-flavoured markdown.
func NewHTML() *HTML {
	return &HTML{
		md:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		now: time.Now,
	}
}

type transcriptMessage struct {
	Role string
	Time string
	Body template.HTML
}

// Transcript writes conv and its messages as a standalone HTML document.
func (h *HTML) Transcript(w io.Writer, conv api.Conversation, msgs []messages.Message) error {
	data := struct {
		Title    string
		ID       string
		Exported string
		Messages []transcriptMessage
	}{
		Title:    conv.DisplayTitle(),
		ID:       conv.ID,
		Exported: h.now().UTC().Format(time.RFC3339),
	}

	for _, m := range msgs {
		var buf bytes.Buffer
		if err := h.md.Convert([]byte(m.Content), &buf); err != nil {
			return fmt.Errorf("converting message %s: %w", m.ID, err)
		}
		tm := transcriptMessage{
			Role: string(m.Role),
			Body: template.HTML(buf.String()),
		}
		if !m.CreatedAt.IsZero() {
			tm.Time = m.CreatedAt.UTC().Format("2006-01-02 15:04")
		}
		data.Messages = append(data.Messages, tm)
	}

	if err := transcriptTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	return nil
}
