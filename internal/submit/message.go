package submit

import (
	"bytes"
	"log/slog"

	"github.com/yuin/goldmark"
)

// RenderMessage renders the executor's feedback message (markdown) to
// HTML for the presentation layer. An empty message stays empty; a
// render failure falls back to the raw text rather than failing the
// submission.
func RenderMessage(markdown string) string {
	if markdown == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		slog.Warn("message render failed", "error", err)
		return markdown
	}
	return buf.String()
}
