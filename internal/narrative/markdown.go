package narrative

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
)

var md = goldmark.New()

// renderMarkdown converts authored dialogue/narration Markdown into the
// HTML fragment the UI renders. On a conversion error the raw text is
// passed through; a bad asterisk should never stall the story.
func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return strings.TrimSpace(buf.String())
}
