package narrative

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	html := renderMarkdown("Look *behind* you.")
	if !strings.Contains(html, "<em>behind</em>") {
		t.Errorf("emphasis not rendered: %q", html)
	}

	html = renderMarkdown("A **heavy** door.")
	if !strings.Contains(html, "<strong>heavy</strong>") {
		t.Errorf("strong not rendered: %q", html)
	}

	if got := renderMarkdown(""); got != "" {
		t.Errorf("empty input rendered %q", got)
	}
}
