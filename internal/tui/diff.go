package tui

import (
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/mark3labs/remindr/internal/tui/theme"
)

// renderChanges renders a unified diff between the content the form held
// when the wizard started and the current content.
func renderChanges(before, after string) string {
	s := theme.Current().S()
	if before == after {
		return s.Muted.Render("No changes to the form content.")
	}

	diff := udiff.Unified("form", "reminder", ensureNewline(before), ensureNewline(after))
	lines := strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = s.Muted.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = s.DiffHunk.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = s.DiffInsert.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = s.DiffDelete.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
