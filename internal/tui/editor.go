package tui

import (
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/editor"

	"github.com/mark3labs/remindr/internal/logger"
)

// contentEditedMsg is sent when the external editor returns.
type contentEditedMsg struct {
	Content string
	Err     error
}

// openEditor launches the user's $EDITOR on content.
func openEditor(content string) tea.Cmd {
	tmpfile, err := os.CreateTemp("", "remindr_content_*.md")
	if err != nil {
		return errCmd(err)
	}
	path := tmpfile.Name()

	if _, err := tmpfile.WriteString(content); err != nil {
		_ = tmpfile.Close()
		_ = os.Remove(path)
		return errCmd(err)
	}
	_ = tmpfile.Close()

	cmd, err := editor.Command("remindr", path)
	if err != nil {
		_ = os.Remove(path)
		return errCmd(err)
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		defer func() { _ = os.Remove(path) }()
		if err != nil {
			return contentEditedMsg{Err: err}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return contentEditedMsg{Err: err}
		}
		return contentEditedMsg{Content: string(data)}
	})
}

func errCmd(err error) tea.Cmd {
	logger.Warn("Opening editor: %v", err)
	return func() tea.Msg { return contentEditedMsg{Err: err} }
}
