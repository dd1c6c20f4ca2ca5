package tui

import (
	"strings"

	"github.com/mark3labs/remindr/internal/tui/theme"
	"github.com/mark3labs/remindr/internal/wizard"
)

// Standard key representations for consistent hints across the app.
const (
	KeyUpDown    = "↑/↓"
	KeyLeftRight = "←/→"
	KeyEnter     = "enter"
	KeyEsc       = "esc"
	KeyTab       = "tab"
	KeyShiftTab  = "shift+tab"
	KeyCtrlC     = "ctrl+c"
	KeyCtrlE     = "ctrl+e"
	KeyCtrlS     = "ctrl+s"
	KeyTabs      = "[/]"
	KeyHelp      = "?"
)

// RenderHint renders a single key-description pair.
// Example: RenderHint("enter", "select") -> "enter select"
func RenderHint(key, desc string) string {
	s := theme.Current().S()
	return s.HintKey.Render(key) + " " + s.HintDesc.Render(desc)
}

// RenderHintBar renders a hint bar with multiple key-description pairs.
// Pairs are separated by a bullet.
// Example: RenderHintBar("↑/↓", "move", "enter", "select", "esc", "back")
// Returns: "↑/↓ move • enter select • esc back"
func RenderHintBar(pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return ""
	}

	s := theme.Current().S()
	var b strings.Builder
	for i := 0; i < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString(" " + s.HintSeparator.Render("•") + " ")
		}
		b.WriteString(RenderHint(pairs[i], pairs[i+1]))
	}
	return b.String()
}

// stepHints returns the hint bar for the active step.
func stepHints(step wizard.Step, editing bool) string {
	if editing {
		return RenderHintBar(KeyEsc, "stop editing", KeyCtrlE, "$EDITOR", KeyCtrlS, "save")
	}
	switch step {
	case wizard.StepChannel:
		return RenderHintBar("1-3/e s l", "channel", KeyUpDown, "move", KeyEnter, "select", KeyHelp, "help", KeyCtrlC, "quit")
	case wizard.StepLevel:
		return RenderHintBar(KeyLeftRight, "level", "1-5/"+KeyEnter, "confirm", KeyTab, "next", KeyShiftTab, "back", KeyHelp, "help")
	default:
		return RenderHintBar(KeyUpDown, "move", KeyEnter, "apply", "i", "edit", KeyTabs, "pane", "r", "retry", KeyCtrlS, "save", KeyHelp, "help")
	}
}

// helpLines lists every shortcut for the help modal.
var helpLines = [][2]string{
	{"1 2 3 / e s l", "choose email, SMS or letter"},
	{KeyLeftRight + " / h l", "move the urgency level"},
	{"1-5 / " + KeyEnter, "confirm the urgency level"},
	{KeyTab + " / " + KeyShiftTab, "next / previous step"},
	{KeyUpDown + " / j k", "move between templates"},
	{KeyEnter, "apply the focused template"},
	{"i", "edit the message content"},
	{KeyCtrlE, "edit the content in $EDITOR"},
	{KeyTabs, "switch rendered / source / changes"},
	{"r", "retry loading templates"},
	{"p v a", "toggle preview, live validation, animations"},
	{KeyCtrlS, "write the reminder back to the form"},
	{KeyEsc + " / " + KeyCtrlC, "back / quit"},
}
