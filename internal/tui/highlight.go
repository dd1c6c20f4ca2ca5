package tui

import (
	"bytes"
	"strings"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/mark3labs/remindr/internal/reminder"
	"github.com/mark3labs/remindr/internal/tui/theme"
)

// highlightSource syntax-highlights message source for the Source pane.
// Email content is lexed as HTML when it carries tags, everything else as
// markdown. Falls back to the plain source on any chroma failure.
func highlightSource(source string, channel reminder.Channel) string {
	var lexer chroma.Lexer
	if channel == reminder.ChannelEmail && strings.Contains(source, "</") {
		lexer = lexers.Get("html")
	} else {
		lexer = lexers.Get("markdown")
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Get("terminal256")
	}
	if formatter == nil {
		return source
	}

	baseStyle := styles.Get("catppuccin-mocha")
	if baseStyle == nil {
		baseStyle = styles.Fallback
	}

	// Token backgrounds follow the app background so the pane reads as one block.
	bg := chroma.MustParseColour(theme.Current().BgBase)
	style, err := baseStyle.Builder().Transform(func(entry chroma.StyleEntry) chroma.StyleEntry {
		entry.Background = bg
		return entry
	}).Build()
	if err != nil {
		style = baseStyle
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return source
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return source
	}
	return strings.TrimRight(buf.String(), "\n")
}
