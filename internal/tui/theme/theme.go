package theme

import (
	"sync"

	"charm.land/lipgloss/v2"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name   string
	IsDark bool

	// Semantic colors
	Primary   string // lipgloss.Color is a string type
	Secondary string
	Tertiary  string

	// Background hierarchy (dark→light)
	BgBase     string
	BgMantle   string
	BgSurface0 string
	BgSurface1 string
	BgSurface2 string

	// Foreground hierarchy (dim→bright)
	FgMuted  string
	FgSubtle string
	FgBase   string
	FgBright string

	// Status colors
	Success string
	Warning string
	Error   string
	Info    string

	// Diff colors
	DiffInsertBg string
	DiffDeleteBg string

	// Lazy-built styles
	styles     *Styles
	stylesOnce sync.Once
}

var (
	currentMu sync.RWMutex
	current   = NewCatppuccinMocha()
)

// Current returns the active theme.
func Current() *Theme {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetCurrent replaces the active theme.
func SetCurrent(t *Theme) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = t
}

// S returns the pre-built styles for this theme.
// Styles are lazily initialized on first call.
func (t *Theme) S() *Styles {
	t.stylesOnce.Do(func() {
		t.styles = t.buildStyles()
	})
	return t.styles
}

// LevelColor returns the gauge color for position pos of n, from Success
// (calm) to Error (formal notice).
func (t *Theme) LevelColor(pos, n int) string {
	if n <= 1 {
		return t.Success
	}
	return InterpolateColor(t.Success, t.Error, float64(pos)/float64(n-1))
}

// buildStyles constructs the pre-built styles from theme colors.
func (t *Theme) buildStyles() *Styles {
	button := lipgloss.NewStyle().Padding(0, 2).MarginLeft(1).MarginRight(1)
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	return &Styles{
		HeaderTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Primary)).
			Bold(true),
		StepActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.BgBase)).
			Background(lipgloss.Color(t.Primary)).
			Bold(true).
			Padding(0, 1),
		StepDone: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Padding(0, 1),
		StepPending: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.FgMuted)).
			Padding(0, 1),

		Text:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgBase)),
		Bright: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgBright)).Bold(true),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
		Hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Italic(true),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Error)),

		HintKey: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.FgSubtle)).
			Bold(true),
		HintDesc:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
		HintSeparator: lipgloss.NewStyle().Foreground(lipgloss.Color(t.BgSurface2)),

		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.FgBase)).
			Background(lipgloss.Color(t.BgSurface0)).
			Padding(0, 1),
		Recommended: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.BgBase)).
			Background(lipgloss.Color(t.Tertiary)).
			Bold(true).
			Padding(0, 1),

		StatusValid:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)).Bold(true),
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)).Bold(true),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Error)).Bold(true),

		Card:         card.BorderForeground(lipgloss.Color(t.BgSurface1)),
		CardFocused:  card.BorderForeground(lipgloss.Color(t.Tertiary)),
		CardSelected: card.BorderForeground(lipgloss.Color(t.Success)),
		CardDisabled: card.
			BorderForeground(lipgloss.Color(t.BgSurface0)).
			Foreground(lipgloss.Color(t.FgMuted)),

		ToggleOn:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)),
		ToggleOff: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)).Strikethrough(true),

		TabActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Primary)).
			Bold(true).
			Underline(true),
		TabInactive: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),

		ButtonNormal: button.
			Foreground(lipgloss.Color(t.FgBase)).
			Background(lipgloss.Color(t.BgSurface0)),
		ButtonDisabled: button.
			Foreground(lipgloss.Color(t.FgMuted)).
			Background(lipgloss.Color(t.BgMantle)),
		ButtonFocused: button.
			Foreground(lipgloss.Color(t.BgBase)).
			Background(lipgloss.Color(t.Tertiary)).
			Bold(true),

		ModalContainer: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Tertiary)).
			Padding(1, 2),

		DiffInsert: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Background(lipgloss.Color(t.DiffInsertBg)),
		DiffDelete: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Error)).
			Background(lipgloss.Color(t.DiffDeleteBg)),
		DiffHunk: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Info)),
	}
}
