package theme

import "charm.land/lipgloss/v2"

// Styles contains all pre-built lipgloss styles for the TUI.
type Styles struct {
	HeaderTitle lipgloss.Style
	StepActive  lipgloss.Style
	StepDone    lipgloss.Style
	StepPending lipgloss.Style

	Text   lipgloss.Style
	Bright lipgloss.Style
	Muted  lipgloss.Style
	Hint   lipgloss.Style
	Error  lipgloss.Style

	HintKey       lipgloss.Style
	HintDesc      lipgloss.Style
	HintSeparator lipgloss.Style

	Badge       lipgloss.Style
	Recommended lipgloss.Style

	StatusValid   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style

	Card         lipgloss.Style
	CardFocused  lipgloss.Style
	CardSelected lipgloss.Style
	CardDisabled lipgloss.Style

	ToggleOn  lipgloss.Style
	ToggleOff lipgloss.Style

	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	ButtonNormal   lipgloss.Style
	ButtonDisabled lipgloss.Style
	ButtonFocused  lipgloss.Style

	ModalContainer lipgloss.Style

	DiffInsert lipgloss.Style
	DiffDelete lipgloss.Style
	DiffHunk   lipgloss.Style
}
