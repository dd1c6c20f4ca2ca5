package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/mark3labs/remindr/internal/reminder"
	"github.com/mark3labs/remindr/internal/tui/theme"
	"github.com/mark3labs/remindr/internal/wizard"
)

// View renders the wizard UI.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true

	content := m.render()
	if m.showHelp {
		content = m.renderHelp()
	}

	canvas := uv.NewScreenBuffer(m.width, m.height)
	uv.NewStyledString(content).Draw(canvas, uv.Rectangle{
		Min: uv.Position{X: 0, Y: 0},
		Max: uv.Position{X: m.width, Y: m.height},
	})

	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

// render lays out header, toolbar, step body, hint and button rows.
func (m *Model) render() string {
	st := m.w.State()
	s := theme.Current().S()
	width := m.contentWidth()

	var sections []string
	sections = append(sections, m.renderHeader(st), m.renderToolbar(st), "")

	switch st.Step {
	case wizard.StepChannel:
		sections = append(sections, m.renderChannelStep(st))
	case wizard.StepLevel:
		sections = append(sections, m.renderLevelStep(st))
	default:
		sections = append(sections, m.renderTemplateStep(st))
	}

	sections = append(sections, "")
	if st.Hint != "" {
		sections = append(sections, s.Hint.Render("⚠ "+st.Hint))
	}
	if m.status != "" {
		if m.statusOK {
			sections = append(sections, s.StatusValid.Render("✓ "+m.status))
		} else {
			sections = append(sections, s.Error.Render("✗ "+m.status))
		}
	}

	nextLabel := "Next →"
	if st.Step == wizard.StepTemplate {
		nextLabel = "Save"
	}
	nextEnabled := st.CanEnter(st.Step + 1)
	if st.Step == wizard.StepTemplate {
		nextEnabled = st.SelectedTemplateID != "" || st.Content != ""
	}
	buttons := CreateBackNextButtons(st.Step > wizard.StepChannel, nextEnabled, nextLabel)
	sections = append(sections, NewButtonBar(buttons, width).Render(), stepHints(st.Step, m.editing))

	return lipgloss.NewStyle().Padding(1, 3).Render(strings.Join(sections, "\n"))
}

func (m *Model) renderHeader(st wizard.State) string {
	s := theme.Current().S()

	var steps []string
	for _, step := range []wizard.Step{wizard.StepChannel, wizard.StepLevel, wizard.StepTemplate} {
		label := fmt.Sprintf("%d %s", step, step.Title())
		switch {
		case step == st.Step:
			steps = append(steps, s.StepActive.Render(label))
		case step < st.Step:
			steps = append(steps, s.StepDone.Render("✓ "+label))
		default:
			steps = append(steps, s.StepPending.Render(label))
		}
	}

	title := s.HeaderTitle.Render("Membership due reminder")
	if id := st.SubjectID(); id != "" {
		title += s.Muted.Render("  " + id)
	}
	return title + "\n" + strings.Join(steps, s.HintSeparator.Render(" ─ "))
}

func (m *Model) renderToolbar(st wizard.State) string {
	s := theme.Current().S()
	toggle := func(key, label string, on bool) string {
		style := s.ToggleOff
		if on {
			style = s.ToggleOn
		}
		return s.HintKey.Render(key) + " " + style.Render(label)
	}
	return strings.Join([]string{
		toggle("p", "preview", st.Flags.Preview),
		toggle("v", "live validation", st.Flags.LiveValidation),
		toggle("a", "animations", st.Flags.Animations),
	}, "   ")
}

func (m *Model) renderChannelStep(st wizard.State) string {
	s := theme.Current().S()

	var b strings.Builder
	b.WriteString(s.Bright.Render("How should the reminder be sent?"))
	b.WriteString("\n\n")
	for i, c := range reminder.Channels {
		cursor := "  "
		if i == m.channelCursor {
			cursor = s.HeaderTitle.Render("› ")
		}
		mark := " "
		if c == st.Channel {
			mark = s.StatusValid.Render("●")
		}
		fmt.Fprintf(&b, "%s%s %d %s %s  %s\n", cursor, mark, i+1, c.Icon(),
			s.Text.Render(c.Label()), s.Muted.Render(c.Description()))
	}

	if st.Channel.Valid() {
		b.WriteString("\n")
		b.WriteString(m.renderConstraints(st))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *Model) renderConstraints(st wizard.State) string {
	s := theme.Current().S()
	switch {
	case st.ConstraintsErr != nil:
		return s.Error.Render("Channel rules unavailable: " + st.ConstraintsErr.Error())
	case st.Constraints == nil:
		return s.Muted.Render("Loading channel rules…")
	}

	var badges []string
	for _, badge := range st.Constraints.Summary() {
		badges = append(badges, s.Badge.Render(badge))
	}
	return s.Muted.Render(st.Channel.Label()+" rules ") + strings.Join(badges, " ")
}

func (m *Model) renderLevelStep(st wizard.State) string {
	th := theme.Current()
	s := th.S()

	var b strings.Builder
	b.WriteString(s.Bright.Render("Urgency level"))
	b.WriteString(s.Muted.Render("  " + st.Channel.Icon() + " " + st.Channel.Label()))
	b.WriteString("\n\n")

	n := int(reminder.MaxLevel)
	var gauge []string
	for l := reminder.MinLevel; l <= reminder.MaxLevel; l++ {
		color := th.LevelColor(int(l-reminder.MinLevel), n)
		cell := lipgloss.NewStyle().Padding(0, 1)
		if l <= st.Level {
			cell = cell.Background(lipgloss.Color(color)).Foreground(lipgloss.Color(th.BgBase))
		} else {
			cell = cell.Foreground(lipgloss.Color(color))
		}
		if l == st.Level {
			cell = cell.Bold(true)
		}
		gauge = append(gauge, cell.Render(fmt.Sprintf("%d", l)))
	}
	b.WriteString(strings.Join(gauge, " "))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s  %s\n", s.Text.Render(fmt.Sprintf("Level %d · %s", st.Level, st.Level.Label())),
		s.Muted.Render(st.Level.Description()))
	if st.LevelCommitted {
		b.WriteString(s.StatusValid.Render("✓ Confirmed"))
	} else {
		b.WriteString(s.Muted.Render("Press enter to confirm"))
	}
	b.WriteString("\n")

	rec := st.RecommendedLevel()
	line := fmt.Sprintf("Recommended: level %d (%s)", rec, rec.Label())
	if days := st.DaysOverdue(); days > 0 {
		line += fmt.Sprintf(" for %d days overdue", days)
	}
	b.WriteString(s.Recommended.Render(line))
	return b.String()
}

func (m *Model) renderTemplateStep(st wizard.State) string {
	s := theme.Current().S()
	width := m.contentWidth()

	var b strings.Builder
	b.WriteString(s.Bright.Render("Template"))
	b.WriteString(s.Muted.Render(fmt.Sprintf("  %s %s · level %d %s",
		st.Channel.Icon(), st.Channel.Label(), st.Level, st.Level.Label())))
	b.WriteString("\n\n")

	switch st.Panel {
	case wizard.PanelLoading:
		if st.Flags.Animations {
			b.WriteString(m.spinner.View() + " ")
		}
		b.WriteString(s.Muted.Render("Loading templates…"))
	case wizard.PanelError:
		b.WriteString(s.Error.Render("Could not load templates: " + errString(st.PanelErr)))
		b.WriteString("\n")
		b.WriteString(RenderHint("r", "retry"))
	case wizard.PanelEmpty:
		fmt.Fprintf(&b, "%s", s.Muted.Render(fmt.Sprintf(
			"No conforming template for %s at level %d.", st.Channel.Label(), st.Level)))
		if len(st.Templates) > 0 {
			b.WriteString("\n\n")
			b.WriteString(m.renderCards(st, width))
		}
	case wizard.PanelReady:
		b.WriteString(s.StatusValid.Render(fmt.Sprintf("%d template(s) fully conforming", st.Conforming())))
		b.WriteString(s.Muted.Render(fmt.Sprintf(" of %d", len(st.Templates))))
		b.WriteString("\n")
		b.WriteString(m.renderCards(st, width))
	default:
		b.WriteString(s.Muted.Render("Confirm a level to load templates."))
	}

	if st.ExternalTemplateID != "" {
		b.WriteString("\n")
		b.WriteString(s.Muted.Render("Applied elsewhere: " + st.ExternalTemplateID))
	}

	if v := m.renderValidation(st); v != "" {
		b.WriteString("\n")
		b.WriteString(v)
	}

	if st.Flags.Preview || m.editing {
		b.WriteString("\n\n")
		b.WriteString(m.renderContentPane(st))
	}
	return b.String()
}

func (m *Model) renderCards(st wizard.State, width int) string {
	s := theme.Current().S()

	var cards []string
	for i, t := range st.Templates {
		var lines []string

		title := s.Text.Bold(true).Render(t.Name)
		if t.Recommended {
			title += " " + s.Recommended.Render("Recommended")
		}
		lines = append(lines, title)

		meta := []string{
			statusStyle(t.Status).Render(t.Status.Label()),
			fmt.Sprintf("%d chars", t.FullBodyLength),
			"levels " + t.LevelRange(),
		}
		if t.Score != nil {
			meta = append(meta, fmt.Sprintf("score %d", *t.Score))
		}
		lines = append(lines, s.Muted.Render(strings.Join(meta, " · ")))

		for _, w := range t.Warnings {
			lines = append(lines, s.StatusWarning.Render("! "+w))
		}
		if st.Flags.Preview && t.BodyPreview != "" {
			lines = append(lines, s.Muted.Italic(true).Render(t.BodyPreview))
		}

		style := s.Card
		switch {
		case !t.Status.Selectable():
			style = s.CardDisabled
		case t.ID == st.SelectedTemplateID:
			style = s.CardSelected
		case i == m.templateCursor:
			style = s.CardFocused
		}
		if i == m.templateCursor && !t.Status.Selectable() {
			style = style.BorderForeground(lipgloss.Color(theme.Current().Error))
		}
		cards = append(cards, style.Width(width-4).Render(strings.Join(lines, "\n")))
	}
	return strings.Join(cards, "\n")
}

func (m *Model) renderValidation(st wizard.State) string {
	if !st.Flags.LiveValidation || st.Validation == nil || st.Validation.Channel != st.Channel {
		return ""
	}
	s := theme.Current().S()
	v := st.Validation

	line := statusStyle(v.Status).Render("Live check: "+v.Status.Label()) +
		s.Muted.Render(fmt.Sprintf(" · %d chars · score %d", v.Length, v.Score))
	lines := []string{line}
	for _, e := range v.Errors {
		lines = append(lines, s.StatusError.Render("✗ "+e))
	}
	for _, w := range v.Warnings {
		lines = append(lines, s.StatusWarning.Render("! "+w))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderContentPane(st wizard.State) string {
	s := theme.Current().S()

	var tabs []string
	for _, p := range []pane{paneRendered, paneSource, paneChanges} {
		if p == m.pane {
			tabs = append(tabs, s.TabActive.Render(p.String()))
		} else {
			tabs = append(tabs, s.TabInactive.Render(p.String()))
		}
	}

	header := strings.Join(tabs, "  ")
	if st.Subject != "" {
		header += s.Muted.Render("   Subject: ") + s.Text.Render(st.Subject)
	}

	var body string
	if m.editing {
		body = m.editor.View()
	} else {
		body = m.preview.View()
	}
	return header + "\n" + body
}

func (m *Model) renderHelp() string {
	s := theme.Current().S()

	var lines []string
	lines = append(lines, s.HeaderTitle.Render("Keyboard shortcuts"), "")
	for _, h := range helpLines {
		lines = append(lines, s.HintKey.Width(22).Render(h[0])+" "+s.HintDesc.Render(h[1]))
	}
	lines = append(lines, "", RenderHintBar("?/esc", "close"))

	modal := s.ModalContainer.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func statusStyle(status reminder.ValidationStatus) lipgloss.Style {
	s := theme.Current().S()
	switch status {
	case reminder.StatusWarning:
		return s.StatusWarning
	case reminder.StatusError:
		return s.StatusError
	default:
		return s.StatusValid
	}
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
