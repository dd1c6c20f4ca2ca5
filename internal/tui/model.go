// Package tui renders the reminder wizard as a Bubble Tea program. The model
// translates key presses into wizard operations and paints the wizard state;
// it holds no selection state of its own.
package tui

import (
	"errors"
	"fmt"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mark3labs/remindr/internal/logger"
	"github.com/mark3labs/remindr/internal/reminder"
	"github.com/mark3labs/remindr/internal/tui/theme"
	"github.com/mark3labs/remindr/internal/wizard"
)

// pane is the content pane shown under the template list.
type pane int

const (
	paneRendered pane = iota
	paneSource
	paneChanges
)

func (p pane) String() string {
	switch p {
	case paneSource:
		return "Source"
	case paneChanges:
		return "Changes"
	default:
		return "Rendered"
	}
}

// Options configures a Model.
type Options struct {
	Wizard *wizard.Wizard
	// Form is the host form; ctrl+s writes the wizard's output into it.
	Form *reminder.Form
	// FormPath is where the form is saved. Empty keeps the result in memory.
	FormPath string
}

// Model is the Bubble Tea model of the wizard.
type Model struct {
	w        *wizard.Wizard
	form     *reminder.Form
	formPath string

	// original is the form content at start, the base of the changes pane.
	original string

	width  int
	height int

	channelCursor  int
	templateCursor int

	pane     pane
	editing  bool
	showHelp bool
	spinning bool

	editor  textarea.Model
	preview viewport.Model
	spinner spinner.Model
	// previewKey identifies what the preview viewport currently shows.
	previewKey string

	status   string
	statusOK bool
	saved    bool
}

// New creates the model.
func New(opts Options) *Model {
	t := theme.Current()

	ta := textarea.New()
	ta.Placeholder = "Message content..."
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetWidth(60)
	ta.SetHeight(8)
	ta.KeyMap.LineNext = key.NewBinding(key.WithKeys("down"))
	styles := textarea.DefaultDarkStyles()
	styles.Cursor.Color = lipgloss.Color(t.Secondary)
	styles.Cursor.Shape = tea.CursorBlock
	styles.Cursor.Blink = true
	ta.SetStyles(styles)

	vp := viewport.New(
		viewport.WithWidth(60),
		viewport.WithHeight(8),
	)
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Primary))

	form := opts.Form
	if form == nil {
		form = &reminder.Form{}
	}

	m := &Model{
		w:        opts.Wizard,
		form:     form,
		formPath: opts.FormPath,
		original: form.Content,
		width:    100,
		height:   32,
		editor:   ta,
		preview:  vp,
		spinner:  s,
	}
	st := m.w.State()
	for i, c := range reminder.Channels {
		if c == st.Channel {
			m.channelCursor = i
		}
	}
	m.editor.SetValue(st.Content)
	m.layout()
	return m
}

// Saved reports whether the form was written back at least once.
func (m *Model) Saved() bool { return m.saved }

// Init issues the seeded fetches and starts listening on the bridge.
func (m *Model) Init() tea.Cmd {
	return m.after(tea.Batch(m.w.Init(), m.w.Bridge().Listen()))
}

// Update handles messages for the wizard UI.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyPressMsg:
		return m, m.after(m.handleKey(msg))

	case spinner.TickMsg:
		if m.w.State().Panel != wizard.PanelLoading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case contentEditedMsg:
		if msg.Err != nil {
			m.flash(fmt.Sprintf("Editor failed: %v", msg.Err), false)
			return m, nil
		}
		m.editor.SetValue(msg.Content)
		return m, m.after(m.w.SetContent(m.w.State().Subject, msg.Content))

	case wizard.ExternalChannelMsg:
		cmd := m.w.Update(msg)
		m.syncCursor()
		return m, m.after(tea.Batch(cmd, m.w.Bridge().Listen()))

	case wizard.ExternalTemplateMsg:
		cmd := m.w.Update(msg)
		m.flash(fmt.Sprintf("Template %s applied by another participant", msg.TemplateID), true)
		return m, m.after(tea.Batch(cmd, m.w.Bridge().Listen()))

	case wizard.ValidationMsg:
		cmd := m.w.Update(msg)
		return m, m.after(tea.Batch(cmd, m.w.Bridge().Listen()))
	}

	return m, m.after(m.w.Update(msg))
}

// after runs once per update: it keeps the widgets in step with the wizard
// state and starts the spinner when a fetch is in flight.
func (m *Model) after(cmd tea.Cmd) tea.Cmd {
	st := m.w.State()

	if !m.editing && m.editor.Value() != st.Content {
		m.editor.SetValue(st.Content)
	}
	if n := len(st.Templates); m.templateCursor >= n {
		m.templateCursor = max(0, n-1)
	}
	m.refreshPreview()

	if st.Panel == wizard.PanelLoading && !m.spinning {
		m.spinning = true
		return tea.Batch(cmd, m.spinner.Tick)
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	k := msg.String()

	if k == "ctrl+c" {
		m.w.Close()
		return tea.Quit
	}
	if k == "ctrl+s" {
		m.save()
		return nil
	}
	if m.showHelp {
		if k == "?" || k == "esc" || k == "q" {
			m.showHelp = false
		}
		return nil
	}
	if m.editing {
		return m.handleEditorKey(msg)
	}

	switch k {
	case "?":
		m.showHelp = true
		return nil
	case "p":
		m.w.TogglePreview()
		return nil
	case "v":
		m.w.ToggleLiveValidation()
		return nil
	case "a":
		m.w.ToggleAnimations()
		return nil
	case "tab":
		return m.next()
	case "shift+tab":
		m.previous()
		return nil
	case "esc":
		if m.w.State().Step == wizard.StepChannel {
			m.w.Close()
			return tea.Quit
		}
		m.previous()
		return nil
	}

	switch m.w.State().Step {
	case wizard.StepChannel:
		return m.handleChannelKey(k)
	case wizard.StepLevel:
		return m.handleLevelKey(k)
	default:
		return m.handleTemplateKey(msg)
	}
}

func (m *Model) handleChannelKey(k string) tea.Cmd {
	switch k {
	case "1", "e":
		m.channelCursor = 0
	case "2", "s":
		m.channelCursor = 1
	case "3", "l":
		m.channelCursor = 2
	case "up", "k":
		if m.channelCursor > 0 {
			m.channelCursor--
		}
		return nil
	case "down", "j":
		if m.channelCursor < len(reminder.Channels)-1 {
			m.channelCursor++
		}
		return nil
	case "enter", "space":
	default:
		return nil
	}
	return m.w.SelectChannel(reminder.Channels[m.channelCursor])
}

func (m *Model) handleLevelKey(k string) tea.Cmd {
	st := m.w.State()
	switch k {
	case "left", "h":
		m.w.SelectLevel(st.Level - 1)
	case "right", "l":
		m.w.SelectLevel(st.Level + 1)
	case "enter", "space":
		return m.w.CommitLevel(st.Level)
	case "1", "2", "3", "4", "5":
		return m.w.CommitLevel(reminder.Level(k[0] - '0'))
	}
	return nil
}

func (m *Model) handleTemplateKey(msg tea.KeyPressMsg) tea.Cmd {
	st := m.w.State()
	switch msg.String() {
	case "up", "k":
		if m.templateCursor > 0 {
			m.templateCursor--
		}
	case "down", "j":
		if m.templateCursor < len(st.Templates)-1 {
			m.templateCursor++
		}
	case "enter", "space":
		if len(st.Templates) == 0 {
			return nil
		}
		t := st.Templates[m.templateCursor]
		cmd, err := m.w.SelectTemplate(t.ID)
		switch {
		case errors.Is(err, wizard.ErrTemplateRejected):
			m.flash(fmt.Sprintf("%q does not conform to the %s rules", t.Name, st.Channel.Label()), false)
		case err != nil:
			m.flash(err.Error(), false)
		default:
			m.flash(fmt.Sprintf("Applied %q", t.Name), true)
		}
		return cmd
	case "r":
		return m.w.Retry()
	case "i":
		m.pane = paneSource
		m.editing = true
		return m.editor.Focus()
	case "ctrl+e":
		return openEditor(st.Content)
	case "]":
		m.pane = (m.pane + 1) % 3
	case "[":
		m.pane = (m.pane + 2) % 3
	default:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleEditorKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.editor.Blur()
		return nil
	case "ctrl+e":
		return openEditor(m.editor.Value())
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return tea.Batch(cmd, m.w.SetContent(m.w.State().Subject, m.editor.Value()))
}

func (m *Model) next() tea.Cmd {
	cmd, err := m.w.Next()
	if err != nil {
		logger.Debug("Next refused: %v", err)
		return nil
	}
	m.status = ""
	return cmd
}

func (m *Model) previous() {
	if err := m.w.Previous(); err != nil {
		logger.Debug("Previous refused: %v", err)
		return
	}
	m.status = ""
}

func (m *Model) save() {
	m.w.WriteBack(m.form)
	if m.formPath == "" {
		m.saved = true
		m.flash("Reminder ready", true)
		return
	}
	if err := m.form.Save(m.formPath); err != nil {
		logger.Error("Saving form: %v", err)
		m.flash(fmt.Sprintf("Saving failed: %v", err), false)
		return
	}
	m.saved = true
	m.flash("Saved to "+m.formPath, true)
}

func (m *Model) flash(s string, ok bool) {
	m.status = s
	m.statusOK = ok
}

func (m *Model) syncCursor() {
	ch := m.w.State().Channel
	for i, c := range reminder.Channels {
		if c == ch {
			m.channelCursor = i
		}
	}
}

// layout sizes the widgets for the current terminal.
func (m *Model) layout() {
	w := m.contentWidth() - 4
	h := max(4, m.height/4)
	m.editor.SetWidth(w)
	m.editor.SetHeight(h)
	m.preview.SetWidth(w)
	m.preview.SetHeight(h)
}

func (m *Model) contentWidth() int {
	w := m.width - 6
	if w > 110 {
		w = 110
	}
	if w < 50 {
		w = 50
	}
	return w
}

func (m *Model) refreshPreview() {
	st := m.w.State()
	k := fmt.Sprintf("%d/%d/%s", m.pane, m.preview.Width(), st.Content)
	if k == m.previewKey {
		return
	}
	m.previewKey = k

	switch m.pane {
	case paneChanges:
		m.preview.SetContent(renderChanges(m.original, st.Content))
	case paneSource:
		m.preview.SetContent(highlightSource(st.Content, st.Channel))
	default:
		if st.Content == "" {
			m.preview.SetContent(theme.Current().S().Muted.Render("Apply a template to fill in the message."))
			return
		}
		m.preview.SetContent(renderMarkdown(st.Content, m.preview.Width()))
	}
}
