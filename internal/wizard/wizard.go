// Package wizard is the reminder composition core: a three step cascade
// (channel, urgency level, template) kept consistent with the validation
// subsystem and fed by a race-free template resolver.
//
// All operations run on the Bubble Tea update loop. Network work and bus
// publishing happen in the returned commands, whose results come back as
// messages through Update.
package wizard

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/mark3labs/remindr/internal/logger"
	"github.com/mark3labs/remindr/internal/message"
	"github.com/mark3labs/remindr/internal/reminder"
	"github.com/mark3labs/remindr/internal/rules"
)

// Options configures a Wizard.
type Options struct {
	Catalog Catalog
	// Bridge links to the validation subsystem; nil runs standalone.
	Bridge *Bridge
	// Form seeds the initial selections. It is read once.
	Form  *reminder.Form
	Flags Flags

	// Debounce is the quiet period for level commits and content edits.
	Debounce time.Duration
	// TransitionDelay is the cosmetic delay before leaving step 1.
	TransitionDelay time.Duration
	// FetchTimeout bounds each fetch; zero leaves it to the catalog.
	FetchTimeout time.Duration

	// Messages renders templates into the host form fields.
	Messages *message.Builder
}

// Wizard owns a State and implements the navigation operations.
type Wizard struct {
	state State

	ctx    context.Context
	cancel context.CancelFunc

	catalog  Catalog
	bridge   *Bridge
	resolver *Resolver
	debounce *Debouncer
	messages *message.Builder

	transitionDelay time.Duration

	// navGen invalidates delayed auto-advances once the user navigates.
	navGen int

	constraintSeq    int
	constraintCancel context.CancelFunc

	// seedTemplateID is the form's template, selected once templates arrive.
	seedTemplateID string
}

// New creates a wizard seeded from opts.Form.
func New(opts Options) *Wizard {
	ctx, cancel := context.WithCancel(context.Background())

	msgs := opts.Messages
	if msgs == nil {
		msgs = message.NewBuilder(7, message.DefaultDateFormat)
	}

	w := &Wizard{
		ctx:             ctx,
		cancel:          cancel,
		catalog:         opts.Catalog,
		bridge:          opts.Bridge,
		debounce:        NewDebouncer(opts.Debounce),
		messages:        msgs,
		transitionDelay: opts.TransitionDelay,
	}
	if w.bridge == nil {
		w.bridge = NewBridge(nil)
	}

	w.state = State{
		Level: reminder.MinLevel,
		Flags: opts.Flags,
		Step:  StepChannel,
	}

	if f := opts.Form; f != nil {
		w.state.subjectID = f.SubjectID
		w.state.daysOverdue = f.DaysOverdue
		w.state.recipients = f.Recipients
		w.state.Subject = f.Subject
		w.state.Content = f.Content
		if f.Channel.Valid() {
			w.state.Channel = f.Channel
		}
		if f.Level.Valid() {
			w.state.Level = f.Level
			w.state.LevelCommitted = true
		}
		w.seedTemplateID = f.TemplateID
	}

	// Start on the furthest step the seeded values allow.
	for _, step := range []Step{StepLevel, StepTemplate} {
		if w.state.CanEnter(step) {
			w.state.Step = step
		}
	}

	w.resolver = NewResolver(opts.Catalog, w.state.subjectID, opts.FetchTimeout)
	return w
}

// State returns a snapshot of the wizard state.
func (w *Wizard) State() State {
	return w.state
}

// Bridge returns the bridge the wizard publishes on.
func (w *Wizard) Bridge() *Bridge {
	return w.bridge
}

// Init issues the fetches the seeded state needs.
func (w *Wizard) Init() tea.Cmd {
	var cmds []tea.Cmd
	if w.state.Channel.Valid() {
		cmds = append(cmds, w.fetchConstraints())
	}
	if w.state.Step == StepTemplate {
		cmds = append(cmds, w.resolver.Request(w.ctx, &w.state))
	}
	return tea.Batch(cmds...)
}

// Close cancels every in-flight request.
func (w *Wizard) Close() {
	w.resolver.Invalidate()
	if w.constraintCancel != nil {
		w.constraintCancel()
	}
	w.cancel()
}

// SelectChannel sets the channel chosen by the user. Templates and the
// selection are cleared, the channel is announced on the bridge, constraints
// are fetched immediately, and step 1 advances to step 2 after the
// transition delay.
func (w *Wizard) SelectChannel(c reminder.Channel) tea.Cmd {
	return w.selectChannel(c, true)
}

func (w *Wizard) selectChannel(c reminder.Channel, announce bool) tea.Cmd {
	if !c.Valid() {
		return nil
	}
	if c == w.state.Channel {
		// Re-selecting the current channel still completes step 1.
		if w.state.Step == StepChannel {
			return w.scheduleAdvance()
		}
		return nil
	}

	logger.Debug("Channel %s -> %s (announce=%v)", w.state.Channel, c, announce)
	w.state.Channel = c
	w.seedTemplateID = ""
	w.state.Hint = ""
	w.state.Constraints = nil
	w.state.ConstraintsErr = nil
	w.state.clearTemplates()
	w.resolver.Invalidate()
	w.resolver.Forget()
	w.debounce.Cancel(debounceLevel)

	cmds := []tea.Cmd{w.fetchConstraints()}
	if announce {
		cmds = append(cmds, w.bridge.PublishChannelSelected(w.ctx, c))
	}

	switch w.state.Step {
	case StepChannel:
		cmds = append(cmds, w.scheduleAdvance())
	case StepTemplate:
		if w.state.CanEnter(StepTemplate) {
			cmds = append(cmds, w.resolver.Request(w.ctx, &w.state))
		}
	}
	return tea.Batch(cmds...)
}

// scheduleAdvance moves step 1 to step 2, after the transition delay when
// animations are on.
func (w *Wizard) scheduleAdvance() tea.Cmd {
	w.navGen++
	if !w.state.Flags.Animations || w.transitionDelay <= 0 {
		w.state.Step = StepLevel
		return nil
	}
	gen := w.navGen
	return tea.Tick(w.transitionDelay, func(time.Time) tea.Msg {
		return advanceMsg{gen: gen}
	})
}

// SelectLevel updates the displayed level without fetching.
func (w *Wizard) SelectLevel(n reminder.Level) {
	n = n.Clamp()
	if n == w.state.Level {
		return
	}
	w.state.Level = n
	w.state.LevelCommitted = false
	w.state.clearTemplates()
	w.resolver.Invalidate()
	w.debounce.Cancel(debounceLevel)
}

// CommitLevel finalizes the level. Once the quiet period settles, exactly
// one template fetch is issued for the current pair.
func (w *Wizard) CommitLevel(n reminder.Level) tea.Cmd {
	n = n.Clamp()
	if n != w.state.Level {
		w.state.Level = n
		w.state.clearTemplates()
		w.resolver.Invalidate()
	}
	w.state.LevelCommitted = true
	w.state.Hint = ""
	if !w.state.Channel.Valid() {
		return nil
	}
	return w.debounce.Trigger(debounceLevel)
}

// Next advances one step. It is refused, with a hint stored in the state,
// when the current step's selection is missing.
func (w *Wizard) Next() (tea.Cmd, error) {
	from := w.state.Step
	if from == StepTemplate {
		return nil, w.refuse(from, from, "This is the last step: press ctrl+s to fill in the form")
	}
	to := from + 1
	if !w.state.CanEnter(to) {
		hint := "Choose a channel first"
		if from == StepLevel {
			hint = "Confirm an urgency level first (enter or 1-5)"
		}
		return nil, w.refuse(from, to, hint)
	}

	w.navGen++
	w.state.Step = to
	w.state.Hint = ""
	logger.Debug("Step %d -> %d", from, to)

	if to == StepTemplate {
		return w.enterTemplates(), nil
	}
	return nil, nil
}

// enterTemplates fetches for the current pair unless that fetch already
// happened or is about to.
func (w *Wizard) enterTemplates() tea.Cmd {
	if w.debounce.Pending(debounceLevel) {
		w.debounce.Cancel(debounceLevel)
		return w.resolver.Request(w.ctx, &w.state)
	}
	if w.resolver.Requested(w.state.Pair()) && w.state.Panel != PanelIdle {
		return nil
	}
	return w.resolver.Request(w.ctx, &w.state)
}

// Previous moves back one step, keeping every selection.
func (w *Wizard) Previous() error {
	if w.state.Step == StepChannel {
		return w.refuse(StepChannel, StepChannel, "Already on the first step")
	}
	w.navGen++
	w.state.Step--
	w.state.Hint = ""
	return nil
}

func (w *Wizard) refuse(from, to Step, hint string) error {
	w.state.Hint = hint
	logger.Debug("Refused step %d -> %d: %s", from, to, hint)
	return &TransitionError{From: from, To: to, Hint: hint}
}

// Retry re-requests templates for the current pair.
func (w *Wizard) Retry() tea.Cmd {
	if !w.state.CanEnter(StepTemplate) {
		return nil
	}
	var cmds []tea.Cmd
	if w.state.Constraints == nil {
		cmds = append(cmds, w.fetchConstraints())
	}
	cmds = append(cmds, w.resolver.Request(w.ctx, &w.state))
	return tea.Batch(cmds...)
}

// SelectTemplate selects a template from the current list and fills the
// host form fields with its rendered subject and body. Non-conforming
// templates are rejected; warning templates are accepted and keep their
// warnings.
func (w *Wizard) SelectTemplate(id string) (tea.Cmd, error) {
	t, ok := w.state.Template(id)
	if !ok {
		return nil, ErrTemplateNotFound
	}
	if !t.Status.Selectable() {
		logger.Debug("Rejected non-conforming template %s", id)
		return nil, ErrTemplateRejected
	}

	w.state.SelectedTemplateID = id
	subject, content := w.messages.Apply(t)
	return w.SetContent(subject, content), nil
}

// SetContent updates the host form's subject and content. With live
// validation on, a content-changed event is published once edits settle.
func (w *Wizard) SetContent(subject, content string) tea.Cmd {
	if subject == w.state.Subject && content == w.state.Content {
		return nil
	}
	w.state.Subject = subject
	w.state.Content = content
	if !w.state.Flags.LiveValidation || !w.bridge.Enabled() {
		return nil
	}
	return w.debounce.Trigger(debounceContent)
}

// TogglePreview flips the preview flag.
func (w *Wizard) TogglePreview() { w.state.Flags.Preview = !w.state.Flags.Preview }

// ToggleLiveValidation flips the live validation flag.
func (w *Wizard) ToggleLiveValidation() {
	w.state.Flags.LiveValidation = !w.state.Flags.LiveValidation
}

// ToggleAnimations flips the animations flag.
func (w *Wizard) ToggleAnimations() { w.state.Flags.Animations = !w.state.Flags.Animations }

// WriteBack copies the wizard's selections and content into f.
func (w *Wizard) WriteBack(f *reminder.Form) {
	f.Channel = w.state.Channel
	if w.state.LevelCommitted {
		f.Level = w.state.Level
	}
	f.TemplateID = w.state.SelectedTemplateID
	f.Subject = w.state.Subject
	f.Content = w.state.Content
}

func (w *Wizard) fetchConstraints() tea.Cmd {
	if w.constraintCancel != nil {
		w.constraintCancel()
	}
	w.constraintSeq++
	seq := w.constraintSeq
	ctx, cancel := context.WithCancel(w.ctx)
	w.constraintCancel = cancel

	q := rules.ConstraintsQuery{
		Channel:     w.state.Channel,
		DaysOverdue: w.state.daysOverdue,
		Recipients:  w.state.recipients,
	}
	catalog := w.catalog
	return func() tea.Msg {
		cons, err := catalog.Constraints(ctx, q)
		return ConstraintsFetchedMsg{Channel: q.Channel, Seq: seq, Constraints: cons, Err: err}
	}
}

// Update applies a message produced by one of the wizard's commands or by
// the bridge.
func (w *Wizard) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case advanceMsg:
		if msg.gen == w.navGen && w.state.Step == StepChannel && w.state.CanEnter(StepLevel) {
			w.state.Step = StepLevel
		}
		return nil

	case DebounceMsg:
		if !w.debounce.Settled(msg) {
			return nil
		}
		switch msg.Key {
		case debounceLevel:
			if !w.state.Channel.Valid() {
				return nil
			}
			return w.resolver.Request(w.ctx, &w.state)
		case debounceContent:
			if !w.state.Flags.LiveValidation {
				return nil
			}
			return w.bridge.PublishContentChanged(w.ctx, w.state.Channel, w.state.Subject, w.state.Content)
		}
		return nil

	case TemplatesFetchedMsg:
		if w.resolver.Apply(&w.state, msg) && w.seedTemplateID != "" {
			id := w.seedTemplateID
			w.seedTemplateID = ""
			if t, ok := w.state.Template(id); ok && t.Status.Selectable() {
				w.state.SelectedTemplateID = id
			}
		}
		return nil

	case ConstraintsFetchedMsg:
		if msg.Seq != w.constraintSeq || msg.Channel != w.state.Channel {
			return nil
		}
		w.constraintCancel = nil
		if msg.Err != nil {
			if !errors.Is(msg.Err, context.Canceled) {
				logger.Warn("Fetching constraints for %s: %v", msg.Channel, msg.Err)
				w.state.ConstraintsErr = msg.Err
			}
			return nil
		}
		w.state.Constraints = msg.Constraints
		w.state.ConstraintsErr = nil
		return nil

	case ExternalChannelMsg:
		if msg.Channel == w.state.Channel || !msg.Channel.Valid() {
			return nil
		}
		return w.selectChannel(msg.Channel, false)

	case ValidationMsg:
		res := msg.Result
		w.state.Validation = &res
		if res.Constraints != nil && res.Channel == w.state.Channel {
			w.state.Constraints = res.Constraints
			w.state.ConstraintsErr = nil
		}
		return nil

	case ExternalTemplateMsg:
		logger.Info("Template %s applied externally", msg.TemplateID)
		w.state.ExternalTemplateID = msg.TemplateID
		return nil
	}
	return nil
}
