package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/remindr/internal/events"
	"github.com/mark3labs/remindr/internal/message"
	"github.com/mark3labs/remindr/internal/reminder"
)

func TestNew_Defaults(t *testing.T) {
	w := newTestWizard(newFakeCatalog(), nil, nil)
	s := w.State()

	require.Equal(t, reminder.ChannelNone, s.Channel)
	require.Equal(t, reminder.Level(1), s.Level)
	require.False(t, s.LevelCommitted)
	require.Equal(t, StepChannel, s.Step)
	require.Equal(t, PanelIdle, s.Panel)
	require.Nil(t, w.Init())
}

func TestNew_SeedsFromForm(t *testing.T) {
	cat := newFakeCatalog()
	cat.templates[Pair{reminder.ChannelLetter, 4}] = []reminder.Template{
		tpl("a", reminder.StatusValid),
		tpl("b", reminder.StatusWarning),
	}
	w := newTestWizard(cat, nil, &reminder.Form{
		Channel:    reminder.ChannelLetter,
		Level:      4,
		TemplateID: "b",
		SubjectID:  "m-9",
		Content:    "draft",
	})

	s := w.State()
	require.Equal(t, StepTemplate, s.Step)
	require.True(t, s.LevelCommitted)
	require.Equal(t, "m-9", s.SubjectID())
	require.Equal(t, "draft", s.Content)
	require.Empty(t, s.SelectedTemplateID, "selection waits for the template list")

	run(t, w, w.Init())
	s = w.State()
	require.Equal(t, 1, cat.constraintFetches())
	require.Equal(t, []Pair{{reminder.ChannelLetter, 4}}, cat.templateFetches())
	require.Equal(t, "m-9", cat.templateCalls[0].SubjectID)
	require.True(t, cat.templateCalls[0].ValidateConstraints)
	require.Equal(t, "b", s.SelectedTemplateID)
	require.Equal(t, PanelReady, s.Panel)
}

func TestNew_SeededChannelOnly(t *testing.T) {
	w := newTestWizard(newFakeCatalog(), nil, &reminder.Form{Channel: reminder.ChannelSMS})
	require.Equal(t, StepLevel, w.State().Step)
}

// Selecting c then committing n yields exactly one template fetch for (c, n),
// even when the level moves through intermediate values first.
func TestCommitLevel_OneFetchAfterDebounce(t *testing.T) {
	for _, c := range reminder.Channels {
		for n := reminder.MinLevel; n <= reminder.MaxLevel; n++ {
			cat := newFakeCatalog()
			w := newTestWizard(cat, nil, nil)

			run(t, w, w.SelectChannel(c))

			var pending []tea.Msg
			for _, m := range []reminder.Level{1, 5, 2, 4, 3} {
				w.SelectLevel(m)
				pending = append(pending, collect(w.CommitLevel(m))...)
			}
			w.SelectLevel(n)
			pending = append(pending, collect(w.CommitLevel(n))...)
			require.Empty(t, cat.templateFetches(), "no fetch before the quiet period ends")

			for _, msg := range pending {
				run(t, w, w.Update(msg))
			}
			require.Equal(t, []Pair{{c, n}}, cat.templateFetches(), "channel %s level %d", c, n)
		}
	}
}

func TestSelectLevel_DoesNotFetch(t *testing.T) {
	cat := newFakeCatalog()
	w := newTestWizard(cat, nil, nil)
	run(t, w, w.SelectChannel(reminder.ChannelEmail))

	w.SelectLevel(4)
	require.Equal(t, reminder.Level(4), w.State().Level)
	require.False(t, w.State().LevelCommitted)
	require.Empty(t, cat.templateFetches())

	w.SelectLevel(9)
	require.Equal(t, reminder.MaxLevel, w.State().Level)
}

// A response for a pair the user has left never overwrites the state.
func TestStaleResponseDiscarded(t *testing.T) {
	cat := newFakeCatalog()
	cat.templates[Pair{reminder.ChannelEmail, 1}] = []reminder.Template{tpl("email-1", reminder.StatusValid)}
	cat.templates[Pair{reminder.ChannelSMS, 1}] = []reminder.Template{tpl("sms-1", reminder.StatusValid)}
	w := newTestWizard(cat, nil, nil)

	run(t, w, w.SelectChannel(reminder.ChannelEmail))
	settle := collect(w.CommitLevel(1))
	require.Len(t, settle, 1)
	emailCmd := w.Update(settle[0])
	require.NotNil(t, emailCmd)
	require.Equal(t, PanelLoading, w.State().Panel)

	run(t, w, w.SelectChannel(reminder.ChannelSMS))
	run(t, w, w.CommitLevel(1))
	require.Equal(t, "sms-1", w.State().Templates[0].ID)

	// The (email, 1) response arrives last.
	run(t, w, emailCmd)
	s := w.State()
	require.Equal(t, reminder.ChannelSMS, s.Channel)
	require.Len(t, s.Templates, 1)
	require.Equal(t, "sms-1", s.Templates[0].ID)
	require.Equal(t, PanelReady, s.Panel)
}

func TestStaleResponse_SamePairOlderRequest(t *testing.T) {
	cat := newFakeCatalog()
	cat.templates[Pair{reminder.ChannelSMS, 2}] = []reminder.Template{tpl("x", reminder.StatusValid)}
	w := newTestWizard(cat, nil, &reminder.Form{Channel: reminder.ChannelSMS, Level: 2})

	first := w.Retry()
	second := w.Retry()

	run(t, w, second)
	require.Equal(t, PanelReady, w.State().Panel)

	// Make the older response differ to prove it is ignored.
	cat.templates[Pair{reminder.ChannelSMS, 2}] = nil
	run(t, w, first)
	require.Len(t, w.State().Templates, 1)
}

func TestSupersededRequestIsCancelled(t *testing.T) {
	cat := newFakeCatalog()
	cat.honorCancelation = true
	w := newTestWizard(cat, nil, &reminder.Form{Channel: reminder.ChannelEmail, Level: 1})

	first := w.Retry()
	run(t, w, w.SelectChannel(reminder.ChannelLetter))

	msgs := collect(first)
	var fetched TemplatesFetchedMsg
	for _, m := range msgs {
		if tm, ok := m.(TemplatesFetchedMsg); ok {
			fetched = tm
		}
	}
	require.ErrorIs(t, fetched.Err, context.Canceled)

	w.Update(fetched)
	require.NotEqual(t, PanelError, w.State().Panel)
}

func TestToggleIdempotence(t *testing.T) {
	toggles := map[string]func(w *Wizard){
		"preview":    (*Wizard).TogglePreview,
		"validation": (*Wizard).ToggleLiveValidation,
		"animations": (*Wizard).ToggleAnimations,
	}

	for name, toggle := range toggles {
		t.Run(name, func(t *testing.T) {
			w := newTestWizard(newFakeCatalog(), nil, &reminder.Form{Channel: reminder.ChannelSMS, Level: 2})
			before := w.State()

			toggle(w)
			require.NotEqual(t, before.Flags, w.State().Flags)
			toggle(w)

			after := w.State()
			require.Equal(t, before.Flags, after.Flags)
			require.Equal(t, before.Step, after.Step)
			require.Equal(t, before.Panel, after.Panel)
			require.Equal(t, before.Channel, after.Channel)
		})
	}
}

func TestSelectionGuard(t *testing.T) {
	cat := newFakeCatalog()
	cat.templates[Pair{reminder.ChannelEmail, 2}] = []reminder.Template{
		tpl("ok", reminder.StatusValid),
		tpl("warn", reminder.StatusWarning),
		tpl("bad", reminder.StatusError),
	}
	cat.templates[Pair{reminder.ChannelEmail, 2}][1].Warnings = []string{"Longer than the recommended 800 characters"}
	w := newTestWizard(cat, nil, &reminder.Form{Channel: reminder.ChannelEmail, Level: 2})
	run(t, w, w.Init())

	_, err := w.SelectTemplate("bad")
	require.ErrorIs(t, err, ErrTemplateRejected)
	require.Empty(t, w.State().SelectedTemplateID)

	_, err = w.SelectTemplate("missing")
	require.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = w.SelectTemplate("warn")
	require.NoError(t, err)
	s := w.State()
	require.Equal(t, "warn", s.SelectedTemplateID)
	require.Equal(t, []string{"Longer than the recommended 800 characters"}, s.Selected().Warnings)

	// Rejecting after a valid selection keeps the previous choice.
	_, err = w.SelectTemplate("bad")
	require.ErrorIs(t, err, ErrTemplateRejected)
	require.Equal(t, "warn", w.State().SelectedTemplateID)
}

func TestSelectionGuard_SeededErrorTemplate(t *testing.T) {
	cat := newFakeCatalog()
	cat.templates[Pair{reminder.ChannelSMS, 1}] = []reminder.Template{tpl("bad", reminder.StatusError)}
	w := newTestWizard(cat, nil, &reminder.Form{Channel: reminder.ChannelSMS, Level: 1, TemplateID: "bad"})
	run(t, w, w.Init())

	s := w.State()
	require.Empty(t, s.SelectedTemplateID)
	require.Equal(t, PanelEmpty, s.Panel)
	require.Len(t, s.Templates, 1)
}

func TestSelectionGuard_UnknownStatus(t *testing.T) {
	cat := newFakeCatalog()
	cat.templates[Pair{reminder.ChannelSMS, 3}] = []reminder.Template{
		tpl("t1", "invalid"),
		tpl("t2", "ERROR"),
	}
	w := newTestWizard(cat, nil, &reminder.Form{Channel: reminder.ChannelSMS, Level: 3})
	run(t, w, w.Init())

	s := w.State()
	require.Equal(t, PanelEmpty, s.Panel)
	for _, tm := range s.Templates {
		require.Equal(t, reminder.StatusError, tm.Status, tm.ID)
	}

	for _, id := range []string{"t1", "t2"} {
		_, err := w.SelectTemplate(id)
		require.ErrorIs(t, err, ErrTemplateRejected, id)
	}
	require.Empty(t, w.State().SelectedTemplateID)
}

func TestSeededTemplateDroppedOnChannelChange(t *testing.T) {
	cat := newFakeCatalog()
	cat.templates[Pair{reminder.ChannelLetter, 2}] = []reminder.Template{tpl("x", reminder.StatusValid)}
	cat.templates[Pair{reminder.ChannelSMS, 2}] = []reminder.Template{tpl("x", reminder.StatusValid)}
	w := newTestWizard(cat, nil, &reminder.Form{Channel: reminder.ChannelLetter, Level: 2, TemplateID: "x"})

	// The channel changes before the seeded fetch resolves.
	initCmd := w.Init()
	run(t, w, w.SelectChannel(reminder.ChannelSMS))
	run(t, w, initCmd)

	s := w.State()
	require.Equal(t, reminder.ChannelSMS, s.Channel)
	require.Equal(t, PanelReady, s.Panel)
	require.Equal(t, "x", s.Templates[0].ID)
	require.Empty(t, s.SelectedTemplateID)
}

func TestNextRefusedWithoutChannel(t *testing.T) {
	cat := newFakeCatalog()
	w := newTestWizard(cat, nil, nil)

	cmd, err := w.Next()
	require.Nil(t, cmd)
	require.ErrorIs(t, err, ErrInvalidTransition)

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	require.Equal(t, StepChannel, te.From)
	require.NotEmpty(t, te.Hint)

	s := w.State()
	require.Equal(t, StepChannel, s.Step)
	require.Equal(t, te.Hint, s.Hint)
	require.Zero(t, cat.constraintFetches())
	require.Empty(t, cat.templateFetches())
}

func TestNavigation(t *testing.T) {
	cat := newFakeCatalog()
	w := newTestWizard(cat, nil, nil)

	run(t, w, w.SelectChannel(reminder.ChannelEmail))
	require.Equal(t, StepLevel, w.State().Step)

	// Level not confirmed yet.
	_, err := w.Next()
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, StepLevel, w.State().Step)

	w.SelectLevel(3)
	_, err = w.Next()
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Committing clears the hint; moving on before the quiet period ends
	// fetches once, immediately.
	pending := collect(w.CommitLevel(3))
	require.Empty(t, w.State().Hint)
	cmd, err := w.Next()
	require.NoError(t, err)
	require.Equal(t, StepTemplate, w.State().Step)
	run(t, w, cmd)
	for _, msg := range pending {
		run(t, w, w.Update(msg))
	}
	require.Equal(t, []Pair{{reminder.ChannelEmail, 3}}, cat.templateFetches())

	_, err = w.Next()
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, StepTemplate, w.State().Step)

	// Previous keeps selections; coming back does not refetch.
	require.NoError(t, w.Previous())
	require.NoError(t, w.Previous())
	require.ErrorIs(t, w.Previous(), ErrInvalidTransition)
	s := w.State()
	require.Equal(t, StepChannel, s.Step)
	require.Equal(t, reminder.ChannelEmail, s.Channel)
	require.Equal(t, reminder.Level(3), s.Level)

	_, err = w.Next()
	require.NoError(t, err)
	cmd, err = w.Next()
	require.NoError(t, err)
	require.Nil(t, cmd)
	require.Len(t, cat.templateFetches(), 1)
}

func TestNext_FetchesWhenPairNeverRequested(t *testing.T) {
	cat := newFakeCatalog()
	w := newTestWizard(cat, nil, &reminder.Form{Channel: reminder.ChannelSMS, Level: 2})
	require.NoError(t, w.Previous())

	cmd, err := w.Next()
	require.NoError(t, err)
	run(t, w, cmd)
	require.Equal(t, []Pair{{reminder.ChannelSMS, 2}}, cat.templateFetches())
	require.Equal(t, PanelEmpty, w.State().Panel)
}

func TestAutoAdvanceDelay(t *testing.T) {
	cat := newFakeCatalog()
	w := New(Options{Catalog: cat, Flags: DefaultFlags(), TransitionDelay: time.Millisecond})

	cmd := w.SelectChannel(reminder.ChannelSMS)
	require.Equal(t, StepChannel, w.State().Step, "advance waits for the delay")
	run(t, w, cmd)
	require.Equal(t, StepLevel, w.State().Step)
}

func TestAutoAdvanceSkippedAfterNavigation(t *testing.T) {
	w := New(Options{Catalog: newFakeCatalog(), Flags: DefaultFlags(), TransitionDelay: time.Millisecond})

	var advance []tea.Msg
	for _, msg := range collect(w.SelectChannel(reminder.ChannelEmail)) {
		if _, ok := msg.(advanceMsg); ok {
			advance = append(advance, msg)
		} else {
			w.Update(msg)
		}
	}
	require.Len(t, advance, 1)

	// The user moves on and back before the delay ends.
	_, err := w.Next()
	require.NoError(t, err)
	require.NoError(t, w.Previous())

	w.Update(advance[0])
	require.Equal(t, StepChannel, w.State().Step)
}

func TestLoopPrevention(t *testing.T) {
	bus := newRecordingBus()
	bridge := NewBridge(bus)
	require.NoError(t, bridge.Start())
	defer func() { require.NoError(t, bridge.Close()) }()

	cat := newFakeCatalog()
	w := newTestWizard(cat, bridge, nil)

	run(t, w, w.SelectChannel(reminder.ChannelEmail))
	require.Equal(t, 1, bus.count(events.TopicChannelSelected))
	fetches := cat.constraintFetches()

	require.NoError(t, bus.Publish(context.Background(), events.TopicChannelChangedExternally,
		events.ChannelChangedExternally{Channel: reminder.ChannelEmail}))
	msg := bridge.Listen()()
	require.Equal(t, ExternalChannelMsg{Channel: reminder.ChannelEmail}, msg)
	run(t, w, w.Update(msg))

	require.Equal(t, 1, bus.count(events.TopicChannelSelected))
	require.Equal(t, fetches, cat.constraintFetches())
}

func TestExternalChannelChangeAppliesWithoutEcho(t *testing.T) {
	bus := newRecordingBus()
	bridge := NewBridge(bus)
	require.NoError(t, bridge.Start())
	defer func() { require.NoError(t, bridge.Close()) }()

	cat := newFakeCatalog()
	cat.templates[Pair{reminder.ChannelLetter, 2}] = []reminder.Template{tpl("l", reminder.StatusValid)}
	w := newTestWizard(cat, bridge, &reminder.Form{Channel: reminder.ChannelSMS, Level: 2})
	run(t, w, w.Init())

	require.NoError(t, bus.Publish(context.Background(), events.TopicChannelChangedExternally,
		events.ChannelChangedExternally{Channel: reminder.ChannelLetter}))
	run(t, w, w.Update(bridge.Listen()()))

	s := w.State()
	require.Equal(t, reminder.ChannelLetter, s.Channel)
	require.Equal(t, StepTemplate, s.Step)
	require.Equal(t, "l", s.Templates[0].ID, "step 3 refetches for the new pair")
	require.Zero(t, bus.count(events.TopicChannelSelected))
}

func TestValidationResultRefreshesConstraintsOnly(t *testing.T) {
	bus := newRecordingBus()
	bridge := NewBridge(bus)
	require.NoError(t, bridge.Start())
	defer func() { require.NoError(t, bridge.Close()) }()

	cat := newFakeCatalog()
	cat.templates[Pair{reminder.ChannelSMS, 1}] = []reminder.Template{tpl("w", reminder.StatusWarning)}
	w := newTestWizard(cat, bridge, &reminder.Form{Channel: reminder.ChannelSMS, Level: 1})
	run(t, w, w.Init())
	_, err := w.SelectTemplate("w")
	require.NoError(t, err)
	before := w.State()

	fresh := &reminder.Constraints{Channel: reminder.ChannelSMS, MinLength: 20, MaxLength: 140, Subject: reminder.SubjectForbidden}
	require.NoError(t, bus.Publish(context.Background(), events.TopicValidationResultUpdated, events.ValidationResultUpdated{
		Channel:     reminder.ChannelSMS,
		Status:      reminder.StatusWarning,
		Warnings:    []string{"Avoid special characters in SMS"},
		Constraints: fresh,
	}))
	run(t, w, w.Update(bridge.Listen()()))

	s := w.State()
	require.Equal(t, 140, s.Constraints.MaxLength)
	require.NotNil(t, s.Validation)
	require.Equal(t, reminder.StatusWarning, s.Validation.Status)
	require.Equal(t, before.Templates, s.Templates)
	require.Equal(t, "w", s.SelectedTemplateID, "warning selection is retained")

	// A verdict for another channel does not replace the constraints.
	require.NoError(t, bus.Publish(context.Background(), events.TopicValidationResultUpdated, events.ValidationResultUpdated{
		Channel:     reminder.ChannelEmail,
		Constraints: &reminder.Constraints{Channel: reminder.ChannelEmail, MaxLength: 5000},
	}))
	run(t, w, w.Update(bridge.Listen()()))
	require.Equal(t, 140, w.State().Constraints.MaxLength)
}

func TestExternalTemplateAcknowledged(t *testing.T) {
	bus := newRecordingBus()
	bridge := NewBridge(bus)
	require.NoError(t, bridge.Start())
	defer func() { require.NoError(t, bridge.Close()) }()

	w := newTestWizard(newFakeCatalog(), bridge, nil)
	require.NoError(t, bus.Publish(context.Background(), events.TopicTemplateAppliedExternally,
		events.TemplateAppliedExternally{TemplateID: "ext"}))
	run(t, w, w.Update(bridge.Listen()()))

	s := w.State()
	require.Equal(t, "ext", s.ExternalTemplateID)
	require.Empty(t, s.SelectedTemplateID)
}

func TestContentChangedGatedByLiveValidation(t *testing.T) {
	bus := newRecordingBus()
	bridge := NewBridge(bus)
	w := newTestWizard(newFakeCatalog(), bridge, &reminder.Form{Channel: reminder.ChannelEmail})

	// Bursts publish once, with the settled value.
	var pending []tea.Msg
	for _, content := range []string{"a", "ab", "abc"} {
		pending = append(pending, collect(w.SetContent("Subject", content))...)
	}
	for _, msg := range pending {
		run(t, w, w.Update(msg))
	}
	require.Equal(t, 1, bus.count(events.TopicContentChanged))
	ev, _ := bus.last(events.TopicContentChanged)
	var p events.ContentChanged
	require.NoError(t, ev.Decode(&p))
	require.Equal(t, "abc", p.Content)
	require.Equal(t, reminder.ChannelEmail, p.Channel)

	// Disabled: nothing is armed, nothing is published.
	w.ToggleLiveValidation()
	require.Nil(t, w.SetContent("Subject", "abcd"))
	require.Equal(t, 1, bus.count(events.TopicContentChanged))

	// Disabled while pending: the settled edit is suppressed.
	w.ToggleLiveValidation()
	pending = collect(w.SetContent("Subject", "abcde"))
	w.ToggleLiveValidation()
	for _, msg := range pending {
		run(t, w, w.Update(msg))
	}
	require.Equal(t, 1, bus.count(events.TopicContentChanged))
}

func TestSelectTemplateFillsForm(t *testing.T) {
	cat := newFakeCatalog()
	cat.templates[Pair{reminder.ChannelEmail, 1}] = []reminder.Template{{
		ID: "e", Subject: "Pay by {deadline}", Body: "Hello {first_name}, pay before {deadline}.",
		LevelMin: 1, LevelMax: 2, Status: reminder.StatusValid,
	}}
	b := message.NewBuilder(7, "")
	b.Now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }

	w := New(Options{
		Catalog:  cat,
		Form:     &reminder.Form{Channel: reminder.ChannelEmail, Level: 1, SubjectID: "m-1"},
		Flags:    Flags{},
		Messages: b,
	})
	run(t, w, w.Init())
	_, err := w.SelectTemplate("e")
	require.NoError(t, err)

	form := &reminder.Form{SubjectID: "m-1", DaysOverdue: 3}
	w.WriteBack(form)
	require.Equal(t, reminder.ChannelEmail, form.Channel)
	require.Equal(t, reminder.Level(1), form.Level)
	require.Equal(t, "e", form.TemplateID)
	require.Equal(t, "Pay by 26/10/2026", form.Subject)
	require.Equal(t, "Hello {first_name}, pay before 26/10/2026.", form.Content)
	require.Equal(t, 3, form.DaysOverdue)
}

func TestTemplateFetchFailureAndRetry(t *testing.T) {
	cat := newFakeCatalog()
	cat.templatesErr = errors.New("503")
	w := newTestWizard(cat, nil, &reminder.Form{Channel: reminder.ChannelSMS, Level: 3})
	run(t, w, w.Init())

	s := w.State()
	require.Equal(t, PanelError, s.Panel)
	require.EqualError(t, s.PanelErr, "503")
	require.Empty(t, s.Templates)

	cat.templatesErr = nil
	cat.templates[Pair{reminder.ChannelSMS, 3}] = []reminder.Template{tpl("t", reminder.StatusValid)}
	run(t, w, w.Retry())
	s = w.State()
	require.Equal(t, PanelReady, s.Panel)
	require.Nil(t, s.PanelErr)
	require.Len(t, cat.templateFetches(), 2)
}

func TestEmptyResult(t *testing.T) {
	w := newTestWizard(newFakeCatalog(), nil, &reminder.Form{Channel: reminder.ChannelLetter, Level: 5})
	run(t, w, w.Init())
	s := w.State()
	require.Equal(t, PanelEmpty, s.Panel)
	require.Nil(t, s.PanelErr)
}

func TestConstraintsFailureAndStaleConstraints(t *testing.T) {
	cat := newFakeCatalog()
	w := newTestWizard(cat, nil, nil)

	emailCmd := w.SelectChannel(reminder.ChannelEmail)
	run(t, w, w.SelectChannel(reminder.ChannelSMS))
	require.Equal(t, reminder.ChannelSMS, w.State().Constraints.Channel)

	run(t, w, emailCmd)
	require.Equal(t, reminder.ChannelSMS, w.State().Constraints.Channel)

	cat.constraintsErr = errors.New("down")
	run(t, w, w.SelectChannel(reminder.ChannelLetter))
	s := w.State()
	require.Nil(t, s.Constraints)
	require.EqualError(t, s.ConstraintsErr, "down")
	require.Equal(t, reminder.Level(1), s.RecommendedLevel())
}

// Channel null on step 1, pick sms, commit level 3, receive two templates.
func TestEndToEnd(t *testing.T) {
	for _, animations := range []bool{false, true} {
		cat := newFakeCatalog()
		cat.templates[Pair{reminder.ChannelSMS, 3}] = []reminder.Template{
			tpl("t1", reminder.StatusValid),
			tpl("t2", reminder.StatusError),
		}
		bus := newRecordingBus()
		bridge := NewBridge(bus)
		flags := DefaultFlags()
		flags.Animations = animations
		w := New(Options{Catalog: cat, Bridge: bridge, Flags: flags, TransitionDelay: time.Millisecond})

		s := w.State()
		require.Equal(t, reminder.ChannelNone, s.Channel)
		require.Equal(t, StepChannel, s.Step)

		cmd := w.SelectChannel(reminder.ChannelSMS)
		require.Equal(t, reminder.ChannelSMS, w.State().Channel)
		if animations {
			require.Equal(t, StepChannel, w.State().Step)
		} else {
			require.Equal(t, StepLevel, w.State().Step)
		}
		run(t, w, cmd)
		require.Equal(t, StepLevel, w.State().Step)
		require.Equal(t, 1, cat.constraintFetches())
		require.Equal(t, 1, bus.count(events.TopicChannelSelected))

		run(t, w, w.CommitLevel(3))
		require.Equal(t, []Pair{{reminder.ChannelSMS, 3}}, cat.templateFetches())

		s = w.State()
		require.Len(t, s.Templates, 2)
		require.True(t, s.Templates[0].Recommended)
		require.False(t, s.Templates[1].Recommended)
		require.Equal(t, 1, s.Conforming())

		_, err := w.SelectTemplate("t2")
		require.ErrorIs(t, err, ErrTemplateRejected)
		require.Empty(t, w.State().SelectedTemplateID)

		cmd, err = w.Next()
		require.NoError(t, err)
		require.Nil(t, cmd, "pair already resolved")
		require.Len(t, cat.templateFetches(), 1)
	}
}

func TestClose(t *testing.T) {
	cat := newFakeCatalog()
	cat.honorCancelation = true
	w := newTestWizard(cat, nil, &reminder.Form{Channel: reminder.ChannelSMS, Level: 1})
	cmd := w.Init()
	w.Close()

	for _, msg := range collect(cmd) {
		w.Update(msg)
	}
	require.NotEqual(t, PanelError, w.State().Panel)
}
