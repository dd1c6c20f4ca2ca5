package wizard

import (
	"context"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/mark3labs/remindr/internal/events"
	"github.com/mark3labs/remindr/internal/reminder"
	"github.com/mark3labs/remindr/internal/rules"
)

// fakeCatalog records every fetch and answers from canned data.
type fakeCatalog struct {
	mu               sync.Mutex
	constraintCalls  []rules.ConstraintsQuery
	templateCalls    []rules.TemplatesQuery
	templates        map[Pair][]reminder.Template
	templatesErr     error
	constraintsErr   error
	honorCancelation bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{templates: make(map[Pair][]reminder.Template)}
}

func (f *fakeCatalog) Constraints(ctx context.Context, q rules.ConstraintsQuery) (*reminder.Constraints, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constraintCalls = append(f.constraintCalls, q)
	if f.constraintsErr != nil {
		return nil, f.constraintsErr
	}
	return &reminder.Constraints{Channel: q.Channel, MinLength: 10, MaxLength: 160, Subject: reminder.SubjectForbidden}, nil
}

func (f *fakeCatalog) Templates(ctx context.Context, q rules.TemplatesQuery) ([]reminder.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templateCalls = append(f.templateCalls, q)
	if f.honorCancelation && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if f.templatesErr != nil {
		return nil, f.templatesErr
	}
	return f.templates[Pair{Channel: q.Channel, Level: q.Level}], nil
}

func (f *fakeCatalog) templateFetches() []Pair {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Pair
	for _, q := range f.templateCalls {
		out = append(out, Pair{Channel: q.Channel, Level: q.Level})
	}
	return out
}

func (f *fakeCatalog) constraintFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.constraintCalls)
}

// recordingBus is an events.Bus that records outbound events and lets tests
// inject inbound ones.
type recordingBus struct {
	*events.MemoryBus

	mu        sync.Mutex
	published []events.Event
}

func newRecordingBus() *recordingBus {
	return &recordingBus{MemoryBus: events.NewMemoryBus("test")}
}

func (b *recordingBus) Publish(ctx context.Context, topic events.Topic, payload any) error {
	ev, err := events.NewEvent(topic, "test", payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.published = append(b.published, ev)
	b.mu.Unlock()
	return b.MemoryBus.Publish(ctx, topic, payload)
}

func (b *recordingBus) count(topic events.Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, ev := range b.published {
		if ev.Topic == topic {
			n++
		}
	}
	return n
}

func (b *recordingBus) last(topic events.Topic) (events.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.published) - 1; i >= 0; i-- {
		if b.published[i].Topic == topic {
			return b.published[i], true
		}
	}
	return events.Event{}, false
}

// run executes cmd and feeds every resulting message back into w, until no
// command is left. Batches are expanded in order.
func run(t *testing.T, w *Wizard, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, w.Update(msg))
		}
	}
}

// collect executes cmd without feeding results back, returning the messages
// produced. Batches are expanded.
func collect(cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			out = append(out, msg)
		}
	}
	return out
}

func newTestWizard(cat Catalog, bridge *Bridge, form *reminder.Form) *Wizard {
	flags := DefaultFlags()
	flags.Animations = false
	return New(Options{
		Catalog: cat,
		Bridge:  bridge,
		Form:    form,
		Flags:   flags,
	})
}

func tpl(id string, status reminder.ValidationStatus) reminder.Template {
	return reminder.Template{ID: id, Name: id, Body: "Body of " + id, LevelMin: 1, LevelMax: 5, Status: status}
}
