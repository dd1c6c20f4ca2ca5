package wizard

import (
	"context"
	"fmt"
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/mark3labs/remindr/internal/events"
	"github.com/mark3labs/remindr/internal/logger"
	"github.com/mark3labs/remindr/internal/reminder"
)

// inboxSize bounds inbound events waiting for the update loop.
const inboxSize = 64

// Bridge connects the wizard to the validation subsystem over an event bus.
// Inbound events are queued and handed to the update loop by Listen.
// With a nil bus every operation is a no-op and the wizard runs standalone.
type Bridge struct {
	bus   events.Bus
	inbox chan tea.Msg

	mu     sync.Mutex
	subs   []events.Subscription
	closed bool
}

// NewBridge creates a bridge over bus, which may be nil.
func NewBridge(bus events.Bus) *Bridge {
	return &Bridge{bus: bus, inbox: make(chan tea.Msg, inboxSize)}
}

// Enabled reports whether a bus is attached.
func (b *Bridge) Enabled() bool {
	return b != nil && b.bus != nil
}

// Start subscribes to the inbound topics.
func (b *Bridge) Start() error {
	if !b.Enabled() {
		logger.Info("No event bus; running standalone")
		return nil
	}

	handlers := map[events.Topic]func(events.Event) (tea.Msg, error){
		events.TopicChannelChangedExternally: func(ev events.Event) (tea.Msg, error) {
			var p events.ChannelChangedExternally
			if err := ev.Decode(&p); err != nil {
				return nil, err
			}
			return ExternalChannelMsg{Channel: p.Channel}, nil
		},
		events.TopicValidationResultUpdated: func(ev events.Event) (tea.Msg, error) {
			var p events.ValidationResultUpdated
			if err := ev.Decode(&p); err != nil {
				return nil, err
			}
			return ValidationMsg{Result: p}, nil
		},
		events.TopicTemplateAppliedExternally: func(ev events.Event) (tea.Msg, error) {
			var p events.TemplateAppliedExternally
			if err := ev.Decode(&p); err != nil {
				return nil, err
			}
			return ExternalTemplateMsg{TemplateID: p.TemplateID, Channel: p.Channel}, nil
		},
	}

	for _, topic := range []events.Topic{
		events.TopicChannelChangedExternally,
		events.TopicValidationResultUpdated,
		events.TopicTemplateAppliedExternally,
	} {
		decode := handlers[topic]
		sub, err := b.bus.Subscribe(topic, func(ev events.Event) {
			msg, err := decode(ev)
			if err != nil {
				logger.Warn("Bridge: %v", err)
				return
			}
			b.deliver(msg)
		})
		if err != nil {
			_ = b.Close()
			return fmt.Errorf("subscribing %s: %w", topic, err)
		}
		b.mu.Lock()
		b.subs = append(b.subs, sub)
		b.mu.Unlock()
	}
	return nil
}

// deliver queues msg without blocking the bus.
func (b *Bridge) deliver(msg tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.inbox <- msg:
	default:
		logger.Warn("Bridge inbox full, dropping %T", msg)
	}
}

// Listen waits for the next inbound event. The caller re-issues it after
// each delivered message. It returns nil once the bridge is closed.
func (b *Bridge) Listen() tea.Cmd {
	if !b.Enabled() {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-b.inbox
		if !ok {
			return nil
		}
		return msg
	}
}

// PublishChannelSelected announces a user channel selection.
func (b *Bridge) PublishChannelSelected(ctx context.Context, c reminder.Channel) tea.Cmd {
	return b.publish(ctx, events.TopicChannelSelected, events.ChannelSelected{Channel: c})
}

// PublishContentChanged announces new host form content.
func (b *Bridge) PublishContentChanged(ctx context.Context, c reminder.Channel, subject, content string) tea.Cmd {
	return b.publish(ctx, events.TopicContentChanged, events.ContentChanged{
		Channel: c,
		Subject: subject,
		Content: content,
	})
}

func (b *Bridge) publish(ctx context.Context, topic events.Topic, payload any) tea.Cmd {
	if !b.Enabled() {
		return nil
	}
	bus := b.bus
	return func() tea.Msg {
		if err := bus.Publish(ctx, topic, payload); err != nil {
			logger.Warn("Bridge: publishing %s: %v", topic, err)
		}
		return nil
	}
}

// Close unsubscribes and releases a pending Listen.
func (b *Bridge) Close() error {
	if !b.Enabled() {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var firstErr error
	for _, sub := range b.subs {
		if err := sub.Unsubscribe(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.subs = nil
	close(b.inbox)
	return firstErr
}
