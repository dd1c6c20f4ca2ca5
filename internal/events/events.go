// Package events is the typed publish/subscribe protocol shared by the wizard
// and the validation subsystem. Delivery is fire-and-forget: no
// acknowledgement, no replay.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mark3labs/remindr/internal/reminder"
)

// Topic names an event kind.
type Topic string

const (
	// Published by the wizard.
	TopicChannelSelected Topic = "channel-selected"
	TopicContentChanged  Topic = "content-changed"

	// Published by the validation subsystem (or any other participant).
	TopicChannelChangedExternally  Topic = "channel-changed-externally"
	TopicValidationResultUpdated   Topic = "validation-result-updated"
	TopicTemplateAppliedExternally Topic = "template-applied-externally"
)

// Topics lists every topic of the protocol.
var Topics = []Topic{
	TopicChannelSelected,
	TopicContentChanged,
	TopicChannelChangedExternally,
	TopicValidationResultUpdated,
	TopicTemplateAppliedExternally,
}

// Event is the envelope carried on the bus.
type Event struct {
	ID        string          `json:"id"`
	Topic     Topic           `json:"topic"`
	Source    string          `json:"source,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent wraps payload in an envelope with a fresh id.
func NewEvent(topic Topic, source string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshaling %s payload: %w", topic, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Topic:     topic,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Topic, err)
	}
	return nil
}

// ErrClosed is returned when using a closed bus.
var ErrClosed = errors.New("bus closed")

// Handler receives events. It may run on a bus goroutine and must not block.
type Handler func(Event)

// Subscription is an active subscription.
type Subscription interface {
	Unsubscribe() error
}

// Bus publishes and subscribes to protocol events.
type Bus interface {
	Publish(ctx context.Context, topic Topic, payload any) error
	Subscribe(topic Topic, h Handler) (Subscription, error)
	Close() error
}

// ChannelSelected is published when the user picks a channel.
type ChannelSelected struct {
	Channel reminder.Channel `json:"channel"`
}

// ContentChanged is published, debounced, when the subject or content of the
// host form changes.
type ContentChanged struct {
	Channel reminder.Channel `json:"channel"`
	Subject string           `json:"subject"`
	Content string           `json:"content"`
}

// ChannelChangedExternally asks the wizard to adopt a channel chosen elsewhere.
type ChannelChangedExternally struct {
	Channel reminder.Channel `json:"channel"`
}

// ValidationResultUpdated carries the verdict on the current content.
type ValidationResultUpdated struct {
	Channel     reminder.Channel          `json:"channel"`
	Status      reminder.ValidationStatus `json:"status"`
	Length      int                       `json:"length"`
	Score       int                       `json:"score"`
	Errors      []string                  `json:"errors,omitempty"`
	Warnings    []string                  `json:"warnings,omitempty"`
	Constraints *reminder.Constraints     `json:"constraints,omitempty"`
}

// TemplateAppliedExternally reports that another participant applied a template.
type TemplateAppliedExternally struct {
	TemplateID string           `json:"template_id"`
	Channel    reminder.Channel `json:"channel,omitempty"`
}
