package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/mark3labs/remindr/internal/logger"
	inats "github.com/mark3labs/remindr/internal/nats"
)

// NATSBus carries events over NATS subjects remindr.<session>.<topic>.
type NATSBus struct {
	nc      *nats.Conn
	session string
	source  string

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewNATSBus creates a bus for session on nc. source identifies this
// participant in published envelopes.
func NewNATSBus(nc *nats.Conn, session, source string) *NATSBus {
	return &NATSBus{nc: nc, session: session, source: source}
}

// Publish sends payload on topic. The context is only checked before sending.
func (b *NATSBus) Publish(ctx context.Context, topic Topic, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev, err := NewEvent(topic, b.source, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	subject := inats.SubjectForEvent(b.session, string(topic))
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}
	logger.Debug("Published %s [%s]", subject, ev.ID)
	return nil
}

// Subscribe delivers every event on topic to h, on the NATS dispatch goroutine.
func (b *NATSBus) Subscribe(topic Topic, h Handler) (Subscription, error) {
	subject := inats.SubjectForEvent(b.session, string(topic))
	sub, err := b.nc.Subscribe(subject, func(m *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			logger.Warn("Dropping malformed event on %s: %v", m.Subject, err)
			return
		}
		if ev.Topic == "" {
			ev.Topic = topic
		}
		h(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing %s: %w", subject, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub, nil
}

// Flush waits until the server has processed every published event.
func (b *NATSBus) Flush() error {
	return b.nc.Flush()
}

// Close removes the bus's subscriptions. The connection stays open.
func (b *NATSBus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	var firstErr error
	for _, sub := range subs {
		err := sub.Unsubscribe()
		if err == nil || errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
