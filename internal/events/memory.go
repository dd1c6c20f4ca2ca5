package events

import (
	"context"
	"sync"
)

// MemoryBus is an in-process bus. Publish delivers synchronously to every
// handler of the topic, in subscription order.
type MemoryBus struct {
	source string

	mu       sync.Mutex
	nextID   int
	handlers map[Topic]map[int]Handler
	order    map[Topic][]int
	closed   bool
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus(source string) *MemoryBus {
	return &MemoryBus{
		source:   source,
		handlers: make(map[Topic]map[int]Handler),
		order:    make(map[Topic][]int),
	}
}

// Publish delivers payload to the current subscribers of topic.
func (b *MemoryBus) Publish(ctx context.Context, topic Topic, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev, err := NewEvent(topic, b.source, payload)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	var hs []Handler
	for _, id := range b.order[topic] {
		if h, ok := b.handlers[topic][id]; ok {
			hs = append(hs, h)
		}
	}
	b.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
	return nil
}

// Subscribe registers h for topic.
func (b *MemoryBus) Subscribe(topic Topic, h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	b.nextID++
	id := b.nextID
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]Handler)
	}
	b.handlers[topic][id] = h
	b.order[topic] = append(b.order[topic], id)
	return &memorySub{bus: b, topic: topic, id: id}, nil
}

// Close drops every subscription; later calls fail with ErrClosed.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[Topic]map[int]Handler)
	b.order = make(map[Topic][]int)
	return nil
}

type memorySub struct {
	bus   *MemoryBus
	topic Topic
	id    int
}

func (s *memorySub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.handlers[s.topic], s.id)
	ids := s.bus.order[s.topic]
	for i, id := range ids {
		if id == s.id {
			s.bus.order[s.topic] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}
