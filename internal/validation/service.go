// Package validation is the independent validation subsystem. It listens for
// channel and content changes on the event bus, checks the content against
// the channel's constraints and publishes the verdict.
package validation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/remindr/internal/events"
	"github.com/mark3labs/remindr/internal/logger"
	"github.com/mark3labs/remindr/internal/reminder"
	"github.com/mark3labs/remindr/internal/rules"
)

// queueSize bounds pending work; the bus is never blocked by a slow fetch.
const queueSize = 32

// ConstraintSource fetches channel constraints.
type ConstraintSource interface {
	Constraints(ctx context.Context, q rules.ConstraintsQuery) (*reminder.Constraints, error)
}

// Options configures a Service.
type Options struct {
	DaysOverdue int
	Recipients  int
}

// ErrStarted is returned by Start on a running service.
var ErrStarted = errors.New("validation service already started")

type job struct {
	topic   events.Topic
	channel reminder.Channel
	subject string
	content string
}

// Service validates content published on the bus.
type Service struct {
	bus    events.Bus
	source ConstraintSource
	opts   Options

	jobs   chan job
	cancel context.CancelFunc
	wg     sync.WaitGroup
	subs   []events.Subscription

	// Owned by the worker goroutine.
	channel    reminder.Channel
	subject    string
	content    string
	hasContent bool
	cache      map[reminder.Channel]*reminder.Constraints
}

// New creates a validation service. It does nothing until Start.
func New(bus events.Bus, source ConstraintSource, opts Options) *Service {
	return &Service{
		bus:    bus,
		source: source,
		opts:   opts,
		cache:  make(map[reminder.Channel]*reminder.Constraints),
	}
}

// Start subscribes to the bus and starts the worker.
func (s *Service) Start(ctx context.Context) error {
	if s.cancel != nil {
		return ErrStarted
	}

	s.jobs = make(chan job, queueSize)
	ctx, cancel := context.WithCancel(ctx)

	subSelected, err := s.bus.Subscribe(events.TopicChannelSelected, func(ev events.Event) {
		var p events.ChannelSelected
		if err := ev.Decode(&p); err != nil {
			logger.Warn("validation: %v", err)
			return
		}
		s.enqueue(job{topic: ev.Topic, channel: p.Channel})
	})
	if err != nil {
		cancel()
		return fmt.Errorf("subscribing channel-selected: %w", err)
	}

	subContent, err := s.bus.Subscribe(events.TopicContentChanged, func(ev events.Event) {
		var p events.ContentChanged
		if err := ev.Decode(&p); err != nil {
			logger.Warn("validation: %v", err)
			return
		}
		s.enqueue(job{topic: ev.Topic, channel: p.Channel, subject: p.Subject, content: p.Content})
	})
	if err != nil {
		_ = subSelected.Unsubscribe()
		cancel()
		return fmt.Errorf("subscribing content-changed: %w", err)
	}

	s.subs = []events.Subscription{subSelected, subContent}
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)

	logger.Info("Validation service started")
	return nil
}

// Close unsubscribes and waits for the worker to exit.
func (s *Service) Close() error {
	if s.cancel == nil {
		return nil
	}
	var firstErr error
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.subs = nil
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
	return firstErr
}

// enqueue hands a job to the worker without blocking the bus.
func (s *Service) enqueue(j job) {
	select {
	case s.jobs <- j:
	default:
		logger.Warn("validation: queue full, dropping %s", j.topic)
	}
}

func (s *Service) run(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			s.handle(ctx, j)
		}
	}
}

func (s *Service) handle(ctx context.Context, j job) {
	switch j.topic {
	case events.TopicChannelSelected:
		s.channel = j.channel
	case events.TopicContentChanged:
		if j.channel != reminder.ChannelNone {
			s.channel = j.channel
		}
		s.subject, s.content, s.hasContent = j.subject, j.content, true
	}

	if !s.channel.Valid() {
		return
	}

	cons, err := s.constraints(ctx, s.channel)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("validation: fetching constraints for %s: %v", s.channel, err)
		}
		return
	}

	result := events.ValidationResultUpdated{
		Channel:     s.channel,
		Constraints: cons,
		Status:      reminder.StatusValid,
		Score:       100,
	}
	if s.hasContent {
		res := rules.Check(cons, s.subject, s.content)
		result.Status = res.Status
		result.Length = res.Length
		result.Score = res.Score
		result.Errors = res.Errors
		result.Warnings = res.Warnings
	}

	if err := s.bus.Publish(ctx, events.TopicValidationResultUpdated, result); err != nil && ctx.Err() == nil {
		logger.Warn("validation: publishing result: %v", err)
	}
}

func (s *Service) constraints(ctx context.Context, ch reminder.Channel) (*reminder.Constraints, error) {
	if c, ok := s.cache[ch]; ok {
		return c, nil
	}
	c, err := s.source.Constraints(ctx, rules.ConstraintsQuery{
		Channel:     ch,
		DaysOverdue: s.opts.DaysOverdue,
		Recipients:  s.opts.Recipients,
	})
	if err != nil {
		return nil, err
	}
	s.cache[ch] = c
	return c, nil
}
