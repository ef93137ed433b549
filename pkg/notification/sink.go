package notification

import (
	"context"
	"errors"
	"sync"

	"subshare-be/pkg/events"
	pktNats "subshare-be/pkg/nats"
)

// Sink delivers one event somewhere. Callers treat delivery as best effort.
type Sink interface {
	Publish(ctx context.Context, event events.Event) error
}

type NoopSink struct{}

func (NoopSink) Publish(ctx context.Context, event events.Event) error {
	return nil
}

// NatsSink publishes to the JetStream billing stream.
type NatsSink struct {
	publisher *pktNats.Publisher
}

func NewNatsSink(publisher *pktNats.Publisher) *NatsSink {
	return &NatsSink{publisher: publisher}
}

func (s *NatsSink) Publish(ctx context.Context, event events.Event) error {
	return s.publisher.Publish(ctx, event)
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, event events.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *Recorder) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) OfType(eventType string) []events.Event {
	var out []events.Event
	for _, e := range r.Events() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
