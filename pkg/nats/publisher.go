package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"subshare-be/pkg/events"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamName    = "BILLING_EVENTS"
	SubjectPrefix = "billing."
)

// Envelope is the wire format of every published event.
type Envelope struct {
	Id         string                 `json:"id"`
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// Publisher handles sending events to the NATS bus.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewPublisher connects and makes sure the billing stream exists. A missing
// stream is not fatal: JetStream may still be starting up.
func NewPublisher(ctx context.Context, url string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(streamCtx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	})

	return &Publisher{nc: nc, js: js}, err
}

func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

// Publish sends an event to JetStream. The generated message id lets the
// server drop duplicates of a retried publish.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	env := Envelope{
		Id:         uuid.NewString(),
		Type:       event.EventType(),
		OccurredAt: event.Timestamp(),
		Data:       event.Payload(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := Subject(event.EventType())
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(env.Id)); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}

	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
