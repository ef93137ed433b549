package notification

import (
	"context"
	"encoding/json"

	"subshare-be/pkg/events"
	pktNats "subshare-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Topic is the in-process topic every billing event is published on.
const Topic = "billing.events"

// WatermillSink publishes events on an in-process watermill publisher, usually
// a gochannel pubsub feeding the organizer mail consumer.
type WatermillSink struct {
	publisher message.Publisher
}

func NewWatermillSink(publisher message.Publisher) *WatermillSink {
	return &WatermillSink{publisher: publisher}
}

func (s *WatermillSink) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(pktNats.Envelope{
		Id:         watermill.NewUUID(),
		Type:       event.EventType(),
		OccurredAt: event.Timestamp(),
		Data:       event.Payload(),
	})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", event.EventType())
	msg.SetContext(ctx)

	return s.publisher.Publish(Topic, msg)
}

// DecodeMessage parses a message produced by WatermillSink.
func DecodeMessage(msg *message.Message) (pktNats.Envelope, error) {
	var env pktNats.Envelope
	err := json.Unmarshal(msg.Payload, &env)
	return env, err
}
