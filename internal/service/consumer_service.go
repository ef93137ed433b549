package service

import (
	"context"
	"fmt"

	"subshare-be/internal/pkg/logger"
	"subshare-be/internal/pkg/mailer"
	"subshare-be/internal/repository/specification"
	"subshare-be/internal/repository/unitofwork"
	"subshare-be/pkg/events"
	pktNats "subshare-be/pkg/nats"
	"subshare-be/pkg/notification"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService e-mails organizers about billing events published on the
// in-process bus. Delivery is best effort: every message is acked.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	mailer     mailer.IEmailService
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	mailer mailer.IEmailService,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		mailer:     mailer,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	env, err := notification.DecodeMessage(msg)
	if err != nil {
		cs.logger.Warn("CONSUMER", "Dropping undecodable message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	notice, ok := OrganizerNotice(env)
	if !ok {
		return
	}

	instanceId, err := uuid.Parse(fmt.Sprint(env.Data["service_instance_id"]))
	if err != nil {
		return
	}
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	instance, err := uow.ServiceInstanceRepository().FindOne(ctx, specification.ByID{ID: instanceId})
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to load service instance", map[string]interface{}{
			"service_instance_id": instanceId.String(),
			"error":               err.Error(),
		})
		return
	}
	if instance == nil || instance.ContactEmail == "" {
		return
	}

	notice.Lines = append([]string{"Service: " + instance.Name}, notice.Lines...)
	if err := cs.mailer.SendNotice(instance.ContactEmail, notice); err != nil {
		cs.logger.Error("CONSUMER", "Failed to e-mail organizer", map[string]interface{}{
			"event_type":          env.Type,
			"service_instance_id": instanceId.String(),
			"error":               err.Error(),
		})
		return
	}
	cs.logger.Info("CONSUMER", "Organizer notified", map[string]interface{}{
		"event_type":          env.Type,
		"service_instance_id": instanceId.String(),
	})
}

// OrganizerNotice renders the events organizers are told about. Other event
// types return false.
func OrganizerNotice(env pktNats.Envelope) (mailer.Notice, bool) {
	field := func(key string) string {
		if v, ok := env.Data[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return "-"
	}

	switch env.Type {
	case events.TypeSubscriptionCreated:
		return mailer.Notice{
			Subject:  "New participant joined",
			Headline: "A participant joined your shared subscription",
			Lines: []string{
				"Participant: " + field("participant_id"),
				fmt.Sprintf("Price: %s per month, billed %s", field("monthly_unit_price"), field("frequency")),
			},
		}, true
	case events.TypeSubscriptionCanceled:
		headline := "A participant canceled"
		if field("mode") == "scheduled" {
			headline = "A participant scheduled a cancellation"
		}
		return mailer.Notice{
			Subject:  "Subscription canceled",
			Headline: headline,
			Lines: []string{
				"Participant: " + field("participant_id"),
				"Access until: " + field("access_until"),
			},
		}, true
	case events.TypeChargePaid:
		return mailer.Notice{
			Subject:  "Payment received",
			Headline: "A charge was paid",
			Lines: []string{
				"Amount: " + field("amount"),
				fmt.Sprintf("Period: %s to %s", field("period_start"), field("period_end")),
			},
		}, true
	case events.TypeRefundFailed:
		return mailer.Notice{
			Subject:  "Action needed: refund failed",
			Headline: "We could not refund a canceled participant",
			Lines: []string{
				"Charge: " + field("charge_id"),
				"Amount: " + field("amount"),
				"Reason: " + field("reason"),
			},
		}, true
	}
	return mailer.Notice{}, false
}
