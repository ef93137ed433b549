package notification

import (
	"context"
	"time"

	"subshare-be/internal/entity"
	"subshare-be/internal/pkg/logger"
	"subshare-be/pkg/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Publisher abstracts the billing notifications. Every method is fire and
// forget: delivery failures are logged, never returned.
type Publisher interface {
	PublishSubscriptionCreated(ctx context.Context, accountId uuid.UUID, sub *entity.Subscription, firstCharge *entity.Charge)
	PublishSubscriptionCanceled(ctx context.Context, accountId uuid.UUID, sub *entity.Subscription, mode string, accessUntil time.Time)
	PublishSubscriptionStatus(ctx context.Context, eventType string, accountId uuid.UUID, sub *entity.Subscription)
	PublishChargeCreated(ctx context.Context, accountId uuid.UUID, serviceInstanceId uuid.UUID, charge *entity.Charge)
	PublishChargePaid(ctx context.Context, accountId uuid.UUID, serviceInstanceId uuid.UUID, charge *entity.Charge)
	PublishRefundFailed(ctx context.Context, accountId uuid.UUID, serviceInstanceId uuid.UUID, charge *entity.Charge, reason string)
	PublishPriceAdjusted(ctx context.Context, instance *entity.ServiceInstance, oldPrice decimal.Decimal, updatedCharges int)
	PublishWithdrawal(ctx context.Context, txn *entity.WalletTransaction, failure error)
}

type EventPublisher struct {
	sink   Sink
	logger logger.ILogger
	now    func() time.Time
}

func NewEventPublisher(sink Sink, logger logger.ILogger) *EventPublisher {
	if sink == nil {
		sink = NoopSink{}
	}
	return &EventPublisher{
		sink:   sink,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (p *EventPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	evt := events.New(eventType, p.now(), data)
	if err := p.sink.Publish(ctx, evt); err != nil {
		p.logger.Warn("NOTIFICATION", "Failed to publish "+eventType+" event", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (p *EventPublisher) PublishSubscriptionCreated(ctx context.Context, accountId uuid.UUID, sub *entity.Subscription, firstCharge *entity.Charge) {
	data := map[string]interface{}{
		"account_id":          accountId,
		"subscription_id":     sub.Id,
		"participant_id":      sub.ParticipantId,
		"service_instance_id": sub.ServiceInstanceId,
		"frequency":           string(sub.Frequency),
		"monthly_unit_price":  sub.MonthlyUnitPrice.StringFixed(2),
		"status":              string(sub.Status),
		"start_date":          sub.StartDate,
	}
	if firstCharge != nil {
		data["charge_id"] = firstCharge.Id
		data["amount"] = firstCharge.Amount.StringFixed(2)
	}
	p.publish(ctx, events.TypeSubscriptionCreated, data)
}

func (p *EventPublisher) PublishSubscriptionCanceled(ctx context.Context, accountId uuid.UUID, sub *entity.Subscription, mode string, accessUntil time.Time) {
	data := map[string]interface{}{
		"account_id":          accountId,
		"subscription_id":     sub.Id,
		"participant_id":      sub.ParticipantId,
		"service_instance_id": sub.ServiceInstanceId,
		"mode":                mode,
		"access_until":        accessUntil,
	}
	if sub.CancellationReason != nil {
		data["reason"] = *sub.CancellationReason
	}
	p.publish(ctx, events.TypeSubscriptionCanceled, data)
}

func (p *EventPublisher) PublishSubscriptionStatus(ctx context.Context, eventType string, accountId uuid.UUID, sub *entity.Subscription) {
	p.publish(ctx, eventType, map[string]interface{}{
		"account_id":          accountId,
		"subscription_id":     sub.Id,
		"participant_id":      sub.ParticipantId,
		"service_instance_id": sub.ServiceInstanceId,
		"status":              string(sub.Status),
	})
}

func chargeData(accountId, serviceInstanceId uuid.UUID, charge *entity.Charge) map[string]interface{} {
	return map[string]interface{}{
		"account_id":          accountId,
		"service_instance_id": serviceInstanceId,
		"subscription_id":     charge.SubscriptionId,
		"charge_id":           charge.Id,
		"amount":              charge.Amount.StringFixed(2),
		"period_start":        charge.PeriodStart,
		"period_end":          charge.PeriodEnd,
		"status":              string(charge.Status),
	}
}

func (p *EventPublisher) PublishChargeCreated(ctx context.Context, accountId uuid.UUID, serviceInstanceId uuid.UUID, charge *entity.Charge) {
	p.publish(ctx, events.TypeChargeCreated, chargeData(accountId, serviceInstanceId, charge))
}

func (p *EventPublisher) PublishChargePaid(ctx context.Context, accountId uuid.UUID, serviceInstanceId uuid.UUID, charge *entity.Charge) {
	data := chargeData(accountId, serviceInstanceId, charge)
	if charge.PaymentMethod != nil {
		data["payment_method"] = string(*charge.PaymentMethod)
	}
	p.publish(ctx, events.TypeChargePaid, data)
}

func (p *EventPublisher) PublishRefundFailed(ctx context.Context, accountId uuid.UUID, serviceInstanceId uuid.UUID, charge *entity.Charge, reason string) {
	data := chargeData(accountId, serviceInstanceId, charge)
	data["reason"] = reason
	p.publish(ctx, events.TypeRefundFailed, data)
}

func (p *EventPublisher) PublishPriceAdjusted(ctx context.Context, instance *entity.ServiceInstance, oldPrice decimal.Decimal, updatedCharges int) {
	p.publish(ctx, events.TypePriceAdjusted, map[string]interface{}{
		"account_id":          instance.AccountId,
		"service_instance_id": instance.Id,
		"old_price":           oldPrice.StringFixed(2),
		"new_price":           instance.MonthlyUnitPrice.StringFixed(2),
		"updated_charges":     updatedCharges,
	})
}

func (p *EventPublisher) PublishWithdrawal(ctx context.Context, txn *entity.WalletTransaction, failure error) {
	data := map[string]interface{}{
		"account_id":     txn.AccountId,
		"transaction_id": txn.Id,
		"amount":         txn.Amount.Neg().StringFixed(2),
		"status":         string(txn.Status),
	}
	eventType := events.TypeWithdrawalCompleted
	if failure != nil {
		eventType = events.TypeWithdrawalFailed
		data["reason"] = failure.Error()
	}
	p.publish(ctx, eventType, data)
}
