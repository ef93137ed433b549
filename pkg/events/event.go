package events

import "time"

const (
	TypeSubscriptionCreated     = "SUBSCRIPTION_CREATED"
	TypeSubscriptionCanceled    = "SUBSCRIPTION_CANCELED"
	TypeSubscriptionReactivated = "SUBSCRIPTION_REACTIVATED"
	TypeSubscriptionSuspended   = "SUBSCRIPTION_SUSPENDED"
	TypeSubscriptionResumed     = "SUBSCRIPTION_RESUMED"
	TypeChargeCreated           = "CHARGE_CREATED"
	TypeChargePaid              = "CHARGE_PAID"
	TypeRefundFailed            = "REFUND_FAILED"
	TypePriceAdjusted           = "PRICE_ADJUSTED"
	TypeWithdrawalCompleted     = "WITHDRAWAL_COMPLETED"
	TypeWithdrawalFailed        = "WITHDRAWAL_FAILED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHARGE_PAID").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, occurredAt time.Time, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: occurredAt}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
