package entity

import (
	"time"

	"subshare-be/pkg/proration"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChargeStatus string

const (
	ChargeStatusPending  ChargeStatus = "pending"
	ChargeStatusPaid     ChargeStatus = "paid"
	ChargeStatusCanceled ChargeStatus = "canceled"
	ChargeStatusRefunded ChargeStatus = "refunded"

	// Derived on read, never stored.
	ChargeStatusOverdue ChargeStatus = "overdue"
)

type PaymentMethod string

const (
	PaymentMethodPix    PaymentMethod = "pix"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodManual PaymentMethod = "manual"
)

func (m PaymentMethod) IsGateway() bool {
	return m == PaymentMethodPix || m == PaymentMethodCard
}

// Charge metadata keys.
const (
	MetaRefundedAt       = "refunded_at"
	MetaRefundReference  = "refund_reference"
	MetaRefundError      = "refund_error"
	MetaRefundFailedAt   = "refund_failed_at"
	MetaRefundRecordedAt = "refund_recorded_at"
	MetaCanceledByCancel = "canceled_by_subscription_cancel"
)

type Charge struct {
	Id               uuid.UUID
	SubscriptionId   uuid.UUID
	Amount           decimal.Decimal
	Frequency        proration.Frequency
	PeriodStart      time.Time
	PeriodEnd        time.Time
	Status           ChargeStatus
	PaymentDate      *time.Time
	PaymentMethod    *PaymentMethod
	PaymentProof     *string
	GatewayReference *string
	// UnrecordedRefund holds the reference of a refund the gateway issued
	// whose ledger reversal has not been written yet.
	UnrecordedRefund *string
	Metadata         map[string]interface{}
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EffectiveStatus reports overdue for pending charges whose period has ended.
func (c *Charge) EffectiveStatus(now time.Time) ChargeStatus {
	if c.Status == ChargeStatusPending && !now.Before(c.PeriodEnd) {
		return ChargeStatusOverdue
	}
	return c.Status
}

func (c *Charge) SetMeta(key string, value interface{}) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]interface{})
	}
	c.Metadata[key] = value
}
