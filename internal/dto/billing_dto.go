package dto

import (
	"time"

	"subshare-be/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChargeResponse struct {
	Id               uuid.UUID              `json:"id"`
	SubscriptionId   uuid.UUID              `json:"subscription_id"`
	Amount           string                 `json:"amount"`
	Frequency        string                 `json:"frequency"`
	PeriodStart      time.Time              `json:"period_start"`
	PeriodEnd        time.Time              `json:"period_end"`
	Status           string                 `json:"status"`
	PaymentDate      *time.Time             `json:"payment_date,omitempty"`
	PaymentMethod    *string                `json:"payment_method,omitempty"`
	GatewayReference *string                `json:"gateway_reference,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// NewChargeResponse renders the status as seen at now, so unpaid charges past
// their period end read as overdue.
func NewChargeResponse(c *entity.Charge, now time.Time) *ChargeResponse {
	var method *string
	if c.PaymentMethod != nil {
		m := string(*c.PaymentMethod)
		method = &m
	}
	return &ChargeResponse{
		Id:               c.Id,
		SubscriptionId:   c.SubscriptionId,
		Amount:           c.Amount.StringFixed(2),
		Frequency:        string(c.Frequency),
		PeriodStart:      c.PeriodStart,
		PeriodEnd:        c.PeriodEnd,
		Status:           string(c.EffectiveStatus(now)),
		PaymentDate:      c.PaymentDate,
		PaymentMethod:    method,
		GatewayReference: c.GatewayReference,
		Metadata:         c.Metadata,
		CreatedAt:        c.CreatedAt,
	}
}

type ConfirmPaymentRequest struct {
	Method           string     `json:"method" validate:"required,oneof=pix card manual"`
	GatewayReference string     `json:"gateway_reference" validate:"required_unless=Method manual"`
	PaymentProof     string     `json:"payment_proof"`
	PaidAt           *time.Time `json:"paid_at"`
}

type ConfirmPaymentResponse struct {
	Charge       *ChargeResponse            `json:"charge"`
	Subscription *SubscriptionResponse      `json:"subscription"`
	Credit       *WalletTransactionResponse `json:"credit,omitempty"`
}

// RenewalSweepRequest optionally scopes a sweep to one organizer.
type RenewalSweepRequest struct {
	AccountId *uuid.UUID `json:"account_id"`
}

type SweepReport struct {
	Scanned  int               `json:"scanned"`
	Created  int               `json:"created"`
	Skipped  int               `json:"skipped"`
	Failed   int               `json:"failed"`
	Charges  []*ChargeResponse `json:"charges"`
	Errors   []string          `json:"errors,omitempty"`
	RanAt    time.Time         `json:"ran_at"`
	Duration time.Duration     `json:"duration_ns"`
}

type AdjustPriceRequest struct {
	NewMonthlyUnitPrice decimal.Decimal `json:"new_monthly_unit_price"`
}

type AdjustPriceResponse struct {
	ServiceInstanceId    uuid.UUID `json:"service_instance_id"`
	OldMonthlyUnitPrice  string    `json:"old_monthly_unit_price"`
	NewMonthlyUnitPrice  string    `json:"new_monthly_unit_price"`
	UpdatedSubscriptions int       `json:"updated_subscriptions"`
	UpdatedCharges       int       `json:"updated_charges"`
}
