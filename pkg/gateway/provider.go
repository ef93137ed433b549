// Package gateway is the seam between billing and the payment processor:
// refunds of settled charges and payouts of wallet balances.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

type RefundRequest struct {
	// Reference is the processor's id of the settled payment.
	Reference      string
	Amount         decimal.Decimal
	Reason         string
	IdempotencyKey string
}

type RefundResult struct {
	Reference string
}

type PayoutRequest struct {
	Amount         decimal.Decimal
	PayoutKey      string
	Description    string
	IdempotencyKey string
}

type PayoutResult struct {
	Reference string
	Status    string
}

type Provider interface {
	Name() string
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
	Payout(ctx context.Context, req PayoutRequest) (*PayoutResult, error)
}
