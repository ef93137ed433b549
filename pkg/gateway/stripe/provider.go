package stripe

import (
	"context"
	"fmt"
	"strings"

	"subshare-be/pkg/gateway"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

type Provider struct {
	client   *stripe.Client
	currency string
}

func NewProvider(secretKey, currency string) *Provider {
	return &Provider{
		client:   stripe.NewClient(secretKey, nil),
		currency: currency,
	}
}

func (p *Provider) Name() string {
	return "stripe"
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Refund accepts either a PaymentIntent ("pi_") or a Charge reference.
func (p *Provider) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	params := &stripe.RefundCreateParams{
		Amount: stripe.Int64(toMinorUnits(req.Amount)),
	}
	if strings.HasPrefix(req.Reference, "pi_") {
		params.PaymentIntent = stripe.String(req.Reference)
	} else {
		params.Charge = stripe.String(req.Reference)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.AddMetadata("reason", req.Reason)

	r, err := p.client.V1Refunds.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund: %w", err)
	}
	return &gateway.RefundResult{Reference: r.ID}, nil
}

// Payout sends funds to the external account (bank account or card id)
// named by the payout key.
func (p *Provider) Payout(ctx context.Context, req gateway.PayoutRequest) (*gateway.PayoutResult, error) {
	params := &stripe.PayoutCreateParams{
		Amount:      stripe.Int64(toMinorUnits(req.Amount)),
		Currency:    stripe.String(p.currency),
		Destination: stripe.String(req.PayoutKey),
		Description: stripe.String(req.Description),
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	po, err := p.client.V1Payouts.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe payout: %w", err)
	}
	return &gateway.PayoutResult{Reference: po.ID, Status: string(po.Status)}, nil
}
