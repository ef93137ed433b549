package midtrans

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"subshare-be/pkg/gateway"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/iris"
	"github.com/shopspring/decimal"
)

// Provider refunds through the Core API and pays out through Iris. Midtrans
// settles in IDR, which has no minor unit, so fractional amounts are rejected
// rather than rounded.
type Provider struct {
	core coreapi.Client
	iris iris.Client
}

func NewProvider(serverKey, irisKey string, production bool) *Provider {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	p := &Provider{}
	p.core.New(serverKey, env)
	p.iris.New(irisKey, env)
	return p
}

func (p *Provider) Name() string {
	return "midtrans"
}

func (p *Provider) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	amount, err := wholeAmount(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("midtrans refund: %w", err)
	}

	res, midErr := p.core.RefundTransaction(req.Reference, &coreapi.RefundReq{
		RefundKey: req.IdempotencyKey,
		Amount:    amount,
		Reason:    req.Reason,
	})
	if midErr != nil {
		return nil, fmt.Errorf("midtrans refund: %s", midErr.GetMessage())
	}
	if res.StatusCode != "200" {
		return nil, fmt.Errorf("midtrans refund: status %s: %s", res.StatusCode, res.StatusMessage)
	}

	return &gateway.RefundResult{Reference: req.IdempotencyKey}, nil
}

// Payout expects the payout key as "bank:account[:holder name]".
func (p *Provider) Payout(ctx context.Context, req gateway.PayoutRequest) (*gateway.PayoutResult, error) {
	bank, account, name, err := parsePayoutKey(req.PayoutKey)
	if err != nil {
		return nil, err
	}
	amount, err := wholeAmount(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("midtrans payout: %w", err)
	}

	res, midErr := p.iris.CreatePayout(iris.CreatePayoutReq{
		Payouts: []iris.CreatePayoutDetailReq{
			{
				BeneficiaryName:    name,
				BeneficiaryAccount: account,
				BeneficiaryBank:    bank,
				Amount:             strconv.FormatInt(amount, 10),
				Notes:              req.Description,
			},
		},
	})
	if midErr != nil {
		return nil, fmt.Errorf("midtrans payout: %s", midErr.GetMessage())
	}
	if len(res.Payouts) == 0 {
		return nil, fmt.Errorf("midtrans payout: empty response")
	}

	return &gateway.PayoutResult{
		Reference: res.Payouts[0].ReferenceNo,
		Status:    res.Payouts[0].Status,
	}, nil
}

func parsePayoutKey(key string) (bank, account, name string, err error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("midtrans payout: payout key must be bank:account")
	}
	bank, account, name = parts[0], parts[1], parts[1]
	if len(parts) == 3 && parts[2] != "" {
		name = parts[2]
	}
	return bank, account, name, nil
}

func wholeAmount(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("amount %s must be positive", amount.String())
	}
	if !amount.Equal(amount.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has a fractional part, IDR has no minor unit", amount.StringFixed(2))
	}
	return amount.IntPart(), nil
}
