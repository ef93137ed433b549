package fake

import (
	"context"
	"fmt"
	"sync"

	"subshare-be/pkg/gateway"
)

// Provider is an in-memory gateway. Set RefundErr or PayoutErr to make the
// next calls fail.
type Provider struct {
	mu        sync.Mutex
	RefundErr error
	PayoutErr error
	Refunds   []gateway.RefundRequest
	Payouts   []gateway.PayoutRequest
}

func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "fake"
}

func (p *Provider) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Refunds = append(p.Refunds, req)
	if p.RefundErr != nil {
		return nil, p.RefundErr
	}
	return &gateway.RefundResult{Reference: fmt.Sprintf("rf_%d", len(p.Refunds))}, nil
}

func (p *Provider) Payout(ctx context.Context, req gateway.PayoutRequest) (*gateway.PayoutResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Payouts = append(p.Payouts, req)
	if p.PayoutErr != nil {
		return nil, p.PayoutErr
	}
	return &gateway.PayoutResult{Reference: fmt.Sprintf("po_%d", len(p.Payouts)), Status: "completed"}, nil
}

func (p *Provider) SetRefundErr(err error) {
	p.mu.Lock()
	p.RefundErr = err
	p.mu.Unlock()
}

func (p *Provider) SetPayoutErr(err error) {
	p.mu.Lock()
	p.PayoutErr = err
	p.mu.Unlock()
}

func (p *Provider) RefundCalls() []gateway.RefundRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gateway.RefundRequest(nil), p.Refunds...)
}

func (p *Provider) PayoutCalls() []gateway.PayoutRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gateway.PayoutRequest(nil), p.Payouts...)
}
