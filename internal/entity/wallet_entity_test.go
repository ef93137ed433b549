package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func row(amount string, kind WalletTransactionKind, status WalletTransactionStatus, availableAt time.Time) *WalletTransaction {
	return &WalletTransaction{
		Id:          uuid.New(),
		Amount:      decimal.RequireFromString(amount),
		Kind:        kind,
		Status:      status,
		AvailableAt: availableAt,
	}
}

func TestComputeBalances(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	release := now.Add(HoldingWindowCard)
	rows := []*WalletTransaction{
		row("100.00", WalletKindPaymentCredit, WalletStatusCompleted, now),
		row("-5.00", WalletKindFeeDebit, WalletStatusCompleted, now),
		row("50.00", WalletKindPaymentCredit, WalletStatusPending, release),
		row("-2.50", WalletKindFeeDebit, WalletStatusPending, release),
		row("-30.00", WalletKindWithdrawal, WalletStatusPending, now),
		row("-40.00", WalletKindWithdrawal, WalletStatusFailed, now),
		row("-10.00", WalletKindWithdrawal, WalletStatusCanceled, now),
	}

	b, next := ComputeBalances(uuid.New(), rows, now)
	assert.True(t, b.Available.Equal(decimal.RequireFromString("65.00")), "available %s", b.Available)
	assert.True(t, b.Pending.Equal(decimal.RequireFromString("47.50")), "pending %s", b.Pending)
	assert.True(t, release.Equal(next))

	// Available plus pending always equals the sum of counted rows.
	total := decimal.Zero
	for _, r := range rows {
		if r.Counted() {
			total = total.Add(r.Amount)
		}
	}
	assert.True(t, total.Equal(b.Available.Add(b.Pending)))

	b, next = ComputeBalances(uuid.New(), rows, release)
	assert.True(t, b.Available.Equal(decimal.RequireFromString("112.50")))
	assert.True(t, b.Pending.IsZero())
	assert.True(t, next.IsZero())
}

func TestComputeBalances_Empty(t *testing.T) {
	b, next := ComputeBalances(uuid.New(), nil, time.Now())
	assert.Equal(t, "0.00", b.Available.StringFixed(2))
	assert.Equal(t, "0.00", b.Pending.StringFixed(2))
	assert.True(t, next.IsZero())
}

func TestChargeEffectiveStatus(t *testing.T) {
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	pending := &Charge{Status: ChargeStatusPending, PeriodEnd: end}
	paid := &Charge{Status: ChargeStatusPaid, PeriodEnd: end}

	assert.Equal(t, ChargeStatusPending, pending.EffectiveStatus(end.Add(-time.Second)))
	assert.Equal(t, ChargeStatusOverdue, pending.EffectiveStatus(end))
	assert.Equal(t, ChargeStatusPaid, paid.EffectiveStatus(end.Add(time.Hour)))
}

func TestCancellationScheduled(t *testing.T) {
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, (&Subscription{Status: SubscriptionStatusActive}).CancellationScheduled())
	assert.True(t, (&Subscription{Status: SubscriptionStatusActive, CancellationDate: &at}).CancellationScheduled())
	assert.False(t, (&Subscription{Status: SubscriptionStatusCanceled, CancellationDate: &at}).CancellationScheduled())
}
