package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WalletTransactionKind string

const (
	WalletKindPaymentCredit   WalletTransactionKind = "payment_credit"
	WalletKindFeeDebit        WalletTransactionKind = "fee_debit"
	WalletKindWithdrawal      WalletTransactionKind = "withdrawal"
	WalletKindRefundReversal  WalletTransactionKind = "refund_reversal"
	WalletKindChargebackDebit WalletTransactionKind = "chargeback_debit"
	WalletKindFeeReversal     WalletTransactionKind = "fee_reversal"
)

type WalletTransactionStatus string

const (
	WalletStatusPending   WalletTransactionStatus = "pending"
	WalletStatusCompleted WalletTransactionStatus = "completed"
	WalletStatusFailed    WalletTransactionStatus = "failed"
	WalletStatusCanceled  WalletTransactionStatus = "canceled"
)

// HoldingWindowCard is how long card credits stay pending before they can be
// withdrawn. PIX credits clear immediately.
const HoldingWindowCard = 14 * 24 * time.Hour

// WalletTransaction is one append-only ledger row. Only Status and
// GatewayReference change after insert.
type WalletTransaction struct {
	Id                     uuid.UUID
	AccountId              uuid.UUID
	Amount                 decimal.Decimal
	Kind                   WalletTransactionKind
	Status                 WalletTransactionStatus
	Description            string
	GatewayReference       *string
	SourceChargeId         *uuid.UUID
	ReferenceTransactionId *uuid.UUID
	AvailableAt            time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Held reports whether the row counts toward the pending balance at now.
func (t *WalletTransaction) Held(now time.Time) bool {
	return t.Status == WalletStatusPending &&
		t.Kind != WalletKindWithdrawal &&
		t.AvailableAt.After(now)
}

// Counted reports whether the row contributes to any balance.
func (t *WalletTransaction) Counted() bool {
	return t.Status == WalletStatusCompleted || t.Status == WalletStatusPending
}

type WalletBalances struct {
	AccountId uuid.UUID
	Available decimal.Decimal
	Pending   decimal.Decimal
	AsOf      time.Time
}

// ComputeBalances folds ledger rows into balances at now. The returned time
// is when the earliest held row clears, or zero when nothing is held.
func ComputeBalances(accountId uuid.UUID, rows []*WalletTransaction, now time.Time) (WalletBalances, time.Time) {
	b := WalletBalances{
		AccountId: accountId,
		Available: decimal.Zero,
		Pending:   decimal.Zero,
		AsOf:      now,
	}
	var nextRelease time.Time
	for _, t := range rows {
		if !t.Counted() {
			continue
		}
		if t.Held(now) {
			b.Pending = b.Pending.Add(t.Amount)
			if nextRelease.IsZero() || t.AvailableAt.Before(nextRelease) {
				nextRelease = t.AvailableAt
			}
			continue
		}
		b.Available = b.Available.Add(t.Amount)
	}
	b.Available = b.Available.Round(2)
	b.Pending = b.Pending.Round(2)
	return b, nextRelease
}
