package dto

import (
	"time"

	"subshare-be/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BalanceResponse struct {
	AccountId uuid.UUID `json:"account_id"`
	Available string    `json:"available"`
	Pending   string    `json:"pending"`
	AsOf      time.Time `json:"as_of"`
}

func NewBalanceResponse(b *entity.WalletBalances) *BalanceResponse {
	return &BalanceResponse{
		AccountId: b.AccountId,
		Available: b.Available.StringFixed(2),
		Pending:   b.Pending.StringFixed(2),
		AsOf:      b.AsOf,
	}
}

type WithdrawalRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PayoutKey   string          `json:"payout_key" validate:"max=255"`
	Description string          `json:"description" validate:"max=255"`
}

type WithdrawalResponse struct {
	Transaction *WalletTransactionResponse `json:"transaction"`
	Balance     *BalanceResponse           `json:"balance"`
}

type WalletTransactionResponse struct {
	Id                     uuid.UUID  `json:"id"`
	AccountId              uuid.UUID  `json:"account_id"`
	Amount                 string     `json:"amount"`
	Kind                   string     `json:"kind"`
	Status                 string     `json:"status"`
	Description            string     `json:"description,omitempty"`
	GatewayReference       *string    `json:"gateway_reference,omitempty"`
	SourceChargeId         *uuid.UUID `json:"source_charge_id,omitempty"`
	ReferenceTransactionId *uuid.UUID `json:"reference_transaction_id,omitempty"`
	AvailableAt            time.Time  `json:"available_at"`
	CreatedAt              time.Time  `json:"created_at"`
}

func NewWalletTransactionResponse(t *entity.WalletTransaction) *WalletTransactionResponse {
	return &WalletTransactionResponse{
		Id:                     t.Id,
		AccountId:              t.AccountId,
		Amount:                 t.Amount.StringFixed(2),
		Kind:                   string(t.Kind),
		Status:                 string(t.Status),
		Description:            t.Description,
		GatewayReference:       t.GatewayReference,
		SourceChargeId:         t.SourceChargeId,
		ReferenceTransactionId: t.ReferenceTransactionId,
		AvailableAt:            t.AvailableAt,
		CreatedAt:              t.CreatedAt,
	}
}

type ListQuery struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// Normalize fills defaults and returns the offset.
func (q *ListQuery) Normalize() int {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	return (q.Page - 1) * q.Limit
}
