package mapper

import (
	"encoding/json"
	"time"

	"subshare-be/internal/entity"
	"subshare-be/internal/model"
	"subshare-be/pkg/proration"

	"gorm.io/datatypes"
)

type BillingMapper struct{}

func NewBillingMapper() *BillingMapper {
	return &BillingMapper{}
}

func (m *BillingMapper) ChargeToEntity(c *model.Charge) *entity.Charge {
	if c == nil {
		return nil
	}
	var method *entity.PaymentMethod
	if c.PaymentMethod != nil {
		pm := entity.PaymentMethod(*c.PaymentMethod)
		method = &pm
	}
	var meta map[string]interface{}
	if len(c.Metadata) > 0 {
		// Unreadable metadata is dropped rather than failing the read.
		_ = json.Unmarshal(c.Metadata, &meta)
	}
	return &entity.Charge{
		Id:               c.Id,
		SubscriptionId:   c.SubscriptionId,
		Amount:           c.Amount,
		Frequency:        proration.Frequency(c.Frequency),
		PeriodStart:      c.PeriodStart.UTC(),
		PeriodEnd:        c.PeriodEnd.UTC(),
		Status:           entity.ChargeStatus(c.Status),
		PaymentDate:      utcPtr(c.PaymentDate),
		PaymentMethod:    method,
		PaymentProof:     c.PaymentProof,
		GatewayReference: c.GatewayReference,
		UnrecordedRefund: c.UnrecordedRefund,
		Metadata:         meta,
		CreatedAt:        c.CreatedAt.UTC(),
		UpdatedAt:        c.UpdatedAt.UTC(),
	}
}

func (m *BillingMapper) ChargeToModel(c *entity.Charge) *model.Charge {
	if c == nil {
		return nil
	}
	var method *string
	if c.PaymentMethod != nil {
		pm := string(*c.PaymentMethod)
		method = &pm
	}
	var meta datatypes.JSON
	if len(c.Metadata) > 0 {
		if raw, err := json.Marshal(c.Metadata); err == nil {
			meta = datatypes.JSON(raw)
		}
	}
	return &model.Charge{
		Id:               c.Id,
		SubscriptionId:   c.SubscriptionId,
		Amount:           c.Amount,
		Frequency:        string(c.Frequency),
		PeriodStart:      c.PeriodStart,
		PeriodEnd:        c.PeriodEnd,
		Status:           string(c.Status),
		PaymentDate:      c.PaymentDate,
		PaymentMethod:    method,
		PaymentProof:     c.PaymentProof,
		GatewayReference: c.GatewayReference,
		UnrecordedRefund: c.UnrecordedRefund,
		Metadata:         meta,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func (m *BillingMapper) WalletTransactionToEntity(t *model.WalletTransaction) *entity.WalletTransaction {
	if t == nil {
		return nil
	}
	return &entity.WalletTransaction{
		Id:                     t.Id,
		AccountId:              t.AccountId,
		Amount:                 t.Amount,
		Kind:                   entity.WalletTransactionKind(t.Kind),
		Status:                 entity.WalletTransactionStatus(t.Status),
		Description:            t.Description,
		GatewayReference:       t.GatewayReference,
		SourceChargeId:         t.SourceChargeId,
		ReferenceTransactionId: t.ReferenceTransactionId,
		AvailableAt:            t.AvailableAt.UTC(),
		CreatedAt:              t.CreatedAt.UTC(),
		UpdatedAt:              t.UpdatedAt.UTC(),
	}
}

func (m *BillingMapper) WalletTransactionToModel(t *entity.WalletTransaction) *model.WalletTransaction {
	if t == nil {
		return nil
	}
	return &model.WalletTransaction{
		Id:                     t.Id,
		AccountId:              t.AccountId,
		Amount:                 t.Amount,
		Kind:                   string(t.Kind),
		Status:                 string(t.Status),
		Description:            t.Description,
		GatewayReference:       t.GatewayReference,
		SourceChargeId:         t.SourceChargeId,
		ReferenceTransactionId: t.ReferenceTransactionId,
		AvailableAt:            t.AvailableAt,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
