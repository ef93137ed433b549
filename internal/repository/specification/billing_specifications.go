package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByAccountID struct {
	AccountID uuid.UUID
}

func (s ByAccountID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("account_id = ?", s.AccountID)
}

type ByServiceInstanceID struct {
	ServiceInstanceID uuid.UUID
}

func (s ByServiceInstanceID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("service_instance_id = ?", s.ServiceInstanceID)
}

type ByParticipantID struct {
	ParticipantID uuid.UUID
}

func (s ByParticipantID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("participant_id = ?", s.ParticipantID)
}

// SubscriptionOwnedBy limits subscriptions to service instances of one
// organizer account.
type SubscriptionOwnedBy struct {
	AccountID uuid.UUID
}

func (s SubscriptionOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("service_instance_id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).
			Table("service_instances").
			Select("id").
			Where("account_id = ?", s.AccountID))
}

// CancellationPending matches subscriptions carrying a cancellation date that
// has not been finalized yet.
type CancellationPending struct{}

func (s CancellationPending) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("cancellation_date IS NOT NULL AND status <> ?", "canceled")
}

type BySubscriptionID struct {
	SubscriptionID uuid.UUID
}

func (s BySubscriptionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subscription_id = ?", s.SubscriptionID)
}

type BySubscriptionIDs struct {
	SubscriptionIDs []uuid.UUID
}

func (s BySubscriptionIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subscription_id IN ?", s.SubscriptionIDs)
}

type BySourceChargeID struct {
	ChargeID uuid.UUID
}

func (s BySourceChargeID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_charge_id = ?", s.ChargeID)
}

type ByKind struct {
	Kind string
}

func (s ByKind) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("kind = ?", s.Kind)
}

// RefundUnrecorded matches paid charges refunded at the gateway whose
// reversal is still missing from the ledger.
type RefundUnrecorded struct{}

func (s RefundUnrecorded) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("unrecorded_refund IS NOT NULL AND status = ?", "paid")
}
