package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Charge rows of one subscription tile time: live rows (not canceled) never
// share a period start.
type Charge struct {
	Id               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SubscriptionId   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_charges_live_period,where:status <> 'canceled'"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Frequency        string          `gorm:"type:varchar(20);not null"`
	PeriodStart      time.Time       `gorm:"not null;uniqueIndex:idx_charges_live_period,where:status <> 'canceled'"`
	PeriodEnd        time.Time       `gorm:"not null"`
	Status           string          `gorm:"type:varchar(20);not null;index"`
	PaymentDate      *time.Time
	PaymentMethod    *string        `gorm:"type:varchar(20)"`
	PaymentProof     *string        `gorm:"type:text"`
	GatewayReference *string        `gorm:"type:varchar(255)"`
	UnrecordedRefund *string        `gorm:"type:varchar(255);index"`
	Metadata         datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
}

func (Charge) TableName() string {
	return "charges"
}
