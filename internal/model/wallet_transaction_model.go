package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WalletTransaction struct {
	Id                     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountId              uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount                 decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Kind                   string          `gorm:"type:varchar(32);not null"`
	Status                 string          `gorm:"type:varchar(20);not null;index"`
	Description            string          `gorm:"type:text"`
	GatewayReference       *string         `gorm:"type:varchar(255)"`
	SourceChargeId         *uuid.UUID      `gorm:"type:uuid;index"`
	ReferenceTransactionId *uuid.UUID      `gorm:"type:uuid"`
	AvailableAt            time.Time       `gorm:"not null"`
	CreatedAt              time.Time       `gorm:"autoCreateTime"`
	UpdatedAt              time.Time       `gorm:"autoUpdateTime"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
