package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServiceInstance struct {
	Id               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountId        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name             string          `gorm:"type:varchar(255);not null"`
	MonthlyUnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency         string          `gorm:"type:varchar(8);not null;default:'BRL'"`
	ContactEmail     string          `gorm:"type:varchar(255)"`
	CreatedAt        time.Time       `gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
}

func (ServiceInstance) TableName() string {
	return "service_instances"
}

// Subscription rows are never deleted. The partial unique index keeps one
// open subscription per participant and service instance.
type Subscription struct {
	Id                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ParticipantId      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_open_pair,where:status <> 'canceled'"`
	ServiceInstanceId  uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_subscriptions_open_pair,where:status <> 'canceled'"`
	Frequency          string          `gorm:"type:varchar(20);not null"`
	MonthlyUnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status             string          `gorm:"type:varchar(20);not null;index"`
	StartDate          time.Time       `gorm:"not null"`
	CancellationDate   *time.Time
	CancellationReason *string   `gorm:"type:text"`
	CanceledBy         *string   `gorm:"type:varchar(255)"`
	Prepaid            bool      `gorm:"not null;default:false"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
