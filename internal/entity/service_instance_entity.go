package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceInstance is one shared subscription offered by an organizer, e.g.
// a family streaming plan split between participants.
type ServiceInstance struct {
	Id               uuid.UUID
	AccountId        uuid.UUID
	Name             string
	MonthlyUnitPrice decimal.Decimal
	Currency         string
	ContactEmail     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
