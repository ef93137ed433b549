package dto

import (
	"time"

	"subshare-be/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateServiceInstanceRequest accepts either a per-slot price or a plan
// total split across slots.
type CreateServiceInstanceRequest struct {
	Name             string           `json:"name" validate:"required,max=255"`
	MonthlyUnitPrice *decimal.Decimal `json:"monthly_unit_price"`
	PlanTotal        *decimal.Decimal `json:"plan_total"`
	Slots            int              `json:"slots" validate:"omitempty,min=1,max=100"`
	Currency         string           `json:"currency" validate:"omitempty,len=3"`
	ContactEmail     string           `json:"contact_email" validate:"omitempty,email"`
}

type ServiceInstanceResponse struct {
	Id               uuid.UUID `json:"id"`
	AccountId        uuid.UUID `json:"account_id"`
	Name             string    `json:"name"`
	MonthlyUnitPrice string    `json:"monthly_unit_price"`
	Currency         string    `json:"currency"`
	ContactEmail     string    `json:"contact_email,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func NewServiceInstanceResponse(s *entity.ServiceInstance) *ServiceInstanceResponse {
	return &ServiceInstanceResponse{
		Id:               s.Id,
		AccountId:        s.AccountId,
		Name:             s.Name,
		MonthlyUnitPrice: s.MonthlyUnitPrice.StringFixed(2),
		Currency:         s.Currency,
		ContactEmail:     s.ContactEmail,
		CreatedAt:        s.CreatedAt,
	}
}
