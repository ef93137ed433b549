package dto

import (
	"time"

	"subshare-be/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateSubscriptionRequest takes the monthly price from the service
// instance when MonthlyUnitPrice is omitted.
type CreateSubscriptionRequest struct {
	ParticipantId     uuid.UUID        `json:"participant_id" validate:"required"`
	ServiceInstanceId uuid.UUID        `json:"service_instance_id" validate:"required"`
	Frequency         string           `json:"frequency" validate:"required,oneof=monthly quarterly semiannual annual"`
	StartDate         time.Time        `json:"start_date" validate:"required"`
	MonthlyUnitPrice  *decimal.Decimal `json:"monthly_unit_price"`
	Prepaid           bool             `json:"prepaid"`
}

type CancelSubscriptionRequest struct {
	Mode       string `json:"mode" validate:"omitempty,oneof=auto now period_end"`
	Reason     string `json:"reason" validate:"max=500"`
	CanceledBy string `json:"canceled_by" validate:"max=255"`
}

type SubscriptionResponse struct {
	Id                 uuid.UUID  `json:"id"`
	ParticipantId      uuid.UUID  `json:"participant_id"`
	ServiceInstanceId  uuid.UUID  `json:"service_instance_id"`
	Frequency          string     `json:"frequency"`
	MonthlyUnitPrice   string     `json:"monthly_unit_price"`
	Status             string     `json:"status"`
	StartDate          time.Time  `json:"start_date"`
	CancellationDate   *time.Time `json:"cancellation_date,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CanceledBy         *string    `json:"canceled_by,omitempty"`
	Prepaid            bool       `json:"prepaid"`
	CreatedAt          time.Time  `json:"created_at"`
}

func NewSubscriptionResponse(s *entity.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		Id:                 s.Id,
		ParticipantId:      s.ParticipantId,
		ServiceInstanceId:  s.ServiceInstanceId,
		Frequency:          string(s.Frequency),
		MonthlyUnitPrice:   s.MonthlyUnitPrice.StringFixed(2),
		Status:             string(s.Status),
		StartDate:          s.StartDate,
		CancellationDate:   s.CancellationDate,
		CancellationReason: s.CancellationReason,
		CanceledBy:         s.CanceledBy,
		Prepaid:            s.Prepaid,
		CreatedAt:          s.CreatedAt,
	}
}

type CreateSubscriptionResponse struct {
	Subscription *SubscriptionResponse `json:"subscription"`
	FirstCharge  *ChargeResponse       `json:"first_charge"`
}

// SideEffect reports an external call made after the main transaction
// committed. A failed side effect never rolls back the operation.
type SideEffect struct {
	Attempted bool   `json:"attempted"`
	Succeeded bool   `json:"succeeded"`
	Reference string `json:"reference,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CancelSubscriptionResponse.Outcome is "immediate" or "scheduled".
type CancelSubscriptionResponse struct {
	Subscription    *SubscriptionResponse `json:"subscription"`
	Outcome         string                `json:"outcome"`
	AccessUntil     time.Time             `json:"access_until"`
	CanceledCharges int                   `json:"canceled_charges"`
	Refund          *SideEffect           `json:"refund,omitempty"`
	Warnings        []string              `json:"warnings,omitempty"`
}

type FinalizeCancellationsResponse struct {
	Finalized int      `json:"finalized"`
	Errors    []string `json:"errors,omitempty"`
}

type ReconcileRefundsResponse struct {
	Reconciled int      `json:"reconciled"`
	Errors     []string `json:"errors,omitempty"`
}

type SubscriptionListQuery struct {
	Status            string `query:"status" validate:"omitempty,oneof=pending active suspended canceled"`
	ServiceInstanceId string `query:"service_instance_id" validate:"omitempty,uuid"`
	ParticipantId     string `query:"participant_id" validate:"omitempty,uuid"`
	Page              int    `query:"page" validate:"omitempty,min=1"`
	Limit             int    `query:"limit" validate:"omitempty,min=1,max=100"`
}
