package mapper

import (
	"subshare-be/internal/entity"
	"subshare-be/internal/model"
	"subshare-be/pkg/proration"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) ServiceInstanceToEntity(s *model.ServiceInstance) *entity.ServiceInstance {
	if s == nil {
		return nil
	}
	return &entity.ServiceInstance{
		Id:               s.Id,
		AccountId:        s.AccountId,
		Name:             s.Name,
		MonthlyUnitPrice: s.MonthlyUnitPrice,
		Currency:         s.Currency,
		ContactEmail:     s.ContactEmail,
		CreatedAt:        s.CreatedAt.UTC(),
		UpdatedAt:        s.UpdatedAt.UTC(),
	}
}

func (m *SubscriptionMapper) ServiceInstanceToModel(s *entity.ServiceInstance) *model.ServiceInstance {
	if s == nil {
		return nil
	}
	return &model.ServiceInstance{
		Id:               s.Id,
		AccountId:        s.AccountId,
		Name:             s.Name,
		MonthlyUnitPrice: s.MonthlyUnitPrice,
		Currency:         s.Currency,
		ContactEmail:     s.ContactEmail,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) SubscriptionToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	return &entity.Subscription{
		Id:                 s.Id,
		ParticipantId:      s.ParticipantId,
		ServiceInstanceId:  s.ServiceInstanceId,
		Frequency:          proration.Frequency(s.Frequency),
		MonthlyUnitPrice:   s.MonthlyUnitPrice,
		Status:             entity.SubscriptionStatus(s.Status),
		StartDate:          s.StartDate.UTC(),
		CancellationDate:   utcPtr(s.CancellationDate),
		CancellationReason: s.CancellationReason,
		CanceledBy:         s.CanceledBy,
		Prepaid:            s.Prepaid,
		CreatedAt:          s.CreatedAt.UTC(),
		UpdatedAt:          s.UpdatedAt.UTC(),
	}
}

func (m *SubscriptionMapper) SubscriptionToModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}
	return &model.Subscription{
		Id:                 s.Id,
		ParticipantId:      s.ParticipantId,
		ServiceInstanceId:  s.ServiceInstanceId,
		Frequency:          string(s.Frequency),
		MonthlyUnitPrice:   s.MonthlyUnitPrice,
		Status:             string(s.Status),
		StartDate:          s.StartDate,
		CancellationDate:   s.CancellationDate,
		CancellationReason: s.CancellationReason,
		CanceledBy:         s.CanceledBy,
		Prepaid:            s.Prepaid,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
