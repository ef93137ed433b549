package service

import (
	"context"

	"subshare-be/internal/entity"
	"subshare-be/internal/pkg/apperror"
	"subshare-be/internal/repository/specification"
	"subshare-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// findSubscription loads a subscription of one organizer. accountId ==
// uuid.Nil skips the ownership filter (scheduler callers).
func findSubscription(ctx context.Context, uow unitofwork.UnitOfWork, accountId, subscriptionId uuid.UUID, lock bool) (*entity.Subscription, error) {
	specs := []specification.Specification{specification.ByID{ID: subscriptionId}}
	if accountId != uuid.Nil {
		specs = append(specs, specification.SubscriptionOwnedBy{AccountID: accountId})
	}
	if lock {
		specs = append(specs, specification.Locked{})
	}
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.NewErrorf("subscription %s not found", subscriptionId).
			WithHint("subscription not found").
			Mark(apperror.ErrNotFound)
	}
	return sub, nil
}

func findServiceInstance(ctx context.Context, uow unitofwork.UnitOfWork, accountId, instanceId uuid.UUID, lock bool) (*entity.ServiceInstance, error) {
	specs := []specification.Specification{specification.ByID{ID: instanceId}}
	if accountId != uuid.Nil {
		specs = append(specs, specification.ByAccountID{AccountID: accountId})
	}
	if lock {
		specs = append(specs, specification.Locked{})
	}
	instance, err := uow.ServiceInstanceRepository().FindOne(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, apperror.NewErrorf("service instance %s not found", instanceId).
			WithHint("service instance not found").
			Mark(apperror.ErrNotFound)
	}
	return instance, nil
}

func invalidInput(hint string) error {
	return apperror.NewError(hint).WithHint(hint).Mark(apperror.ErrInvalidInput)
}
