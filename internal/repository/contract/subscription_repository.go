package contract

import (
	"context"

	"subshare-be/internal/entity"
	"subshare-be/internal/repository/specification"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *entity.Subscription) error
	Update(ctx context.Context, subscription *entity.Subscription) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
