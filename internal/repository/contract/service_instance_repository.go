package contract

import (
	"context"

	"subshare-be/internal/entity"
	"subshare-be/internal/repository/specification"
)

type ServiceInstanceRepository interface {
	Create(ctx context.Context, instance *entity.ServiceInstance) error
	Update(ctx context.Context, instance *entity.ServiceInstance) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ServiceInstance, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ServiceInstance, error)
}
