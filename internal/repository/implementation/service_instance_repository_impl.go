package implementation

import (
	"context"
	"errors"

	"subshare-be/internal/entity"
	"subshare-be/internal/mapper"
	"subshare-be/internal/model"
	"subshare-be/internal/repository/contract"
	"subshare-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ServiceInstanceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewServiceInstanceRepository(db *gorm.DB) contract.ServiceInstanceRepository {
	return &ServiceInstanceRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *ServiceInstanceRepositoryImpl) Create(ctx context.Context, instance *entity.ServiceInstance) error {
	m := r.mapper.ServiceInstanceToModel(instance)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*instance = *r.mapper.ServiceInstanceToEntity(m)
	return nil
}

func (r *ServiceInstanceRepositoryImpl) Update(ctx context.Context, instance *entity.ServiceInstance) error {
	m := r.mapper.ServiceInstanceToModel(instance)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*instance = *r.mapper.ServiceInstanceToEntity(m)
	return nil
}

func (r *ServiceInstanceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ServiceInstance, error) {
	var m model.ServiceInstance
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.ServiceInstance{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ServiceInstanceToEntity(&m), nil
}

func (r *ServiceInstanceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ServiceInstance, error) {
	var models []*model.ServiceInstance
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.ServiceInstance{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ServiceInstance, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ServiceInstanceToEntity(m)
	}
	return entities, nil
}
