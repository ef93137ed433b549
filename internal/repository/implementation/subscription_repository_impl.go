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

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, subscription *entity.Subscription) error {
	m := r.mapper.SubscriptionToModel(subscription)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*subscription = *r.mapper.SubscriptionToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, subscription *entity.Subscription) error {
	m := r.mapper.SubscriptionToModel(subscription)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*subscription = *r.mapper.SubscriptionToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	var m model.Subscription
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.Subscription{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SubscriptionToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	var models []*model.Subscription
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.Subscription{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Subscription, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SubscriptionToEntity(m)
	}
	return entities, nil
}

func (r *SubscriptionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.Subscription{}), specs...)
	err := query.Count(&count).Error
	return count, err
}
