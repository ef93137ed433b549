package implementation

import (
	"context"
	"errors"

	"subshare-be/internal/entity"
	"subshare-be/internal/mapper"
	"subshare-be/internal/model"
	"subshare-be/internal/repository/contract"
	"subshare-be/internal/repository/scope"
	"subshare-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChargeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BillingMapper
}

func NewChargeRepository(db *gorm.DB) contract.ChargeRepository {
	return &ChargeRepositoryImpl{
		db:     db,
		mapper: mapper.NewBillingMapper(),
	}
}

func (r *ChargeRepositoryImpl) Create(ctx context.Context, charge *entity.Charge) error {
	m := r.mapper.ChargeToModel(charge)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*charge = *r.mapper.ChargeToEntity(m)
	return nil
}

func (r *ChargeRepositoryImpl) Update(ctx context.Context, charge *entity.Charge) error {
	m := r.mapper.ChargeToModel(charge)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*charge = *r.mapper.ChargeToEntity(m)
	return nil
}

func (r *ChargeRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Charge, error) {
	var m model.Charge
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.Charge{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChargeToEntity(&m), nil
}

func (r *ChargeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Charge, error) {
	var models []*model.Charge
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.Charge{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Charge, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChargeToEntity(m)
	}
	return entities, nil
}

func (r *ChargeRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.Charge{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

type WalletTransactionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BillingMapper
}

func NewWalletTransactionRepository(db *gorm.DB) contract.WalletTransactionRepository {
	return &WalletTransactionRepositoryImpl{
		db:     db,
		mapper: mapper.NewBillingMapper(),
	}
}

func (r *WalletTransactionRepositoryImpl) Append(ctx context.Context, txn *entity.WalletTransaction) error {
	if txn.Id == uuid.Nil {
		txn.Id = uuid.New()
	}
	m := r.mapper.WalletTransactionToModel(txn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*txn = *r.mapper.WalletTransactionToEntity(m)
	return nil
}

func (r *WalletTransactionRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.WalletTransactionStatus, gatewayReference *string) error {
	updates := map[string]interface{}{"status": string(status)}
	if gatewayReference != nil {
		updates["gateway_reference"] = *gatewayReference
	}
	res := r.db.WithContext(ctx).Model(&model.WalletTransaction{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *WalletTransactionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WalletTransaction, error) {
	var m model.WalletTransaction
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.WalletTransaction{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.WalletTransactionToEntity(&m), nil
}

func (r *WalletTransactionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.WalletTransaction, error) {
	var models []*model.WalletTransaction
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.WalletTransaction{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.WalletTransaction, len(models))
	for i, m := range models {
		entities[i] = r.mapper.WalletTransactionToEntity(m)
	}
	return entities, nil
}

func (r *WalletTransactionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.WalletTransaction{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *WalletTransactionRepositoryImpl) LockAccount(ctx context.Context, accountID uuid.UUID) error {
	if !scope.SupportsRowLocks(r.db) {
		return nil
	}
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", accountID.String()).Error
}
